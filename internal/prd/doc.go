// Package prd defines the requirements-document model that drives a gantry
// run: phases, tasks, success criteria, affected files, and budgets.
//
// A requirements document is authored as YAML or JSON and loaded once per
// run. Tasks are immutable after loading; every downstream component
// (dependency graph, overlap grouper, scheduler, pipeline) consumes the
// loaded tasks by value and never mutates them.
//
// # Document Shape
//
//	title: Checkout revamp
//	phases:
//	  - id: phase-1
//	    name: Data model
//	    branch: main
//	    budget_cap: 40.0
//	    tasks:
//	      - id: task-1-schema
//	        title: Add order schema
//	        description: ...
//	        success_criteria: ["migration applies cleanly"]
//	        files: ["db/schema.sql"]
//	        complexity: 3
//	        cost_ceiling: 5.0
//	        estimated_iterations: 2
//	        depends_on: []
//
// Alternative field spellings produced by agents ("depends" for
// "depends_on", "files_affected" for "files") are accepted on load.
package prd
