package budget

import "sort"

// ScopeCost aggregates cost figures for one grouping key.
type ScopeCost struct {
	Key           string
	EstimatedCost float64
	ActualCost    float64
	Iterations    int
	RecordCount   int
}

// Summary is an aggregation view over the tracker's records, grouped by
// phase and by engine. It is derived on demand and never persisted
// independently of the records it summarizes.
type Summary struct {
	TotalEstimated float64
	TotalActual    float64
	ByPhase        []ScopeCost // sorted by phase ID
	ByEngine       []ScopeCost // sorted by engine name
}

// Summary computes the aggregation view over all records observed so far.
func (t *Tracker) Summary() Summary {
	records := t.Records()

	byPhase := make(map[string]*ScopeCost)
	byEngine := make(map[string]*ScopeCost)
	var s Summary

	accumulate := func(m map[string]*ScopeCost, key string, rec Record) {
		sc, ok := m[key]
		if !ok {
			sc = &ScopeCost{Key: key}
			m[key] = sc
		}
		sc.EstimatedCost += rec.EstimatedCost
		sc.ActualCost += rec.ActualCost
		sc.Iterations += rec.Iterations
		sc.RecordCount++
	}

	for _, rec := range records {
		s.TotalEstimated += rec.EstimatedCost
		s.TotalActual += rec.ActualCost
		accumulate(byPhase, rec.PhaseID, rec)
		accumulate(byEngine, rec.Engine, rec)
	}

	s.ByPhase = sortedScopes(byPhase)
	s.ByEngine = sortedScopes(byEngine)
	return s
}

func sortedScopes(m map[string]*ScopeCost) []ScopeCost {
	out := make([]ScopeCost, 0, len(m))
	for _, sc := range m {
		out = append(out, *sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
