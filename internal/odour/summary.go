package odour

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summarize computes the mean odour intensity and hedonic tone of each
// populated group, rounded to two decimals. Groups without members never
// appear in the result.
func Summarize(ds *Dataset, a Assignment) (Summary, error) {
	if ds.Len() != len(a) {
		return nil, fmt.Errorf("summarize: %d records but %d assignments", ds.Len(), len(a))
	}

	type members struct {
		intensity []float64
		tone      []float64
	}
	groups := make(map[int]*members)
	for i, g := range a {
		if g < 0 {
			return nil, fmt.Errorf("summarize: record %d has negative group %d", i, g)
		}
		m, ok := groups[g]
		if !ok {
			m = &members{}
			groups[g] = m
		}
		m.intensity = append(m.intensity, ds.Records[i].OdourIntensity)
		m.tone = append(m.tone, ds.Records[i].HedonicTone)
	}

	ids := make([]int, 0, len(groups))
	for g := range groups {
		ids = append(ids, g)
	}
	sort.Ints(ids)

	out := make(Summary, 0, len(ids))
	for _, g := range ids {
		m := groups[g]
		out = append(out, GroupSummary{
			Group:          g,
			Count:          len(m.intensity),
			OdourIntensity: round2(stat.Mean(m.intensity, nil)),
			HedonicTone:    round2(stat.Mean(m.tone, nil)),
		})
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
