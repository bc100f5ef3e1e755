package odour

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/odour.report/internal/monitoring"
)

// DefaultHeaderSkip is the number of title rows above the header row.
const DefaultHeaderSkip = 1

// Params configures one pipeline run.
type Params struct {
	K          int
	Seed       uint64
	HeaderSkip int
	NInit      int
	MaxIter    int
}

// DefaultParams returns the reference configuration.
func DefaultParams() Params {
	return Params{
		K:          DefaultK,
		Seed:       DefaultSeed,
		HeaderSkip: DefaultHeaderSkip,
		NInit:      DefaultNInit,
		MaxIter:    DefaultMaxIter,
	}
}

// Result is everything a run produces. It is never shared between runs.
type Result struct {
	RunID      string     `json:"run_id"`
	K          int        `json:"k"`
	Seed       uint64     `json:"seed"`
	Dataset    *Dataset   `json:"dataset"`
	Assignment Assignment `json:"assignment"`
	Summary    Summary    `json:"summary"`
	Inertia    float64    `json:"inertia"`
	Iterations int        `json:"iterations"`
}

// Run validates t, standardizes the features, clusters them into p.K groups
// and summarizes the groups.
func Run(t Table, p Params) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()

	ds, err := LoadAndValidate(t, p.HeaderSkip)
	if err != nil {
		monitoring.Logf("[odour] run=%s validate failed: %v", runID, err)
		return nil, fmt.Errorf("validate: %w", err)
	}
	monitoring.Logf("[odour] run=%s rows=%d valid=%d dropped_missing=%d dropped_range=%d",
		runID, ds.InputRows, ds.Len(), ds.Dropped.Missing, ds.Dropped.OutOfRange)

	if p.K > PaletteSize {
		return nil, &PaletteExhaustedError{Group: p.K - 1}
	}

	x, err := ScaleFeatures(ds)
	if err != nil {
		var dataErr *InsufficientDataError
		if errors.As(err, &dataErr) {
			dataErr.K = p.K
		}
		return nil, fmt.Errorf("scale: %w", err)
	}

	fit, err := KMeans{K: p.K, Seed: p.Seed, NInit: p.NInit, MaxIter: p.MaxIter}.Fit(x)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}

	summary, err := Summarize(ds, fit.Assignment)
	if err != nil {
		return nil, err
	}

	monitoring.Logf("[odour] run=%s k=%d groups=%d inertia=%.4f iterations=%d took=%s",
		runID, p.K, len(summary), fit.Inertia, fit.Iterations, time.Since(start))

	return &Result{
		RunID:      runID,
		K:          p.K,
		Seed:       p.Seed,
		Dataset:    ds,
		Assignment: fit.Assignment,
		Summary:    summary,
		Inertia:    fit.Inertia,
		Iterations: fit.Iterations,
	}, nil
}

// LonLat is a single map point.
type LonLat struct {
	Lon float64
	Lat float64
}

// Series is one group prepared for a chart surface.
type Series struct {
	Group  int
	Label  string
	Color  Color
	Points []LonLat
}

// Series groups the validated records for scatter rendering, one entry per
// populated group in ascending group id order.
func (r *Result) Series() ([]Series, error) {
	byGroup := make(map[int][]LonLat, len(r.Summary))
	for i, g := range r.Assignment {
		rec := r.Dataset.Records[i]
		byGroup[g] = append(byGroup[g], LonLat{Lon: rec.Longitude, Lat: rec.Latitude})
	}

	out := make([]Series, 0, len(r.Summary))
	for _, gs := range r.Summary {
		c, err := ColorFor(gs.Group)
		if err != nil {
			return nil, err
		}
		out = append(out, Series{
			Group:  gs.Group,
			Label:  GroupLabel(gs.Group),
			Color:  c,
			Points: byGroup[gs.Group],
		})
	}
	return out, nil
}

// GroupLabel is the legend label of a group.
func GroupLabel(group int) string {
	return fmt.Sprintf("Küme %d", group)
}
