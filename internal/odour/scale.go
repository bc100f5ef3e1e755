package odour

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler holds per-column statistics for standardizing features.
type Scaler struct {
	Mean  [NumFeatures]float64
	Scale [NumFeatures]float64
}

// FitScaler computes the population mean and standard deviation of each
// feature column. A constant column gets a scale of 1 so it standardizes
// to zeros.
func FitScaler(ds *Dataset) Scaler {
	var s Scaler
	n := ds.Len()
	col := make([]float64, n)
	for f := 0; f < NumFeatures; f++ {
		for i, r := range ds.Records {
			col[i] = r.Features()[f]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[f] = mean
		s.Scale[f] = safeScale(std, mean)
	}
	return s
}

// safeScale substitutes 1 for a standard deviation that is zero or lost in
// floating point noise relative to the mean.
func safeScale(std, mean float64) float64 {
	if math.IsNaN(std) || std <= 1e-12*math.Max(1, math.Abs(mean)) {
		return 1
	}
	return std
}

// Transform standardizes the dataset into an n×NumFeatures matrix.
func (s Scaler) Transform(ds *Dataset) *mat.Dense {
	n := ds.Len()
	data := make([]float64, 0, n*NumFeatures)
	for _, r := range ds.Records {
		for f, v := range r.Features() {
			data = append(data, (v-s.Mean[f])/s.Scale[f])
		}
	}
	return mat.NewDense(n, NumFeatures, data)
}

// ScaleFeatures standardizes every feature column of ds, latitude and
// longitude included, so geography weighs as much as odour in the
// distance metric.
func ScaleFeatures(ds *Dataset) (*mat.Dense, error) {
	if ds.Len() == 0 {
		return nil, &InsufficientDataError{Rows: 0}
	}
	return FitScaler(ds).Transform(ds), nil
}
