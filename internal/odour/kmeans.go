package odour

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Defaults for the k-means clusterer.
const (
	DefaultK       = 3
	DefaultSeed    = 42
	DefaultNInit   = 10
	DefaultMaxIter = 300
)

// KMeans partitions rows of a standardized matrix into K groups using
// k-means++ seeding followed by Lloyd iterations.
//
// All randomness comes from a PCG generator seeded with Seed, so the same
// matrix, K and Seed always produce the same assignment. NInit independent
// seedings are run and the lowest-inertia fit wins (earliest on ties).
//
// Empty-group policy: when an update leaves a group without members, the
// point farthest from its own centroid (lowest row index on ties) is moved
// into the empty group and becomes its centroid. Only groups with more than
// one member donate points. On nearest-centroid ties a row keeps its current
// group; otherwise the lowest group id wins.
type KMeans struct {
	K       int
	Seed    uint64
	NInit   int
	MaxIter int
}

// Fit is the outcome of a k-means run.
type Fit struct {
	Assignment Assignment
	Centroids  *mat.Dense
	Inertia    float64
	Iterations int
}

func (km KMeans) nInit() int {
	if km.NInit <= 0 {
		return DefaultNInit
	}
	return km.NInit
}

func (km KMeans) maxIter() int {
	if km.MaxIter <= 0 {
		return DefaultMaxIter
	}
	return km.MaxIter
}

// Fit clusters the rows of x.
func (km KMeans) Fit(x *mat.Dense) (*Fit, error) {
	if x == nil || x.IsEmpty() {
		return nil, &InsufficientDataError{Rows: 0, K: km.K}
	}
	if km.K < 1 {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidK, km.K)
	}
	n, _ := x.Dims()
	if km.K > n {
		return nil, &InsufficientDataError{Rows: n, K: km.K}
	}

	rng := rand.New(rand.NewPCG(km.Seed, km.Seed^0x9e3779b97f4a7c15))
	var best *Fit
	for run := 0; run < km.nInit(); run++ {
		fit := km.lloyd(x, km.seedCentroids(x, rng))
		if best == nil || fit.Inertia < best.Inertia {
			best = fit
		}
	}
	return best, nil
}

// Cluster assigns each row of x to one of k groups.
func Cluster(x *mat.Dense, k int, seed uint64) (Assignment, error) {
	fit, err := KMeans{K: k, Seed: seed}.Fit(x)
	if err != nil {
		return nil, err
	}
	return fit.Assignment, nil
}

// seedCentroids picks K initial centroids with k-means++: the first
// uniformly, each next one with probability proportional to its squared
// distance from the nearest centroid chosen so far.
func (km KMeans) seedCentroids(x *mat.Dense, rng *rand.Rand) *mat.Dense {
	n, d := x.Dims()
	centroids := mat.NewDense(km.K, d, nil)

	first := rng.IntN(n)
	centroids.SetRow(0, x.RawRowView(first))

	minDist := make([]float64, n)
	for i := range minDist {
		minDist[i] = sqDist(x.RawRowView(i), x.RawRowView(first))
	}

	for c := 1; c < km.K; c++ {
		next := sampleWeighted(minDist, rng)
		centroids.SetRow(c, x.RawRowView(next))
		for i := range minDist {
			if dd := sqDist(x.RawRowView(i), x.RawRowView(next)); dd < minDist[i] {
				minDist[i] = dd
			}
		}
	}
	return centroids
}

// sampleWeighted draws an index with probability proportional to w. If
// every weight is zero (all remaining points coincide with a centroid) the
// draw is uniform.
func sampleWeighted(w []float64, rng *rand.Rand) int {
	total := floats.Sum(w)
	if total <= 0 {
		return rng.IntN(len(w))
	}
	r := rng.Float64() * total
	last := 0
	for i, v := range w {
		if v <= 0 {
			continue
		}
		last = i
		r -= v
		if r < 0 {
			return i
		}
	}
	return last
}

// lloyd iterates assignment and centroid updates from the given seeds until
// no assignment changes or the iteration bound is hit.
func (km KMeans) lloyd(x *mat.Dense, centroids *mat.Dense) *Fit {
	n, _ := x.Dims()
	assign := make(Assignment, n)
	for i := range assign {
		assign[i] = -1
	}

	iter := 0
	for iter < km.maxIter() {
		iter++
		if assignNearest(x, centroids, assign) == 0 {
			break
		}
		updateCentroids(x, centroids, assign)
	}

	inertia := 0.0
	for i, g := range assign {
		inertia += sqDist(x.RawRowView(i), centroids.RawRowView(g))
	}
	return &Fit{Assignment: assign, Centroids: centroids, Inertia: inertia, Iterations: iter}
}

// assignNearest moves every row to its nearest centroid and returns how many
// rows changed group. A row only leaves its group for a strictly closer one.
func assignNearest(x, centroids *mat.Dense, assign Assignment) int {
	k, _ := centroids.Dims()
	changed := 0
	for i := range assign {
		row := x.RawRowView(i)
		best, bestDist := -1, math.Inf(1)
		if cur := assign[i]; cur >= 0 {
			best, bestDist = cur, sqDist(row, centroids.RawRowView(cur))
		}
		for c := 0; c < k; c++ {
			if dd := sqDist(row, centroids.RawRowView(c)); dd < bestDist {
				best, bestDist = c, dd
			}
		}
		if assign[i] != best {
			assign[i] = best
			changed++
		}
	}
	return changed
}

// updateCentroids recomputes each centroid as the mean of its members,
// reseeding empty groups from the farthest point first.
func updateCentroids(x, centroids *mat.Dense, assign Assignment) {
	k, _ := centroids.Dims()
	counts := recomputeMeans(x, centroids, assign)

	reseeded := false
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, g := range assign {
			if counts[g] <= 1 {
				continue
			}
			if dd := sqDist(x.RawRowView(i), centroids.RawRowView(g)); dd > farDist {
				far, farDist = i, dd
			}
		}
		if far < 0 {
			continue
		}
		counts[assign[far]]--
		assign[far] = c
		counts[c] = 1
		centroids.SetRow(c, x.RawRowView(far))
		reseeded = true
	}
	if reseeded {
		recomputeMeans(x, centroids, assign)
	}
}

// recomputeMeans overwrites the centroid of every populated group with the
// mean of its members and returns the member counts. Centroids of empty
// groups are left untouched.
func recomputeMeans(x, centroids *mat.Dense, assign Assignment) []int {
	k, d := centroids.Dims()
	sums := mat.NewDense(k, d, nil)
	counts := make([]int, k)
	for i, g := range assign {
		floats.Add(sums.RawRowView(g), x.RawRowView(i))
		counts[g]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		row := sums.RawRowView(c)
		floats.Scale(1/float64(counts[c]), row)
		centroids.SetRow(c, row)
	}
	return counts
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
