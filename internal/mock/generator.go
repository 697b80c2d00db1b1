// Package mock produces the simulated field data shown by the dashboard:
// zone allocations, sensor grids, soil and NDVI surveys, prescriptions and
// time series. Every generator draws from a Generator so that a fixed seed
// gives a reproducible page.
package mock

import (
	"math"
	"math/rand"
	"time"
)

// FixedSeed is used by the sections that must render the same data on every request.
const FixedSeed int64 = 42

// Generator is a seeded source of mock values. It is not safe for concurrent
// use; pages build one per render.
type Generator struct {
	r *rand.Rand
}

// New returns a generator seeded with seed, or with the current time when seed is 0.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{r: rand.New(rand.NewSource(seed))}
}

// Uniform draws from [lo, hi).
func (g *Generator) Uniform(lo, hi float64) float64 {
	return lo + g.r.Float64()*(hi-lo)
}

// Normal draws from N(mean, std²).
func (g *Generator) Normal(mean, std float64) float64 {
	return mean + g.r.NormFloat64()*std
}

// IntN draws an integer from [lo, hi). hi <= lo returns lo.
func (g *Generator) IntN(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.r.Intn(hi-lo)
}

// Choice picks one element uniformly. It panics on an empty slice.
func Choice[T any](g *Generator, xs []T) T {
	return xs[g.r.Intn(len(xs))]
}

// WeightedChoice picks xs[i] with probability weights[i]/sum(weights).
// Non-positive weights are never chosen; if every weight is non-positive the
// last element is returned.
func WeightedChoice[T any](g *Generator, xs []T, weights []float64) T {
	total := 0.0
	for i := range xs {
		if i < len(weights) && weights[i] > 0 {
			total += weights[i]
		}
	}
	u := g.r.Float64() * total
	for i := range xs {
		if i >= len(weights) || weights[i] <= 0 {
			continue
		}
		u -= weights[i]
		if u < 0 {
			return xs[i]
		}
	}
	return xs[len(xs)-1]
}

// Round rounds x to n decimals, half away from zero.
func Round(x float64, n int) float64 {
	p := math.Pow(10, float64(n))
	return math.Round(x*p) / p
}
