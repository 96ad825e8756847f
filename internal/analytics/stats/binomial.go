// Package stats provides the statistical primitives used by the
// success-analysis layer: an exact two-sided binomial test and basic
// descriptive helpers.
package stats

import (
	"math"

	"github.com/skirmishlabs/buildsight/pkg/errors"
)

// relTolerance absorbs floating error when comparing point
// probabilities during two-sided accumulation.
const relTolerance = 1 + 1e-7

// BinomialTestTwoSided returns the exact two-sided p-value for
// observing `successes` out of `trials` under a null success
// probability p. The two-sided p-value sums P(X=k) over every k whose
// point probability does not exceed that of the observed count,
// matching the conventional exact ("minlike") definition.
func BinomialTestTwoSided(successes, trials int, p float64) (float64, error) {
	if trials <= 0 {
		return 0, errors.Newf(errors.ErrCodeSignificanceInput, "binomial test: trials must be positive, got %d", trials)
	}
	if successes < 0 || successes > trials {
		return 0, errors.Newf(errors.ErrCodeSignificanceInput, "binomial test: successes %d out of range [0, %d]", successes, trials)
	}
	if p < 0 || p > 1 {
		return 0, errors.Newf(errors.ErrCodeSignificanceInput, "binomial test: null probability %g out of range [0, 1]", p)
	}

	// Degenerate nulls have a point-mass distribution.
	if p == 0 {
		if successes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	if p == 1 {
		if successes == trials {
			return 1, nil
		}
		return 0, nil
	}

	observed := binomialPMF(successes, trials, p)
	cutoff := observed * relTolerance

	sum := 0.0
	for k := 0; k <= trials; k++ {
		if binomialPMF(k, trials, p) <= cutoff {
			sum += binomialPMF(k, trials, p)
		}
	}
	return math.Min(sum, 1), nil
}

// binomialPMF computes P(X=k) for X ~ Binomial(n, p) in log space to
// stay stable for large n.
func binomialPMF(k, n int, p float64) float64 {
	logPMF := logChoose(n, k) + float64(k)*math.Log(p) + float64(n-k)*math.Log1p(-p)
	return math.Exp(logPMF)
}

// logChoose computes log(n choose k) via the log-gamma function.
func logChoose(n, k int) float64 {
	a, _ := math.Lgamma(float64(n + 1))
	b, _ := math.Lgamma(float64(k + 1))
	c, _ := math.Lgamma(float64(n - k + 1))
	return a - b - c
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation of xs, or 0 when
// fewer than two samples are present.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}
