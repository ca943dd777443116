package memory

import (
	"github.com/engramhq/engram/errors"
	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity returns dot(a,b)/(|a|*|b|) in [-1, 1]. Vectors produced by
// one embedding model always share a dimension; the length check is defensive
// and surfaces as ErrDimensionMismatch.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Wrapf(errors.ErrDimensionMismatch, "got %d and %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}

	av := make([]float64, len(a))
	bv := make([]float64, len(b))
	for i := range a {
		av[i] = float64(a[i])
		bv[i] = float64(b[i])
	}

	normA := floats.Norm(av, 2)
	normB := floats.Norm(bv, 2)
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return floats.Dot(av, bv) / (normA * normB), nil
}
