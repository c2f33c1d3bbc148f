// Package vectors validates embedding vectors and scores them.
package vectors

import (
	"fmt"
	"math"

	nberrors "github.com/yungbote/ottolearn-tutor/internal/pkg/errors"
)

// Dimension is the fixed embedding width stored and queried by the tutor.
const Dimension = 1536

var ErrEmptyEmbedding = fmt.Errorf("%w: embedding vector is empty", nberrors.ErrValidation)

type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding vector must be %d dimensions, got %d", e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return nberrors.ErrValidation }

type NonFiniteValueError struct {
	Index int
}

func (e *NonFiniteValueError) Error() string {
	return fmt.Sprintf("embedding value at index %d is not a finite number", e.Index)
}

func (e *NonFiniteValueError) Unwrap() error { return nberrors.ErrValidation }

// Normalize checks v against the dimension and finiteness contract and returns a copy.
// Magnitude is left untouched; similarity is computed by the store.
func Normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, ErrEmptyEmbedding
	}
	if len(v) != Dimension {
		return nil, &DimensionMismatchError{Want: Dimension, Got: len(v)}
	}
	out := make([]float32, len(v))
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &NonFiniteValueError{Index: i}
		}
		out[i] = x
	}
	return out, nil
}

// NormalizeFloat64 is Normalize for wire-decoded vectors. Values that overflow float32 are
// reported as non-finite at their index.
func NormalizeFloat64(v []float64) ([]float32, error) {
	if len(v) == 0 {
		return nil, ErrEmptyEmbedding
	}
	if len(v) != Dimension {
		return nil, &DimensionMismatchError{Want: Dimension, Got: len(v)}
	}
	out := make([]float32, len(v))
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > math.MaxFloat32 {
			return nil, &NonFiniteValueError{Index: i}
		}
		out[i] = float32(x)
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when undefined.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TruncatePosition coerces an ordering hint to an integer; non-finite input becomes 0.
// Values outside the int range saturate at its bounds, which fit the bigint position column.
func TruncatePosition(p float64) int {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	t := math.Trunc(p)
	// float64(math.MaxInt) rounds up to 2^63, so >= is the overflow test.
	if t >= float64(math.MaxInt) {
		return math.MaxInt
	}
	if t <= float64(math.MinInt) {
		return math.MinInt
	}
	return int(t)
}
