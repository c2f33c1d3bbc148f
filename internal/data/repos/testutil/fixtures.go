package testutil

import (
	"fmt"
	"math"

	"github.com/yungbote/ottolearn-tutor/internal/modules/tutor/vectors"
)

// AxisVector returns a unit vector along axis i of the embedding space.
func AxisVector(i int) []float32 {
	v := make([]float32, vectors.Dimension)
	v[i%vectors.Dimension] = 1
	return v
}

// BlendVector returns a unit vector in the plane of axes a and b whose cosine with
// AxisVector(a) equals cos.
func BlendVector(a, b int, cos float64) []float32 {
	v := make([]float32, vectors.Dimension)
	v[a%vectors.Dimension] = float32(cos)
	v[b%vectors.Dimension] = float32(math.Sqrt(math.Max(0, 1-cos*cos)))
	return v
}

func ChunkID(prefix string, i int) string {
	return fmt.Sprintf("%s-%03d", prefix, i)
}
