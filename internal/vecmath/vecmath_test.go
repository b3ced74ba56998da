package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMetric(t *testing.T) {
	m, ok := ParseMetric("COSINE")
	assert.True(t, ok)
	assert.Equal(t, Cosine, m)

	_, ok = ParseMetric("bogus")
	assert.False(t, ok)
}

func TestCosineIdenticalVectorsIsOne(t *testing.T) {
	a := []float64{1, 2, 3}
	got := Similarity(Cosine, a, a)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestCosineOrthogonalIsZero(t *testing.T) {
	got := Similarity(Cosine, []float64{1, 0}, []float64{0, 1})
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestCosineZeroVectorIsZero(t *testing.T) {
	got := Similarity(Cosine, []float64{0, 0}, []float64{1, 1})
	assert.Equal(t, 0.0, got)
}

func TestDotProduct(t *testing.T) {
	got := Similarity(Dot, []float64{1, 2, 3}, []float64{4, 5, 6})
	assert.Equal(t, float64(1*4+2*5+3*6), got)
}

func TestL2Distance(t *testing.T) {
	got := Similarity(L2, []float64{0, 0}, []float64{3, 4})
	assert.InDelta(t, 5.0, got, 1e-9)
}

func TestL2SameVectorIsZero(t *testing.T) {
	got := Similarity(L2, []float64{1, 2}, []float64{1, 2})
	assert.Equal(t, 0.0, got)
}

func TestDescendingOrdering(t *testing.T) {
	assert.True(t, Cosine.Descending())
	assert.True(t, Dot.Descending())
	assert.False(t, L2.Descending())
}

func TestCosineHandlesNaNFreeInputs(t *testing.T) {
	got := Similarity(Cosine, []float64{1e10, 1e10}, []float64{1e-10, 1e-10})
	assert.False(t, math.IsNaN(got))
}
