package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    Vector2
		expected Vector2
	}{
		{"unit x", Vec(5, 0), Vec(1, 0)},
		{"diagonal", Vec(3, 4), Vec(0.6, 0.8)},
		{"negative", Vec(0, -2), Vec(0, -1)},
		{"zero stays zero", Vec(0, 0), Vec(0, 0)},
		{"tiny stays zero", Vec(1e-12, 0), Vec(0, 0)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.input)
			assert.InDelta(t, tc.expected.X(), got.X(), 1e-12)
			assert.InDelta(t, tc.expected.Y(), got.Y(), 1e-12)
		})
	}
}

func TestWithLengthKeepsDirection(t *testing.T) {
	v := Vec(-7, 2.5)
	scaled := WithLength(v, 3)
	assert.InDelta(t, 3.0, scaled.Len(), 1e-12)
	assert.True(t, Normalize(v).ApproxEqualThreshold(Normalize(scaled), 1e-9))
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Vec(0, 0), Vec(3, 4)), 1e-12)
	assert.Equal(t, 0.0, Distance(Vec(1, 1), Vec(1, 1)))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(Vec(1, -1)))
	assert.False(t, IsFinite(Vec(math.NaN(), 0)))
	assert.False(t, IsFinite(Vec(0, math.Inf(-1))))
	assert.False(t, IsFiniteFloat(math.Inf(1)))
}

func TestClosestPointOnRect(t *testing.T) {
	min, max := Vec(0, 0), Vec(2, 1)
	assert.Equal(t, Vec(1, 0.5), ClosestPointOnRect(Vec(1, 0.5), min, max), "inside point is unchanged")
	assert.Equal(t, Vec(2, 1), ClosestPointOnRect(Vec(5, 5), min, max))
	assert.Equal(t, Vec(0, 0.5), ClosestPointOnRect(Vec(-3, 0.5), min, max))
}

func TestReflectAlong(t *testing.T) {
	assert.Equal(t, Vec(-1, 2), ReflectAlong(Vec(1, 2), Vec(-1, 0)))
	assert.Equal(t, Vec(1, -2), ReflectAlong(Vec(1, 2), Vec(0, 5)))
	assert.Equal(t, Vec(1, 2), ReflectAlong(Vec(1, 2), Vec(0, 0)), "zero normal leaves velocity alone")
}
