package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNear(t *testing.T) {
	assert.True(t, Near(1.0, 1.0000001, 0.001))
	assert.False(t, Near(1.0, 1.1, 0.001))
}

func TestClamp(t *testing.T) {
	lo, hi := 0.0, 10.0
	assert.Equal(t, 0.0, Clamp(-5, &lo, &hi))
	assert.Equal(t, 10.0, Clamp(50, &lo, &hi))
	assert.Equal(t, 5.0, Clamp(5, &lo, &hi))
	assert.Equal(t, -100.0, Clamp(-100, nil, &hi))
	assert.Equal(t, 100.0, Clamp(100, &lo, nil))
}

func TestScale(t *testing.T) {
	assert.InDelta(t, 0.5, Scale(5, 0, 10, 0, 1), 1e-9)
	assert.InDelta(t, 1.05, Scale(1, 0, 1, 0.90, 1.05), 1e-9)
	assert.Equal(t, 1.0, Scale(123, 5, 5, 1, 9))
}

func TestLessNatural(t *testing.T) {
	assert.True(t, LessNatural("Security2", "Security10"))
	assert.False(t, LessNatural("Security10", "Security2"))
	assert.True(t, LessNatural("abc", "abd"))
	assert.True(t, LessNatural("HOT", "USD"))
}
