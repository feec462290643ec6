package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_TooShort(t *testing.T) {
	s := Compute([]float64{1, 1.01, 1.02, 1.03}, 60)
	assert.True(t, s.Insufficient)
	assert.True(t, s.Recent30Insufficient)
	assert.Nil(t, s.AnnReturn)
	assert.Nil(t, s.MaxDrawdown)
	assert.Nil(t, s.Recent30)
}

func TestCompute_Short(t *testing.T) {
	values := []float64{1, 1.1, 1.0, 1.2, 1.3, 1.2}
	s := Compute(values, 60)

	assert.True(t, s.Insufficient)
	assert.True(t, s.Recent30Insufficient)
	require.NotNil(t, s.Recent30)
	assert.InDelta(t, 0.2, *s.Recent30, 1e-12)
	require.NotNil(t, s.WinRate)
	assert.InDelta(t, 0.6, *s.WinRate, 1e-12)
	require.NotNil(t, s.MaxDrawdown)
	assert.InDelta(t, 1-1.0/1.1, *s.MaxDrawdown, 1e-12)
	assert.NotNil(t, s.Sharpe)
}

func TestCompute_Long(t *testing.T) {
	values := make([]float64, 90)
	for i := range values {
		values[i] = 1 + float64(i)*0.01
	}
	s := Compute(values, 60)

	assert.False(t, s.Insufficient)
	assert.False(t, s.Recent30Insufficient)
	require.NotNil(t, s.Recent30)
	assert.InDelta(t, (values[89]-values[60])/values[60], *s.Recent30, 1e-12)
	assert.Equal(t, 0.0, *s.MaxDrawdown)
	assert.Equal(t, 1.0, *s.WinRate)
	require.NotNil(t, s.AnnReturn)
	assert.Greater(t, *s.AnnReturn, 0.0)
}
