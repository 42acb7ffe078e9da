package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	assert.Nil(t, SMA([]float64{1, 2}, 3), "series shorter than the window")
	assert.Nil(t, SMA([]float64{1, 2, 3}, 0), "non-positive window")

	sma := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NotNil(t, sma)
	assert.Equal(t, 4.0, *sma)
}

func TestAboveSMA(t *testing.T) {
	assert.Nil(t, AboveSMA([]float64{1, 2}, 3))

	above := AboveSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NotNil(t, above)
	assert.True(t, *above)

	below := AboveSMA([]float64{5, 4, 3, 2, 1}, 3)
	require.NotNil(t, below)
	assert.False(t, *below)
}
