package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(250000), MinorUnits(2500.00))
	assert.Equal(t, int64(99), MinorUnits(0.99))
	assert.Equal(t, int64(10), MinorUnits(0.1))
	assert.Equal(t, int64(0), MinorUnits(0))

	// values that are not exactly representable in binary must still land
	// on the right paise for 2-decimal prices
	assert.Equal(t, int64(1005), MinorUnits(10.05))
	assert.Equal(t, int64(4999900), MinorUnits(49999.00))
}
