package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "ratelimit:checkout:u42", Key("checkout", "u42"))
	assert.Equal(t, "ratelimit:checkout:10.0.0.1", Key("checkout", "10.0.0.1"))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 4, remaining(5, 1))
	assert.Equal(t, 0, remaining(5, 5))
	assert.Equal(t, 0, remaining(5, 17))
}
