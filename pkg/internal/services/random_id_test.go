package services

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionID(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		require.Len(t, id, 4)
		for _, r := range id {
			assert.Contains(t, string(sessionLetters), string(r))
		}
	}
}

func TestNewAccessPin(t *testing.T) {
	for i := 0; i < 100; i++ {
		pin := NewAccessPin()
		require.Len(t, pin, 4)
		n, err := strconv.Atoi(pin)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
	}
}
