package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ParsesAsULID(t *testing.T) {
	_, err := ulid.ParseStrict(New())
	require.NoError(t, err)
}

func TestNewAt_MonotonicWithinMillisecond(t *testing.T) {
	now := time.Now()
	a := NewAt(now)
	b := NewAt(now)
	assert.Less(t, a, b)
}
