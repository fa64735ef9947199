package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, production := range []bool{true, false} {
		l, err := New(production)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestMust(t *testing.T) {
	assert.NotPanics(t, func() { Must(false) })
}
