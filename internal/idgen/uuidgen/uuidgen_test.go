package uuidgen

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_GetID(t *testing.T) {
	g := New()

	first, err := g.GetID(context.Background())
	require.NoError(t, err)

	second, err := g.GetID(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	_, err = uuid.Parse(first)
	assert.NoError(t, err)
}
