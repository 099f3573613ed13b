package ctxcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/env/memenv"
	"github.com/watchstate/core/internal/types"
)

func TestInitMergesLibraryPartitions(t *testing.T) {
	e := memenv.New()
	ctx := context.Background()

	require.NoError(t, e.SetStorage(ctx, KeyLibraryRecent, map[string]types.LibraryItem{
		"tt1": {ID: "tt1", Type: "movie"},
	}))
	require.NoError(t, e.SetStorage(ctx, KeyLibrary, map[string]types.LibraryItem{
		"tt2": {ID: "tt2", Type: "movie"},
	}))

	next, changed, err := Init(ctx, e, New(nil))
	require.NoError(t, err)
	assert.Contains(t, next.Library.Items, "tt1")
	assert.Contains(t, next.Library.Items, "tt2")
	assert.Contains(t, changed, "library")
}

func TestInitOnEmptyStorageStaysDefault(t *testing.T) {
	e := memenv.New()
	next, changed, err := Init(context.Background(), e, New(nil))
	require.NoError(t, err)
	assert.Empty(t, next.Library.Items)
	assert.Empty(t, changed)
}
