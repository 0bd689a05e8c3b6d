package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LearnLoom/internal/app_errors"
)

func TestInMemGetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewInMem()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, app_errors.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "k", []byte("v1")))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, store.Set(ctx, "k", []byte("v2")))
	got, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, app_errors.ErrKeyNotFound)

	// deleting an absent key is not an error
	require.NoError(t, store.Delete(ctx, "k"))
}

func TestInMemCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewInMem()

	value := []byte("original")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}
