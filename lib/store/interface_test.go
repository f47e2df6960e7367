package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/pKV/lib/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil))

	err := WrapError(fmt.Errorf("%w: key must not be empty", trie.ErrInvalidArgument))
	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, RetCInvalidArgument, storeErr.Code)
	assert.ErrorIs(t, err, trie.ErrInvalidArgument)

	err = WrapError(errors.New("boom"))
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, RetCInternalError, storeErr.Code)

	// store errors are passed through
	orig := NewError(RetCUnsupportedOperation, "nope")
	assert.Same(t, orig, WrapError(orig))
}

func TestErrorString(t *testing.T) {
	err := NewError(RetCInvalidArgument, "empty key")
	assert.Equal(t, "KVStoreError (code InvalidArgument): empty key", err.Error())
	assert.Equal(t, "Unknown", RetCode(99).String())
}
