package werrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCodeWalksWrappedChain(t *testing.T) {
	base := New(CodeAPIUnavailable, "connection refused")
	wrapped := fmt.Errorf("refresh: %w", base)

	assert.Equal(t, CodeAPIUnavailable, GetCode(wrapped))
	assert.Equal(t, Code(""), GetCode(errors.New("plain")))
	assert.Equal(t, Code(""), GetCode(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeStorageOpen, "failed to open database")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeStorageOpen, GetCode(err))
	assert.Contains(t, err.Error(), "failed to open database")
	assert.Contains(t, err.Error(), "disk full")
}

func TestIsMatchesCode(t *testing.T) {
	err := Newf(CodeScanNotFound, "scan %s: not found", "s1")
	assert.True(t, Is(err, CodeScanNotFound))
	assert.False(t, Is(err, CodeAPIStatus))
	assert.False(t, Is(nil, CodeScanNotFound))
}
