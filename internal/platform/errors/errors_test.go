package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsInnermostKind(t *testing.T) {
	inner := New(KindMalformedInput, "affect.Analyze", "empty audio buffer")
	outer := Wrap(KindStorage, "session.commit", "commit failed", inner)

	assert.True(t, IsKind(outer, KindMalformedInput))
	assert.False(t, IsKind(outer, KindStorage))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindStorage, "op", "msg", nil))
}

func TestIsKindThroughFmtWrap(t *testing.T) {
	base := Wrap(KindExternal, "classifier.Classify", "request failed", context.DeadlineExceeded)
	wrapped := fmt.Errorf("pipeline: %w", base)

	require.True(t, IsKind(wrapped, KindExternal))
	assert.Equal(t, KindExternal, KindOf(wrapped))
	assert.True(t, stderrors.Is(wrapped, context.DeadlineExceeded))
}

func TestKindOfUntyped(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(stderrors.New("plain")))
	assert.False(t, IsKind(nil, KindConfig))
}

func TestErrorString(t *testing.T) {
	err := New(KindConfig, "lexicon.Load", "missing label")
	assert.Equal(t, "[config:lexicon.Load] missing label", err.Error())

	err = Wrap(KindStorage, "badger.Save", "write failed", stderrors.New("disk full"))
	assert.Equal(t, "[storage:badger.Save] write failed: disk full", err.Error())
}
