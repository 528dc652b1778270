package martianerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomartian/adapter/martianerrors"
)

func TestKindOfUnwrapsEnvelope(t *testing.T) {
	base := errors.New("disk full")
	wrapped := martianerrors.New(martianerrors.Serialization, "write _outs", base)

	require.Equal(t, martianerrors.Serialization, martianerrors.KindOf(wrapped))
}

func TestKindOfDefaultsToUserStage(t *testing.T) {
	require.Equal(t, martianerrors.UserStage, martianerrors.KindOf(errors.New("plain")))
}

func TestNeverNeverAsserts(t *testing.T) {
	require.False(t, martianerrors.Never(errors.New("anything")))
}

func TestErrorStringIncludesCause(t *testing.T) {
	base := errors.New("boom")
	wrapped := martianerrors.New(martianerrors.UserStage, "stage failed", base)
	require.Contains(t, wrapped.Error(), "boom")
	require.Contains(t, wrapped.Error(), "stage failed")
}
