package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klyr/sfcroute/internal/errors"
)

func TestErrorString(t *testing.T) {
	err := errors.New(errors.ErrMissingSplitStep, "no split step")
	assert.Equal(t, "[MISSING_SPLIT_STEP] no split step", err.Error())

	wrapped := errors.Wrap(stderrors.New("boom"), errors.ErrConfigLoad, "read rules")
	assert.Equal(t, "[CONFIG_LOAD] read rules: boom", wrapped.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrInternal, "ignored"))
}

func TestIsByCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", errors.Newf(errors.ErrInvalidConfiguration, "rules[%d]", 3))

	require.True(t, errors.IsErrorCode(err, errors.ErrInvalidConfiguration))
	assert.False(t, errors.IsErrorCode(err, errors.ErrMissingSplitStep))
	assert.True(t, stderrors.Is(err, errors.New(errors.ErrInvalidConfiguration, "")))
	assert.Equal(t, errors.ErrInvalidConfiguration, errors.GetErrorCode(err))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrMissingOwnershipRule, "x").WithDetail("tried", []string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, err.Details["tried"])
}
