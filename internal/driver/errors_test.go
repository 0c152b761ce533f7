package driver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeError_ColumnMessage(t *testing.T) {
	err := &DecodeError{Column: 2, Want: "int64", Got: "nope"}
	assert.Equal(t, "decode column 2: want int64, got string", err.Error())
}

func TestDecodeError_RowShapeMessage(t *testing.T) {
	err := &DecodeError{Column: -1, Want: "2 columns", Got: []any{1}}
	assert.Contains(t, err.Error(), "decode row")
}

func TestIsDecodeError_Wrapped(t *testing.T) {
	inner := &DecodeError{Column: 0, Want: "int", Got: "x"}
	wrapped := fmt.Errorf("processing: %w", inner)

	assert.True(t, IsDecodeError(wrapped))
	assert.False(t, IsDecodeError(errors.New("other")))

	var de *DecodeError
	assert.True(t, errors.As(wrapped, &de))
	assert.Equal(t, 0, de.Column)
}

func TestDecodeError_UnwrapsCause(t *testing.T) {
	cause := errors.New("strconv failure")
	err := &DecodeError{Column: 1, Want: "int", Got: "abc", Err: cause}
	assert.ErrorIs(t, err, cause)
}
