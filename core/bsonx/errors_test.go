package bsonx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDecode(t *testing.T) {
	err := NewDecodeError("expected a string", int32(1))
	assert.True(t, IsDecode(err))
	assert.True(t, IsDecode(fmt.Errorf("field 'name': %w", err)))
	assert.False(t, IsDecode(fmt.Errorf("plain")))
	assert.False(t, IsDecode(nil))
}

func TestIsEncode(t *testing.T) {
	err := &EncodeError{Message: "unsupported type", Type: "chan int"}
	assert.True(t, IsEncode(err))
	assert.True(t, IsEncode(fmt.Errorf("marshal: %w", err)))
	assert.False(t, IsEncode(NewDecodeError("expected a string", nil)))
	assert.False(t, IsEncode(nil))
}

func TestMissingFieldError(t *testing.T) {
	err := NewMissingFieldError("done")
	assert.Equal(t, "'done' is missing", err.Error())
	assert.Equal(t, "done", err.Field)
}
