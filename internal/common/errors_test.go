package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidInput, CodeOf(InvalidInput("bad")))
	assert.Equal(t, CodeDuplicateRequest, CodeOf(DuplicateRequest("dup")))
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("missing")))
	assert.Equal(t, CodeIntegrityViolation, CodeOf(IntegrityViolation("broken")))
	assert.Equal(t, CodeUploadFailed, CodeOf(UploadFailed("upload", errors.New("io"))))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
}

func TestCodeOfWalksWrappedCauses(t *testing.T) {
	inner := StoreUnavailable("backend down", errors.New("dial tcp"))
	outer := fmt.Errorf("listing friends: %w", inner)
	assert.Equal(t, CodeStoreUnavailable, CodeOf(outer))
}

func TestAppErrorMessage(t *testing.T) {
	err := Wrap(CodeTimeout, "store: operation timed out", errors.New("context deadline exceeded"))
	assert.EqualError(t, err, "store: operation timed out: context deadline exceeded")

	var app *AppError
	assert.True(t, errors.As(err, &app))
	assert.Equal(t, CodeTimeout, app.Code)
	assert.EqualError(t, app.Unwrap(), "context deadline exceeded")

	assert.EqualError(t, New(CodeNotFound, "gone"), "gone")
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(CodeUnknown, "no cause", nil)
	var app *AppError
	assert.True(t, errors.As(err, &app))
	assert.Nil(t, app.Cause)
}
