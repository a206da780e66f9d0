package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfFindsWrappedError(t *testing.T) {
	base := New(KindInvalidLink, "no lines for token")
	wrapped := fmt.Errorf("loading supplier view: %w", base)

	assert.Equal(t, KindInvalidLink, KindOf(wrapped))
	assert.Same(t, base, As(wrapped))
}

func TestKindOfUntypedIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Nil(t, As(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindDependency, cause, "insert batch")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMetadataForUnknownKindIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, MetadataFor(Kind("nope")).HTTPStatus)
	assert.Equal(t, http.StatusNotFound, MetadataFor(KindInvalidLink).HTTPStatus)
}
