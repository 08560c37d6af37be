// internal/pkg/apperr/apperr_test.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(NotFound, "order %d not found", 7)
	outer := fmt.Errorf("handler: %w", inner)

	assert.Equal(t, NotFound, KindOf(outer))
	assert.True(t, Is(outer, NotFound))
	assert.False(t, Is(outer, Conflict))
}

func TestKindOf_UnclassifiedIsInternal(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.True(t, Is(errors.New("boom"), Internal))
}

func TestWrap_ExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Internal, cause, "failed to read cart")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to read cart")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		InvalidArgument:    http.StatusBadRequest,
		EmptyCart:          http.StatusBadRequest,
		NotFound:           http.StatusNotFound,
		Forbidden:          http.StatusForbidden,
		OutOfStock:         http.StatusConflict,
		ProductUnavailable: http.StatusConflict,
		InvalidTransition:  http.StatusConflict,
		Conflict:           http.StatusConflict,
		Internal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(kind, "x")), "kind %s", kind)
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestMessage_HidesInternalDetails(t *testing.T) {
	assert.Equal(t, "cart is empty", Message(New(EmptyCart, "cart is empty")))

	wrapped := Wrap(Internal, errors.New("pq: connection reset"), "failed to read cart")
	assert.Equal(t, "internal server error", Message(wrapped))
	assert.Equal(t, "internal server error", Message(errors.New("raw")))
}
