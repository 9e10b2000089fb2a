package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("load chatbot: %w", NotFound("chatbot %d not found", 7))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, ErrNotFound, KindOf(err))
	assert.Equal(t, "load chatbot: chatbot 7 not found", err.Error())
}

func TestCauseIsReachable(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := UpstreamUnavailable(cause, "upstream request failed")

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "refused")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{ValidationField("name", "required"), http.StatusUnprocessableEntity},
		{UpstreamUnavailable(nil, "x"), http.StatusBadGateway},
		{ConfigurationMissing("x"), http.StatusInternalServerError},
		{RateLimited("x"), http.StatusTooManyRequests},
		{context.Canceled, StatusClientClosedRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
