package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusCode(nil))
	assert.Equal(t, http.StatusNotFound, StatusCode(fmt.Errorf("%w: disease x", ErrNotFound)))
	assert.Equal(t, http.StatusForbidden, StatusCode(ErrForbidden))
	assert.Equal(t, http.StatusBadRequest, StatusCode(fmt.Errorf("section: %w", ErrValidation)))
	assert.Equal(t, http.StatusConflict, StatusCode(ErrConflict))
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(ErrUpstreamUnavailable))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}
