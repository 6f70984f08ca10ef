package models

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorResponseKind(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusBadRequest, KindValidation},
		{http.StatusNotFound, KindNotFound},
		{http.StatusConflict, KindConflict},
		{http.StatusForbidden, KindRuleViolation},
		{http.StatusUnprocessableEntity, KindRuleViolation},
		{http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := NewErrorResponse(tt.status, "reason")
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.kind, KindOf(fmt.Errorf("wrapped: %w", err)))
		})
	}
}
