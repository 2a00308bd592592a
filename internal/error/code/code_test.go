package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetStatus(t *testing.T) {
	tests := []struct {
		code   int
		status int
	}{
		{ErrSuccess, StatusOK},
		{ErrBind, StatusBadRequest},
		{ErrUnauthenticated, StatusUnauthorized},
		{ErrForbidden, StatusForbidden},
		{ErrApartmentNotFound, StatusNotFound},
		{ErrTransferTargetInvalid, StatusBadRequest},
		{ErrSurveyAlreadyAnswered, StatusConflict},
		{ErrTooManyRequests, StatusTooManyRequests},
		{ErrDatabase, StatusInternalServerError},
		{999999, StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, GetStatus(tt.code), "code %d", tt.code)
	}
}

func TestEveryCodeHasMessageAndStatus(t *testing.T) {
	for c := range codeMessageMap {
		_, ok := codeStatusMap[c]
		assert.True(t, ok, "code %d has a message but no status", c)
	}
	for c := range codeStatusMap {
		_, ok := codeMessageMap[c]
		assert.True(t, ok, "code %d has a status but no message", c)
	}
	assert.Equal(t, "unknown error", GetMessage(999999))
}
