package apperrors

import (
	"net/http"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{0, KindNetwork},
		{http.StatusBadRequest, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindForbidden},
		{http.StatusNotFound, KindNotFound},
		{http.StatusConflict, KindUnknown},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindServer},
		{http.StatusBadGateway, KindServer},
	}
	for _, tt := range tests {
		if got := KindForStatus(tt.status); got != tt.want {
			t.Errorf("KindForStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name          string
		kind          Kind
		serverMessage string
		want          string
	}{
		{"validation prefers the server message", KindValidation, "NIK already registered", "NIK already registered"},
		{"validation fallback", KindValidation, "", "Invalid request. Please check your input and try again."},
		{"not found prefers the server message", KindNotFound, "article not found", "article not found"},
		{"unauthorized ignores the server message", KindUnauthorized, "token_invalid", "Your session has ended. Please log in again."},
		{"server errors are generic", KindServer, "database exploded", "Server error. Please try again later."},
		{"unknown fallback", KindUnknown, "", "An error occurred. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.kind, tt.serverMessage); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
