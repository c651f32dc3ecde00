package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIssueVerify(t *testing.T) {
	tokens := NewTokens("secret")
	user := primitive.NewObjectID()

	raw, err := tokens.Issue(user, time.Hour)
	require.NoError(t, err)

	got, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestVerifyRejects(t *testing.T) {
	tokens := NewTokens("secret")
	user := primitive.NewObjectID()

	expired, err := tokens.Issue(user, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewTokens("other").Issue(user, time.Hour)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"expired":   expired,
		"wrong key": foreign,
		"garbage":   "not.a.token",
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestRequire(t *testing.T) {
	tokens := NewTokens("secret")
	user := primitive.NewObjectID()
	valid, err := tokens.Issue(user, time.Hour)
	require.NoError(t, err)

	var seen primitive.ObjectID
	h := tokens.RequireFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusNoContent},
		{"lowercase scheme", "bearer " + valid, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = primitive.NilObjectID
			req := httptest.NewRequest(http.MethodGet, "/api/notes/my-notes", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, user, seen)
			} else {
				assert.Contains(t, rec.Body.String(), "error")
			}
		})
	}
}
