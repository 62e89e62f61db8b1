package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitatrack/vitatrack-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a token")
	})

	for _, header := range []string{"", "Bearer", "Token abc", "Bearer "} {
		r := httptest.NewRequest(http.MethodGet, "/api/activities", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		RequireAuth(next).ServeHTTP(rr, r)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := Identity(r.Context())
	assert.False(t, ok)

	want := services.Identity{UserID: primitive.NewObjectID(), Role: "admin"}
	ctx := WithIdentity(r.Context(), want)

	got, ok := Identity(ctx)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
