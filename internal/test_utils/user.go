package test_utils

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rallypoint/rallypoint/pkg/user"
)

// TestUser is the signed-in user used across package tests. Its id matches the profile seeded by
// SeedProfile.
var TestUser = user.User{
	Id:       uuid.MustParse("6f1c2a9e-3b8d-4d52-9a3e-0c7d1f2b4a11"),
	Email:    "test.user@rallypoint.test",
	FullName: "Test User",
}

// WithTestUser returns ctx carrying TestUser.
func WithTestUser(ctx context.Context) context.Context {
	return user.WithUser(ctx, TestUser)
}

// WithUserMiddleware injects u into every request, standing in for the auth guard in handler tests.
func WithUserMiddleware(u user.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(user.WithUser(r.Context(), u)))
	})
}
