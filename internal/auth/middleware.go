package auth

import (
	"context"
	"net/http"
	"strings"

	"lifeai-backend/internal/analytics"
	"lifeai-backend/internal/respond"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

type Middleware struct {
	secret []byte
}

func New(secret []byte) Middleware {
	return Middleware{secret: secret}
}

func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			respond.Error(w, http.StatusUnauthorized, "missing token")
			return
		}

		tokenString := strings.TrimPrefix(h, "Bearer ")
		userID, err := ParseToken(m.secret, tokenString)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := WithUserID(r.Context(), userID)

		// analytics events pick the user up from the context
		ctx = analytics.WithUserID(ctx, userID)

		next(w, r.WithContext(ctx))
	}
}

// WithUserID stores an authenticated user id on ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return 0, false
	}
	uid, ok := v.(int64)
	return uid, ok
}

// RequireUser extracts the user id or writes 401. Handlers behind Wrap never see the 401.
func RequireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return uid, true
}
