package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/guestdesk/internal/api/apierr"
	"github.com/mcoot/guestdesk/internal/model"
	"github.com/mcoot/guestdesk/internal/services/auth"
)

type contextKey string

const (
	operatorContextKey contextKey = "operator"
	sessionContextKey  contextKey = "session"
)

// SessionCookie is the cookie carrying an operator session token
const SessionCookie = "session"

// Auth creates authentication middleware for operator routes
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, sessionContextKey, session)
			ctx = context.WithValue(ctx, operatorContextKey, &session.Operator)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetOperator returns the authenticated operator from the request context
func GetOperator(ctx context.Context) *model.Operator {
	operator, _ := ctx.Value(operatorContextKey).(*model.Operator)
	return operator
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetOperator returns the authenticated operator or panics
func MustGetOperator(ctx context.Context) *model.Operator {
	operator := GetOperator(ctx)
	if operator == nil {
		panic("no operator in context - auth middleware not applied?")
	}
	return operator
}
