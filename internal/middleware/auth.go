package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/bank-ledger/internal/auth"
	"github.com/josh-kwaku/bank-ledger/internal/handler"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
)

type tokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Auth rejects the request with a single generic 401 whether the header is
// missing, malformed, expired or badly signed.
func Auth(tokens tokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrUnauthorized, nil)
				return
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				logging.FromContext(r.Context()).Debug("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrUnauthorized, nil)
				return
			}

			ctx := auth.ContextWithCustomerID(r.Context(), claims.CustomerID)
			ctx = logging.With(ctx, "caller_id", claims.CustomerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
