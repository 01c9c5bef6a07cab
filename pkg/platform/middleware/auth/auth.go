// Package auth provides the bearer-token middleware that resolves the
// authenticated buyer for downstream handlers.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"beatvault/pkg/domain"
	dErrors "beatvault/pkg/domain-errors"
	"beatvault/pkg/platform/httputil"
	"beatvault/pkg/requestcontext"
)

// Claims is the validated buyer identity a token validator returns.
type Claims struct {
	BuyerID     string
	StorageID   string
	DisplayName string
	Email       string
}

// TokenValidator verifies a session token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*Claims, error)
}

// RequireBuyer rejects unauthenticated requests and injects the buyer
// identity into the request context for handlers and services.
func RequireBuyer(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(r.Context(), "session token rejected", "error", err)
				httputil.WriteError(w, err)
				return
			}

			ctx := requestcontext.WithBuyer(r.Context(), domain.BuyerIdentity{
				LedgerID:      claims.BuyerID,
				StorageAuthID: claims.StorageID,
				DisplayName:   claims.DisplayName,
				Email:         claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
