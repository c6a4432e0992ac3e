package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth"
)

// OwnerClaim is the JWT claim carrying the authenticated user id. Tokens are
// issued by the external authentication service; this package only reads them.
const OwnerClaim = "user_id"

var ErrNoOwner = errors.New("token has no usable user_id claim")

type ctxKey struct{}

func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// IssueToken mints a token for ownerID. Used by the operator CLI for development.
func IssueToken(ta *jwtauth.JWTAuth, ownerID int64, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{
		OwnerClaim: ownerID,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, ttl)

	_, tokenString, err := ta.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return tokenString, nil
}

// OwnerIDFromClaims extracts a positive owner id from decoded claims.
func OwnerIDFromClaims(claims map[string]interface{}) (int64, error) {
	raw, ok := claims[OwnerClaim]
	if !ok {
		return 0, ErrNoOwner
	}

	var id int64
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, ErrNoOwner
		}
		id = int64(v)
	case int64:
		id = v
	case int:
		id = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, ErrNoOwner
		}
		id = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, ErrNoOwner
		}
		id = n
	default:
		return 0, ErrNoOwner
	}

	if id <= 0 {
		return 0, ErrNoOwner
	}
	return id, nil
}

// OwnerCtx runs after jwtauth.Verifier/Authenticator and stores the owner id
// in the request context.
func OwnerCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ownerID, err := OwnerIDFromClaims(claims)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), ownerID)))
	})
}

// OptionalOwnerCtx stores the owner id when the request carries a valid
// token and lets anonymous requests through otherwise.
func OptionalOwnerCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err == nil && token != nil {
			if ownerID, err := OwnerIDFromClaims(claims); err == nil {
				r = r.WithContext(WithOwner(r.Context(), ownerID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func WithOwner(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, ownerID)
}

// OwnerFrom returns the owner id stored by OwnerCtx.
func OwnerFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
