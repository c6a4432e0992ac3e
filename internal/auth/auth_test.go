package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerIDFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]interface{}
		want    int64
		wantErr bool
	}{
		{"float", map[string]interface{}{"user_id": float64(42)}, 42, false},
		{"int64", map[string]interface{}{"user_id": int64(7)}, 7, false},
		{"json number", map[string]interface{}{"user_id": json.Number("9")}, 9, false},
		{"string", map[string]interface{}{"user_id": "15"}, 15, false},
		{"missing", map[string]interface{}{"sub": "x"}, 0, true},
		{"fraction", map[string]interface{}{"user_id": 1.5}, 0, true},
		{"zero", map[string]interface{}{"user_id": float64(0)}, 0, true},
		{"garbage", map[string]interface{}{"user_id": "abc"}, 0, true},
		{"bool", map[string]interface{}{"user_id": true}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OwnerIDFromClaims(tt.claims)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoOwner)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOwnerCtxRoundTrip(t *testing.T) {
	ta := NewTokenAuth("test-secret")
	token, err := IssueToken(ta, 42, time.Hour)
	require.NoError(t, err)

	var seen int64
	h := jwtauth.Verifier(ta)(jwtauth.Authenticator(OwnerCtx(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = OwnerFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalOwnerCtx(t *testing.T) {
	ta := NewTokenAuth("test-secret")
	token, err := IssueToken(ta, 9, time.Hour)
	require.NoError(t, err)

	var seen int64
	var found bool
	h := jwtauth.Verifier(ta)(OptionalOwnerCtx(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, found = OwnerFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, found)
	assert.Equal(t, int64(9), seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, found)
}
