package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/productcatalog/pkg/config"
	"github.com/abgdnv/productcatalog/pkg/web"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://idp.example.test/realms/shop"
	testClientID = "catalog"
)

// newIdP starts a JWKS endpoint and returns its config and the private signing key.
func newIdP(t *testing.T) (config.IdP, jwk.Key) {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	private, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, private.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, private.Set(jwk.AlgorithmKey, jwa.RS256()))

	public, err := jwk.PublicKeyOf(private)
	require.NoError(t, err)
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(public))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(srv.Close)

	return config.IdP{
		Enabled:     true,
		JwksURL:     srv.URL,
		Issuer:      testIssuer,
		ClientID:    testClientID,
		MinInterval: time.Minute,
	}, private
}

func sign(t *testing.T, key jwk.Key, issuer, azp string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject("user-1").
		Claim("azp", azp).
		IssuedAt(time.Now()).
		Expiration(exp).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256(), key))
	require.NoError(t, err)
	return string(signed)
}

func Test_JWTVerifier_Verify(t *testing.T) {
	cfg, key := newIdP(t)
	verifier, err := NewJWTVerifier(context.Background(), cfg)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid token", token: sign(t, key, testIssuer, testClientID, time.Now().Add(time.Hour))},
		{name: "expired", token: sign(t, key, testIssuer, testClientID, time.Now().Add(-time.Hour)), wantErr: true},
		{name: "wrong issuer", token: sign(t, key, "https://other", testClientID, time.Now().Add(time.Hour)), wantErr: true},
		{name: "wrong client", token: sign(t, key, testIssuer, "someone-else", time.Now().Add(time.Hour)), wantErr: true},
		{name: "garbage", token: "not-a-jwt", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			token, err := verifier.Verify(context.Background(), tc.token)

			// then
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			sub, ok := token.Subject()
			assert.True(t, ok)
			assert.Equal(t, "user-1", sub)
		})
	}
}

func Test_NewJWTVerifier_FailsFast(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewJWTVerifier(context.Background(), config.IdP{JwksURL: srv.URL, MinInterval: time.Minute})

	require.Error(t, err)
}

func Test_Middleware(t *testing.T) {
	cfg, key := newIdP(t)
	verifier, err := NewJWTVerifier(context.Background(), cfg)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var subject string
	handler := Middleware(verifier, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ = web.GetSubject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	testCases := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{name: "missing header", header: "", expectedCode: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", expectedCode: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", expectedCode: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + sign(t, key, testIssuer, testClientID, time.Now().Add(time.Hour)), expectedCode: http.StatusNoContent},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			subject = ""
			req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			// when
			handler.ServeHTTP(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusNoContent {
				assert.Equal(t, "user-1", subject)
			}
		})
	}
}
