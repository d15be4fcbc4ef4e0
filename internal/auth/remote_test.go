package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragsearch/internal/config"
	"ragsearch/internal/logger"
)

func newAuthServer(t *testing.T, verify, me func(w http.ResponseWriter)) *RemoteVerifier {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/verify":
			verify(w)
		case r.Method == http.MethodGet && r.URL.Path == "/auth/me":
			me(w)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return NewRemoteVerifier(config.AuthConfig{BaseURL: srv.URL + "/", TimeoutSec: 5}, logger.Nop())
}

func reply(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestRemoteVerifier(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		verify  func(http.ResponseWriter)
		me      func(http.ResponseWriter)
		wantID  string
		wantErr error
	}{
		{
			name:   "nested user id",
			verify: reply(200, `{"valid": true}`),
			me:     reply(200, `{"user": {"id": "u-1", "email": "a@b.c"}}`),
			wantID: "u-1",
		},
		{
			name:   "string valid flag and top level sub",
			verify: reply(200, `{"valid": "true"}`),
			me:     reply(200, `{"sub": "u-2"}`),
			wantID: "u-2",
		},
		{
			name:   "numeric id",
			verify: reply(200, `{"valid": true}`),
			me:     reply(200, `{"user": {"userId": 42}}`),
			wantID: "42",
		},
		{
			name:   "nested object without id falls back to top level",
			verify: reply(200, `{"valid": true}`),
			me:     reply(200, `{"user": {"name": "x"}, "uid": "u-3"}`),
			wantID: "u-3",
		},
		{
			name:    "invalid token",
			verify:  reply(200, `{"valid": false}`),
			me:      reply(200, `{"id": "never"}`),
			wantErr: ErrUnauthorized,
		},
		{
			name:    "verify rejects",
			verify:  reply(401, `{"detail": "expired"}`),
			me:      reply(200, `{"id": "never"}`),
			wantErr: ErrUnauthorized,
		},
		{
			name:    "missing user id",
			verify:  reply(200, `{"valid": true}`),
			me:      reply(200, `{"email": "a@b.c"}`),
			wantErr: ErrUnauthorized,
		},
		{
			name:    "me rejects",
			verify:  reply(200, `{"valid": true}`),
			me:      reply(403, `{}`),
			wantErr: ErrUnauthorized,
		},
		{
			name:    "garbage body",
			verify:  reply(200, `not json`),
			me:      reply(200, `{}`),
			wantErr: ErrUnauthorized,
		},
		{
			name:    "auth service failing",
			verify:  reply(502, `bad gateway`),
			me:      reply(200, `{}`),
			wantErr: ErrUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newAuthServer(t, tc.verify, tc.me)
			id, err := v.Verify(ctx, "tok")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id.ID)
		})
	}
}

func TestRemoteVerifierEmptyToken(t *testing.T) {
	v := NewRemoteVerifier(config.AuthConfig{BaseURL: "http://127.0.0.1:1"}, logger.Nop())
	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRemoteVerifierUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	v := NewRemoteVerifier(config.AuthConfig{BaseURL: url, TimeoutSec: 1}, logger.Nop())
	_, err := v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrUnavailable)
}
