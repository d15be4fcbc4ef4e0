package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ragsearch/internal/config"
	"ragsearch/internal/logger"
	"ragsearch/internal/model"
)

// userIDKeys are tried in order, first inside a nested "user" object, then at the top level.
var userIDKeys = []string{"user_id", "id", "sub", "userId", "_id", "uid"}

// RemoteVerifier delegates token checks to the auth microservice:
// POST /auth/verify must report valid, then GET /auth/me supplies the user.
type RemoteVerifier struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

var _ Verifier = (*RemoteVerifier)(nil)

// NewRemoteVerifier builds a verifier whose outbound calls are traced by otelhttp.
func NewRemoteVerifier(cfg config.AuthConfig, log *logger.Logger) *RemoteVerifier {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteVerifier{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log.With("component", "auth"),
	}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*model.UserIdentity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	var verify struct {
		Valid any `json:"valid"`
	}
	if err := v.call(ctx, http.MethodPost, "/auth/verify", token, &verify); err != nil {
		return nil, err
	}
	if !isTrue(verify.Valid) {
		v.log.Debug("auth_token_rejected")
		return nil, ErrUnauthorized
	}

	var me map[string]any
	if err := v.call(ctx, http.MethodGet, "/auth/me", token, &me); err != nil {
		return nil, err
	}
	id := extractUserID(me)
	if id == "" {
		keys := make([]string, 0, len(me))
		for k := range me {
			keys = append(keys, k)
		}
		v.log.Warn("auth_user_id_missing", "available_keys", keys)
		return nil, ErrUnauthorized
	}
	return &model.UserIdentity{ID: id, Attributes: me}, nil
}

func (v *RemoteVerifier) call(ctx context.Context, method, path, token string, out any) error {
	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	res, err := v.client.Do(req)
	if err != nil {
		v.log.Warn("auth_request_failed", "path", path, "error", err.Error())
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 500:
		v.log.Warn("auth_service_error", "path", path, "status", res.StatusCode)
		return fmt.Errorf("%w: %s returned %d", ErrUnavailable, path, res.StatusCode)
	case res.StatusCode != http.StatusOK:
		v.log.Debug("auth_request_rejected", "path", path, "status", res.StatusCode)
		return ErrUnauthorized
	}

	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		v.log.Warn("auth_response_invalid", "path", path, "error", err.Error())
		return ErrUnauthorized
	}
	return nil
}

func isTrue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	default:
		return false
	}
}

func extractUserID(info map[string]any) string {
	if nested, ok := info["user"].(map[string]any); ok {
		if id := firstID(nested); id != "" {
			return id
		}
	}
	return firstID(info)
}

func firstID(m map[string]any) string {
	for _, k := range userIDKeys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case nil:
		default:
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}
