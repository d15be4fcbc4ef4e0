package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"ragsearch/internal/auth"
	"ragsearch/internal/model"
)

// IdentityLocalKey is the Fiber locals key holding the caller's *model.UserIdentity.
const IdentityLocalKey = "identity"

// RequireAuth verifies the bearer token with v and stores the identity in
// locals. Failures are returned as errors for the global error handler.
func RequireAuth(v auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return auth.ErrUnauthorized
		}

		id, err := v.Verify(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) || errors.Is(err, auth.ErrUnavailable) {
				return err
			}
			return fmt.Errorf("%w: %v", auth.ErrUnavailable, err)
		}

		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// Identity returns the identity stored by RequireAuth, or nil.
func Identity(c *fiber.Ctx) *model.UserIdentity {
	id, _ := c.Locals(IdentityLocalKey).(*model.UserIdentity)
	return id
}
