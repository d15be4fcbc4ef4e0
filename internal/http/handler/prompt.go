package handler

import (
	"sort"

	"github.com/gofiber/fiber/v2"

	"ragsearch/internal/http/middleware"
	"ragsearch/internal/model"
	"ragsearch/internal/search"
	"ragsearch/internal/service"
)

// Prompt answers a question over the caller's indexed files.
//
// @Summary Ask a question
// @Tags Prompt
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body promptRequest true "prompt and optional file filter"
// @Success 200 {object} promptResponse
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /prompt [post]
func Prompt(svc service.PromptService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, err := ownerOf(c)
		if err != nil {
			return respondError(c, err)
		}

		var req promptRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a prompt field")
		}

		res, err := svc.Answer(c.UserContext(), owner, req.Prompt, model.SelectionFromRequest(req.FileIDs))
		if err != nil {
			return respondError(c, err)
		}

		out := promptResponse{Response: res.Answer.Text, Sources: res.Answer.Sources, FileIDs: res.FileIDs}
		if out.Sources == nil {
			out.Sources = []search.Source{}
		}
		if out.FileIDs == nil {
			out.FileIDs = []string{}
		}
		return c.JSON(out)
	}
}

// WhoAmI echoes the authenticated identity.
//
// @Summary Authentication check
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} whoAmIResponse
// @Failure 401 {object} errorPayload
// @Router /auth/whoami [get]
func WhoAmI() fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, err := ownerOf(c)
		if err != nil {
			return respondError(c, err)
		}

		id := middleware.Identity(c)
		fields := make([]string, 0, len(id.Attributes))
		for k := range id.Attributes {
			fields = append(fields, k)
		}
		sort.Strings(fields)

		return c.JSON(whoAmIResponse{
			Message:         "Authentication successful",
			UserID:          owner,
			AvailableFields: fields,
		})
	}
}
