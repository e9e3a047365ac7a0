// Package web serves the interactive surface. Pages are delivered as JSON
// props for the frontend shell; HTML rendering stays out of this process.
// Mutations answer with a redirect and a one-shot flash message in the
// session, matching classic form-post navigation.
package web

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
)

// renderPage emits page props with the shared envelope: the component name,
// the authenticated user, and any pending flash message (consumed here).
func renderPage(c *fiber.Ctx, sessions *auth.SessionStore, logger *zap.Logger, component string, principal *domain.User, props fiber.Map) error {
	var flash *auth.Flash
	if token, ok := auth.SessionTokenFromContext(c); ok {
		var err error
		flash, err = sessions.TakeFlash(c.UserContext(), token)
		if err != nil {
			logger.Warn("flash read failed", zap.Error(err))
		}
	}
	if props == nil {
		props = fiber.Map{}
	}
	return c.JSON(fiber.Map{
		"component": component,
		"auth":      fiber.Map{"user": dto.FromUser(principal)},
		"flash":     flash,
		"props":     props,
	})
}

// redirectWithFlash stores a flash for the caller's session and issues a
// 303 so the browser re-fetches the target with GET.
func redirectWithFlash(c *fiber.Ctx, sessions *auth.SessionStore, logger *zap.Logger, kind, message, location string) error {
	if token, ok := auth.SessionTokenFromContext(c); ok {
		if err := sessions.SetFlash(c.UserContext(), token, kind, message); err != nil {
			logger.Warn("flash write failed", zap.Error(err))
		}
	}
	return c.Redirect(location, fiber.StatusSeeOther)
}

// backLocation picks the referer when present so validation-free mutations
// land the user where they came from.
func backLocation(c *fiber.Ctx, fallback string) string {
	if ref := c.Get("Referer"); ref != "" {
		return ref
	}
	return fallback
}
