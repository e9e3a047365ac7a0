package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const principalKey = "auth_principal"

// Middleware loads principals for both surfaces: bearer JWTs on the
// programmatic surface and session cookies on the interactive one.
type Middleware struct {
	tokens     *TokenManager
	sessions   *SessionStore
	users      repository.UserRepository
	cookieName string
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, sessions *SessionStore, users repository.UserRepository, cookieName string) *Middleware {
	return &Middleware{tokens: tokens, sessions: sessions, users: users, cookieName: cookieName}
}

// Bearer enforces JWT authentication for /api routes.
func (m *Middleware) Bearer(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	return m.loadPrincipal(c, claims.UserID)
}

// Session enforces session-cookie authentication for the interactive surface.
func (m *Middleware) Session(c *fiber.Ctx) error {
	token := c.Cookies(m.cookieName)
	if token == "" {
		return apperrors.NewUnauthorized("missing session")
	}

	userID, err := m.sessions.Resolve(c.UserContext(), token)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return apperrors.NewUnauthorized("session expired")
		}
		return apperrors.MapError(err)
	}

	c.Locals(sessionTokenKey, token)
	return m.loadPrincipal(c, userID)
}

// Any authenticates through whichever credential the request carries: a
// bearer header, a token query parameter, or the session cookie. Websocket
// dials use it because browsers cannot attach headers to an upgrade request.
func (m *Middleware) Any(c *fiber.Ctx) error {
	if c.Get("Authorization") != "" {
		return m.Bearer(c)
	}
	if token := c.Query("token"); token != "" {
		claims, err := m.tokens.ParseToken(token)
		if err != nil {
			return apperrors.NewUnauthorized("invalid token")
		}
		return m.loadPrincipal(c, claims.UserID)
	}
	if c.Cookies(m.cookieName) != "" {
		return m.Session(c)
	}
	return apperrors.NewUnauthorized("authentication required")
}

func (m *Middleware) loadPrincipal(c *fiber.Ctx, userID string) error {
	user, err := m.users.GetByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	c.Locals(principalKey, user)
	return c.Next()
}

const sessionTokenKey = "auth_session_token"

// PrincipalFromContext retrieves the authenticated user.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}

// SessionTokenFromContext retrieves the session token, if the request was
// authenticated through the interactive surface.
func SessionTokenFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(sessionTokenKey)
	if val == nil {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}
