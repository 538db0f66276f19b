package httpapi

import (
	"strings"

	"github.com/dmitrijs2005/gamestarter/internal/logging"
	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse reports the outcome of a credentials check. Bad credentials
// are not an HTTP error: the status is 200 and Success is false.
type LoginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	UserID   *int64 `json:"user_id,omitempty"`
	UserName string `json:"user_name,omitempty"`
}

const (
	msgBadCredentials = "invalid email or password"
	msgLoggedIn       = "login successful"
	msgValid          = "credentials are valid"
)

type authHandler struct {
	auth   Authenticator
	logger logging.Logger
}

// parseCredentials returns a non-empty problem when the body is unusable.
func parseCredentials(c *fiber.Ctx) (credentialsRequest, string) {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return req, "invalid JSON payload"
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return req, "email and password are required"
	}
	return req, ""
}

// Login authenticates and records the login.
func (h *authHandler) Login(c *fiber.Ctx) error {
	req, problem := parseCredentials(c)
	if problem != "" {
		return writeError(c, fiber.StatusBadRequest, problem)
	}

	res, ok := h.auth.Login(c.UserContext(), req.Email, req.Password, c.IP(), c.Get(fiber.HeaderUserAgent))
	if !ok {
		h.logger.Info(c.UserContext(), "login rejected", "source_address", c.IP())
		return writeJSON(c, fiber.StatusOK, LoginResponse{Message: msgBadCredentials})
	}

	id := res.Identity.ID
	return writeJSON(c, fiber.StatusOK, LoginResponse{
		Success:  true,
		Message:  msgLoggedIn,
		UserID:   &id,
		UserName: res.Identity.Name,
	})
}

// Verify checks credentials only.
func (h *authHandler) Verify(c *fiber.Ctx) error {
	req, problem := parseCredentials(c)
	if problem != "" {
		return writeError(c, fiber.StatusBadRequest, problem)
	}

	identity, ok := h.auth.Verify(c.UserContext(), req.Email, req.Password)
	if !ok {
		return writeJSON(c, fiber.StatusOK, LoginResponse{Message: msgBadCredentials})
	}

	id := identity.ID
	return writeJSON(c, fiber.StatusOK, LoginResponse{
		Success:  true,
		Message:  msgValid,
		UserID:   &id,
		UserName: identity.Name,
	})
}
