// This file defines the operator endpoints: exchanging the admin key for a
// short-lived token and triggering an immediate poll cycle.  Subscribers
// never authenticate; this surface exists for the person running the
// tracker.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/magiaym/cartelera/internal/utils"
)

// RoleAdmin is the only role the tracker issues.
const RoleAdmin = "ADMIN"

// Triggerer requests an immediate poll cycle; the poller implements it.
type Triggerer interface {
	Trigger()
}

// AdminHandler implements the operator endpoints.
type AdminHandler struct {
	JWTSecret    string
	AdminKeyHash string // bcrypt hash of the admin key
	AccessTTLMin int
	Poller       Triggerer
}

type tokenRequest struct {
	Key string `json:"key"`
}

// IssueToken exchanges the configured admin key for a signed access token.
// The key is verified against its bcrypt hash; the plain key never lives
// in the environment.
func (h *AdminHandler) IssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil || req.Key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing key"})
	}
	if !utils.VerifyKey(h.AdminKeyHash, req.Key) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid key"})
	}
	tok, err := utils.NewAccessToken(h.JWTSecret, "admin", RoleAdmin, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token signing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"exp":          tok.Exp,
	})
}

// TriggerPoll schedules an immediate poll cycle.  The cycle runs on the
// poller's own goroutine, so the endpoint answers 202 right away.
func (h *AdminHandler) TriggerPoll(c echo.Context) error {
	h.Poller.Trigger()
	return c.JSON(http.StatusAccepted, echo.Map{"status": "poll scheduled"})
}
