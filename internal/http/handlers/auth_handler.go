// Auth HTTP handlers.
//
//   - POST /auth/register
//   - POST /auth/login
//   - POST /auth/logout
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-image-studio/internal/services"
	"github.com/tbourn/go-image-studio/internal/session"
	"github.com/tbourn/go-image-studio/internal/studio"
)

// RegisterRequest is the JSON payload of the registration form.
type RegisterRequest struct {
	Username        string `json:"username" example:"ana"`
	Password        string `json:"password" example:"correct horse"`
	ConfirmPassword string `json:"confirm_password" example:"correct horse"`
	// SecretKey is the user's provider API key; it must start with "sk-".
	SecretKey string `json:"secret_key" example:"sk-..."`
}

// LoginRequest is the JSON payload of the login form.
type LoginRequest struct {
	Username string `json:"username" example:"ana"`
	Password string `json:"password" example:"correct horse"`
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Stores a new account. The screen does not change; log in afterwards.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterRequest  true  "Registration form"
// @Success     201  {object}  handlers.ScreenResponse
// @Failure     400  {object}  handlers.ScreenResponse  "Validation failed"
// @Failure     409  {object}  handlers.ScreenResponse  "Username taken or already logged in"
// @Failure     503  {object}  handlers.ScreenResponse  "Account store unavailable"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.run(c, http.StatusCreated, badBody("invalid JSON body"))
		return
	}
	h.run(c, http.StatusCreated, func(ctx context.Context, st studio.State, _ session.Slot) (studio.State, studio.Result) {
		return h.studio.Register(ctx, st, services.RegisterInput{
			Username:        req.Username,
			Password:        req.Password,
			ConfirmPassword: req.ConfirmPassword,
			SecretKey:       req.SecretKey,
		})
	})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies the credentials, sets the session cookie and moves to the input screen.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Login form"
// @Success     200  {object}  handlers.ScreenResponse
// @Failure     400  {object}  handlers.ScreenResponse  "Missing username or password"
// @Failure     401  {object}  handlers.ScreenResponse  "Invalid credentials"
// @Failure     409  {object}  handlers.ScreenResponse  "Already logged in"
// @Failure     429  {object}  handlers.ErrorResponse   "Rate limited"
// @Failure     503  {object}  handlers.ScreenResponse  "Account store unavailable"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.run(c, http.StatusOK, badBody("invalid JSON body"))
		return
	}
	h.run(c, http.StatusOK, func(ctx context.Context, st studio.State, slot session.Slot) (studio.State, studio.Result) {
		return h.studio.Login(ctx, st, slot, req.Username, req.Password)
	})
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Clears the session cookie and returns the auth screen. Succeeds without a session.
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  handlers.ScreenResponse
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	h.run(c, http.StatusOK, h.studio.Logout)
}
