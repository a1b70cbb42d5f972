// Package handlers provides the HTTP handlers of the image studio.
//
// Every studio endpoint answers with a ScreenResponse produced by a single
// render routine: the screen the client should show, who is logged in, an
// optional notice, an optional error and, after a generation, the image.
// Transport-level failures (unknown route, readiness) use ErrorResponse.
package handlers

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-image-studio/internal/http/middleware"
	"github.com/tbourn/go-image-studio/internal/studio"
)

// ErrorBody is the error object of a response.
type ErrorBody struct {
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"invalid_credentials"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Incorrect username or password."`
	// Retry offers to redraw the screen and try again
	Retry bool `json:"retry"`
}

// ErrorResponse is returned by endpoints outside the screen flow.
type ErrorResponse struct {
	RequestID string    `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Error     ErrorBody `json:"error"`
}

// GenerationView is a produced image as shown to the client.
type GenerationView struct {
	ImageURL string `json:"image_url" example:"https://images.example/abc.png"`
	Prompt   string `json:"prompt"`
	Request  string `json:"request"`
	Summary  string `json:"summary"`
	// QRCode is a PNG data URL pointing at ImageURL, when one could be drawn.
	QRCode    string    `json:"qr_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Replayed  bool      `json:"replayed"`
}

// HistoryEntry is one remembered generation.
type HistoryEntry struct {
	ImageURL  string    `json:"image_url"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// ScreenResponse is the body of every studio endpoint.
type ScreenResponse struct {
	RequestID     string          `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Screen        string          `json:"screen" enums:"auth,input,generate" example:"input"`
	Authenticated bool            `json:"authenticated"`
	Username      string          `json:"username,omitempty" example:"ana"`
	Notice        string          `json:"notice,omitempty" example:"Welcome, ana!"`
	Error         *ErrorBody      `json:"error,omitempty"`
	Pending       *studio.Request `json:"pending,omitempty"`
	Generation    *GenerationView `json:"generation,omitempty"`
	History       []HistoryEntry  `json:"history,omitempty"`
}

// screen builds the response for st and res. The HTTP status is okStatus on
// success and derived from the failure kind otherwise.
func screen(c *gin.Context, st studio.State, res studio.Result, okStatus int) (int, ScreenResponse) {
	resp := ScreenResponse{
		RequestID:     middleware.RequestIDFrom(c),
		Screen:        string(st.Screen),
		Authenticated: st.Authenticated,
		Username:      st.Username,
		Notice:        res.Notice,
		Pending:       st.Pending,
	}
	if g := res.Generation; g != nil {
		resp.Generation = newGenerationView(g)
	}

	status := okStatus
	if f := res.Failure; f != nil {
		status = statusFor(f.Kind)
		resp.Error = &ErrorBody{Code: string(f.Kind), Message: f.Message, Retry: f.Retry}

		lg := middleware.LoggerFrom(c)
		if status >= http.StatusInternalServerError {
			lg.Error().Err(f.Err).Int("status", status).Str("code", string(f.Kind)).Msg("api error")
			if f.Err != nil {
				_ = c.Error(f.Err)
			}
		} else {
			lg.Debug().Err(f.Err).Str("code", string(f.Kind)).Msg("request rejected")
		}
	}
	return status, resp
}

// render writes the screen response for st and res.
func render(c *gin.Context, st studio.State, res studio.Result, okStatus int) {
	status, resp := screen(c, st, res, okStatus)
	if resp.Generation != nil && resp.Generation.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	c.JSON(status, resp)
}

func newGenerationView(g *studio.Generation) *GenerationView {
	v := &GenerationView{
		ImageURL:  g.ImageURL,
		Prompt:    g.Prompt,
		Request:   g.Request,
		Summary:   g.Summary,
		CreatedAt: g.CreatedAt,
		Replayed:  g.Replayed,
	}
	if len(g.QRCode) > 0 {
		v.QRCode = "data:image/png;base64," + base64.StdEncoding.EncodeToString(g.QRCode)
	}
	return v
}

func historyView(h studio.History) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(h))
	for _, e := range h {
		out = append(out, HistoryEntry{ImageURL: e.ResultReference, Prompt: e.SourceText, CreatedAt: e.Timestamp})
	}
	return out
}

// fail aborts the request with an ErrorResponse and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Error:     ErrorBody{Code: code, Message: msg},
	})
}

// Fail is the exported variant of fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }
