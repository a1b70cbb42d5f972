// Studio HTTP handlers.
//
//   - POST /studio/request    submit the input form
//   - POST /studio/generate   synthesize the image (Idempotency-Key aware)
//   - POST /studio/new        back to the input screen
//   - GET  /studio/history    recent generations
//   - GET  /studio/options    form vocabulary
//   - GET  /studio/qr         PNG code for a URL
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-image-studio/internal/http/middleware"
	"github.com/tbourn/go-image-studio/internal/session"
	"github.com/tbourn/go-image-studio/internal/studio"
	"github.com/tbourn/go-image-studio/internal/utils"
)

// OptionsResponse lists the choices of the input form.
type OptionsResponse struct {
	studio.Catalog
	MinAge int `json:"min_age" example:"5"`
	MaxAge int `json:"max_age" example:"100"`
}

// Submit godoc
// @ID          submitRequest
// @Summary     Submit the input form
// @Description Validates the form against the catalog and moves to the generate screen.
// @Tags        Studio
// @Accept      json
// @Produce     json
// @Param       body  body  studio.Request  true  "Input form"
// @Success     200  {object}  handlers.ScreenResponse
// @Failure     400  {object}  handlers.ScreenResponse  "Validation failed"
// @Failure     401  {object}  handlers.ScreenResponse  "Not logged in"
// @Failure     409  {object}  handlers.ScreenResponse  "Not on the input screen"
// @Router      /studio/request [post]
func (h *Handlers) Submit(c *gin.Context) {
	var req studio.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.run(c, http.StatusOK, badBody("invalid JSON body"))
		return
	}
	h.run(c, http.StatusOK, func(ctx context.Context, st studio.State, _ session.Slot) (studio.State, studio.Result) {
		return h.studio.Submit(ctx, st, req)
	})
}

// Generate godoc
// @ID          generateImage
// @Summary     Generate the image
// @Description Synthesizes a prompt and an image for the submitted form. A provider failure logs the user out (502, retry=true).
// @Description With Idempotency-Key, a repeated call returns the stored result and sets Idempotency-Replayed: true.
// @Tags        Studio
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Success     200  {object}  handlers.ScreenResponse
// @Failure     400  {object}  handlers.ErrorResponse   "Malformed Idempotency-Key"
// @Failure     401  {object}  handlers.ScreenResponse  "Not logged in"
// @Failure     409  {object}  handlers.ScreenResponse  "Nothing submitted"
// @Failure     429  {object}  handlers.ErrorResponse   "Rate limited"
// @Failure     502  {object}  handlers.ScreenResponse  "Provider failure; session ended"
// @Failure     503  {object}  handlers.ScreenResponse  "Result store unavailable"
// @Router      /studio/generate [post]
func (h *Handlers) Generate(c *gin.Context) {
	key, _ := middleware.GetIdempotencyKey(c)
	h.run(c, http.StatusOK, func(ctx context.Context, st studio.State, slot session.Slot) (studio.State, studio.Result) {
		return h.studio.Generate(ctx, st, slot, key)
	})
}

// NewImage godoc
// @ID          newImage
// @Summary     Start a new image
// @Description Leaves the generate screen for the input screen, keeping the history.
// @Tags        Studio
// @Produce     json
// @Success     200  {object}  handlers.ScreenResponse
// @Failure     401  {object}  handlers.ScreenResponse  "Not logged in"
// @Failure     409  {object}  handlers.ScreenResponse  "Not on the generate screen"
// @Router      /studio/new [post]
func (h *Handlers) NewImage(c *gin.Context) {
	h.run(c, http.StatusOK, func(ctx context.Context, st studio.State, _ session.Slot) (studio.State, studio.Result) {
		return h.studio.NewImage(ctx, st)
	})
}

// History godoc
// @ID          listHistory
// @Summary     Recent generations
// @Description Returns up to limit of the newest generations of this session, oldest first.
// @Tags        Studio
// @Produce     json
// @Param       limit  query  int  false  "Maximum entries"  minimum(1) default(5)
// @Success     200  {object}  handlers.ScreenResponse
// @Failure     401  {object}  handlers.ScreenResponse  "Not logged in"
// @Router      /studio/history [get]
func (h *Handlers) History(c *gin.Context) {
	limit := utils.LimitParam(c.Query("limit"), h.historyMax, h.historyMax)

	ctx := c.Request.Context()
	st, res := h.studio.Resume(ctx, NewCookieSlot(c, h.cookie))
	if !res.OK() {
		render(c, st, res, http.StatusOK)
		return
	}
	entries, res := h.studio.History(st, limit)
	h.studio.Commit(st.SessionID, st)

	status, resp := screen(c, st, res, http.StatusOK)
	if res.OK() {
		resp.History = historyView(entries)
	}
	c.JSON(status, resp)
}

// Options godoc
// @ID          listOptions
// @Summary     Form vocabulary
// @Description Categories with their hobbies, colors, styles, moods, filters and age bounds.
// @Tags        Studio
// @Produce     json
// @Success     200  {object}  handlers.OptionsResponse
// @Router      /studio/options [get]
func (h *Handlers) Options(c *gin.Context) {
	c.JSON(http.StatusOK, OptionsResponse{Catalog: h.catalog, MinAge: studio.MinAge, MaxAge: studio.MaxAge})
}

// QR godoc
// @ID          renderQR
// @Summary     QR code for a URL
// @Description Renders a PNG QR code for an absolute http(s) URL. Requires a session.
// @Tags        Studio
// @Produce     png
// @Param       url  query  string  true  "Absolute http(s) URL"
// @Success     200  {file}    file
// @Failure     400  {object}  handlers.ScreenResponse  "Malformed URL"
// @Failure     401  {object}  handlers.ScreenResponse  "Not logged in"
// @Router      /studio/qr [get]
func (h *Handlers) QR(c *gin.Context) {
	ctx := c.Request.Context()
	st, res := h.studio.Resume(ctx, NewCookieSlot(c, h.cookie))
	if !res.OK() {
		render(c, st, res, http.StatusOK)
		return
	}
	if !st.Authenticated {
		render(c, st, studio.Result{Failure: &studio.Failure{Kind: studio.KindUnauthenticated, Message: "Please log in."}}, http.StatusOK)
		return
	}

	var png []byte
	if h.codes != nil {
		png = h.codes.Render(c.Query("url"))
	}
	if png == nil {
		render(c, st, studio.Result{Failure: &studio.Failure{Kind: studio.KindValidation, Message: "url must be an absolute http(s) URL"}}, http.StatusOK)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
