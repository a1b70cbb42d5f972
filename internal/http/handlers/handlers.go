package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-image-studio/internal/services"
	"github.com/tbourn/go-image-studio/internal/session"
	"github.com/tbourn/go-image-studio/internal/studio"
)

// Studio is the application controller consumed by the handlers.
type Studio interface {
	Resume(ctx context.Context, slot session.Slot) (studio.State, studio.Result)
	Commit(prevID string, next studio.State)

	Register(ctx context.Context, st studio.State, in services.RegisterInput) (studio.State, studio.Result)
	Login(ctx context.Context, st studio.State, slot session.Slot, username, password string) (studio.State, studio.Result)
	Logout(ctx context.Context, st studio.State, slot session.Slot) (studio.State, studio.Result)

	Submit(ctx context.Context, st studio.State, req studio.Request) (studio.State, studio.Result)
	Generate(ctx context.Context, st studio.State, slot session.Slot, idemKey string) (studio.State, studio.Result)
	NewImage(ctx context.Context, st studio.State) (studio.State, studio.Result)
	History(st studio.State, limit int) (studio.History, studio.Result)
}

// CodeRenderer draws a scannable PNG code for a URL, or returns nil.
type CodeRenderer interface {
	Render(url string) []byte
}

// Handlers groups the HTTP endpoints of the studio.
type Handlers struct {
	studio     Studio
	codes      CodeRenderer
	catalog    studio.Catalog
	cookie     CookieOptions
	historyMax int
}

// Options configures New.
type Options struct {
	Catalog    studio.Catalog
	Cookie     CookieOptions
	HistoryMax int
}

// New constructs the handlers bound to s.
func New(s Studio, codes CodeRenderer, opts Options) *Handlers {
	if len(opts.Catalog.Categories) == 0 {
		opts.Catalog = studio.DefaultCatalog
	}
	if opts.HistoryMax <= 0 {
		opts.HistoryMax = studio.DefaultHistoryLimit
	}
	return &Handlers{
		studio:     s,
		codes:      codes,
		catalog:    opts.Catalog,
		cookie:     opts.Cookie,
		historyMax: opts.HistoryMax,
	}
}

type operation func(ctx context.Context, st studio.State, slot session.Slot) (studio.State, studio.Result)

// run resumes the visitor's state, applies op, stores the next state and
// renders it.
func (h *Handlers) run(c *gin.Context, okStatus int, op operation) {
	ctx := c.Request.Context()
	slot := NewCookieSlot(c, h.cookie)

	st, res := h.studio.Resume(ctx, slot)
	if !res.OK() {
		render(c, st, res, okStatus)
		return
	}

	next, res := op(ctx, st, slot)
	h.studio.Commit(st.SessionID, next)
	render(c, next, res, okStatus)
}

// badBody renders a validation failure for an unreadable JSON body without
// touching the state.
func badBody(msg string) operation {
	return func(_ context.Context, st studio.State, _ session.Slot) (studio.State, studio.Result) {
		return st, studio.Result{Failure: &studio.Failure{Kind: studio.KindValidation, Message: msg}}
	}
}

// Session godoc
// @ID          getSession
// @Summary     Current screen
// @Description Restores the visitor's screen from the session cookie. A missing or expired session yields the auth screen.
// @Tags        Session
// @Produce     json
// @Success     200  {object}  handlers.ScreenResponse
// @Failure     503  {object}  handlers.ScreenResponse  "Account store unavailable"
// @Router      /session [get]
func (h *Handlers) Session(c *gin.Context) {
	h.run(c, http.StatusOK, func(_ context.Context, st studio.State, _ session.Slot) (studio.State, studio.Result) {
		return st, studio.Result{}
	})
}
