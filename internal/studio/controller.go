package studio

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-image-studio/internal/observability"
	"github.com/tbourn/go-image-studio/internal/services"
	"github.com/tbourn/go-image-studio/internal/session"
)

// Age bounds accepted on the input form.
const (
	MinAge = 5
	MaxAge = 100

	maxNameLen = 100
)

// CredentialStore registers and verifies accounts.
type CredentialStore interface {
	Register(ctx context.Context, in services.RegisterInput) error
	Verify(ctx context.Context, username, password string) (string, error)
	Exists(ctx context.Context, username string) (bool, error)
}

// SessionManager issues and loads session tokens.
type SessionManager interface {
	Issue(slot session.Slot, username, secretKey string) (session.Record, error)
	Load(slot session.Slot) (session.Record, error)
	Clear(slot session.Slot)
}

// PromptSynthesizer turns a user request into an image prompt.
type PromptSynthesizer interface {
	SynthesizePrompt(ctx context.Context, apiKey, instruction, request string) (string, error)
}

// ImageSynthesizer renders a prompt and returns the image URL.
type ImageSynthesizer interface {
	SynthesizeImage(ctx context.Context, apiKey, prompt string) (string, error)
}

// CodeRenderer renders a scannable code for a URL, or nil.
type CodeRenderer interface {
	Render(url string) []byte
}

// ReplayStore remembers generations by (username, idempotency key).
type ReplayStore interface {
	Lookup(ctx context.Context, username, key string) (*Generation, error)
	Remember(ctx context.Context, username, key string, g Generation) error
}

// ErrReplayMiss is returned by ReplayStore.Lookup when nothing is stored.
var ErrReplayMiss = errors.New("no stored generation")

// Controller drives the screen state machine.
type Controller struct {
	Credentials CredentialStore
	Sessions    SessionManager
	Prompts     PromptSynthesizer
	Images      ImageSynthesizer
	Codes       CodeRenderer
	// Replays is optional; without it Idempotency-Key is ignored.
	Replays ReplayStore
	States  *StateStore
	Catalog Catalog

	HistoryLimit    int
	UpstreamTimeout time.Duration
	// VerifyAccount makes Resume check that the session's user still exists.
	VerifyAccount bool

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Resume restores the state of the visitor holding slot. A missing or
// expired session silently yields the auth screen.
func (c *Controller) Resume(ctx context.Context, slot session.Slot) (State, Result) {
	rec, err := c.Sessions.Load(slot)
	if err != nil {
		return NewState(), Result{}
	}

	if c.VerifyAccount {
		ok, err := c.Credentials.Exists(ctx, rec.Username)
		if err != nil {
			return NewState(), fail(KindStoreUnavailable, "The account store is unavailable. Please try again later.", err)
		}
		if !ok {
			c.Sessions.Clear(slot)
			if c.States != nil {
				c.States.Delete(rec.ID)
			}
			return NewState(), Result{}
		}
	}

	if c.States != nil {
		if st, ok := c.States.Get(rec.ID); ok && st.Username == rec.Username {
			return st, Result{}
		}
	}
	return State{
		SessionID:     rec.ID,
		Authenticated: true,
		Username:      rec.Username,
		SecretKey:     rec.SecretKey,
		Screen:        ScreenInput,
	}, Result{}
}

// Commit persists next as the state of its session. prevID is the session
// the operation started from; when next no longer carries it (logout), the
// old state is dropped.
func (c *Controller) Commit(prevID string, next State) {
	if c.States == nil {
		return
	}
	if prevID != "" && prevID != next.SessionID {
		c.States.Delete(prevID)
	}
	if next.Authenticated {
		c.States.Put(next)
	}
}

// Register creates an account. The state never changes.
func (c *Controller) Register(ctx context.Context, st State, in services.RegisterInput) (State, Result) {
	if st.Authenticated {
		return st, fail(KindConflict, "Log out before creating another account.", nil)
	}

	err := c.Credentials.Register(ctx, in)
	switch {
	case err == nil:
		observability.CountAuth("register", "ok")
		zerolog.Ctx(ctx).Info().Str("username", strings.TrimSpace(in.Username)).Msg("account registered")
		return st, Result{Notice: "Account created. You can log in now."}
	case errors.Is(err, services.ErrAlreadyExists):
		observability.CountAuth("register", "already_exists")
		return st, fail(KindAlreadyExists, "That username is already taken.", err)
	case errors.Is(err, services.ErrValidation):
		observability.CountAuth("register", "validation")
		return st, fail(KindValidation, validationMessage(err), err)
	case errors.Is(err, services.ErrStoreUnavailable):
		observability.CountAuth("register", "store_unavailable")
		zerolog.Ctx(ctx).Error().Err(err).Msg("register: store unavailable")
		return st, fail(KindStoreUnavailable, "The account store is unavailable. Please try again later.", err)
	default:
		observability.CountAuth("register", "internal")
		zerolog.Ctx(ctx).Error().Err(err).Msg("register failed")
		return st, fail(KindInternal, "Something went wrong. Please refresh the page.", err)
	}
}

// Login verifies the credentials, issues a session into slot and moves to
// the input screen.
func (c *Controller) Login(ctx context.Context, st State, slot session.Slot, username, password string) (State, Result) {
	if st.Authenticated {
		return st, fail(KindConflict, "You are already logged in.", nil)
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return st, fail(KindValidation, "Enter your username and password.", nil)
	}

	key, err := c.Credentials.Verify(ctx, username, password)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrInvalidCredentials):
		observability.CountAuth("login", "invalid_credentials")
		return st, fail(KindInvalidCredentials, "Incorrect username or password.", err)
	case errors.Is(err, services.ErrStoreUnavailable):
		observability.CountAuth("login", "store_unavailable")
		zerolog.Ctx(ctx).Error().Err(err).Msg("login: store unavailable")
		return st, fail(KindStoreUnavailable, "The account store is unavailable. Please try again later.", err)
	default:
		observability.CountAuth("login", "internal")
		return st, fail(KindInternal, "Something went wrong. Please refresh the page.", err)
	}

	rec, err := c.Sessions.Issue(slot, username, key)
	if err != nil {
		observability.CountAuth("login", "internal")
		zerolog.Ctx(ctx).Error().Err(err).Msg("login: issue session")
		return st, fail(KindInternal, "Something went wrong. Please refresh the page.", err)
	}

	observability.CountAuth("login", "ok")
	zerolog.Ctx(ctx).Info().Str("username", username).Msg("logged in")
	return State{
		SessionID:     rec.ID,
		Authenticated: true,
		Username:      username,
		SecretKey:     key,
		Screen:        ScreenInput,
	}, Result{Notice: "Welcome, " + username + "!"}
}

// Submit validates the input form and moves to the generate screen.
func (c *Controller) Submit(ctx context.Context, st State, req Request) (State, Result) {
	if !st.Authenticated {
		return NewState(), fail(KindUnauthenticated, "Please log in.", nil)
	}
	if st.Screen != ScreenInput {
		return st, fail(KindConflict, "Start a new image before submitting another request.", nil)
	}

	req, err := c.validate(req)
	if err != nil {
		return st, fail(KindValidation, validationMessage(err), err)
	}

	next := st
	next.Pending = &req
	next.Screen = ScreenGenerate
	return next, Result{}
}

// Generate synthesizes a prompt and an image for the pending request.
//
// A non-empty idemKey makes the call safe to retry: a generation stored under
// the same key for this user is returned as is, without calling the providers
// and without a second history entry.
//
// Any provider failure or timeout logs the user out: the slot is cleared, the
// auth state is returned, and the caller's history is left as it was.
func (c *Controller) Generate(ctx context.Context, st State, slot session.Slot, idemKey string) (next State, res Result) {
	if !st.Authenticated {
		return NewState(), fail(KindUnauthenticated, "Please log in.", nil)
	}
	if st.Screen != ScreenGenerate || st.Pending == nil {
		return st, fail(KindConflict, "Submit a request before generating an image.", nil)
	}

	ctx, span := observability.Tracer().Start(ctx, "studio.generate")
	defer func() {
		outcome := "ok"
		switch {
		case res.Failure != nil:
			outcome = string(res.Failure.Kind)
			span.SetStatus(codes.Error, res.Failure.Message)
			if res.Failure.Err != nil {
				span.RecordError(res.Failure.Err)
			}
		case res.Generation != nil && res.Generation.Replayed:
			outcome = "replayed"
		}
		span.SetAttributes(attribute.String("studio.outcome", outcome))
		observability.CountGeneration(outcome)
		span.End()
	}()

	log := zerolog.Ctx(ctx)

	req := *st.Pending
	request := BuildRequest(req)

	if idemKey != "" && c.Replays != nil {
		g, err := c.Replays.Lookup(ctx, st.Username, idemKey)
		switch {
		case err == nil && g != nil && g.Request != request:
			return st, fail(KindConflict, "This Idempotency-Key was already used for a different request.", nil)
		case err == nil && g != nil:
			g.Replayed = true
			return st, Result{Generation: g}
		case err != nil && !errors.Is(err, ErrReplayMiss):
			log.Error().Err(err).Msg("generate: replay lookup")
			return st, fail(KindStoreUnavailable, "The result store is unavailable. Please try again later.", err)
		}
	}

	upCtx := ctx
	if c.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		upCtx, cancel = context.WithTimeout(ctx, c.UpstreamTimeout)
		defer cancel()
	}

	prompt, err := c.Prompts.SynthesizePrompt(upCtx, st.SecretKey, Instruction, request)
	if err != nil {
		return c.forcedLogout(ctx, st, slot, err)
	}
	url, err := c.Images.SynthesizeImage(upCtx, st.SecretKey, prompt)
	if err != nil {
		return c.forcedLogout(ctx, st, slot, err)
	}

	g := Generation{
		ImageURL:  url,
		Prompt:    prompt,
		Request:   request,
		Summary:   Summary(req),
		CreatedAt: c.now().UTC(),
	}
	if c.Codes != nil {
		g.QRCode = c.Codes.Render(url)
	}

	if idemKey != "" && c.Replays != nil {
		if err := c.Replays.Remember(ctx, st.Username, idemKey, g); err != nil {
			// The image exists; losing the replay record only costs a retry.
			log.Warn().Err(err).Msg("generate: remember replay")
		}
	}

	next = st
	next.History = st.History.Append(Entry{
		ResultReference: url,
		SourceText:      prompt,
		Timestamp:       g.CreatedAt,
	}, c.historyLimit())
	log.Info().Str("username", st.Username).Int("history", len(next.History)).Msg("image generated")
	return next, Result{Notice: "Your image is ready!", Generation: &g}
}

// NewImage returns from the generate screen to the input screen.
func (c *Controller) NewImage(_ context.Context, st State) (State, Result) {
	if !st.Authenticated {
		return NewState(), fail(KindUnauthenticated, "Please log in.", nil)
	}
	if st.Screen != ScreenGenerate {
		return st, fail(KindConflict, "There is no image to replace.", nil)
	}
	next := st
	next.Pending = nil
	next.Screen = ScreenInput
	return next, Result{}
}

// Logout clears the session slot and returns the initial state. It succeeds
// even when no session exists.
func (c *Controller) Logout(ctx context.Context, st State, slot session.Slot) (State, Result) {
	c.Sessions.Clear(slot)
	if st.Authenticated {
		zerolog.Ctx(ctx).Info().Str("username", st.Username).Msg("logged out")
	}
	return NewState(), Result{Notice: "You have been logged out."}
}

// History returns up to limit of the newest entries of st.
func (c *Controller) History(st State, limit int) (History, Result) {
	if !st.Authenticated {
		return nil, fail(KindUnauthenticated, "Please log in.", nil)
	}
	return st.History.Last(limit), Result{}
}

func (c *Controller) forcedLogout(ctx context.Context, st State, slot session.Slot, cause error) (State, Result) {
	c.Sessions.Clear(slot)
	zerolog.Ctx(ctx).Warn().Err(cause).Str("username", st.Username).Msg("provider failure, session invalidated")

	res := fail(KindUpstream, "The image service could not complete your request. Please log in again.", cause)
	res.Failure.Retry = true
	return NewState(), res
}

func (c *Controller) validate(req Request) (Request, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return req, &FieldError{Field: "name", Msg: "please enter a name"}
	}
	if utf8.RuneCountInString(req.Name) > maxNameLen {
		return req, &FieldError{Field: "name", Msg: "name is too long"}
	}
	if req.Age < MinAge || req.Age > MaxAge {
		return req, &FieldError{Field: "age", Msg: "age must be between 5 and 100"}
	}
	cat := c.Catalog
	if len(cat.Categories) == 0 {
		cat = DefaultCatalog
	}
	return cat.Canonical(req)
}

func (c *Controller) historyLimit() int {
	if c.HistoryLimit <= 0 {
		return DefaultHistoryLimit
	}
	return c.HistoryLimit
}

func (c *Controller) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// validationMessage returns the user-facing text of a validation error.
func validationMessage(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Msg
	}
	return err.Error()
}
