package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-image-studio/internal/services"
	"github.com/tbourn/go-image-studio/internal/session"
)

// --- fakes ---

type fakeCredentials struct {
	mu    sync.Mutex
	users map[string][2]string // username -> {password, secret key}
	err   error
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{users: map[string][2]string{}}
}

func (f *fakeCredentials) Register(_ context.Context, in services.RegisterInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u := strings.TrimSpace(in.Username)
	if u == "" {
		return services.ErrEmptyUsername
	}
	if _, ok := f.users[u]; ok {
		return services.ErrAlreadyExists
	}
	f.users[u] = [2]string{in.Password, in.SecretKey}
	return nil
}

func (f *fakeCredentials) Verify(_ context.Context, username, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	u, ok := f.users[username]
	if !ok || u[0] != password {
		return "", services.ErrInvalidCredentials
	}
	return u[1], nil
}

func (f *fakeCredentials) Exists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.users[username]
	return ok, nil
}

type fakeProvider struct {
	mu          sync.Mutex
	promptErr   error
	imageErr    error
	promptCalls int
	imageCalls  int
	lastKey     string
	n           int
}

func (p *fakeProvider) SynthesizePrompt(_ context.Context, apiKey, instruction, request string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.promptCalls++
	p.lastKey = apiKey
	if p.promptErr != nil {
		return "", p.promptErr
	}
	if instruction != Instruction || request == "" {
		return "", errors.New("unexpected prompt input")
	}
	return fmt.Sprintf("a vivid scene #%d", p.promptCalls), nil
}

func (p *fakeProvider) SynthesizeImage(_ context.Context, _ string, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imageCalls++
	if p.imageErr != nil {
		return "", p.imageErr
	}
	p.n++
	return fmt.Sprintf("https://img.example/%d.png?p=%d", p.n, len(prompt)), nil
}

type fakeCodes struct{}

func (fakeCodes) Render(url string) []byte { return []byte("qr:" + url) }

type fakeReplays struct {
	mu        sync.Mutex
	items     map[string]Generation
	lookupErr error
	saveErr   error
}

func (r *fakeReplays) Lookup(_ context.Context, username, key string) (*Generation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	g, ok := r.items[username+"|"+key]
	if !ok {
		return nil, ErrReplayMiss
	}
	return &g, nil
}

func (r *fakeReplays) Remember(_ context.Context, username, key string, g Generation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.items == nil {
		r.items = map[string]Generation{}
	}
	r.items[username+"|"+key] = g
	return nil
}

// --- helpers ---

type harness struct {
	c     *Controller
	creds *fakeCredentials
	ai    *fakeProvider
	reps  *fakeReplays
	slot  *session.MemorySlot
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mgr, err := session.NewManager(strings.Repeat("k", 32), time.Hour)
	require.NoError(t, err)

	h := &harness{
		creds: newFakeCredentials(),
		ai:    &fakeProvider{},
		reps:  &fakeReplays{},
		slot:  &session.MemorySlot{},
	}
	h.c = &Controller{
		Credentials: h.creds,
		Sessions:    mgr,
		Prompts:     h.ai,
		Images:      h.ai,
		Codes:       fakeCodes{},
		Replays:     h.reps,
		States:      NewStateStore(time.Hour),
		Now:         func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return h
}

func (h *harness) registerAndLogin(t *testing.T, ctx context.Context) State {
	t.Helper()
	_, res := h.c.Register(ctx, NewState(), services.RegisterInput{
		Username: "ana", Password: "secret1", ConfirmPassword: "secret1", SecretKey: "sk-ana",
	})
	require.True(t, res.OK(), "register: %v", res.Failure)

	st, res := h.c.Login(ctx, NewState(), h.slot, "ana", "secret1")
	require.True(t, res.OK(), "login: %v", res.Failure)
	return st
}

func (h *harness) submitted(t *testing.T, ctx context.Context, st State) State {
	t.Helper()
	st, res := h.c.Submit(ctx, st, validRequest())
	require.True(t, res.OK(), "submit: %v", res.Failure)
	return st
}

// --- tests ---

func TestRegister_StateUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	st, res := h.c.Register(ctx, NewState(), services.RegisterInput{
		Username: "ana", Password: "secret1", ConfirmPassword: "secret1", SecretKey: "sk-1",
	})
	require.True(t, res.OK())
	assert.Equal(t, NewState(), st)
	assert.NotEmpty(t, res.Notice)

	_, res = h.c.Register(ctx, NewState(), services.RegisterInput{
		Username: "ana", Password: "x", ConfirmPassword: "x", SecretKey: "sk-2",
	})
	require.False(t, res.OK())
	assert.Equal(t, KindAlreadyExists, res.Failure.Kind)
}

func TestRegister_ErrorKinds(t *testing.T) {
	ctx := context.Background()
	in := services.RegisterInput{Username: "ana", Password: "p", ConfirmPassword: "p", SecretKey: "sk-1"}

	cases := []struct {
		err  error
		kind Kind
	}{
		{services.ErrPasswordMismatch, KindValidation},
		{fmt.Errorf("%w: disk I/O error", services.ErrStoreUnavailable), KindStoreUnavailable},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		h := newHarness(t)
		h.creds.err = tc.err
		_, res := h.c.Register(ctx, NewState(), in)
		require.False(t, res.OK())
		assert.Equal(t, tc.kind, res.Failure.Kind, "err=%v", tc.err)
	}
}

func TestRegister_ValidationMessageIsShown(t *testing.T) {
	h := newHarness(t)
	h.creds.err = services.ErrPasswordMismatch
	_, res := h.c.Register(context.Background(), NewState(), services.RegisterInput{})
	require.False(t, res.OK())
	assert.Equal(t, services.ErrPasswordMismatch.Error(), res.Failure.Message)
}

func TestRegister_WhileLoggedInIsConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.registerAndLogin(t, ctx)

	got, res := h.c.Register(ctx, st, services.RegisterInput{Username: "bob"})
	require.False(t, res.OK())
	assert.Equal(t, KindConflict, res.Failure.Kind)
	assert.Equal(t, st, got)
}

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.registerAndLogin(t, ctx)

	assert.True(t, st.Authenticated)
	assert.Equal(t, "ana", st.Username)
	assert.Equal(t, "sk-ana", st.SecretKey)
	assert.Equal(t, ScreenInput, st.Screen)
	assert.NotEmpty(t, st.SessionID)

	_, ok := h.slot.Read()
	assert.True(t, ok, "login should write the session slot")
}

func TestLogin_Failures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.registerAndLogin(t, ctx)

	fresh := &session.MemorySlot{}
	st, res := h.c.Login(ctx, NewState(), fresh, "ana", "wrong")
	require.False(t, res.OK())
	assert.Equal(t, KindInvalidCredentials, res.Failure.Kind)
	assert.Equal(t, NewState(), st)
	_, ok := fresh.Read()
	assert.False(t, ok)

	_, res = h.c.Login(ctx, NewState(), fresh, "nobody", "secret1")
	assert.Equal(t, KindInvalidCredentials, res.Failure.Kind)

	_, res = h.c.Login(ctx, NewState(), fresh, "  ", "secret1")
	assert.Equal(t, KindValidation, res.Failure.Kind)

	h.creds.err = fmt.Errorf("%w: locked", services.ErrStoreUnavailable)
	_, res = h.c.Login(ctx, NewState(), fresh, "ana", "secret1")
	assert.Equal(t, KindStoreUnavailable, res.Failure.Kind)
}

func TestResume(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	st, res := h.c.Resume(ctx, &session.MemorySlot{})
	assert.True(t, res.OK())
	assert.Equal(t, NewState(), st)

	logged := h.registerAndLogin(t, ctx)
	st, _ = h.c.Resume(ctx, h.slot)
	assert.Equal(t, logged.SessionID, st.SessionID)
	assert.Equal(t, ScreenInput, st.Screen)
	assert.Equal(t, "sk-ana", st.SecretKey)
	assert.Empty(t, st.History)

	// A committed state is returned as stored.
	sub := h.submitted(t, ctx, st)
	h.c.Commit(st.SessionID, sub)
	st, _ = h.c.Resume(ctx, h.slot)
	assert.Equal(t, ScreenGenerate, st.Screen)
	require.NotNil(t, st.Pending)
}

func TestResume_VerifyAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.registerAndLogin(t, ctx)
	h.c.VerifyAccount = true

	st, _ := h.c.Resume(ctx, h.slot)
	assert.True(t, st.Authenticated)

	delete(h.creds.users, "ana")
	st, res := h.c.Resume(ctx, h.slot)
	assert.True(t, res.OK())
	assert.False(t, st.Authenticated)
	_, ok := h.slot.Read()
	assert.False(t, ok, "session of a vanished account should be cleared")
}

func TestSubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, res := h.c.Submit(ctx, NewState(), validRequest())
	assert.Equal(t, KindUnauthenticated, res.Failure.Kind)

	st := h.registerAndLogin(t, ctx)

	bad := validRequest()
	bad.Name = "   "
	got, res := h.c.Submit(ctx, st, bad)
	require.False(t, res.OK())
	assert.Equal(t, KindValidation, res.Failure.Kind)
	assert.Equal(t, "please enter a name", res.Failure.Message)
	assert.Equal(t, st, got)

	for _, age := range []int{MinAge - 1, MaxAge + 1} {
		bad = validRequest()
		bad.Age = age
		_, res = h.c.Submit(ctx, st, bad)
		assert.Equal(t, KindValidation, res.Failure.Kind, "age %d", age)
	}

	bad = validRequest()
	bad.Color = "beige"
	_, res = h.c.Submit(ctx, st, bad)
	assert.Equal(t, KindValidation, res.Failure.Kind)

	req := validRequest()
	req.Name = "  Nino  "
	req.Style = "ANIME"
	got, res = h.c.Submit(ctx, st, req)
	require.True(t, res.OK())
	assert.Equal(t, ScreenGenerate, got.Screen)
	require.NotNil(t, got.Pending)
	assert.Equal(t, "Nino", got.Pending.Name)
	assert.Equal(t, "anime", got.Pending.Style)

	_, res = h.c.Submit(ctx, got, validRequest())
	assert.Equal(t, KindConflict, res.Failure.Kind)
}

func TestGenerate_Success(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.submitted(t, ctx, h.registerAndLogin(t, ctx))

	next, res := h.c.Generate(ctx, st, h.slot, "")
	require.True(t, res.OK(), "%v", res.Failure)
	require.NotNil(t, res.Generation)

	g := res.Generation
	assert.Equal(t, "https://img.example/1.png?p=16", g.ImageURL)
	assert.Equal(t, "a vivid scene #1", g.Prompt)
	assert.Equal(t, BuildRequest(*st.Pending), g.Request)
	assert.Equal(t, Summary(*st.Pending), g.Summary)
	assert.Equal(t, []byte("qr:"+g.ImageURL), g.QRCode)
	assert.False(t, g.Replayed)
	assert.Equal(t, "sk-ana", h.ai.lastKey)

	require.Len(t, next.History, 1)
	assert.Equal(t, Entry{ResultReference: g.ImageURL, SourceText: g.Prompt, Timestamp: g.CreatedAt}, next.History[0])
	assert.Equal(t, ScreenGenerate, next.Screen)
	assert.Empty(t, st.History, "input state must not be mutated")
}

func TestGenerate_HistoryKeepsLastFive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.registerAndLogin(t, ctx)

	var urls []string
	for i := 0; i < 6; i++ {
		st = h.submitted(t, ctx, st)
		var res Result
		st, res = h.c.Generate(ctx, st, h.slot, "")
		require.True(t, res.OK())
		urls = append(urls, res.Generation.ImageURL)
		st, res = h.c.NewImage(ctx, st)
		require.True(t, res.OK())
	}

	require.Len(t, st.History, 5)
	for i, e := range st.History {
		assert.Equal(t, urls[i+1], e.ResultReference)
	}
}

func TestGenerate_UpstreamFailureLogsOut(t *testing.T) {
	for _, which := range []string{"prompt", "image"} {
		t.Run(which, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			st := h.registerAndLogin(t, ctx)

			// One successful generation so there is history to protect.
			st = h.submitted(t, ctx, st)
			st, _ = h.c.Generate(ctx, st, h.slot, "")
			st, _ = h.c.NewImage(ctx, st)
			st = h.submitted(t, ctx, st)
			before := append(History(nil), st.History...)

			if which == "prompt" {
				h.ai.promptErr = errors.New("401 invalid api key")
			} else {
				h.ai.imageErr = context.DeadlineExceeded
			}

			next, res := h.c.Generate(ctx, st, h.slot, "")
			require.False(t, res.OK())
			assert.Equal(t, KindUpstream, res.Failure.Kind)
			assert.True(t, res.Failure.Retry)
			assert.Nil(t, res.Generation)
			assert.Equal(t, NewState(), next)
			assert.Equal(t, before, st.History)

			_, ok := h.slot.Read()
			assert.False(t, ok, "slot should be cleared")
			resumed, _ := h.c.Resume(ctx, h.slot)
			assert.Equal(t, ScreenAuth, resumed.Screen)
		})
	}
}

func TestGenerate_UpstreamTimeout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.submitted(t, ctx, h.registerAndLogin(t, ctx))

	h.c.UpstreamTimeout = time.Millisecond
	h.c.Prompts = blockingPrompts{}

	next, res := h.c.Generate(ctx, st, h.slot, "")
	require.False(t, res.OK())
	assert.Equal(t, KindUpstream, res.Failure.Kind)
	assert.ErrorIs(t, res.Failure, context.DeadlineExceeded)
	assert.False(t, next.Authenticated)
}

type blockingPrompts struct{}

func (blockingPrompts) SynthesizePrompt(ctx context.Context, _, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerate_Guards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, res := h.c.Generate(ctx, NewState(), h.slot, "")
	assert.Equal(t, KindUnauthenticated, res.Failure.Kind)

	st := h.registerAndLogin(t, ctx)
	got, res := h.c.Generate(ctx, st, h.slot, "")
	assert.Equal(t, KindConflict, res.Failure.Kind)
	assert.Equal(t, st, got)
	assert.Zero(t, h.ai.promptCalls)
}

func TestGenerate_IdempotentReplay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.submitted(t, ctx, h.registerAndLogin(t, ctx))

	first, res := h.c.Generate(ctx, st, h.slot, "key-1")
	require.True(t, res.OK())
	url := res.Generation.ImageURL

	again, res := h.c.Generate(ctx, first, h.slot, "key-1")
	require.True(t, res.OK())
	assert.True(t, res.Generation.Replayed)
	assert.Equal(t, url, res.Generation.ImageURL)
	assert.Equal(t, 1, h.ai.promptCalls)
	assert.Equal(t, 1, h.ai.imageCalls)
	assert.Len(t, again.History, 1, "a replay must not add history")
}

func TestGenerate_ReusedKeyForDifferentRequestConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.submitted(t, ctx, h.registerAndLogin(t, ctx))

	st, res := h.c.Generate(ctx, st, h.slot, "key-1")
	require.True(t, res.OK())
	assert.Equal(t, BuildRequest(validRequest()), res.Generation.Request)

	st, res = h.c.NewImage(ctx, st)
	require.True(t, res.OK())
	other := validRequest()
	other.Name = "Marta"
	st, res = h.c.Submit(ctx, st, other)
	require.True(t, res.OK(), "submit: %v", res.Failure)

	got, res := h.c.Generate(ctx, st, h.slot, "key-1")
	require.False(t, res.OK())
	assert.Equal(t, KindConflict, res.Failure.Kind)
	assert.Nil(t, res.Generation)
	assert.Equal(t, st, got)
	assert.Equal(t, 1, h.ai.imageCalls)

	_, res = h.c.Generate(ctx, st, h.slot, "key-2")
	require.True(t, res.OK())
	assert.False(t, res.Generation.Replayed)
	assert.Equal(t, BuildRequest(other), res.Generation.Request)
}

func TestGenerate_ReplayStoreFaults(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.submitted(t, ctx, h.registerAndLogin(t, ctx))

	h.reps.saveErr = errors.New("disk full")
	_, res := h.c.Generate(ctx, st, h.slot, "k")
	require.True(t, res.OK(), "a lost replay record should not fail the generation")

	h.reps.lookupErr = errors.New("database is locked")
	got, res := h.c.Generate(ctx, st, h.slot, "k")
	require.False(t, res.OK())
	assert.Equal(t, KindStoreUnavailable, res.Failure.Kind)
	assert.True(t, got.Authenticated, "store faults do not log out")
}

func TestNewImage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.registerAndLogin(t, ctx)

	_, res := h.c.NewImage(ctx, st)
	assert.Equal(t, KindConflict, res.Failure.Kind)

	st = h.submitted(t, ctx, st)
	st, _ = h.c.Generate(ctx, st, h.slot, "")
	next, res := h.c.NewImage(ctx, st)
	require.True(t, res.OK())
	assert.Equal(t, ScreenInput, next.Screen)
	assert.Nil(t, next.Pending)
	assert.Len(t, next.History, 1)

	_, res = h.c.NewImage(ctx, NewState())
	assert.Equal(t, KindUnauthenticated, res.Failure.Kind)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.registerAndLogin(t, ctx)
	h.c.Commit("", st)

	next, res := h.c.Logout(ctx, st, h.slot)
	require.True(t, res.OK())
	assert.Equal(t, NewState(), next)
	h.c.Commit(st.SessionID, next)
	assert.Zero(t, h.c.States.Len())

	_, ok := h.slot.Read()
	assert.False(t, ok)

	// Logging out without a session is fine.
	next, res = h.c.Logout(ctx, NewState(), &session.MemorySlot{})
	assert.True(t, res.OK())
	assert.Equal(t, NewState(), next)
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	_, res := h.c.History(NewState(), 5)
	assert.Equal(t, KindUnauthenticated, res.Failure.Kind)

	st := State{Authenticated: true, History: History{entry(1), entry(2), entry(3)}}
	got, res := h.c.History(st, 2)
	require.True(t, res.OK())
	assert.Equal(t, History{entry(2), entry(3)}, got)
}

func TestCommit(t *testing.T) {
	h := newHarness(t)
	a := State{SessionID: "a", Authenticated: true}
	h.c.Commit("", a)
	assert.Equal(t, 1, h.c.States.Len())

	b := State{SessionID: "b", Authenticated: true}
	h.c.Commit("a", b)
	_, ok := h.c.States.Get("a")
	assert.False(t, ok)
	_, ok = h.c.States.Get("b")
	assert.True(t, ok)

	h.c.Commit("b", NewState())
	assert.Zero(t, h.c.States.Len())
}
