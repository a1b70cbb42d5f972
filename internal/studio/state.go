// Package studio is the application controller of the image studio. It owns
// the per-session ApplicationState and moves it between three screens:
//
//	auth --login--> input --submit--> generate --new image--> input
//	any  --logout or provider failure--> auth
//
// Every operation takes the current State by value and returns the next State
// together with a Result; nothing is mutated in place. The HTTP layer renders
// every Result through a single presentation routine.
package studio

import "time"

// Screen is one of the three views of the application.
type Screen string

const (
	ScreenAuth     Screen = "auth"
	ScreenInput    Screen = "input"
	ScreenGenerate Screen = "generate"
)

// DefaultHistoryLimit bounds History when no limit is configured.
const DefaultHistoryLimit = 5

// Request is the form submitted on the input screen.
type Request struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Category string `json:"category"`
	Hobby    string `json:"hobby"`
	Color    string `json:"color"`
	Style    string `json:"style"`
	Mood     string `json:"mood"`
	Filter   string `json:"filter"`
}

// Entry is one remembered generation.
type Entry struct {
	ResultReference string    `json:"result_reference"`
	SourceText      string    `json:"source_text"`
	Timestamp       time.Time `json:"timestamp"`
}

// History holds the most recent generations, oldest first.
type History []Entry

// Append returns a new History with e added at the end and the oldest
// entries dropped so that at most limit remain. The receiver is not modified.
func (h History) Append(e Entry, limit int) History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	start := 0
	if n := len(h) + 1; n > limit {
		start = n - limit
	}
	out := make(History, 0, len(h)-start+1)
	if start < len(h) {
		out = append(out, h[start:]...)
	}
	return append(out, e)
}

// Last returns up to n of the newest entries, oldest first. n <= 0 returns
// everything.
func (h History) Last(n int) History {
	if n <= 0 || n >= len(h) {
		return append(History(nil), h...)
	}
	return append(History(nil), h[len(h)-n:]...)
}

// State is the memory-resident application state of one session.
type State struct {
	SessionID     string
	Authenticated bool
	Username      string
	SecretKey     string
	Screen        Screen
	Pending       *Request
	History       History
}

// NewState returns the initial, unauthenticated state.
func NewState() State {
	return State{Screen: ScreenAuth}
}
