package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-image-studio/internal/session"
)

// CookieOptions describes the session cookie.
type CookieOptions struct {
	Name   string
	Path   string
	Secure bool
}

func (o CookieOptions) name() string {
	if o.Name == "" {
		return "session_data"
	}
	return o.Name
}

func (o CookieOptions) path() string {
	if o.Path == "" {
		return "/"
	}
	return o.Path
}

// cookieSlot stores the session token in an HttpOnly, SameSite=Lax cookie.
// Writes within a request are visible to later reads of the same slot.
type cookieSlot struct {
	c    *gin.Context
	opts CookieOptions

	written bool
	value   string
	present bool
}

// NewCookieSlot returns the session.Slot of the current request.
func NewCookieSlot(c *gin.Context, opts CookieOptions) session.Slot {
	return &cookieSlot{c: c, opts: opts}
}

func (s *cookieSlot) Read() (string, bool) {
	if s.written {
		return s.value, s.present
	}
	v, err := s.c.Cookie(s.opts.name())
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (s *cookieSlot) Write(value string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		s.Erase()
		return
	}
	s.set(value, maxAge)
	s.written, s.value, s.present = true, value, true
}

func (s *cookieSlot) Erase() {
	s.set("", -1)
	s.written, s.value, s.present = true, "", false
}

func (s *cookieSlot) set(value string, maxAge int) {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.opts.name(), value, maxAge, s.opts.path(), "", s.opts.Secure, true)
}
