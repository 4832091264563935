// Package flash carries one-shot notices across a redirect in a signed cookie.
package flash

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
)

const cookieName = "flash"

// Categories follow the Bootstrap alert classes the templates use.
const (
	Success = "success"
	Info    = "info"
	Danger  = "danger"
)

type Message struct {
	Category string
	Text     string
}

func init() {
	gob.Register(Message{})
}

// Store wraps a gorilla cookie store used only for its flash values.
type Store struct {
	cookies *sessions.CookieStore
}

func New(secret string) *Store {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs}
}

// Add queues a message for the next page render. Messages already pending on
// the request are kept.
func (s *Store) Add(w http.ResponseWriter, r *http.Request, category, text string) {
	// A cookie that fails to decode yields a fresh session.
	sess, _ := s.cookies.Get(r, cookieName)
	sess.AddFlash(Message{Category: category, Text: text})
	_ = sess.Save(r, w)
}

// Pop returns the pending messages and clears the cookie.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	sess, err := s.cookies.Get(r, cookieName)
	if err != nil || sess.IsNew {
		return nil
	}
	var msgs []Message
	for _, v := range sess.Flashes() {
		if m, ok := v.(Message); ok {
			msgs = append(msgs, m)
		}
	}
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
	return msgs
}
