package controllers

import (
	"net/http"

	"github.com/gorilla/securecookie"

	"blogpress/app/logging"
)

const flashCookieName = "blogpress_flash"

// Flashes stores one-shot messages in a signed cookie.
type Flashes struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewFlashes signs flash cookies with hashKey. A nil key draws a random one,
// so pending messages do not survive a restart.
func NewFlashes(hashKey []byte, secure bool) *Flashes {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
	}
	codec := securecookie.New(hashKey, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Flashes{codec: codec, secure: secure}
}

// Add queues a message for the next rendered page.
func (f *Flashes) Add(w http.ResponseWriter, r *http.Request, message string) {
	messages := append(f.read(r), message)
	value, err := f.codec.Encode(flashCookieName, messages)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("encode flash")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending messages and clears the cookie.
func (f *Flashes) Pop(w http.ResponseWriter, r *http.Request) []string {
	messages := f.read(r)
	if _, err := r.Cookie(flashCookieName); err == nil {
		http.SetCookie(w, &http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   f.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return messages
}

func (f *Flashes) read(r *http.Request) []string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	var messages []string
	if err := f.codec.Decode(flashCookieName, cookie.Value, &messages); err != nil {
		return nil
	}
	return messages
}
