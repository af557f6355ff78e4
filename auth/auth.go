package auth

import (
	"crypto/sha256"
	"net/http"

	"contactbook/config"

	"github.com/gorilla/sessions"
)

var Store *sessions.CookieStore

func InitStore() {
	// Derive two 32-byte keys from the session key to ensure secure encryption
	// Auth key for signing (HMAC)
	authKey := sha256.Sum256([]byte(config.AppConfig.SessionKey + "auth"))
	// Encryption key for content encryption (AES)
	encKey := sha256.Sum256([]byte(config.AppConfig.SessionKey + "encryption"))

	Store = sessions.NewCookieStore(authKey[:], encKey[:])

	// Ensure cookie security settings
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   config.AppConfig.ListenPort != 8080, // Default to true unless dev port
		SameSite: http.SameSiteLaxMode,
	}
}

const SessionName = "contacts-session"

// CurrentUser returns the signed-in username, or "" for anonymous sessions.
func CurrentUser(r *http.Request) string {
	session, _ := Store.Get(r, SessionName)
	if name, ok := session.Values["username"].(string); ok {
		return name
	}
	return ""
}

// SignIn establishes the session identity after a successful signup or signin.
func SignIn(w http.ResponseWriter, r *http.Request, username string) {
	session, _ := Store.Get(r, SessionName)
	session.Values["username"] = username
	session.Save(r, w)
}

// SignOut removes the session identity. The session itself survives so a
// goodbye flash set afterwards still reaches the next page.
func SignOut(w http.ResponseWriter, r *http.Request) {
	session, _ := Store.Get(r, SessionName)
	delete(session.Values, "username")
	session.Save(r, w)
}

// Flash stores a one-shot message to be displayed on the next rendered page.
func Flash(w http.ResponseWriter, r *http.Request, message string) {
	session, _ := Store.Get(r, SessionName)
	session.AddFlash(message)
	session.Save(r, w)
}

// Flashes pops all pending flash messages. Each message is returned at most
// once; popping persists the cleared state back to the session.
func Flashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := Store.Get(r, SessionName)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	session.Save(r, w)

	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}
