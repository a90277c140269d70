// Package auth manages operator login sessions over signed cookies. The
// account list is fixed in configuration; there is no registration flow.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/gridsync-io/gridsync-engine/pkg/config"
	"github.com/gridsync-io/gridsync-engine/pkg/models"
)

// SessionName is the name of the login session cookie.
const SessionName = "gridsync-session"

const sessionKeyUsername = "username"

// ErrInvalidCredentials covers unknown usernames and wrong passwords alike;
// login responses must not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Manager owns the session store and the fixed operator accounts.
type Manager struct {
	store *sessions.CookieStore
	users map[string]config.UserConfig
}

// NewManager builds a session manager from auth configuration.
//
// The session secret is SHA-256 hashed to derive a 32-byte signing key, so
// any passphrase works. It must be consistent across server restarts.
// Cookies are HttpOnly and SameSite=Strict; Secure is off only for local
// development over plain HTTP.
func NewManager(cfg *config.AuthConfig, env string) *Manager {
	key := sha256.Sum256([]byte(cfg.SessionSecret))

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeMinutes * 60,
		HttpOnly: true,
		Secure:   env != "local",
		SameSite: http.SameSiteStrictMode,
	}

	users := make(map[string]config.UserConfig, len(cfg.Users))
	for _, u := range cfg.Users {
		users[u.Username] = u
	}
	return &Manager{store: store, users: users}
}

// Login validates the credentials and writes a session cookie.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, username, password string) (*models.User, error) {
	u, ok := m.users[username]
	if !ok || subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		return nil, ErrInvalidCredentials
	}

	session, _ := m.store.Get(r, SessionName)
	session.Values[sessionKeyUsername] = username
	if err := session.Save(r, w); err != nil {
		return nil, err
	}
	return userModel(u), nil
}

// Logout clears the session cookie. Logging out an anonymous request is
// harmless.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionName)
	session.Options.MaxAge = -1
	delete(session.Values, sessionKeyUsername)
	return session.Save(r, w)
}

// CurrentUser resolves the request's session to an operator account.
func (m *Manager) CurrentUser(r *http.Request) (*models.User, bool) {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		return nil, false
	}
	username, ok := session.Values[sessionKeyUsername].(string)
	if !ok {
		return nil, false
	}
	u, ok := m.users[username]
	if !ok {
		// Account removed from config while a session was live.
		return nil, false
	}
	return userModel(u), true
}

func userModel(u config.UserConfig) *models.User {
	return &models.User{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Screens:     u.Screens,
	}
}
