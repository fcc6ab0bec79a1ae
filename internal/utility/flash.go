package utility

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const flashSessionName = "saferice-flash"

// Flash kinds, used as css classes by the templates.
const (
	FlashSuccess = "success"
	FlashError   = "destructive"
	FlashInfo    = "info"
)

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Kind    string
	Title   string
	Message string
}

func init() {
	gob.Register(Flash{})
}

// NewSessionStore creates the cookie store that carries flash messages.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(600)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// AddFlash queues a notification for the next page the client loads.
func AddFlash(c echo.Context, store sessions.Store, f Flash) {
	session, err := store.Get(c.Request(), flashSessionName)
	if err != nil {
		// A stale or tampered cookie yields a fresh session; keep going.
		Logger(c).Debug().Err(err).Msg("AddFlash: could not decode flash session")
	}
	session.AddFlash(f)
	if err := session.Save(c.Request(), c.Response()); err != nil {
		Logger(c).Warn().Err(err).Msg("AddFlash: could not save flash session")
	}
}

// Flashes pops every queued notification.
func Flashes(c echo.Context, store sessions.Store) []Flash {
	session, err := store.Get(c.Request(), flashSessionName)
	if err != nil {
		return nil
	}

	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(c.Request(), c.Response()); err != nil {
		Logger(c).Warn().Err(err).Msg("Flashes: could not save flash session")
	}

	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// RenderPage renders a template with the queued flashes and the logged-in
// user added to data.
func RenderPage(c echo.Context, store sessions.Store, status int, name string, data map[string]interface{}) error {
	if data == nil {
		data = make(map[string]interface{})
	}
	flashes := Flashes(c, store)
	if extra, ok := data["flashes"].([]Flash); ok {
		flashes = append(flashes, extra...)
	}
	data["flashes"] = flashes
	if user := c.Get(ContextUserKey); user != nil {
		data["user"] = user
	}
	data["path"] = c.Path()
	return c.Render(status, name, data)
}
