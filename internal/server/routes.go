package server

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/auth"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/utility"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/web"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// TemplateRenderer is a custom html/template renderer for Echo framework
type TemplateRenderer struct {
	templates *template.Template
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	// Use ExecuteTemplate to select the correct template by name
	return t.templates.ExecuteTemplate(w, name, data)
}

// NewTemplateRenderer parses the embedded page templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(web.Files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

var templateFuncs = template.FuncMap{
	// imageURL lets uploaded previews through html/template's URL filter.
	"imageURL": func(s string) template.URL {
		if strings.HasPrefix(s, "data:image/") {
			return template.URL(s)
		}
		return ""
	},
	"percent": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v*100)
	},
	// dict builds the argument map of a nested template call.
	"dict": func(kv ...interface{}) (map[string]interface{}, error) {
		if len(kv)%2 != 0 {
			return nil, fmt.Errorf("dict: odd number of arguments")
		}
		m := make(map[string]interface{}, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			key, ok := kv[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
			}
			m[key] = kv[i+1]
		}
		return m, nil
	},
	"greeting": func(email string) string {
		if i := strings.Index(email, "@"); i > 0 {
			return email[:i]
		}
		return email
	},
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Uploads arrive base64 encoded in JSON, leave room for the expansion.
	limit := s.maxUploadSize*4/3 + 1<<20
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", limit/1024)))

	e.Use(LoggerMiddleware)

	e.StaticFS("/static", echo.MustSubFS(web.Files, "public"))

	renderer, err := NewTemplateRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load templates")
	}
	e.Renderer = renderer

	e.GET("/", s.rootHandler)
	e.GET("/health", s.healthHandler)
	e.GET("/ws", s.hub.ServeWS)

	// Auth pages, skipped once logged in
	e.GET("/login", s.auth.LoginPage, s.auth.RedirectIfAuthenticated)
	e.GET("/signup", s.auth.SignupPage, s.auth.RedirectIfAuthenticated)
	e.POST("/login", s.auth.LoginHandler)
	e.POST("/signup", s.auth.SignupHandler)
	e.GET("/logout", s.auth.LogoutHandler)
	e.POST("/logout", s.auth.LogoutHandler)

	// Protected pages
	protected := e.Group("")
	protected.Use(s.auth.RequireUser)

	protected.GET("/dashboard", s.dashboardHandler)
	protected.GET("/rice-classification", s.analysis.ClassificationPage)
	protected.POST("/rice-classification", s.analysis.ClassifyHandler)
	protected.GET("/disease-detection", s.analysis.DiseasePage)
	protected.POST("/disease-detection", s.analysis.DetectDiseaseHandler)
	protected.GET("/health-check", s.analysis.HealthPage)
	protected.POST("/health-check", s.analysis.AssessHealthHandler)

	// JSON API
	api := e.Group("/api/v1")
	api.POST("/login", s.auth.APILoginHandler)
	api.POST("/signup", s.auth.APISignupHandler)

	apiProtected := api.Group("")
	apiProtected.Use(s.auth.JwtAuthMiddleware)
	apiProtected.GET("/me", s.meHandler)
	apiProtected.POST("/logout", s.auth.APILogoutHandler)
	apiProtected.POST("/classify", s.analysis.APIClassifyHandler)
	apiProtected.POST("/disease", s.analysis.APIDiseaseHandler)
	apiProtected.POST("/health", s.analysis.APIHealthHandler)

	return e
}

// rootHandler sends visitors to the dashboard or the login page.
func (s *Server) rootHandler(c echo.Context) error {
	if _, ok := s.auth.Store().CurrentUser(); ok {
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) dashboardHandler(c echo.Context) error {
	return utility.RenderPage(c, s.sessions, http.StatusOK, "dashboard.html", nil)
}

func (s *Server) meHandler(c echo.Context) error {
	user, ok := c.Get(utility.ContextUserKey).(auth.User)
	if !ok {
		return utility.JSONError(c, http.StatusUnauthorized, "Not logged in")
	}
	return c.JSON(http.StatusOK, user)
}

// LoggerMiddleware tags every request with an id and a child logger. The
// logger is also attached to the request context for the service layer.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(utility.ContextRequestIDKey, requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Str("ip", utility.GetRealIP(c)).Logger()
		c.Set(utility.ContextLoggerKey, &logger)

		req := c.Request()
		c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

		return next(c)
	}
}
