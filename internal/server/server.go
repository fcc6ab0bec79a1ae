/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the auth,
analysis and storage services into the router.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/analysis"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/auth"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/utility"
	"github.com/gorilla/sessions"
)

// HealthReporter is implemented by every storage backend.
type HealthReporter interface {
	Health() map[string]string
}

// Deps are the services the server routes to.
type Deps struct {
	Storage  HealthReporter
	Auth     *auth.Handler
	Analysis *analysis.Handler
	Hub      *utility.Hub
	Sessions sessions.Store

	// MaxUploadSize bounds request bodies, in bytes.
	MaxUploadSize int64
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// storage reports the health of the persisted state backend.
	storage HealthReporter

	auth          *auth.Handler
	analysis      *analysis.Handler
	hub           *utility.Hub
	sessions      sessions.Store
	maxUploadSize int64
}

// New builds a Server without starting it. Every login and logout makes
// the open pages reload through the websocket hub.
func New(port int, deps Deps) *Server {
	deps.Auth.Store().Subscribe(func(user auth.User, loggedIn bool) {
		deps.Hub.Broadcast(utility.RefreshMessage)
	})

	return &Server{
		port:          port,
		storage:       deps.Storage,
		auth:          deps.Auth,
		analysis:      deps.Analysis,
		hub:           deps.Hub,
		sessions:      deps.Sessions,
		maxUploadSize: deps.MaxUploadSize,
	}
}

// NewServer returns a configured *http.Server with production network
// timeouts. The write timeout leaves room for a slow inference call.
func NewServer(port int, deps Deps) *http.Server {
	newApp := New(port, deps)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", newApp.port),
		Handler:      newApp.RegisterRoutes(), // Injected from routes.go
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}
}
