package webtonicserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/Sawchord/webtonic/internal/wtlog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Builder accumulates registered services before Build freezes them into a
// Server, matching the builder/serve surface spec §4.3 requires regardless
// of internal dispatch strategy.
type Builder struct {
	registry *Registry
}

// NewBuilder returns an empty Builder backed by a map-based Registry.
func NewBuilder() *Builder {
	return &Builder{registry: NewRegistry()}
}

// AddService registers s under its Name, returning the Builder for
// chaining. Later registrations under the same name win (spec §3).
func (b *Builder) AddService(s Service) *Builder {
	b.registry.Add(s)
	return b
}

// Build freezes the registered services and returns a Server ready to
// Serve. The registry is immutable from this point on (spec §5).
func (b *Builder) Build() *Server {
	frozen := NewRegistry()
	for name, s := range b.registry.services {
		frozen.services[name] = s
	}
	return newServer(frozen)
}

// Server accepts WebSocket upgrades at "/" and dispatches each tunneled
// call through the Dispatcher it was built with.
type Server struct {
	dispatch Dispatcher
	router   *chi.Mux
}

// NewServerWithDispatcher builds a Server around an arbitrary Dispatcher,
// such as a Route chain terminated by Unimplemented, for callers who want
// the cons-list strategy from spec §4.3/§9 instead of Builder's Registry.
func NewServerWithDispatcher(dispatch Dispatcher) *Server {
	return newServer(dispatch)
}

func newServer(dispatch Dispatcher) *Server {
	s := &Server{dispatch: dispatch}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleUpgrade)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler, so a Server can be mounted into any
// existing mux or passed directly to http.ListenAndServe or httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve binds addr and runs forever, accepting WebSocket upgrades at "/"
// and rejecting anything else with the embedded server's default error
// (spec §4.3).
func (s *Server) Serve(addr string) error {
	wtlog.Info("listening on %s", addr)
	return http.ListenAndServe(addr, s)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		wtlog.Warn("websocket upgrade failed: %v", err)
		return
	}
	handleConnection(conn, s.dispatch)
}
