package webtonicserver

import "net/http"

// Dispatcher routes a decoded request to the service named by its first
// URI path segment. Registry and Route are the two dispatch strategies
// permitted for this, and both satisfy Dispatcher identically from the
// connection handler's point of view.
type Dispatcher interface {
	Invoke(name string, req *http.Request) *http.Response
}

// Registry is the map-based dispatch strategy: a name-keyed collection of
// type-erased services behind the Service capability interface. Lookup is
// O(1) average; later registrations under the same name win.
type Registry struct {
	services map[string]Service
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]Service)}
}

// Add registers s, replacing any existing registration under the same
// Name.
func (r *Registry) Add(s Service) {
	r.services[s.Name()] = s
}

// Lookup returns the service registered under name, if any.
func (r *Registry) Lookup(name string) (Service, bool) {
	s, ok := r.services[name]
	return s, ok
}

// Invoke implements Dispatcher, answering with a status-12 reply when no
// service is registered under name.
func (r *Registry) Invoke(name string, req *http.Request) *http.Response {
	svc, ok := r.Lookup(name)
	if !ok {
		return unimplementedResponse()
	}
	return svc.Invoke(req)
}

// Route is the cons-list dispatch strategy: each node holds one service
// and a tail Dispatcher to delegate to when the name doesn't match. It is
// an alternative to Registry for callers who prefer a statically built
// chain over a map, e.g. when the service set is fixed at compile time.
type Route struct {
	Service Service
	Next    Dispatcher
}

// NewRoute prepends svc to next, matching it before anything next would
// match.
func NewRoute(svc Service, next Dispatcher) *Route {
	return &Route{Service: svc, Next: next}
}

// Invoke implements Dispatcher.
func (rt *Route) Invoke(name string, req *http.Request) *http.Response {
	if name == rt.Service.Name() {
		return rt.Service.Invoke(req)
	}
	return rt.Next.Invoke(name, req)
}

// Unimplemented is the terminal node of a Route chain: every call reaching
// it answers with a status-12 reply over an HTTP 200 envelope.
type Unimplemented struct{}

// Invoke implements Dispatcher.
func (Unimplemented) Invoke(_ string, _ *http.Request) *http.Response {
	return unimplementedResponse()
}
