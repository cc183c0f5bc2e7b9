// Package webtonicserver is the server-side half of the tunnel: it accepts
// WebSocket upgrades, decodes each inbound frame into an HTTP request,
// dispatches it to a registered service by the first path segment, and
// turns the resulting HTTP response back into an outbound frame.
package webtonicserver

import "net/http"

// Service is the contract every registered gRPC service must satisfy. Name
// returns the service's fully qualified protobuf name, used as the first
// URI path segment for dispatch. Invoke answers one HTTP request with one
// HTTP response and must never fail at the transport level — application
// errors are returned as ordinary 200 responses carrying gRPC trailers.
type Service interface {
	Name() string
	Invoke(req *http.Request) *http.Response
}
