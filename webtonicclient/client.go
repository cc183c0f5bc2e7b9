// Package webtonicclient is the browser-side half of the tunnel: a gRPC
// transport that serializes each call into a webtonicpb.Call, sends it over
// a WebSocket connection, and rebuilds the matching Reply into an
// *http.Response.
//
// Client implements Doer, so it can be used anywhere an *http.Client would
// be: directly as connectrpc.com/connect's HTTPClient, or wrapped in any
// other HTTP-based RPC stack.
package webtonicclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Sawchord/webtonic/internal/wtlog"
	"github.com/Sawchord/webtonic/webtonicpb"
)

// Doer is the transport-level contract the client satisfies and the only
// thing its callers need to depend on. The standard library's http.Client
// implements it, and so does *Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// connector is the minimal send/receive/close surface a WebSocket backend
// needs to provide. client.go's dialing logic is the default,
// gorilla/websocket-based implementation; client_js.go provides a
// syscall/js one for use inside a browser-hosted WASM binary.
type connector interface {
	send(ctx context.Context, msg []byte) ([]byte, error)
	close() error
}

// Client is a single-inflight gRPC transport tunneled over one WebSocket
// connection. Only one call may be outstanding at a time (spec §5); callers
// issuing concurrent calls block on each other rather than racing frames on
// the wire.
type Client struct {
	conn connector
	mu   sync.Mutex
}

var _ Doer = (*Client)(nil)

// Connect dials uri, which must be a ws:// or wss:// endpoint, and returns a
// Client ready to carry gRPC calls. It fails with ErrInvalidUrl if uri
// cannot be parsed as a WebSocket URL, or ErrConnectionError if the
// handshake itself fails.
func Connect(ctx context.Context, uri string) (*Client, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, webtonicpb.NewError(webtonicpb.InvalidUrl, "parsing websocket URL", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, webtonicpb.NewError(webtonicpb.InvalidUrl, "scheme must be ws or wss, got "+u.Scheme, nil)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	wsConn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, webtonicpb.NewError(webtonicpb.ConnectionError, "dialing "+uri, err)
	}
	wtlog.Info("connected to %s", uri)

	return &Client{conn: &wsConnector{conn: wsConn}}, nil
}

// Do encodes req as a Call, sends it as a single binary WebSocket frame,
// and decodes the single Reply frame that answers it. The underlying
// connection permits only one in-flight call at a time; Do blocks until any
// earlier call on the same Client has returned.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	call, err := webtonicpb.EncodeCall(req)
	if err != nil {
		return nil, err
	}
	data, err := call.Marshal()
	if err != nil {
		return nil, webtonicpb.NewError(webtonicpb.EncodingError, "marshaling call", err)
	}

	c.mu.Lock()
	respData, err := c.conn.send(req.Context(), data)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	reply, err := webtonicpb.UnmarshalReply(respData)
	if err != nil {
		return nil, webtonicpb.NewError(webtonicpb.DecodingError, "unmarshaling reply", err)
	}
	return webtonicpb.DecodeReply(reply)
}

// Close releases the underlying WebSocket connection. With the default
// connector, Close waits for a call in flight on another goroutine to
// finish before closing; with the browser connector (ConnectBrowser), such
// a call returns ErrConnectionClosed.
func (c *Client) Close() error {
	return c.conn.close()
}

// wsConnector is the default connector, usable from any ordinary Go
// program (including tests, via httptest's WebSocket upgrade) as well as a
// non-browser CLI. It issues one WriteMessage followed by one ReadMessage
// per send, matching the tunnel's single-inflight discipline.
type wsConnector struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConnector) send(ctx context.Context, msg []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = w.conn.SetWriteDeadline(deadline)
		_ = w.conn.SetReadDeadline(deadline)
	}

	if err := w.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		if isCloseError(err) {
			return nil, webtonicpb.NewError(webtonicpb.ConnectionClosed, "sending call", err)
		}
		return nil, webtonicpb.NewError(webtonicpb.ConnectionError, "sending call", err)
	}

	kind, reply, err := w.conn.ReadMessage()
	if err != nil {
		if isCloseError(err) {
			return nil, webtonicpb.NewError(webtonicpb.ConnectionClosed, "awaiting reply", err)
		}
		return nil, webtonicpb.NewError(webtonicpb.ConnectionError, "awaiting reply", err)
	}
	if kind != websocket.BinaryMessage {
		return nil, webtonicpb.NewError(webtonicpb.DecodingError, "reply frame was not binary", nil)
	}
	return reply, nil
}

func (w *wsConnector) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return w.conn.Close()
}

func isCloseError(err error) bool {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
	) || err == websocket.ErrCloseSent {
		return true
	}
	// A peer that drops the TCP connection without a close handshake
	// surfaces here as a plain EOF, not a *websocket.CloseError.
	return errors.Is(err, io.EOF)
}
