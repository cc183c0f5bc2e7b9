//go:build js && wasm

package webtonicclient

import (
	"context"
	"syscall/js"

	"github.com/Sawchord/webtonic/webtonicpb"
)

// jsConnector is the connector used when this package is compiled to
// js/wasm and run inside a browser tab. It drives the global WebSocket
// constructor directly through syscall/js rather than gorilla/websocket,
// which depends on net.Conn and is unavailable under GOOS=js.
type jsConnector struct {
	ws js.Value
}

// ConnectBrowser dials uri using the browser's native WebSocket object. It
// is the js/wasm counterpart to Connect, and is only built with
// GOOS=js GOARCH=wasm.
func ConnectBrowser(ctx context.Context, uri string) (*Client, error) {
	ws := js.Global().Get("WebSocket").New(uri)
	ws.Set("binaryType", "arraybuffer")

	opened := make(chan error, 1)
	var onOpen, onError js.Func
	onOpen = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		opened <- nil
		return nil
	})
	onError = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		opened <- webtonicpb.NewError(webtonicpb.ConnectionError, "websocket error during connect", nil)
		return nil
	})
	ws.Set("onopen", onOpen)
	ws.Set("onerror", onError)

	select {
	case err := <-opened:
		onOpen.Release()
		onError.Release()
		if err != nil {
			return nil, err
		}
	case <-ctx.Done():
		onOpen.Release()
		onError.Release()
		ws.Call("close")
		return nil, webtonicpb.NewError(webtonicpb.ConnectionError, "connect canceled", ctx.Err())
	}

	return &Client{conn: &jsConnector{ws: ws}}, nil
}

// send installs one-shot onmessage/onerror/onclose handlers, writes msg as
// a single binary frame, and waits for exactly one reply frame — the
// single-inflight discipline the tunnel requires (spec §5).
func (c *jsConnector) send(ctx context.Context, msg []byte) ([]byte, error) {
	result := make(chan sendResult, 1)

	array := js.Global().Get("Uint8Array").New(len(msg))
	js.CopyBytesToJS(array, msg)
	buf := array.Get("buffer")

	var onMessage, onError, onClose js.Func
	cleanup := func() {
		c.ws.Set("onmessage", js.Null())
		c.ws.Set("onerror", js.Null())
		c.ws.Set("onclose", js.Null())
		onMessage.Release()
		onError.Release()
		onClose.Release()
	}

	onMessage = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		data := js.Global().Get("Uint8Array").New(args[0].Get("data"))
		out := make([]byte, data.Get("length").Int())
		js.CopyBytesToGo(out, data)
		result <- sendResult{data: out}
		return nil
	})
	onError = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		result <- sendResult{err: webtonicpb.NewError(webtonicpb.ConnectionError, "websocket error", nil)}
		return nil
	})
	onClose = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		result <- sendResult{err: webtonicpb.NewError(webtonicpb.ConnectionClosed, "peer closed the connection", nil)}
		return nil
	})
	c.ws.Set("onmessage", onMessage)
	c.ws.Set("onerror", onError)
	c.ws.Set("onclose", onClose)

	c.ws.Call("send", buf)

	select {
	case r := <-result:
		cleanup()
		return r.data, r.err
	case <-ctx.Done():
		cleanup()
		return nil, webtonicpb.NewError(webtonicpb.ConnectionError, "call canceled", ctx.Err())
	}
}

type sendResult struct {
	data []byte
	err  error
}

func (c *jsConnector) close() error {
	c.ws.Call("close")
	return nil
}
