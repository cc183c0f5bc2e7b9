package webtonicclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Sawchord/webtonic/webtonicpb"
)

// newEchoServer starts a WebSocket server that decodes every Call it
// receives and replies with a canned Reply built from handle, so tests can
// assert on exactly what the Client sent and received.
func newEchoServer(t *testing.T, handle func(*http.Request) *webtonicpb.Reply) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind != websocket.BinaryMessage {
				continue
			}
			call, err := webtonicpb.UnmarshalCall(data)
			if err != nil {
				t.Errorf("UnmarshalCall: %v", err)
				return
			}
			req, err := webtonicpb.DecodeCall(call)
			if err != nil {
				t.Errorf("DecodeCall: %v", err)
				return
			}
			reply := handle(req)
			out, err := reply.Marshal()
			if err != nil {
				t.Errorf("Marshal reply: %v", err)
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
				return
			}
		}
	}))
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_UnaryRoundTrip(t *testing.T) {
	srv := newEchoServer(t, func(req *http.Request) *webtonicpb.Reply {
		body, _ := io.ReadAll(req.Body)
		reply := &webtonicpb.Reply{
			Response: &webtonicpb.Response{Status: 200},
			Body:     &webtonicpb.Body{Data: append([]byte("echo:"), body...)},
		}
		return reply
	})
	defer srv.Close()

	client, err := Connect(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	req, _ := http.NewRequest("POST", "/helloworld.Greeter/SayHello", bytes.NewReader([]byte("hi")))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "echo:hi" {
		t.Errorf("body = %q", body)
	}
}

func TestClient_SingleInflightSerializesCalls(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	srv := newEchoServer(t, func(req *http.Request) *webtonicpb.Reply {
		body, _ := io.ReadAll(req.Body)
		mu.Lock()
		seen = append(seen, string(body))
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return &webtonicpb.Reply{Response: &webtonicpb.Response{Status: 200}}
	})
	defer srv.Close()

	client, err := Connect(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	var wg sync.WaitGroup
	for _, tag := range []string{"a", "b", "c"} {
		tag := tag
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest("POST", "/x/Y", strings.NewReader(tag))
			if _, err := client.Do(req); err != nil {
				t.Errorf("Do(%s): %v", tag, err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("server observed %d calls, want 3", len(seen))
	}
}

func TestClient_InvalidUrl(t *testing.T) {
	_, err := Connect(context.Background(), "http://example.com")
	var pe *webtonicpb.Error
	if !asClientError(err, &pe) || pe.Kind != webtonicpb.InvalidUrl {
		t.Errorf("err = %v, want InvalidUrl", err)
	}
}

func TestClient_ConnectionError(t *testing.T) {
	_, err := Connect(context.Background(), "ws://127.0.0.1:1")
	var pe *webtonicpb.Error
	if !asClientError(err, &pe) || pe.Kind != webtonicpb.ConnectionError {
		t.Errorf("err = %v, want ConnectionError", err)
	}
}

func TestClient_ConnectionClosed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	client, err := Connect(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	req, _ := http.NewRequest("GET", "/x/Y", nil)
	_, err = client.Do(req)
	var pe *webtonicpb.Error
	if !asClientError(err, &pe) || pe.Kind != webtonicpb.ConnectionClosed {
		t.Errorf("err = %v, want ConnectionClosed", err)
	}
}

func asClientError(err error, target **webtonicpb.Error) bool {
	pe, ok := err.(*webtonicpb.Error)
	if !ok {
		return false
	}
	*target = pe
	return true
}
