package webtonicserver

import (
	"net/http"
	"testing"

	"github.com/Sawchord/webtonic/webtonicpb"
)

func parseReply(data []byte) (*webtonicpb.Reply, error) {
	return webtonicpb.UnmarshalReply(data)
}

func trailerValue(reply *webtonicpb.Reply, name string) string {
	if reply == nil || reply.Body == nil {
		return ""
	}
	for _, h := range reply.Body.Trailers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

func TestServiceName(t *testing.T) {
	cases := map[string]string{
		"/a.B/Method": "a.B",
		"/a.B":        "a.B",
		"/":           "/",
		"":            "/",
		"a.B/Method":  "a.B",
	}
	for path, want := range cases {
		if got := serviceName(path); got != want {
			t.Errorf("serviceName(%q) = %q, want %q", path, got, want)
		}
	}
}

type stubService struct {
	name string
}

func (s stubService) Name() string { return s.name }

func (s stubService) Invoke(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{"X-Served-By": {s.name}},
		Body:       http.NoBody,
	}
}

func TestRegistry_DispatchByName(t *testing.T) {
	reg := NewRegistry()
	reg.Add(stubService{name: "A"})
	reg.Add(stubService{name: "B"})

	req, _ := http.NewRequest("POST", "/A/Method", nil)

	if resp := reg.Invoke("A", req); resp.Header.Get("X-Served-By") != "A" {
		t.Errorf("dispatch to A failed: %+v", resp)
	}
	if resp := reg.Invoke("B", req); resp.Header.Get("X-Served-By") != "B" {
		t.Errorf("dispatch to B failed: %+v", resp)
	}
	if resp := reg.Invoke("C", req); trailerIsUnimplemented(resp) == false {
		t.Errorf("dispatch to unregistered C did not return status 12: %+v", resp)
	}
}

func TestRegistry_LastWriteWins(t *testing.T) {
	reg := NewRegistry()
	reg.Add(stubService{name: "A"})
	reg.Add(stubService{name: "A"})
	if _, ok := reg.Lookup("A"); !ok {
		t.Fatal("A should still be registered")
	}
}

func TestRoute_DispatchByName(t *testing.T) {
	chain := NewRoute(stubService{name: "A"}, NewRoute(stubService{name: "B"}, Unimplemented{}))

	req, _ := http.NewRequest("POST", "/A/Method", nil)
	if resp := chain.Invoke("A", req); resp.Header.Get("X-Served-By") != "A" {
		t.Errorf("dispatch to A failed: %+v", resp)
	}
	if resp := chain.Invoke("B", req); resp.Header.Get("X-Served-By") != "B" {
		t.Errorf("dispatch to B failed: %+v", resp)
	}
	if resp := chain.Invoke("C", req); trailerIsUnimplemented(resp) == false {
		t.Errorf("dispatch to unregistered C did not return status 12: %+v", resp)
	}
}

func trailerIsUnimplemented(resp *http.Response) bool {
	return resp.Trailer.Get("Grpc-Status") == "12"
}
