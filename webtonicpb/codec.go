package webtonicpb

import (
	"io"
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpguts"
)

// EncodeCall serializes an outbound HTTP request into a Call. It drains
// req.Body into a single byte buffer and collects req.Trailer once the
// body is exhausted (spec §4.1). If req.Method is outside the enumerated
// Method set, or any header name/value is not a valid HTTP header field,
// it fails with an EncodingError.
func EncodeCall(req *http.Request) (*Call, error) {
	method, ok := ParseMethod(req.Method)
	if !ok {
		return nil, newError(EncodingError, "unsupported HTTP method "+req.Method, nil)
	}

	headers, err := encodeHeaders(req.Header)
	if err != nil {
		return nil, err
	}

	uri := req.URL.RequestURI()
	if req.URL.Scheme != "" || req.URL.Host != "" {
		uri = req.URL.String()
	}

	call := &Call{
		Request: &Request{
			URI:     uri,
			Method:  method,
			Headers: headers,
		},
	}

	body, err := drainBody(req.Body, req.Trailer)
	if err != nil {
		return nil, newError(EncodingError, "draining request body", err)
	}
	call.Body = body

	return call, nil
}

// DecodeCall builds an HTTP/2 request from a decoded Call. It rejects a
// Call whose Request envelope is absent.
func DecodeCall(call *Call) (*http.Request, error) {
	if call == nil || call.Request == nil {
		return nil, newError(DecodingError, "call has no request envelope", nil)
	}

	methodName := call.Request.Method.String()
	if methodName == "" {
		return nil, newError(DecodingError, "unknown method tag", nil)
	}

	u, err := parseURI(call.Request.URI)
	if err != nil {
		return nil, newError(DecodingError, "invalid request URI", err)
	}

	header, err := decodeHeaders(call.Request.Headers)
	if err != nil {
		return nil, err
	}

	req := &http.Request{
		Method:     methodName,
		URL:        u,
		Proto:      "HTTP/2.0",
		ProtoMajor: 2,
		ProtoMinor: 0,
		Header:     header,
		Host:       header.Get("Host"),
	}
	req.RequestURI = call.Request.URI

	req.Trailer = make(http.Header)
	req.Body = newSingleShotBody(call.Body, &req.Trailer)

	return req, nil
}

// EncodeReply serializes an outbound HTTP response into a Reply, mirroring
// EncodeCall.
func EncodeReply(resp *http.Response) (*Reply, error) {
	headers, err := encodeHeaders(resp.Header)
	if err != nil {
		return nil, err
	}

	reply := &Reply{
		Response: &Response{
			Status:  uint32(resp.StatusCode),
			Headers: headers,
		},
	}

	body, err := drainBody(resp.Body, resp.Trailer)
	if err != nil {
		return nil, newError(EncodingError, "draining response body", err)
	}
	reply.Body = body

	return reply, nil
}

// DecodeReply builds an HTTP response from a decoded Reply. A Reply with
// no Response envelope signals a framing failure to the caller.
func DecodeReply(reply *Reply) (*http.Response, error) {
	if reply == nil || reply.Response == nil {
		return nil, newError(DecodingError, "reply has no response envelope", nil)
	}

	header, err := decodeHeaders(reply.Response.Headers)
	if err != nil {
		return nil, err
	}

	resp := &http.Response{
		StatusCode: int(reply.Response.Status),
		Status:     http.StatusText(int(reply.Response.Status)),
		Proto:      "HTTP/2.0",
		ProtoMajor: 2,
		ProtoMinor: 0,
		Header:     header,
	}

	resp.Trailer = make(http.Header)
	resp.Body = newSingleShotBody(reply.Body, &resp.Trailer)

	return resp, nil
}

func encodeHeaders(h http.Header) ([]Header, error) {
	var out []Header
	for name, values := range h {
		if !httpguts.ValidHeaderFieldName(name) {
			return nil, newError(EncodingError, "invalid header name "+name, nil)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return nil, newError(EncodingError, "invalid header value for "+name, nil)
			}
			out = append(out, Header{Name: name, Value: v})
		}
	}
	return out, nil
}

func decodeHeaders(hs []Header) (http.Header, error) {
	header := make(http.Header, len(hs))
	for _, h := range hs {
		if !httpguts.ValidHeaderFieldName(h.Name) || !httpguts.ValidHeaderFieldValue(h.Value) {
			return nil, newError(DecodingError, "invalid header "+h.Name, nil)
		}
		header.Add(h.Name, h.Value)
	}
	return header, nil
}

// parseURI parses a wire URI, accepting both the canonical form this
// codec emits and any debug form a legacy peer might send (spec §9's Open
// Question) — url.ParseRequestURI already accepts both the relative
// "/service/Method" form generated stubs use and an absolute form.
func parseURI(raw string) (*url.URL, error) {
	if raw == "" {
		raw = "/"
	}
	return url.ParseRequestURI(raw)
}

var _ io.ReadCloser = (*singleShotBody)(nil)
