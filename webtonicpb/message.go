// Package webtonicpb implements the tunnel's wire framing: the Call and
// Reply messages that carry an HTTP request or response, and the pure
// conversion functions between those messages and the standard library's
// http.Request/http.Response model.
//
// The wire format is fixed by the field tags below so that it stays
// compatible with the existing (non-Go) deployment; see spec §4.1. It is
// hand-encoded with protowire rather than generated by protoc, since no
// .proto source is part of this module.
package webtonicpb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Method is the closed set of HTTP methods the tunnel can carry. Any
// method outside this set is a framing error.
type Method int32

const (
	MethodGet Method = iota
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodConnect
	MethodOptions
	MethodTrace
	MethodPatch
)

var methodToString = map[Method]string{
	MethodGet:     "GET",
	MethodHead:    "HEAD",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodConnect: "CONNECT",
	MethodOptions: "OPTIONS",
	MethodTrace:   "TRACE",
	MethodPatch:   "PATCH",
}

var stringToMethod = func() map[string]Method {
	m := make(map[string]Method, len(methodToString))
	for k, v := range methodToString {
		m[v] = k
	}
	return m
}()

// String returns the canonical HTTP method name, or "" if m is outside the
// enumerated set.
func (m Method) String() string {
	return methodToString[m]
}

// ParseMethod maps an HTTP method string onto its Method tag. ok is false
// if s is not one of the nine enumerated methods.
func ParseMethod(s string) (m Method, ok bool) {
	m, ok = stringToMethod[s]
	return m, ok
}

// Header is a single (name, value) pair. Multiple Headers with the same
// name are allowed and ordered.
type Header struct {
	Name  string
	Value string
}

// Body is an opaque byte sequence plus an ordered list of trailers. A Call
// or Reply with no Body at all ("absent") is distinct from one with a
// present, zero-length Body ("empty") — see spec §3.
type Body struct {
	Data     []byte
	Trailers []Header
}

// Request is the HTTP request envelope: URI, method, and headers. Version
// is not transmitted; decoders assume HTTP/2 semantics, as gRPC requires.
type Request struct {
	URI     string
	Method  Method
	Headers []Header
}

// Response is the HTTP response envelope: numeric status and headers.
type Response struct {
	Status  uint32
	Headers []Header
}

// Call is the client→server framing message.
type Call struct {
	Request *Request
	Body    *Body
}

// Reply is the server→client framing message.
type Reply struct {
	Response *Response
	Body     *Body
}

// Field tags, per spec §4.1's wire table.
const (
	tagHeaderName  = 1
	tagHeaderValue = 2

	tagBodyBody     = 1
	tagBodyTrailers = 2

	tagRequestURI     = 1
	tagRequestMethod  = 2
	tagRequestHeaders = 3

	tagResponseStatus  = 1
	tagResponseHeaders = 2

	tagCallRequest = 1
	tagCallBody    = 2

	tagReplyResponse = 1
	tagReplyBody     = 2
)

func (h Header) appendTo(buf []byte) []byte {
	buf = protowire.AppendTag(buf, tagHeaderName, protowire.BytesType)
	buf = protowire.AppendString(buf, h.Name)
	buf = protowire.AppendTag(buf, tagHeaderValue, protowire.BytesType)
	buf = protowire.AppendString(buf, h.Value)
	return buf
}

// Marshal encodes h as a length-delimited nested message (without its own
// outer tag — the caller supplies that).
func (h Header) Marshal() []byte {
	return h.appendTo(nil)
}

func unmarshalHeader(data []byte) (Header, error) {
	var h Header
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return h, fmt.Errorf("webtonicpb: Header: invalid tag")
		}
		data = data[n:]
		switch {
		case num == tagHeaderName && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return h, fmt.Errorf("webtonicpb: Header.name: invalid bytes")
			}
			h.Name = string(v)
			data = data[n:]
		case num == tagHeaderValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return h, fmt.Errorf("webtonicpb: Header.value: invalid bytes")
			}
			h.Value = string(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return h, fmt.Errorf("webtonicpb: Header: invalid field %d", num)
			}
			data = data[n:]
		}
	}
	return h, nil
}

func (b *Body) appendTo(buf []byte) []byte {
	if b == nil {
		return buf
	}
	if len(b.Data) > 0 {
		buf = protowire.AppendTag(buf, tagBodyBody, protowire.BytesType)
		buf = protowire.AppendBytes(buf, b.Data)
	}
	for _, t := range b.Trailers {
		buf = protowire.AppendTag(buf, tagBodyTrailers, protowire.BytesType)
		buf = protowire.AppendBytes(buf, t.Marshal())
	}
	return buf
}

func unmarshalBody(data []byte) (*Body, error) {
	b := &Body{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("webtonicpb: Body: invalid tag")
		}
		data = data[n:]
		switch {
		case num == tagBodyBody && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Body.body: invalid bytes")
			}
			b.Data = append([]byte(nil), v...)
			data = data[n:]
		case num == tagBodyTrailers && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Body.trailers: invalid bytes")
			}
			h, err := unmarshalHeader(v)
			if err != nil {
				return nil, err
			}
			b.Trailers = append(b.Trailers, h)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Body: invalid field %d", num)
			}
			data = data[n:]
		}
	}
	return b, nil
}

func (r *Request) appendTo(buf []byte) []byte {
	if r == nil {
		return buf
	}
	buf = protowire.AppendTag(buf, tagRequestURI, protowire.BytesType)
	buf = protowire.AppendString(buf, r.URI)
	buf = protowire.AppendTag(buf, tagRequestMethod, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(r.Method))
	for _, h := range r.Headers {
		buf = protowire.AppendTag(buf, tagRequestHeaders, protowire.BytesType)
		buf = protowire.AppendBytes(buf, h.Marshal())
	}
	return buf
}

func unmarshalRequest(data []byte) (*Request, error) {
	r := &Request{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("webtonicpb: Request: invalid tag")
		}
		data = data[n:]
		switch {
		case num == tagRequestURI && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Request.uri: invalid bytes")
			}
			r.URI = string(v)
			data = data[n:]
		case num == tagRequestMethod && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Request.method: invalid varint")
			}
			r.Method = Method(v)
			data = data[n:]
		case num == tagRequestHeaders && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Request.headers: invalid bytes")
			}
			h, err := unmarshalHeader(v)
			if err != nil {
				return nil, err
			}
			r.Headers = append(r.Headers, h)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Request: invalid field %d", num)
			}
			data = data[n:]
		}
	}
	return r, nil
}

func (r *Response) appendTo(buf []byte) []byte {
	if r == nil {
		return buf
	}
	buf = protowire.AppendTag(buf, tagResponseStatus, protowire.VarintType)
	buf = protowire.AppendVarint(buf, uint64(r.Status))
	for _, h := range r.Headers {
		buf = protowire.AppendTag(buf, tagResponseHeaders, protowire.BytesType)
		buf = protowire.AppendBytes(buf, h.Marshal())
	}
	return buf
}

func unmarshalResponse(data []byte) (*Response, error) {
	r := &Response{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("webtonicpb: Response: invalid tag")
		}
		data = data[n:]
		switch {
		case num == tagResponseStatus && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Response.status: invalid varint")
			}
			r.Status = uint32(v)
			data = data[n:]
		case num == tagResponseHeaders && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Response.headers: invalid bytes")
			}
			h, err := unmarshalHeader(v)
			if err != nil {
				return nil, err
			}
			r.Headers = append(r.Headers, h)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Response: invalid field %d", num)
			}
			data = data[n:]
		}
	}
	return r, nil
}

// Marshal encodes c into a contiguous byte buffer.
func (c *Call) Marshal() ([]byte, error) {
	var buf []byte
	if c.Request != nil {
		buf = protowire.AppendTag(buf, tagCallRequest, protowire.BytesType)
		buf = protowire.AppendBytes(buf, c.Request.appendTo(nil))
	}
	if c.Body != nil {
		buf = protowire.AppendTag(buf, tagCallBody, protowire.BytesType)
		buf = protowire.AppendBytes(buf, c.Body.appendTo(nil))
	}
	return buf, nil
}

// UnmarshalCall decodes data into a new Call.
func UnmarshalCall(data []byte) (*Call, error) {
	c := &Call{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("webtonicpb: Call: invalid tag")
		}
		data = data[n:]
		switch {
		case num == tagCallRequest && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Call.request: invalid bytes")
			}
			req, err := unmarshalRequest(v)
			if err != nil {
				return nil, err
			}
			c.Request = req
			data = data[n:]
		case num == tagCallBody && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Call.body: invalid bytes")
			}
			body, err := unmarshalBody(v)
			if err != nil {
				return nil, err
			}
			c.Body = body
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Call: invalid field %d", num)
			}
			data = data[n:]
		}
	}
	return c, nil
}

// Marshal encodes r into a contiguous byte buffer.
func (r *Reply) Marshal() ([]byte, error) {
	var buf []byte
	if r.Response != nil {
		buf = protowire.AppendTag(buf, tagReplyResponse, protowire.BytesType)
		buf = protowire.AppendBytes(buf, r.Response.appendTo(nil))
	}
	if r.Body != nil {
		buf = protowire.AppendTag(buf, tagReplyBody, protowire.BytesType)
		buf = protowire.AppendBytes(buf, r.Body.appendTo(nil))
	}
	return buf, nil
}

// UnmarshalReply decodes data into a new Reply.
func UnmarshalReply(data []byte) (*Reply, error) {
	r := &Reply{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("webtonicpb: Reply: invalid tag")
		}
		data = data[n:]
		switch {
		case num == tagReplyResponse && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Reply.response: invalid bytes")
			}
			resp, err := unmarshalResponse(v)
			if err != nil {
				return nil, err
			}
			r.Response = resp
			data = data[n:]
		case num == tagReplyBody && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Reply.body: invalid bytes")
			}
			body, err := unmarshalBody(v)
			if err != nil {
				return nil, err
			}
			r.Body = body
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("webtonicpb: Reply: invalid field %d", num)
			}
			data = data[n:]
		}
	}
	return r, nil
}
