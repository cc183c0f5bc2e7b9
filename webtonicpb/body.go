package webtonicpb

import (
	"io"
	"net/http"
)

// singleShotBody is the "synthetic HTTP body" from spec §4.1: it yields
// the decoded Body's bytes on the first reads and, once exhausted,
// populates trailer (if non-nil) with the decoded trailers on the same
// call that returns io.EOF — the idiomatic Go rendering of "yields bytes
// on the first data poll and its trailers on the subsequent trailers
// poll, then signals end-of-stream", since net/http models trailers
// out-of-band from body reads rather than as a second poll on the same
// stream.
type singleShotBody struct {
	remaining []byte
	trailers  []Header
	trailer   *http.Header
	done      bool
}

// newSingleShotBody builds the Body-backed reader for a present (possibly
// empty) Body. trailer, if non-nil, is populated in place once the body is
// exhausted.
func newSingleShotBody(b *Body, trailer *http.Header) io.ReadCloser {
	if b == nil {
		return http.NoBody
	}
	return &singleShotBody{
		remaining: b.Data,
		trailers:  b.Trailers,
		trailer:   trailer,
	}
}

func (b *singleShotBody) Read(p []byte) (int, error) {
	if len(b.remaining) > 0 {
		n := copy(p, b.remaining)
		b.remaining = b.remaining[n:]
		return n, nil
	}
	if !b.done {
		b.done = true
		if b.trailer != nil && len(b.trailers) > 0 {
			h := make(http.Header, len(b.trailers))
			for _, t := range b.trailers {
				h.Add(t.Name, t.Value)
			}
			*b.trailer = h
		}
	}
	return 0, io.EOF
}

func (b *singleShotBody) Close() error { return nil }

// drainBody reads body fully into memory and collects the trailers that
// follow it, in the order encode_call/encode_reply need them: body bytes
// first, trailers only after the body is exhausted (spec §4.1).
//
// A Body is absent only when there is no data (body is nil or http.NoBody)
// and no trailers either. Trailers without a data body — e.g. a
// status-error reply, which is all trailers and no payload — still need a
// present, zero-length Body so they survive onto the wire.
func drainBody(body io.ReadCloser, trailer http.Header) (*Body, error) {
	var data []byte
	if body != nil && body != http.NoBody {
		var err error
		data, err = io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		_ = body.Close()
	} else if len(trailer) == 0 {
		return nil, nil
	}

	b := &Body{Data: data}
	for name, values := range trailer {
		for _, v := range values {
			b.Trailers = append(b.Trailers, Header{Name: name, Value: v})
		}
	}
	return b, nil
}
