package webtonicpb

import "fmt"

// Kind identifies one of the error categories shared between the client
// adapter and the server endpoint (spec §7).
type Kind int

const (
	// InvalidUrl means the client's connect URI could not be parsed.
	InvalidUrl Kind = iota
	// ConnectionError means the WebSocket failed to open or a send failed.
	ConnectionError
	// ConnectionClosed means the peer closed the connection before a reply
	// arrived.
	ConnectionClosed
	// EncodingError means an outbound Call or Reply could not be built.
	EncodingError
	// DecodingError means an inbound frame could not be parsed.
	DecodingError
)

func (k Kind) String() string {
	switch k {
	case InvalidUrl:
		return "InvalidUrl"
	case ConnectionError:
		return "ConnectionError"
	case ConnectionClosed:
		return "ConnectionClosed"
	case EncodingError:
		return "EncodingError"
	case DecodingError:
		return "DecodingError"
	default:
		return "Unknown"
	}
}

// Error is the error type produced by this package's codec and by
// webtonicclient for every case in spec §7's error taxonomy.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, webtonicpb.ErrDecodingError).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors usable with errors.Is; only Kind is compared.
var (
	ErrInvalidUrl       = &Error{Kind: InvalidUrl}
	ErrConnectionError  = &Error{Kind: ConnectionError}
	ErrConnectionClosed = &Error{Kind: ConnectionClosed}
	ErrEncodingError    = &Error{Kind: EncodingError}
	ErrDecodingError    = &Error{Kind: DecodingError}
)

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// NewError builds an *Error of the given Kind, for use by webtonicclient
// and webtonicserver when they need to report a framing or transport
// failure using this package's error taxonomy.
func NewError(kind Kind, msg string, cause error) *Error {
	return newError(kind, msg, cause)
}
