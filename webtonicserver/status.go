package webtonicserver

import (
	"net/http"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusResponse builds the HTTP envelope a status-error Reply is encoded
// from: an HTTP 200 response carrying the canonical gRPC status trailers,
// per spec §4.3 and §GLOSSARY's "Status-error reply". The gRPC status is
// built through google.golang.org/grpc/status rather than formatted by
// hand, so the status-code/message pairing stays consistent with the rest
// of the gRPC ecosystem this tunnel interoperates with.
func statusResponse(code codes.Code, msg string) *http.Response {
	st := status.New(code, msg)
	trailer := http.Header{"Grpc-Status": {strconv.Itoa(int(st.Code()))}}
	if st.Message() != "" {
		trailer.Set("Grpc-Message", st.Message())
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		Proto:      "HTTP/2.0",
		ProtoMajor: 2,
		ProtoMinor: 0,
		Header:     http.Header{"Content-Type": {"application/grpc"}},
		Trailer:    trailer,
		Body:       http.NoBody,
	}
}

func invalidArgumentResponse(msg string) *http.Response {
	return statusResponse(codes.InvalidArgument, msg)
}

func internalResponse(msg string) *http.Response {
	return statusResponse(codes.Internal, msg)
}

func unimplementedResponse() *http.Response {
	return statusResponse(codes.Unimplemented, "")
}
