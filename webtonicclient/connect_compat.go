package webtonicclient

import "connectrpc.com/connect"

// Client's Do method has exactly connect.HTTPClient's shape, so a Client can
// be handed to connect.NewClient as its transport with no adapter code.
var _ connect.HTTPClient = (*Client)(nil)
