package xrpc

import (
	"errors"
	"fmt"
)

// ErrAuthFailed signals rejected credentials: the authentication endpoint
// answered with a falsy value instead of a user id.
var ErrAuthFailed = errors.New("xrpc: authentication failed")

// CodecError reports malformed wire text.
type CodecError struct {
	Pos int
	Msg string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("xrpc: %s at offset %d", e.Msg, e.Pos)
}

// TransportError reports a network or HTTP-level failure. Exactly one of
// Err (request never completed) or Status/Body (non-2xx answer) is set.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return "xrpc: transport: " + e.Err.Error()
	}
	return fmt.Sprintf("xrpc: transport: unexpected status %d", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Fault is a remote-reported error carried in place of a result value.
// Raw preserves the wire payload that produced it.
type Fault struct {
	Code    int64
	Message string
	Raw     string
}

func (e *Fault) Error() string {
	return fmt.Sprintf("xrpc: fault %d: %s", e.Code, e.Message)
}
