package monknet

import (
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotConnected      = errors.New("can't send when disconnected")
	ErrAlreadyConfigured = errors.New("session role is already set")
	ErrClosed            = errors.New("session closed")
	ErrInvalidAddress    = errors.New("invalid ip address format")
)

// A ParseError is reported when the contents of a known message kind
// are malformed
type ParseError struct {
	Kind     Kind
	Contents string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad %s string %q: %v", e.Kind, e.Contents, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// An UnknownTypeError is reported for messages the receiving role
// has no handler for
type UnknownTypeError struct {
	Type     string
	Contents string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unable to handle message of type %q with contents %q", e.Type, e.Contents)
}

// A DeliveryError is reported when a tracked message was resent
// the maximum number of times without being acknowledged
type DeliveryError struct {
	Msg     Message
	Dest    net.Addr
	Retries int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("message %s to %v not acknowledged after %d retries", e.Msg.Token, e.Dest, e.Retries)
}

// A TransportError wraps a socket failure
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// A HandshakeError is reported when the server doesn't approve
// a gated handshake in time
type HandshakeError struct {
	Addr net.Addr
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("server at %v did not approve the handshake", e.Addr)
}
