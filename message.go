/*
Package monknet implements a small text messaging protocol over UDP
used to keep one server and any number of clients in sync.

Every datagram carries exactly one Message. Messages that need to be
confirmed are tracked until the peer answers with a received message
carrying the same token and are resent until then.
*/
package monknet

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
)

// MaxDatagramSize is the largest encoded Message that may be sent
const MaxDatagramSize = 1400

// Wire type tags understood by the protocol itself
const (
	TypeHandshake         = "handshake"
	TypeHandshakeApproved = "handshake_approved"
	TypeReceived          = "received"
	TypePlayerAnimation   = "player_animation"
	TypePlayerPosition    = "player_position"
	TypeDisconnect        = "disconnect"
	TypeKeepalive         = "keepalive"
)

const sep = ":"

var (
	ErrEmptyType = errors.New("message type is empty")
	ErrBadType   = errors.New("message type contains a separator")
	ErrNotASCII  = errors.New("message is not 7-bit ascii")
	ErrTooLarge  = errors.New("message does not fit in one datagram")
)

// Kind is the closed set of message kinds the coordinator dispatches on
type Kind uint8

const (
	KindApplication Kind = iota
	KindHandshake
	KindHandshakeApproved
	KindReceived
	KindPlayerAnimation
	KindPlayerPosition
	KindDisconnect
	KindKeepalive
)

var kindNames = map[Kind]string{
	KindApplication:       "application",
	KindHandshake:         TypeHandshake,
	KindHandshakeApproved: TypeHandshakeApproved,
	KindReceived:          TypeReceived,
	KindPlayerAnimation:   TypePlayerAnimation,
	KindPlayerPosition:    TypePlayerPosition,
	KindDisconnect:        TypeDisconnect,
	KindKeepalive:         TypeKeepalive,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown"
}

// A Message is a single datagram worth of data
// It must not be modified after it has been sent
type Message struct {
	Type     string
	Contents string
	Token    string
}

// NewMessage returns a Message with a fresh token
func NewMessage(typ, contents string) Message {
	return Message{Type: typ, Contents: contents, Token: NewToken()}
}

// FromString returns a Message of type typ with no contents
// and a fresh token
func FromString(typ string) Message {
	return NewMessage(typ, "")
}

// Ack returns the received message that confirms m
func (m Message) Ack() Message {
	return NewMessage(TypeReceived, m.Token)
}

// Kind reports which protocol kind the Message belongs to
func (m Message) Kind() Kind {
	switch m.Type {
	case TypeHandshake:
		return KindHandshake
	case TypeHandshakeApproved:
		return KindHandshakeApproved
	case TypeReceived:
		return KindReceived
	case TypePlayerAnimation:
		return KindPlayerAnimation
	case TypePlayerPosition:
		return KindPlayerPosition
	case TypeDisconnect:
		return KindDisconnect
	case TypeKeepalive:
		return KindKeepalive
	}

	return KindApplication
}

// Encode returns the wire representation of the Message
func (m Message) Encode() string {
	return m.Type + sep + m.Token + sep + m.Contents
}

func (m Message) String() string { return m.Encode() }

// Validate reports whether the Message can be sent as is
func (m Message) Validate() error {
	if m.Type == "" {
		return ErrEmptyType
	}

	if strings.Contains(m.Type, sep) || strings.Contains(m.Token, sep) {
		return ErrBadType
	}

	if !isASCII(m.Type) || !isASCII(m.Token) || !isASCII(m.Contents) {
		return ErrNotASCII
	}

	if len(m.Type)+len(m.Token)+len(m.Contents)+2*len(sep) > MaxDatagramSize {
		return ErrTooLarge
	}

	return nil
}

// Decode parses wire text into a Message
// Missing fields are left empty, Decode never fails
func Decode(text string) Message {
	parts := strings.SplitN(text, sep, 3)

	var m Message
	m.Type = parts[0]
	if len(parts) > 1 {
		m.Token = parts[1]
	}
	if len(parts) > 2 {
		m.Contents = parts[2]
	}

	return m
}

// NewToken returns 16 random hex digits
func NewToken() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("monknet: reading random token: " + err.Error())
	}

	return hex.EncodeToString(b)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}

	return true
}
