package monknet

import (
	"errors"
	"net"
	"strconv"
	"sync"

	"golang.org/x/net/ipv4"
)

// Default ports
const (
	ServerPort = 19000
	ClientPort = 19001
)

const readBufferSize = 64 * 1024

// A Datagram is one message read from a socket
// If Err is set the read failed and the other fields are empty
type Datagram struct {
	Addr *net.UDPAddr
	Msg  Message
	Raw  string
	Err  error
}

type endpoint struct {
	conn    *net.UDPConn
	inbound chan Datagram

	closeOnce sync.Once
	done      chan struct{}
}

func newEndpoint(conn *net.UDPConn, buffer int) *endpoint {
	if buffer < 1 {
		buffer = 1
	}

	e := &endpoint{
		conn:    conn,
		inbound: make(chan Datagram, buffer),
		done:    make(chan struct{}),
	}

	go e.receive()
	return e
}

// receive reads datagrams until the socket is closed
// Read errors are passed on and don't stop the loop
func (e *endpoint) receive() {
	defer close(e.inbound)

	buf := make([]byte, readBufferSize)
	for {
		n, addr, err := e.conn.ReadFromUDP(buf)

		var d Datagram
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			d.Err = &TransportError{Op: "read", Err: err}
		} else {
			raw := string(buf[:n])
			d = Datagram{Addr: addr, Msg: Decode(raw), Raw: raw}
		}

		select {
		case e.inbound <- d:
		case <-e.done:
			return
		}
	}
}

// Inbound returns the channel datagrams are delivered on
// It is closed once the endpoint is closed
func (e *endpoint) Inbound() <-chan Datagram { return e.inbound }

// LocalAddr returns the address the socket is bound to
func (e *endpoint) LocalAddr() *net.UDPAddr {
	return e.conn.LocalAddr().(*net.UDPAddr)
}

// SetTOS sets the IPv4 type-of-service field of outgoing datagrams
func (e *endpoint) SetTOS(tos int) error {
	return ipv4.NewConn(e.conn).SetTOS(tos)
}

// Close closes the socket
func (e *endpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.done)
		err = e.conn.Close()
	})

	return err
}

// A Listener is the server side endpoint
// It is bound to a well-known port and replies to arbitrary senders
type Listener struct {
	*endpoint
}

// Listen binds a Listener to host
func Listen(host string, buffer int) (*Listener, error) {
	addr, err := net.ResolveUDPAddr("udp", host)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}

	return &Listener{endpoint: newEndpoint(conn, buffer)}, nil
}

// Reply sends m to addr
func (l *Listener) Reply(m Message, addr *net.UDPAddr) error {
	_, err := l.conn.WriteToUDP([]byte(m.Encode()), addr)
	if err != nil {
		return &TransportError{Op: "write", Err: err}
	}

	return nil
}

func (l *Listener) write(m Message, to *net.UDPAddr) error { return l.Reply(m, to) }

// A ClientEndpoint is a socket associated with exactly one server
type ClientEndpoint struct {
	*endpoint
	remote *net.UDPAddr
}

// Dial binds local and associates the socket with remote
// The server port is appended to remote if it has none
func Dial(local, remote string, buffer int) (*ClientEndpoint, error) {
	raddr, err := net.ResolveUDPAddr("udp", WithDefaultPort(remote, ServerPort))
	if err != nil {
		return nil, err
	}

	var laddr *net.UDPAddr
	if local != "" {
		laddr, err = net.ResolveUDPAddr("udp", local)
		if err != nil {
			return nil, err
		}
	}

	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, err
	}

	return &ClientEndpoint{endpoint: newEndpoint(conn, buffer), remote: raddr}, nil
}

// RemoteAddr returns the address of the server
func (c *ClientEndpoint) RemoteAddr() *net.UDPAddr { return c.remote }

// Send sends m to the server
func (c *ClientEndpoint) Send(m Message) error {
	_, err := c.conn.Write([]byte(m.Encode()))
	if err != nil {
		return &TransportError{Op: "write", Err: err}
	}

	return nil
}

func (c *ClientEndpoint) write(m Message, _ *net.UDPAddr) error { return c.Send(m) }

// WithDefaultPort appends port to addr if it doesn't contain one
func WithDefaultPort(addr string, port int) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}

	return net.JoinHostPort(addr, strconv.Itoa(port))
}
