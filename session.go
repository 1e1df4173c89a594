package monknet

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Role is the part a Session plays
// It can only be set once
type Role uint8

const (
	RoleNone Role = iota
	RoleServer
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleServer:
		return "server"
	case RoleClient:
		return "client"
	}

	return "none"
}

// State is the connection state of a Session
type State uint8

const (
	StateUnconfigured State = iota
	StateConnecting
	StateConnected
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}

	return "unknown"
}

// Handler holds the application callbacks of a Session
// All of them are optional. They are called from the Session's
// dispatch goroutine and must not call methods of the same Session
// synchronously
type Handler struct {
	// OnMessage is called for every decoded inbound message
	OnMessage func(role Role, d Datagram)

	// OnError is called for every reported error
	OnError func(err error)

	// OnJoin and OnLeave are called when the server creates
	// or evicts a peer record
	OnJoin  func(p PeerInfo)
	OnLeave func(p PeerInfo)

	// NewActor returns the in-world actor of a new peer
	NewActor func(addr *net.UDPAddr) Actor
}

// An Option configures a Session
type Option func(*Session)

// WithStore makes the Session check the ban list and
// keep peer state in db
func WithStore(db *DB) Option {
	return func(s *Session) {
		s.db = db
	}
}

// WithTracerProvider makes the Session create its dispatch spans
// with tp instead of the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Session) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// WithRegistry registers the Session's metrics in reg
// instead of a private registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Session) {
		s.registry = reg
	}
}

const tracerName = "github.com/HimbeerserverDE/monknet"

type transport interface {
	write(m Message, to *net.UDPAddr) error
	Inbound() <-chan Datagram
	LocalAddr() *net.UDPAddr
	SetTOS(tos int) error
	Close() error
}

// A Session is one participant of the protocol
// All of its state is owned by a single dispatch goroutine,
// the exported methods hand work to it and wait for the result
type Session struct {
	conf settings
	h    Handler

	db       *DB
	registry *prometheus.Registry
	metrics  *metrics
	tracer   trace.Tracer

	role    Role
	state   State
	ep      transport
	inbound <-chan Datagram

	// server
	peers map[string]*Peer

	// client
	server            *net.UDPAddr
	unacked           *AckTracker
	handshakeDeadline time.Time
	lastSent          time.Time

	cmds      chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession returns an unconfigured Session
// conf may be nil
func NewSession(conf *Config, h Handler, opts ...Option) *Session {
	s := &Session{
		conf:  conf.settings(),
		h:     h,
		peers: make(map[string]*Peer),
		cmds:  make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.metrics = newMetrics(s.registry)
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}

	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.done)

	interval := s.conf.sweepInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case f := <-s.cmds:
			f()
		case d, ok := <-s.inbound:
			if !ok {
				s.inbound = nil
				continue
			}
			s.dispatch(d)
		case now := <-ticker.C:
			s.sweep(now)
		case <-s.quit:
			return
		}
	}
}

// do runs f on the dispatch goroutine and waits for it
func (s *Session) do(f func()) error {
	fin := make(chan struct{})

	select {
	case s.cmds <- func() {
		defer close(fin)
		f()
	}:
	case <-s.done:
		return ErrClosed
	}

	<-fin
	return nil
}

// query is like do but also works after Close
func (s *Session) query(f func()) {
	if err := s.do(f); err != nil {
		<-s.done
		f()
	}
}

// Registry returns the registry the Session's metrics live in
func (s *Session) Registry() *prometheus.Registry { return s.registry }

// SetupServer makes the Session a server listening on the host
// from the configuration
func (s *Session) SetupServer() error {
	var err error
	if e := s.do(func() { err = s.setupServer() }); e != nil {
		return e
	}

	return err
}

func (s *Session) setupServer() error {
	if s.role != RoleNone {
		return ErrAlreadyConfigured
	}

	log.Print("Starting server on " + s.conf.host)

	l, err := Listen(s.conf.host, s.conf.buffer)
	if err != nil {
		return err
	}

	s.attach(l)
	s.role = RoleServer
	s.state = StateConnected

	log.Print("Listening on " + l.LocalAddr().String())
	return nil
}

// SetupClient makes the Session a client of the server at addr
// and sends the handshake
func (s *Session) SetupClient(addr string) error {
	var err error
	if e := s.do(func() { err = s.setupClient(addr) }); e != nil {
		return e
	}

	return err
}

func (s *Session) setupClient(addr string) error {
	if s.role != RoleNone {
		return ErrAlreadyConfigured
	}

	log.Print("Attempting connection to " + addr)

	c, err := Dial(s.conf.clientHost, WithDefaultPort(addr, s.conf.serverPort), s.conf.buffer)
	if err != nil {
		return err
	}

	return s.connect(c, c.RemoteAddr())
}

// connect makes ep the client transport of the Session
// and sends the handshake to server
func (s *Session) connect(ep transport, server *net.UDPAddr) error {
	s.attach(ep)
	s.role = RoleClient
	s.server = server
	s.unacked = NewAckTracker()

	if s.conf.eagerConnect {
		s.state = StateConnected
	} else {
		s.state = StateConnecting
		s.handshakeDeadline = time.Now().Add(s.conf.handshakeTimeout)
	}

	log.Print("Sending handshake")
	if err := s.transmit(FromString(TypeHandshake), s.server, true); err != nil {
		s.state = StateFailed
		s.report(err)
		return err
	}

	return nil
}

func (s *Session) attach(ep transport) {
	s.ep = ep
	s.inbound = ep.Inbound()

	if s.conf.dscp > 0 {
		if err := ep.SetTOS(s.conf.dscp << 2); err != nil {
			log.Print("Can't set dscp: ", err)
		}
	}
}

// SendString sends a message of type str with no contents
func (s *Session) SendString(str string) error {
	return s.SendMessage(FromString(str))
}

// SendMessage sends m to the server or, on a server,
// to every known peer
// m is tracked until it is acknowledged
func (s *Session) SendMessage(m Message) error {
	var err error
	if e := s.do(func() { err = s.send(m) }); e != nil {
		return e
	}

	return err
}

func (s *Session) send(m Message) error {
	log.Print("Attempting to send message " + m.String())

	if s.state != StateConnected {
		s.report(ErrNotConnected)
		return ErrNotConnected
	}

	if err := m.Validate(); err != nil {
		err = fmt.Errorf("sending %s: %w", m.Type, err)
		s.report(err)
		return err
	}

	if s.role == RoleClient {
		err := s.transmit(m, s.server, true)
		if err != nil {
			s.report(err)
		}
		return err
	}

	var first error
	for _, p := range s.sortedPeers() {
		if err := s.transmit(m, p.addr, true); err != nil {
			s.report(err)
			if first == nil {
				first = err
			}
		}
	}

	return first
}

// transmit writes m to to
// Tracked messages are registered before they are written so that
// failed writes are retried by the sweep
func (s *Session) transmit(m Message, to *net.UDPAddr, track bool) error {
	if track {
		if t := s.tracker(to); t != nil {
			t.Track(m, to, time.Now())
			s.updateUnacked()
		}
	}

	if err := s.ep.write(m, to); err != nil {
		return fmt.Errorf("sending %s to %v: %w", m.Type, to, err)
	}

	s.lastSent = time.Now()
	s.metrics.datagramsSent.WithLabelValues(m.Type).Inc()
	return nil
}

// tracker returns the AckTracker responsible for messages to addr
func (s *Session) tracker(addr *net.UDPAddr) *AckTracker {
	if s.role == RoleClient {
		return s.unacked
	}

	if p, ok := s.peers[addr.String()]; ok {
		return p.unacked
	}

	return nil
}

// Disconnect notifies the other side that this Session is going away
// It is best-effort and doesn't change the Session's state
func (s *Session) Disconnect() error {
	var err error
	if e := s.do(func() { err = s.disconnect() }); e != nil {
		return e
	}

	return err
}

func (s *Session) disconnect() error {
	if s.state != StateConnected && s.state != StateConnecting {
		s.report(ErrNotConnected)
		return ErrNotConnected
	}

	switch s.role {
	case RoleServer:
		m := NewMessage(TypeDisconnect, "Server shutting down.")

		var first error
		for _, p := range s.sortedPeers() {
			if err := s.transmit(m, p.addr, false); err != nil && first == nil {
				first = err
			}
		}
		return first
	case RoleClient:
		return s.transmit(FromString(TypeDisconnect), s.server, false)
	}

	return nil
}

// Close disconnects, stores the peer records, closes the socket
// and stops the dispatch goroutine
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		e := s.do(func() {
			if s.state == StateConnected || s.state == StateConnecting {
				if derr := s.disconnect(); derr != nil {
					log.Print(derr)
				}
			}

			for _, p := range s.sortedPeers() {
				s.persist(p)
			}

			if s.ep != nil {
				err = s.ep.Close()
			}
			s.state = StateClosed
		})
		if e != nil && !errors.Is(e, ErrClosed) {
			err = e
		}

		close(s.quit)
		<-s.done
	})

	return err
}

// Role returns the Role of the Session
func (s *Session) Role() Role {
	var r Role
	s.query(func() { r = s.role })
	return r
}

// State returns the connection state of the Session
func (s *Session) State() State {
	var st State
	s.query(func() { st = s.state })
	return st
}

// Connected reports whether messages can be sent
func (s *Session) Connected() bool {
	return s.State() == StateConnected
}

// LocalAddr returns the address the Session's socket is bound to
func (s *Session) LocalAddr() *net.UDPAddr {
	var addr *net.UDPAddr
	s.query(func() {
		if s.ep != nil {
			addr = s.ep.LocalAddr()
		}
	})

	return addr
}

// Peers returns the peer records of a server sorted by address
func (s *Session) Peers() []PeerInfo {
	var r []PeerInfo
	s.query(func() {
		for _, p := range s.sortedPeers() {
			r = append(r, p.info())
		}
	})

	return r
}

// Peer returns the peer record for addr
func (s *Session) Peer(addr string) (PeerInfo, bool) {
	var info PeerInfo
	var ok bool
	s.query(func() {
		var p *Peer
		if p, ok = s.peers[addr]; ok {
			info = p.info()
		}
	})

	return info, ok
}

// Unacked reports how many sent messages are waiting for
// a received message
func (s *Session) Unacked() int {
	var n int
	s.query(func() { n = s.unackedCount() })
	return n
}

// UnackedTokens returns the tokens of a client's unacknowledged messages
func (s *Session) UnackedTokens() []string {
	var r []string
	s.query(func() {
		if s.unacked != nil {
			r = s.unacked.Tokens()
		}
	})

	return r
}

func (s *Session) unackedCount() int {
	if s.role == RoleClient {
		return s.unacked.Len()
	}

	n := 0
	for _, p := range s.peers {
		n += p.unacked.Len()
	}

	return n
}

func (s *Session) updateUnacked() {
	s.metrics.unacked.Set(float64(s.unackedCount()))
}

func (s *Session) sortedPeers() []*Peer {
	r := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		r = append(r, p)
	}

	sort.Slice(r, func(i, j int) bool {
		return r[i].addr.String() < r[j].addr.String()
	})

	return r
}
