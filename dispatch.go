package monknet

import (
	"context"
	"log"
	"net"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// dispatch handles one inbound datagram
func (s *Session) dispatch(d Datagram) {
	if d.Err != nil {
		s.report(d.Err)
		return
	}

	start := time.Now()
	kind := d.Msg.Kind()

	_, span := s.tracer.Start(context.Background(), "monknet.dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("monknet.role", s.role.String()),
			attribute.String("monknet.type", d.Msg.Type),
			attribute.String("monknet.sender", d.Addr.String()),
		),
	)
	defer span.End()

	s.metrics.datagramsReceived.WithLabelValues(kind.String()).Inc()
	log.Printf("Received: %s From: %s", d.Raw, d.Addr)

	var err error
	switch s.role {
	case RoleServer:
		err = s.dispatchServer(d, start)
	case RoleClient:
		err = s.dispatchClient(d)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.report(err)
	}

	s.metrics.dispatchDuration.Observe(time.Since(start).Seconds())
}

func (s *Session) dispatchServer(d Datagram, now time.Time) error {
	p, ok := s.peers[d.Addr.String()]
	if !ok {
		if p = s.join(d.Addr, now); p == nil {
			return nil
		}
	}
	p.lastSeen = now

	s.deliver(d)

	kind := d.Msg.Kind()
	if needsAck(kind) {
		s.acknowledge(d)
	}

	switch kind {
	case KindPlayerAnimation:
		i, err := ParseAnimation(d.Msg.Contents)
		if err != nil {
			return &ParseError{Kind: kind, Contents: d.Msg.Contents, Err: err}
		}
		p.setAnimation(i)
	case KindPlayerPosition:
		pos, err := ParsePosition(d.Msg.Contents)
		if err != nil {
			return &ParseError{Kind: kind, Contents: d.Msg.Contents, Err: err}
		}
		p.setPosition(pos)
	case KindHandshake:
		return s.transmit(FromString(TypeHandshakeApproved), d.Addr, false)
	case KindReceived:
		if p.unacked.Release(d.Msg.Contents) {
			s.updateUnacked()
		}
	case KindDisconnect:
		s.leave(p, "disconnected")
	case KindKeepalive:
	case KindHandshakeApproved, KindApplication:
		return &UnknownTypeError{Type: d.Msg.Type, Contents: d.Msg.Contents}
	}

	return nil
}

func (s *Session) dispatchClient(d Datagram) error {
	s.deliver(d)

	kind := d.Msg.Kind()
	if needsAck(kind) {
		s.acknowledge(d)
	}

	switch kind {
	case KindReceived:
		if s.unacked.Release(d.Msg.Contents) {
			s.updateUnacked()
		}
		log.Printf("%d messages not received by server", s.unacked.Len())
	case KindHandshakeApproved:
		if s.state == StateConnecting {
			log.Print("Handshake approved by ", d.Addr)
			s.state = StateConnected
		}
	case KindDisconnect:
		log.Printf("Server at %s closed the session: %s", d.Addr, d.Msg.Contents)
		s.state = StateClosed
	case KindHandshake, KindPlayerAnimation, KindPlayerPosition, KindKeepalive, KindApplication:
		return &UnknownTypeError{Type: d.Msg.Type, Contents: d.Msg.Contents}
	}

	return nil
}

// needsAck reports whether messages of kind are answered
// with a received message
func needsAck(kind Kind) bool {
	switch kind {
	case KindReceived, KindDisconnect, KindKeepalive:
		return false
	}

	return true
}

// acknowledge answers d with a received message
func (s *Session) acknowledge(d Datagram) {
	if err := s.transmit(d.Msg.Ack(), d.Addr, false); err != nil {
		s.report(err)
	}
}

func (s *Session) deliver(d Datagram) {
	if s.h.OnMessage != nil {
		s.h.OnMessage(s.role, d)
	}
}

// join creates the peer record for addr
// It returns nil if addr is banned
func (s *Session) join(addr *net.UDPAddr, now time.Time) *Peer {
	if s.db != nil {
		banned, reason, err := s.db.IsBanned(addr.IP.String())
		if err != nil {
			log.Print(err)
		} else if banned {
			log.Printf("Dropping datagram from banned address %s: %s", addr, reason)
			return nil
		}
	}

	p := newPeer(addr, now)
	if s.h.NewActor != nil {
		p.actor = s.h.NewActor(addr)
	}

	if s.db != nil {
		stored, ok, err := s.db.LoadPeer(addr.String())
		if err != nil {
			log.Print(err)
		} else if ok {
			p.setAnimation(stored.Animation)
			p.setPosition(stored.Position)
		}
	}

	s.peers[addr.String()] = p
	s.metrics.peers.Set(float64(len(s.peers)))

	log.Print(addr, " connected")

	if s.h.OnJoin != nil {
		s.h.OnJoin(p.info())
	}

	return p
}

// leave evicts a peer record
// Its unacknowledged messages are dropped
func (s *Session) leave(p *Peer, reason string) {
	s.persist(p)

	delete(s.peers, p.addr.String())
	s.metrics.peers.Set(float64(len(s.peers)))
	s.updateUnacked()

	log.Print(p.addr, " ", reason)

	if s.h.OnLeave != nil {
		s.h.OnLeave(p.info())
	}
}

func (s *Session) persist(p *Peer) {
	if s.db == nil {
		return
	}

	if err := s.db.SavePeer(p.info()); err != nil {
		log.Print(err)
	}
}

// report logs err and passes it to the error handler
func (s *Session) report(err error) {
	log.Print(err)

	s.metrics.errors.WithLabelValues(errorClass(err)).Inc()

	if s.h.OnError != nil {
		s.h.OnError(err)
	}
}
