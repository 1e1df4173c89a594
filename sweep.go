package monknet

import (
	"log"
	"time"
)

// sweep resends overdue messages, evicts silent peers
// and fails handshakes that weren't approved in time
func (s *Session) sweep(now time.Time) {
	if s.ep == nil || s.state == StateClosed {
		return
	}

	switch s.role {
	case RoleClient:
		if s.state == StateConnecting && now.After(s.handshakeDeadline) {
			s.state = StateFailed
			s.report(&HandshakeError{Addr: s.server})
		}

		if s.state == StateConnecting || s.state == StateConnected {
			s.resend(s.unacked, now)
			s.keepalive(now)
		}
	case RoleServer:
		for _, p := range s.sortedPeers() {
			if s.conf.peerTimeout > 0 && now.Sub(p.lastSeen) > s.conf.peerTimeout {
				if err := s.transmit(NewMessage(TypeDisconnect, "Timed out."), p.addr, false); err != nil {
					s.report(err)
				}
				s.leave(p, "timed out")
				continue
			}

			s.resend(p.unacked, now)
		}
	}

	s.updateUnacked()
}

// resend writes every overdue entry of t again with its original token
// Entries that ran out of retries are dropped and reported
func (s *Session) resend(t *AckTracker, now time.Time) {
	for _, p := range t.Due(now, s.conf.ackTimeout) {
		if p.Retries >= s.conf.maxRetries {
			t.Release(p.Msg.Token)
			s.metrics.deliveryFailures.Inc()
			s.report(&DeliveryError{Msg: p.Msg, Dest: p.Dest, Retries: p.Retries})
			continue
		}

		log.Printf("Resending %s to %s (attempt %d)", p.Msg.Token, p.Dest, p.Retries+1)

		t.Touch(p.Msg.Token, now)
		if err := s.ep.write(p.Msg, p.Dest); err != nil {
			s.report(err)
			continue
		}

		s.lastSent = now
		s.metrics.retransmits.Inc()
		s.metrics.datagramsSent.WithLabelValues(p.Msg.Type).Inc()
	}
}

// keepalive tells the server the client is still there
// when nothing else was sent for a while
func (s *Session) keepalive(now time.Time) {
	if s.conf.keepalive <= 0 || now.Sub(s.lastSent) < s.conf.keepalive {
		return
	}

	if err := s.transmit(FromString(TypeKeepalive), s.server, false); err != nil {
		s.report(err)
	}
}
