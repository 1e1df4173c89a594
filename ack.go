package monknet

import (
	"net"
	"sort"
	"time"
)

// A Pending is a sent message that has not been acknowledged yet
type Pending struct {
	Msg     Message
	Dest    *net.UDPAddr
	SentAt  time.Time
	Retries int
}

// An AckTracker maps tokens to messages awaiting a received message
// It is not safe for concurrent use, the Session owns all of them
// from its dispatch goroutine
type AckTracker struct {
	pending map[string]*Pending
}

// NewAckTracker returns an empty AckTracker
func NewAckTracker() *AckTracker {
	return &AckTracker{pending: make(map[string]*Pending)}
}

// Track inserts m or replaces the entry that has the same token
func (t *AckTracker) Track(m Message, dest *net.UDPAddr, now time.Time) {
	t.pending[m.Token] = &Pending{
		Msg:    m,
		Dest:   dest,
		SentAt: now,
	}
}

// Release removes the entry for token and reports whether it existed
// Releasing an unknown token does nothing
func (t *AckTracker) Release(token string) bool {
	if _, ok := t.pending[token]; !ok {
		return false
	}

	delete(t.pending, token)
	return true
}

// Get returns the entry for token
func (t *AckTracker) Get(token string) (Pending, bool) {
	p, ok := t.pending[token]
	if !ok {
		return Pending{}, false
	}

	return *p, true
}

// Len reports how many messages are in flight
func (t *AckTracker) Len() int { return len(t.pending) }

// Tokens returns the tokens of all entries in sorted order
func (t *AckTracker) Tokens() []string {
	r := make([]string, 0, len(t.pending))
	for token := range t.pending {
		r = append(r, token)
	}

	sort.Strings(r)
	return r
}

// Due returns the entries whose last transmission is at least
// timeout old, oldest first
func (t *AckTracker) Due(now time.Time, timeout time.Duration) []Pending {
	var r []Pending
	for _, p := range t.pending {
		if now.Sub(p.SentAt) >= timeout {
			r = append(r, *p)
		}
	}

	sort.Slice(r, func(i, j int) bool {
		return r[i].SentAt.Before(r[j].SentAt)
	})

	return r
}

// Touch records a retransmission of token
func (t *AckTracker) Touch(token string, now time.Time) {
	if p, ok := t.pending[token]; ok {
		p.SentAt = now
		p.Retries++
	}
}
