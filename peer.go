package monknet

import (
	"errors"
	"math"
	"net"
	"strconv"
	"strings"
	"time"
)

// Vec2 is a position in the game world
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) String() string {
	return strconv.FormatFloat(v.X, 'f', -1, 64) + "," + strconv.FormatFloat(v.Y, 'f', -1, 64)
}

// An Actor is the application's in-world representation of a client
// The Session only holds a reference to it and never owns it
type Actor interface {
	SetAnimation(index int)
	SetPosition(pos Vec2)
}

// A Peer is the server's record of one client address
type Peer struct {
	addr  *net.UDPAddr
	actor Actor

	animation int
	position  Vec2

	firstSeen time.Time
	lastSeen  time.Time

	unacked *AckTracker
}

func newPeer(addr *net.UDPAddr, now time.Time) *Peer {
	return &Peer{
		addr:      addr,
		firstSeen: now,
		lastSeen:  now,
		unacked:   NewAckTracker(),
	}
}

func (p *Peer) setAnimation(index int) {
	p.animation = index
	if p.actor != nil {
		p.actor.SetAnimation(index)
	}
}

func (p *Peer) setPosition(pos Vec2) {
	p.position = pos
	if p.actor != nil {
		p.actor.SetPosition(pos)
	}
}

func (p *Peer) info() PeerInfo {
	return PeerInfo{
		Addr:      p.addr.String(),
		Animation: p.animation,
		Position:  p.position,
		FirstSeen: p.firstSeen,
		LastSeen:  p.lastSeen,
		Unacked:   p.unacked.Len(),
	}
}

// PeerInfo is a copy of a Peer's state safe to use
// outside of the Session
type PeerInfo struct {
	Addr      string    `json:"addr"`
	Animation int       `json:"animation"`
	Position  Vec2      `json:"position"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Unacked   int       `json:"unacked"`
}

var errPositionFormat = errors.New("want two numbers separated by a comma")

// ParseAnimation parses the contents of a player_animation message
func ParseAnimation(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// ParsePosition parses the contents of a player_position message
func ParsePosition(s string) (Vec2, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Vec2{}, errPositionFormat
	}

	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Vec2{}, err
	}

	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Vec2{}, err
	}

	if !finite(x) || !finite(y) {
		return Vec2{}, errPositionFormat
	}

	return Vec2{X: x, Y: y}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
