package monknet

import (
	"database/sql"
	"errors"
	"time"
)

// SavePeer stores the last known state of a peer
func (db *DB) SavePeer(p PeerInfo) error {
	stmt, err := db.Prepare(`INSERT OR REPLACE INTO peers (
		addr,
		animation,
		x,
		y,
		last_seen
	) VALUES (
		?,
		?,
		?,
		?,
		?
	);`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(p.Addr, p.Animation, p.Position.X, p.Position.Y, p.LastSeen.UnixNano())
	return err
}

// LoadPeer reads the stored state of the peer at addr
func (db *DB) LoadPeer(addr string) (PeerInfo, bool, error) {
	var p PeerInfo
	var lastSeen int64

	err := db.QueryRow(`SELECT animation, x, y, last_seen FROM peers WHERE addr = ?;`, addr).
		Scan(&p.Animation, &p.Position.X, &p.Position.Y, &lastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return PeerInfo{}, false, nil
	}
	if err != nil {
		return PeerInfo{}, false, err
	}

	p.Addr = addr
	p.LastSeen = time.Unix(0, lastSeen)
	return p, true, nil
}
