package monknet

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
)

// Ban adds an IP address to the ban list
func (db *DB) Ban(addr, reason string) error {
	if net.ParseIP(addr) == nil {
		return ErrInvalidAddress
	}

	banned, _, err := db.IsBanned(addr)
	if err != nil {
		return err
	}

	if banned {
		return fmt.Errorf("ip address %s is already banned", addr)
	}

	_, err = db.Exec(`INSERT INTO ban (
		addr,
		reason
	) VALUES (
		?,
		?
	);`, addr, reason)
	return err
}

// Unban removes an IP address from the ban list
func (db *DB) Unban(addr string) error {
	_, err := db.Exec(`DELETE FROM ban WHERE addr = ?;`, addr)
	return err
}

// IsBanned reports whether an IP address is banned and why
func (db *DB) IsBanned(addr string) (bool, string, error) {
	var reason string
	err := db.QueryRow(`SELECT reason FROM ban WHERE addr = ?;`, addr).Scan(&reason)
	if errors.Is(err, sql.ErrNoRows) {
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}

	return true, reason, nil
}

// BanList returns the banned IP addresses and their reasons
func (db *DB) BanList() (map[string]string, error) {
	rows, err := db.Query(`SELECT addr, reason FROM ban;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	r := make(map[string]string)

	for rows.Next() {
		var addr, reason string

		if err = rows.Scan(&addr, &reason); err != nil {
			return nil, err
		}

		r[addr] = reason
	}

	return r, rows.Err()
}
