package monknet

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const storeSQL = `CREATE TABLE IF NOT EXISTS ban (
	addr VARCHAR(64) PRIMARY KEY NOT NULL,
	reason VARCHAR(512) NOT NULL
);
CREATE TABLE IF NOT EXISTS peers (
	addr VARCHAR(64) PRIMARY KEY NOT NULL,
	animation INTEGER NOT NULL,
	x REAL NOT NULL,
	y REAL NOT NULL,
	last_seen INTEGER NOT NULL
);
`

type DB struct {
	*sql.DB
}

// OpenSQLite3 opens and returns a SQLite3 database
// and runs initSQL on it
func OpenSQLite3(path, initSQL string) (*DB, error) {
	os.MkdirAll(filepath.Dir(path), 0775)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(initSQL); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db}, nil
}

// OpenStore opens the ban list and peer store at path
func OpenStore(path string) (*DB, error) {
	return OpenSQLite3(path, storeSQL)
}
