package monknet

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *DB {
	t.Helper()

	db, err := OpenStore(filepath.Join(t.TempDir(), "storage", "monknet.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestBanList(t *testing.T) {
	db := openTestStore(t)

	if err := db.Ban("10.0.0.1", "spam"); err != nil {
		t.Fatal(err)
	}

	banned, reason, err := db.IsBanned("10.0.0.1")
	if err != nil || !banned || reason != "spam" {
		t.Errorf("IsBanned() = %v, %q, %v", banned, reason, err)
	}

	if err := db.Ban("10.0.0.1", "again"); err == nil {
		t.Error("banning twice succeeded")
	}

	if err := db.Ban("not an ip", ""); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Ban(invalid) = %v, want %v", err, ErrInvalidAddress)
	}

	list, err := db.BanList()
	if err != nil || len(list) != 1 || list["10.0.0.1"] != "spam" {
		t.Errorf("BanList() = %v, %v", list, err)
	}

	if err := db.Unban("10.0.0.1"); err != nil {
		t.Fatal(err)
	}

	if banned, _, _ := db.IsBanned("10.0.0.1"); banned {
		t.Error("address still banned after Unban")
	}
}

func TestPeerStore(t *testing.T) {
	db := openTestStore(t)

	if _, ok, err := db.LoadPeer("127.0.0.1:5000"); ok || err != nil {
		t.Fatalf("LoadPeer of unknown peer = %v, %v", ok, err)
	}

	seen := time.Unix(1700000000, 42)
	p := PeerInfo{Addr: "127.0.0.1:5000", Animation: 3, Position: Vec2{1.5, -2}, LastSeen: seen}
	if err := db.SavePeer(p); err != nil {
		t.Fatal(err)
	}

	p.Animation = 4
	if err := db.SavePeer(p); err != nil {
		t.Fatal(err)
	}

	got, ok, err := db.LoadPeer(p.Addr)
	if err != nil || !ok {
		t.Fatalf("LoadPeer() = %v, %v", ok, err)
	}
	if got.Animation != 4 || got.Position != p.Position || !got.LastSeen.Equal(seen) {
		t.Errorf("LoadPeer() = %+v, want %+v", got, p)
	}
}
