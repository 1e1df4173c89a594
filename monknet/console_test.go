package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/HimbeerserverDE/monknet"
)

type fakeSender struct {
	strs []string
	msgs []monknet.Message
}

func (f *fakeSender) SendString(str string) error {
	f.strs = append(f.strs, str)
	return nil
}

func (f *fakeSender) SendMessage(m monknet.Message) error {
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeSender) Peers() []monknet.PeerInfo { return nil }

func (f *fakeSender) Unacked() int { return 0 }

func TestRunCommand(t *testing.T) {
	tests := []struct {
		line     string
		typ      string
		contents string
	}{
		{"anim 3", monknet.TypePlayerAnimation, "3"},
		{"pos 1.5, 2", monknet.TypePlayerPosition, "1.5,2"},
		{"send chat hello there", "chat", "hello there"},
		{"send ping", "ping", ""},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			var s fakeSender
			if err := runCommand(&s, tc.line); err != nil {
				t.Fatal(err)
			}

			if len(s.msgs) != 1 {
				t.Fatalf("sent %d messages, want 1", len(s.msgs))
			}
			if m := s.msgs[0]; m.Type != tc.typ || m.Contents != tc.contents {
				t.Errorf("sent %s:%s, want %s:%s", m.Type, m.Contents, tc.typ, tc.contents)
			}
		})
	}
}

func TestRunCommandPlain(t *testing.T) {
	var s fakeSender

	if err := runCommand(&s, "  test  "); err != nil {
		t.Fatal(err)
	}
	if err := runCommand(&s, ""); err != nil {
		t.Fatal(err)
	}

	if len(s.strs) != 1 || s.strs[0] != "test" {
		t.Errorf("SendString calls = %v, want [test]", s.strs)
	}
}

func TestRunCommandUsage(t *testing.T) {
	var s fakeSender

	for _, line := range []string{"anim walk", "pos 1", "send"} {
		if err := runCommand(&s, line); err == nil || !strings.HasPrefix(err.Error(), "usage:") {
			t.Errorf("runCommand(%q) = %v, want a usage error", line, err)
		}
	}

	if len(s.msgs) != 0 {
		t.Errorf("sent %v on bad input", s.msgs)
	}
}

func TestConsoleQuit(t *testing.T) {
	var s fakeSender

	console(&s, strings.NewReader("anim 1\nquit\nanim 2\n"))

	if len(s.msgs) != 1 {
		t.Errorf("sent %d messages, want 1 before quit", len(s.msgs))
	}

	if err := runCommand(&s, "quit"); !errors.Is(err, errQuit) {
		t.Errorf("quit = %v, want %v", err, errQuit)
	}
}
