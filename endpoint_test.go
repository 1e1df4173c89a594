package monknet

import (
	"testing"
	"time"
)

func recvDatagram(t *testing.T, ch <-chan Datagram) Datagram {
	t.Helper()

	select {
	case d, ok := <-ch:
		if !ok {
			t.Fatal("inbound channel closed")
		}
		if d.Err != nil {
			t.Fatal(d.Err)
		}
		return d
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a datagram")
	}

	return Datagram{}
}

func TestListenerDial(t *testing.T) {
	l, err := Listen("127.0.0.1:0", 4)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	c, err := Dial("127.0.0.1:0", l.LocalAddr().String(), 4)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	m := NewMessage(TypePlayerPosition, "1,2")
	if err := c.Send(m); err != nil {
		t.Fatal(err)
	}

	d := recvDatagram(t, l.Inbound())
	if d.Msg != m {
		t.Errorf("listener got %+v, want %+v", d.Msg, m)
	}
	if d.Raw != m.Encode() {
		t.Errorf("Raw = %q, want %q", d.Raw, m.Encode())
	}
	if d.Addr.String() != c.LocalAddr().String() {
		t.Errorf("sender = %v, want %v", d.Addr, c.LocalAddr())
	}

	ack := m.Ack()
	if err := l.Reply(ack, d.Addr); err != nil {
		t.Fatal(err)
	}

	if d := recvDatagram(t, c.Inbound()); d.Msg != ack {
		t.Errorf("client got %+v, want %+v", d.Msg, ack)
	}
}

func TestEndpointClose(t *testing.T) {
	l, err := Listen("127.0.0.1:0", 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}

	select {
	case _, ok := <-l.Inbound():
		if ok {
			t.Error("received a datagram on a closed listener")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("inbound channel not closed")
	}
}

func TestDialDefaultPort(t *testing.T) {
	c, err := Dial("127.0.0.1:0", "127.0.0.1", 1)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if c.RemoteAddr().Port != ServerPort {
		t.Errorf("remote port = %d, want %d", c.RemoteAddr().Port, ServerPort)
	}
}

func TestWithDefaultPort(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"example.org", "example.org:19000"},
		{"1.2.3.4", "1.2.3.4:19000"},
		{"1.2.3.4:5", "1.2.3.4:5"},
		{"::1", "[::1]:19000"},
		{"[::1]:7", "[::1]:7"},
	}

	for _, tc := range tests {
		if got := WithDefaultPort(tc.addr, ServerPort); got != tc.want {
			t.Errorf("WithDefaultPort(%q) = %q, want %q", tc.addr, got, tc.want)
		}
	}
}

func TestSetTOS(t *testing.T) {
	l, err := Listen("127.0.0.1:0", 1)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	if err := l.SetTOS(46 << 2); err != nil {
		t.Errorf("SetTOS() = %v", err)
	}
}
