package monknet

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}

	return resp.StatusCode
}

func TestStatusHandler(t *testing.T) {
	server := startServer(t, defaultTestConf().config(t), Handler{})

	c := dialRaw(t, server.LocalAddr())
	m := NewMessage(TypePlayerPosition, "1,2")
	c.send(m)
	c.expectAck(m.Token)

	ts := httptest.NewServer(StatusHandler(server))
	defer ts.Close()

	var h health
	if code := getJSON(t, ts.URL+"/healthz", &h); code != http.StatusOK {
		t.Fatalf("/healthz status = %d", code)
	}
	if h.Role != "server" || h.State != "connected" {
		t.Errorf("/healthz = %+v", h)
	}

	var peers []PeerInfo
	getJSON(t, ts.URL+"/peers", &peers)
	if len(peers) != 1 || peers[0].Addr != c.addr() || peers[0].Position != (Vec2{1, 2}) {
		t.Errorf("/peers = %+v", peers)
	}

	var p PeerInfo
	if code := getJSON(t, ts.URL+"/peers/"+c.addr(), &p); code != http.StatusOK || p.Addr != c.addr() {
		t.Errorf("/peers/%s = %d, %+v", c.addr(), code, p)
	}

	if code := getJSON(t, ts.URL+"/peers/127.0.0.1:1", nil); code != http.StatusNotFound {
		t.Errorf("unknown peer status = %d, want %d", code, http.StatusNotFound)
	}

	var unacked map[string]int
	getJSON(t, ts.URL+"/unacked", &unacked)
	if unacked["unacked"] != 0 {
		t.Errorf("/unacked = %v", unacked)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "monknet_datagrams_received_total") {
		t.Error("/metrics doesn't expose the received counter")
	}
}

func TestStatusNoPeers(t *testing.T) {
	s := NewSession(nil, Handler{})
	closeOnCleanup(t, s)

	ts := httptest.NewServer(StatusHandler(s))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/peers")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("/peers = %s, want []", got)
	}
}
