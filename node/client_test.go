package node

import (
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartVersionInstant(t *testing.T) {
	cfg, err := ParseCLI([]string{"hierachain", "--version"})
	if err != nil {
		t.Fatalf("ParseCLI failed: %v", err)
	}

	action, err := Start(cfg, nil, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if action.Client != nil {
		action.Client.Shutdown()
		t.Fatal("Expected no client for --version")
	}
	if !strings.Contains(action.Output, Version) {
		t.Errorf("Version output %q does not mention %q", action.Output, Version)
	}
}

func TestStartNilConfig(t *testing.T) {
	if _, err := Start(nil, nil, nil); err == nil {
		t.Error("Expected error for nil configuration")
	}
}

func TestStartNetworkFailureReleasesContext(t *testing.T) {
	// Occupy a port so the transport bind fails.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer listener.Close()
	port := listener.Addr().(*net.TCPAddr).Port

	cfg, err := ParseCLI([]string{"hierachain", "--listen-port", fmt.Sprint(port)})
	if err != nil {
		t.Fatalf("ParseCLI failed: %v", err)
	}

	c, err := newClient(cfg, nil, nil)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}
	if err := c.start(); err == nil {
		c.Shutdown()
		t.Fatal("Expected an error binding an occupied port")
	}
	if c.ctx.Err() == nil {
		t.Error("Client context not cancelled after failed start")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	c := startTestNode(t, "--light")
	c.Shutdown()
	c.Shutdown()
}

func TestShutdownCallsHook(t *testing.T) {
	cfg, err := ParseCLI([]string{"hierachain", "--no-network", "--light"})
	if err != nil {
		t.Fatalf("ParseCLI failed: %v", err)
	}

	var hooked int32
	action, err := Start(cfg, nil, func() {
		atomic.AddInt32(&hooked, 1)
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	action.Client.Shutdown()
	if atomic.LoadInt32(&hooked) != 1 {
		t.Errorf("Expected shutdown hook once, got %d", hooked)
	}
}

func TestShutdownWaitsForTrackedQueries(t *testing.T) {
	c := startTestNode(t, "--light")

	done := c.TrackQuery()

	released := make(chan struct{})
	go func() {
		time.Sleep(150 * time.Millisecond)
		close(released)
		done()
	}()

	start := time.Now()
	c.Shutdown()

	select {
	case <-released:
	default:
		t.Fatal("Shutdown returned before the tracked query finished")
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("Shutdown returned after %v, expected it to block", elapsed)
	}
}

func TestTrackQueryAfterShutdown(t *testing.T) {
	c := startTestNode(t, "--light")
	c.Shutdown()

	// Must be a no-op, not a panic on a finished wait group.
	done := c.TrackQuery()
	done()
	done()
}

func TestSwitchChainFiresRestart(t *testing.T) {
	cfg, err := ParseCLI([]string{"hierachain", "--no-network", "--block-interval", "1h"})
	if err != nil {
		t.Fatalf("ParseCLI failed: %v", err)
	}

	restarts := make(chan string, 1)
	action, err := Start(cfg, func(newChain string) {
		restarts <- newChain
	}, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c := action.Client
	t.Cleanup(c.Shutdown)

	if got := resultString(t, query(t, c, `{"id":1,"method":"admin_switchChain","params":["phoenix"]}`)); got != "phoenix" {
		t.Errorf("Expected phoenix, got %q", got)
	}

	select {
	case name := <-restarts:
		if name != "phoenix" {
			t.Errorf("Restart notified with %q", name)
		}
	case <-time.After(time.Second):
		t.Fatal("Restart callback never fired")
	}

	if got := resultString(t, query(t, c, `{"id":2,"method":"hiera_chainName"}`)); got != "phoenix" {
		t.Errorf("Chain name still %q after switch", got)
	}
	if got := resultString(t, query(t, c, `{"id":3,"method":"hiera_blockNumber"}`)); got != "0x0" {
		t.Errorf("Chain height not reset after switch, got %q", got)
	}
}

func TestBlockProductionDrainsMempool(t *testing.T) {
	c := startTestNode(t, "--block-interval", "25ms")

	for _, q := range []string{
		`{"id":1,"method":"hiera_sendTransaction","params":[{"id":"tx-a","entity_id":"e","event_type":"created","priority":2}]}`,
		`{"id":2,"method":"hiera_sendTransaction","params":[{"id":"tx-b","entity_id":"e","event_type":"updated"}]}`,
	} {
		query(t, c, q)
	}

	deadline := time.Now().Add(3 * time.Second)
	for c.mempool.Size() != 0 || c.getChain().Height() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("mempool not drained (size %d, height %d)", c.mempool.Size(), c.getChain().Height())
		}
		time.Sleep(10 * time.Millisecond)
	}

	head := c.getChain().Head()
	if len(head.Events) == 0 {
		t.Error("Produced block carries no events")
	}
}

func TestTransactionsToEvents(t *testing.T) {
	txs := []*Transaction{{
		ID:        "tx-1",
		EntityID:  "entity-1",
		EventType: "created",
		Data:      []byte("payload"),
		Timestamp: time.Unix(10, 500000000),
	}}

	events := transactionsToEvents(txs)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	ev := events[0]
	if ev.EntityID != "entity-1" || ev.Kind != "created" {
		t.Errorf("Unexpected event: %+v", ev)
	}
	if ev.Details["tx_id"] != "tx-1" {
		t.Errorf("Expected tx_id detail, got %v", ev.Details)
	}
	if ev.Timestamp != 10.5 {
		t.Errorf("Expected timestamp 10.5, got %f", ev.Timestamp)
	}
	if string(ev.Payload) != "payload" {
		t.Errorf("Unexpected payload %q", ev.Payload)
	}
}
