// Package network provides the ZeroMQ transport used by the embedded node:
// a ROUTER socket for receiving, per-peer DEALER sockets for sending, and a
// gossip relay with replay protection.
package network

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
)

// Common errors for network operations
var (
	ErrNodeNotRunning = errors.New("transport is not running")
	ErrPeerNotFound   = errors.New("peer not found")
	ErrSendFailed     = errors.New("failed to send message")
)

// Peer describes a known remote node.
type Peer struct {
	ID       string    `json:"id"`
	Address  string    `json:"address"`
	LastSeen time.Time `json:"last_seen"`
}

// Message is one wire message. Body carries the payload, Arrow IPC bytes
// for block announcements.
type Message struct {
	Type      string    `json:"type"`
	From      string    `json:"from"`
	Body      []byte    `json:"body,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Nonce     string    `json:"nonce,omitempty"`
	Hops      int       `json:"hops,omitempty"`
}

// Handler processes one received message.
type Handler func(msg *Message) error

// Node is a ZeroMQ transport endpoint.
type Node struct {
	id       string
	endpoint string

	ctx    context.Context
	cancel context.CancelFunc

	router  zmq4.Socket
	dealers map[string]zmq4.Socket

	peers   map[string]*Peer
	handler Handler
	msgChan chan *Message

	// gossip and replay state
	seen          map[string]time.Time
	seenMu        sync.Mutex
	seenTolerance time.Duration
	maxHops       int

	running bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// NewNode creates a transport endpoint bound to host:port once started.
func NewNode(id, host string, port int) *Node {
	ctx, cancel := context.WithCancel(context.Background())

	return &Node{
		id:            id,
		endpoint:      fmt.Sprintf("tcp://%s:%d", host, port),
		ctx:           ctx,
		cancel:        cancel,
		dealers:       make(map[string]zmq4.Socket),
		peers:         make(map[string]*Peer),
		msgChan:       make(chan *Message, 1000),
		seen:          make(map[string]time.Time),
		seenTolerance: time.Minute,
		maxHops:       5,
	}
}

// Start binds the router socket and launches the receive loops.
func (n *Node) Start() error {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return errors.New("transport already running")
	}

	n.router = zmq4.NewRouter(n.ctx, zmq4.WithID(zmq4.SocketIdentity(n.id)))
	if err := n.router.Listen(n.endpoint); err != nil {
		n.mu.Unlock()
		return fmt.Errorf("failed to bind router: %w", err)
	}

	n.running = true
	n.mu.Unlock()

	n.wg.Add(3)
	go n.receiveLoop()
	go n.dispatchLoop()
	go n.seenCleaner()
	return nil
}

// Stop shuts the transport down and waits for its goroutines.
func (n *Node) Stop() {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return
	}
	n.running = false
	n.mu.Unlock()

	n.cancel()

	// Socket close errors are expected during shutdown.
	if n.router != nil {
		_ = n.router.Close()
	}
	n.mu.Lock()
	for _, dealer := range n.dealers {
		_ = dealer.Close()
	}
	n.mu.Unlock()

	n.wg.Wait()
	close(n.msgChan)
}

// Addr returns the bound endpoint, resolving a wildcard port after Start.
func (n *Node) Addr() string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.router != nil {
		if addr := n.router.Addr(); addr != nil {
			return "tcp://" + addr.String()
		}
	}
	return n.endpoint
}

// AddPeer registers a peer for direct sends and gossip.
func (n *Node) AddPeer(id, address string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.peers[id] = &Peer{
		ID:       id,
		Address:  address,
		LastSeen: time.Now(),
	}
}

// RemovePeer drops a peer and its dealer socket.
func (n *Node) RemovePeer(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.peers, id)
	if dealer, ok := n.dealers[id]; ok {
		_ = dealer.Close()
		delete(n.dealers, id)
	}
}

// SetHandler installs the receive callback.
func (n *Node) SetHandler(handler Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = handler
}

// PeerCount returns the number of registered peers.
func (n *Node) PeerCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.peers)
}

// Send delivers a message of the given type directly to one peer.
func (n *Node) Send(peerID, msgType string, body []byte) error {
	n.mu.RLock()
	if !n.running {
		n.mu.RUnlock()
		return ErrNodeNotRunning
	}
	peer, ok := n.peers[peerID]
	n.mu.RUnlock()
	if !ok {
		return ErrPeerNotFound
	}

	msg := &Message{
		Type:      msgType,
		From:      n.id,
		Body:      body,
		Timestamp: time.Now(),
		Nonce:     fmt.Sprintf("%d-%s", time.Now().UnixNano(), n.id),
	}
	return n.send(peerID, peer.Address, msg)
}

// Gossip relays a message to all peers, re-broadcasting received messages
// until their hop budget runs out. Duplicates are suppressed by body hash.
func (n *Node) Gossip(msg *Message) error {
	if msg.Hops >= n.maxHops {
		return nil
	}
	if n.markSeen(gossipKey(msg)) {
		return nil
	}

	n.mu.RLock()
	if !n.running {
		n.mu.RUnlock()
		return ErrNodeNotRunning
	}
	peers := make(map[string]string, len(n.peers))
	for id, peer := range n.peers {
		if id != msg.From {
			peers[id] = peer.Address
		}
	}
	n.mu.RUnlock()

	relay := *msg
	relay.Hops++
	if relay.Nonce == "" {
		relay.Nonce = fmt.Sprintf("%d-%s", time.Now().UnixNano(), n.id)
	}
	if relay.From == "" {
		relay.From = n.id
	}
	if relay.Timestamp.IsZero() {
		relay.Timestamp = time.Now()
	}

	var lastErr error
	for id, address := range peers {
		if err := n.send(id, address, &relay); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (n *Node) send(peerID, address string, msg *Message) error {
	dealer, err := n.dealer(peerID, address)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := dealer.Send(zmq4.NewMsg(raw)); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// dealer returns the DEALER socket for a peer, dialing it on first use.
func (n *Node) dealer(peerID, address string) (zmq4.Socket, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if dealer, ok := n.dealers[peerID]; ok {
		return dealer, nil
	}

	dealer := zmq4.NewDealer(n.ctx, zmq4.WithID(zmq4.SocketIdentity(n.id)))
	if err := dealer.Dial(address); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	n.dealers[peerID] = dealer
	return dealer, nil
}

func (n *Node) receiveLoop() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			return
		default:
		}

		raw, err := n.router.Recv()
		if err != nil {
			select {
			case <-n.ctx.Done():
				return
			default:
				continue
			}
		}

		if len(raw.Frames) == 0 {
			continue
		}
		// ROUTER delivery is [identity, payload]; the payload is last.
		var msg Message
		if err := json.Unmarshal(raw.Frames[len(raw.Frames)-1], &msg); err != nil {
			continue
		}
		if msg.Nonce != "" && n.markSeen(msg.Nonce) {
			continue
		}
		if time.Since(msg.Timestamp) > n.seenTolerance {
			continue
		}

		n.mu.Lock()
		if peer, ok := n.peers[msg.From]; ok {
			peer.LastSeen = time.Now()
		}
		n.mu.Unlock()

		select {
		case n.msgChan <- &msg:
		default:
			// Channel full, drop message.
		}
	}
}

func (n *Node) dispatchLoop() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			return
		case msg, ok := <-n.msgChan:
			if !ok {
				return
			}

			n.mu.RLock()
			handler := n.handler
			n.mu.RUnlock()

			if handler != nil {
				_ = handler(msg)
			}
		}
	}
}

// markSeen records a key in the replay cache, reporting whether it was
// already present.
func (n *Node) markSeen(key string) bool {
	n.seenMu.Lock()
	defer n.seenMu.Unlock()

	if _, dup := n.seen[key]; dup {
		return true
	}
	n.seen[key] = time.Now()
	return false
}

func (n *Node) seenCleaner() {
	defer n.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-n.seenTolerance)
			n.seenMu.Lock()
			for key, ts := range n.seen {
				if ts.Before(cutoff) {
					delete(n.seen, key)
				}
			}
			n.seenMu.Unlock()
		}
	}
}

func gossipKey(msg *Message) string {
	h := sha256.New()
	h.Write([]byte(msg.Type))
	h.Write(msg.Body)
	return hex.EncodeToString(h.Sum(nil))
}
