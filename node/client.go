package node

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/VanDung-dev/HieraChain-Bridge/data"
	"github.com/VanDung-dev/HieraChain-Bridge/network"
)

// maxBlockTxs caps the number of transactions pulled into one block.
const maxBlockTxs = 500

// RestartFunc is invoked with the new chain name when the node switches
// chains and restarts its chain state.
type RestartFunc func(newChain string)

// Action is the outcome of Start: either instant output text, or a running
// client. Both may be empty when the configuration asked for nothing
// long-lived.
type Action struct {
	Output string
	Client *Client
}

// Start boots a node from cfg. onRestart and onShutdown may be nil.
func Start(cfg *Config, onRestart RestartFunc, onShutdown func()) (*Action, error) {
	if cfg == nil {
		return nil, errors.New("nil configuration")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.ShowVersion {
		return &Action{Output: fmt.Sprintf("HieraChain %s (chain %s)", Version, cfg.Chain)}, nil
	}

	client, err := newClient(cfg, onRestart, onShutdown)
	if err != nil {
		return nil, err
	}
	if err := client.start(); err != nil {
		return nil, err
	}
	return &Action{Client: client}, nil
}

// Client is a running embedded node.
type Client struct {
	cfg        *Config
	chain      *Chain
	mempool    *Mempool
	validators *ValidatorPool
	codec      *data.BatchCodec
	metrics    *Metrics

	net        *network.Node
	metricsSrv *MetricsServer

	onRestart  RestartFunc
	onShutdown func()

	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

func newClient(cfg *Config, onRestart RestartFunc, onShutdown func()) (*Client, error) {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		cfg:        cfg,
		chain:      NewChain(cfg.Chain),
		mempool:    NewMempool(cfg.MempoolSize),
		validators: NewValidatorPool(cfg.Workers),
		codec:      data.NewBatchCodec(),
		metrics:    NewMetrics("hierachain"),
		onRestart:  onRestart,
		onShutdown: onShutdown,
		ctx:        ctx,
		cancel:     cancel,
	}

	if !cfg.NoNetwork {
		c.net = network.NewNode(fmt.Sprintf("hierachain-%s", cfg.Chain), cfg.ListenHost, cfg.ListenPort)
		c.net.SetHandler(c.handleNetMessage)
		for _, seed := range cfg.Seeds {
			id, address, ok := splitSeed(seed)
			if ok {
				c.net.AddPeer(id, address)
			}
		}
	}
	if cfg.MetricsAddr != "" {
		c.metricsSrv = NewMetricsServer(cfg.MetricsAddr, c.metrics)
	}
	return c, nil
}

func (c *Client) start() error {
	if c.net != nil {
		if err := c.net.Start(); err != nil {
			c.cancel()
			c.validators.Close()
			return fmt.Errorf("failed to start networking: %w", err)
		}
		c.metrics.PeerCount.Set(float64(c.net.PeerCount()))
	}
	if c.metricsSrv != nil {
		c.metricsSrv.StartAsync()
	}

	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	if !c.cfg.Light {
		c.wg.Add(1)
		go c.produceBlocks()
	}

	log.Printf("HieraChain node started (chain %s, light %v)", c.cfg.Chain, c.cfg.Light)
	return nil
}

// Shutdown stops the node and blocks until all background work has
// quiesced: the block producer, in-flight queries and their boundary
// notifications, the network transport and the metrics endpoint.
func (c *Client) Shutdown() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	if c.net != nil {
		c.net.Stop()
	}
	if c.metricsSrv != nil {
		_ = c.metricsSrv.Stop()
	}
	c.validators.Close()

	if c.onShutdown != nil {
		c.onShutdown()
	}
	log.Printf("HieraChain node stopped (chain %s)", c.cfg.Chain)
}

// TrackQuery registers an in-flight boundary query. Shutdown blocks until
// the returned done function has been called, so no result callback can
// fire after a destroy returns. After shutdown has begun the query is no
// longer tracked.
func (c *Client) TrackQuery() func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return func() {}
	}
	c.wg.Add(1)

	var once sync.Once
	return func() {
		once.Do(c.wg.Done)
	}
}

// produceBlocks assembles mempool transactions into blocks on a fixed
// interval and gossips each new block to the network.
func (c *Client) produceBlocks() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.BlockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.produceOne()
		}
	}
}

func (c *Client) produceOne() {
	batch := c.mempool.PopBatch(maxBlockTxs)
	valid := c.validators.ValidateBatch(batch)
	if len(valid) == 0 {
		return
	}

	events := transactionsToEvents(valid)
	block := c.getChain().AppendBlock(events)

	c.metrics.RecordBlock(len(events))
	c.metrics.MempoolSize.Set(float64(c.mempool.Size()))
	log.Printf("produced block %d with %d events", block.Index, len(events))

	if c.net == nil {
		return
	}
	payload, err := c.codec.EncodeIPC(events)
	if err != nil {
		log.Printf("failed to encode block %d payload: %v", block.Index, err)
		return
	}
	if err := c.net.Gossip(&network.Message{Type: "block", Body: payload}); err != nil {
		log.Printf("failed to gossip block %d: %v", block.Index, err)
	}
}

// handleNetMessage applies block announcements received from peers.
func (c *Client) handleNetMessage(msg *network.Message) error {
	if msg.Type != "block" {
		return nil
	}

	events, err := c.codec.DecodeIPC(msg.Body)
	if err != nil {
		return fmt.Errorf("bad block payload from %s: %w", msg.From, err)
	}

	block := c.getChain().AppendBlock(events)
	c.metrics.RecordBlock(len(events))
	log.Printf("applied block %d (%d events) from %s", block.Index, len(events), msg.From)
	return nil
}

// switchChain resets the chain state under a new name and fires the restart
// notification.
func (c *Client) switchChain(name string) {
	c.mu.Lock()
	c.cfg.Chain = name
	c.chain = NewChain(name)
	c.mempool.Clear()
	c.mu.Unlock()

	log.Printf("switched to chain %s", name)
	if c.onRestart != nil {
		c.onRestart(name)
	}
}

func (c *Client) getChain() *Chain {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chain
}

func (c *Client) peerCount() int {
	if c.net == nil {
		return 0
	}
	return c.net.PeerCount()
}

func transactionsToEvents(txs []*Transaction) []data.Event {
	events := make([]data.Event, 0, len(txs))
	for _, tx := range txs {
		events = append(events, data.Event{
			EntityID:  tx.EntityID,
			Kind:      tx.EventType,
			Timestamp: float64(tx.Timestamp.UnixNano()) / float64(time.Second),
			Details:   map[string]string{"tx_id": tx.ID},
			Payload:   tx.Data,
		})
	}
	return events
}

// splitSeed parses "id@tcp://host:port" into its parts.
func splitSeed(seed string) (id, address string, ok bool) {
	for i := 0; i < len(seed); i++ {
		if seed[i] == '@' {
			return seed[:i], seed[i+1:], seed[:i] != "" && seed[i+1:] != ""
		}
	}
	return "", "", false
}
