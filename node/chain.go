package node

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/VanDung-dev/HieraChain-Bridge/data"
)

// Block is one certified batch of entity events.
type Block struct {
	Index        int64        `json:"index"`
	Timestamp    time.Time    `json:"timestamp"`
	PreviousHash string       `json:"previous_hash"`
	MerkleRoot   string       `json:"merkle_root"`
	Hash         string       `json:"hash"`
	Events       []data.Event `json:"events,omitempty"`
}

// headerHash computes the block hash over the header fields.
func (b *Block) headerHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%s|%s", b.Index, b.Timestamp.UnixNano(), b.PreviousHash, b.MerkleRoot)
	return hex.EncodeToString(h.Sum(nil))
}

// merkleRoot computes the Merkle root of the event hashes. An empty batch
// hashes to the digest of the empty string.
func merkleRoot(events []data.Event) string {
	if len(events) == 0 {
		sum := sha256.Sum256(nil)
		return hex.EncodeToString(sum[:])
	}

	level := make([][32]byte, 0, len(events))
	for _, ev := range events {
		h := sha256.New()
		fmt.Fprintf(h, "%s|%s|%f", ev.EntityID, ev.Kind, ev.Timestamp)
		h.Write(ev.Payload)
		var sum [32]byte
		copy(sum[:], h.Sum(nil))
		level = append(level, sum)
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][32]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			pair := append(level[i][:], level[i+1][:]...)
			next = append(next, sha256.Sum256(pair))
		}
		level = next
	}

	return hex.EncodeToString(level[0][:])
}

// Chain tracks the node's block history for one named chain.
type Chain struct {
	name   string
	blocks []*Block
	byHash map[string]*Block
	mu     sync.RWMutex
}

// NewChain creates a chain seeded with its genesis block.
func NewChain(name string) *Chain {
	c := &Chain{
		name:   name,
		byHash: make(map[string]*Block),
	}

	genesis := &Block{
		Index:        0,
		Timestamp:    time.Unix(0, 0).UTC(),
		PreviousHash: "",
		MerkleRoot:   merkleRoot(nil),
	}
	genesis.Hash = genesis.headerHash()

	c.blocks = []*Block{genesis}
	c.byHash[genesis.Hash] = genesis
	return c
}

// Name returns the chain name.
func (c *Chain) Name() string {
	return c.name
}

// Head returns the latest block.
func (c *Chain) Head() *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[len(c.blocks)-1]
}

// Height returns the index of the latest block.
func (c *Chain) Height() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blocks[len(c.blocks)-1].Index
}

// BlockByNumber returns the block at the given height, or nil.
func (c *Chain) BlockByNumber(n int64) *Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n < 0 || n >= int64(len(c.blocks)) {
		return nil
	}
	return c.blocks[n]
}

// AppendBlock assembles, links and stores a new block from the given events.
func (c *Chain) AppendBlock(events []data.Event) *Block {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.blocks[len(c.blocks)-1]
	block := &Block{
		Index:        prev.Index + 1,
		Timestamp:    time.Now().UTC(),
		PreviousHash: prev.Hash,
		MerkleRoot:   merkleRoot(events),
		Events:       events,
	}
	block.Hash = block.headerHash()

	c.blocks = append(c.blocks, block)
	c.byHash[block.Hash] = block
	return block
}
