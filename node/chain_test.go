package node

import (
	"testing"

	"github.com/VanDung-dev/HieraChain-Bridge/data"
)

func testEvents(n int) []data.Event {
	events := make([]data.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, data.Event{
			EntityID:  "entity",
			Kind:      "created",
			Timestamp: float64(i),
			Payload:   []byte{byte(i)},
		})
	}
	return events
}

func TestNewChainGenesis(t *testing.T) {
	c := NewChain("testnet")

	if c.Height() != 0 {
		t.Errorf("Expected height 0, got %d", c.Height())
	}

	genesis := c.Head()
	if genesis.Index != 0 {
		t.Errorf("Expected genesis index 0, got %d", genesis.Index)
	}
	if genesis.PreviousHash != "" {
		t.Errorf("Genesis must have no previous hash, got %q", genesis.PreviousHash)
	}
	if genesis.Hash == "" {
		t.Error("Genesis hash is empty")
	}
}

func TestChainAppendBlock(t *testing.T) {
	c := NewChain("testnet")
	genesis := c.Head()

	block := c.AppendBlock(testEvents(3))
	if block.Index != 1 {
		t.Errorf("Expected index 1, got %d", block.Index)
	}
	if block.PreviousHash != genesis.Hash {
		t.Error("Block not linked to genesis")
	}
	if c.Height() != 1 {
		t.Errorf("Expected height 1, got %d", c.Height())
	}
	if c.Head() != block {
		t.Error("Head is not the appended block")
	}
}

func TestChainBlockByNumber(t *testing.T) {
	c := NewChain("testnet")
	block := c.AppendBlock(testEvents(1))

	if got := c.BlockByNumber(1); got != block {
		t.Error("BlockByNumber(1) did not return the appended block")
	}
	if got := c.BlockByNumber(99); got != nil {
		t.Errorf("Expected nil for unknown height, got %+v", got)
	}
	if got := c.BlockByNumber(-1); got != nil {
		t.Errorf("Expected nil for negative height, got %+v", got)
	}
}

func TestMerkleRootDeterministic(t *testing.T) {
	events := testEvents(5)

	a := merkleRoot(events)
	b := merkleRoot(events)
	if a != b {
		t.Error("Merkle root not deterministic")
	}
	if a == merkleRoot(testEvents(4)) {
		t.Error("Different batches produced the same Merkle root")
	}
	if len(a) != 64 {
		t.Errorf("Expected 64-character hex root, got %d characters", len(a))
	}
}

func TestMerkleRootEmpty(t *testing.T) {
	if merkleRoot(nil) != merkleRoot([]data.Event{}) {
		t.Error("Empty batch roots differ")
	}
}

func TestBlockHashChangesWithContent(t *testing.T) {
	c := NewChain("testnet")

	b1 := c.AppendBlock(testEvents(1))
	b2 := c.AppendBlock(testEvents(2))
	if b1.Hash == b2.Hash {
		t.Error("Distinct blocks share a hash")
	}
}
