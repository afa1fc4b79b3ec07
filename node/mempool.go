package node

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

// Common errors for mempool operations
var (
	ErrMempoolFull     = errors.New("mempool is full")
	ErrTxAlreadyExists = errors.New("transaction already exists")
	ErrInvalidTx       = errors.New("invalid transaction")
)

// Transaction represents a pending entity event submitted to the node.
type Transaction struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	EventType string    `json:"event_type"`
	Data      []byte    `json:"data,omitempty"`
	Priority  int       `json:"priority"`
	Timestamp time.Time `json:"timestamp"`

	// heap bookkeeping, -1 when not queued
	index int
}

// Validate checks that the transaction has its required fields.
func (tx *Transaction) Validate() error {
	if tx.ID == "" {
		return errors.New("transaction ID is required")
	}
	if tx.EntityID == "" {
		return errors.New("entity ID is required")
	}
	if tx.EventType == "" {
		return errors.New("event type is required")
	}
	return nil
}

// txQueue implements heap.Interface ordered by priority, then arrival time.
type txQueue []*Transaction

func (q txQueue) Len() int { return len(q) }

func (q txQueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority > q[j].Priority
	}
	return q[i].Timestamp.Before(q[j].Timestamp)
}

func (q txQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *txQueue) Push(x interface{}) {
	tx := x.(*Transaction)
	tx.index = len(*q)
	*q = append(*q, tx)
}

func (q *txQueue) Pop() interface{} {
	old := *q
	n := len(old)
	tx := old[n-1]
	old[n-1] = nil // avoid memory leak
	tx.index = -1
	*q = old[:n-1]
	return tx
}

// Mempool manages pending transactions with thread-safe operations.
type Mempool struct {
	pending map[string]*Transaction
	queue   txQueue
	maxSize int
	mu      sync.RWMutex
}

// NewMempool creates a new Mempool with the specified maximum size.
func NewMempool(maxSize int) *Mempool {
	m := &Mempool{
		pending: make(map[string]*Transaction),
		queue:   make(txQueue, 0),
		maxSize: maxSize,
	}
	heap.Init(&m.queue)
	return m
}

// Add adds a transaction to the mempool.
// Returns an error if the mempool is full or the transaction already exists.
func (m *Mempool) Add(tx *Transaction) error {
	if tx == nil {
		return ErrInvalidTx
	}
	if err := tx.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pending[tx.ID]; exists {
		return ErrTxAlreadyExists
	}
	if len(m.pending) >= m.maxSize {
		return ErrMempoolFull
	}

	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now()
	}

	m.pending[tx.ID] = tx
	heap.Push(&m.queue, tx)
	return nil
}

// Get retrieves a transaction by ID without removing it.
func (m *Mempool) Get(txID string) *Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending[txID]
}

// Remove removes a transaction by ID.
// Returns true if the transaction was found and removed.
func (m *Mempool) Remove(txID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, exists := m.pending[txID]
	if !exists {
		return false
	}

	delete(m.pending, txID)
	heap.Remove(&m.queue, tx.index)
	return true
}

// PopBatch removes and returns up to n highest-priority transactions.
func (m *Mempool) PopBatch(n int) []*Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || len(m.queue) == 0 {
		return nil
	}
	if n > len(m.queue) {
		n = len(m.queue)
	}

	batch := make([]*Transaction, 0, n)
	for i := 0; i < n; i++ {
		tx := heap.Pop(&m.queue).(*Transaction)
		delete(m.pending, tx.ID)
		batch = append(batch, tx)
	}
	return batch
}

// Contains checks if a transaction exists in the mempool.
func (m *Mempool) Contains(txID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.pending[txID]
	return exists
}

// Size returns the current number of pending transactions.
func (m *Mempool) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pending)
}

// Clear removes all pending transactions.
func (m *Mempool) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tx := range m.pending {
		tx.index = -1
	}
	m.pending = make(map[string]*Transaction)
	m.queue = m.queue[:0]
}

// MempoolStats describes the mempool fill state.
type MempoolStats struct {
	Size      int `json:"size"`
	MaxSize   int `json:"max_size"`
	Available int `json:"available"`
}

// Stats returns mempool statistics.
func (m *Mempool) Stats() MempoolStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MempoolStats{
		Size:      len(m.pending),
		MaxSize:   m.maxSize,
		Available: m.maxSize - len(m.pending),
	}
}
