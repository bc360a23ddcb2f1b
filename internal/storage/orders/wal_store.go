// Package orders persists orders awaiting settlement so that reconciliation
// resumes correctly after a process restart.
package orders

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"autotrader/internal/domain"
)

const (
	DefaultDir = "./wal/orders"

	segmentLimit   = 1000
	maxSegments    = 10
	dirPermissions = 0o755

	pendingKeyPrefix = "pending_"
	closedKeyPrefix  = "closed_"
)

// WALStore is the durable pending-order ledger. Every state change is one
// WAL record: an insert under a pending key, a settlement under a closed key.
// The live pending set is rebuilt by replaying the log on open, which keeps
// at most one record per transaction id.
type WALStore struct {
	wal     *gowal.Wal
	mu      sync.RWMutex
	pending map[string]domain.PendingOrder
}

// NewWALStore opens (or creates) the ledger in dir and replays its log.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, errors.Wrapf(err, "ensure ledger directory %s", dir)
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "orders_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init order ledger WAL")
	}

	store := &WALStore{
		wal:     wal,
		pending: make(map[string]domain.PendingOrder),
	}

	if err := store.replay(); err != nil {
		_ = wal.Close()
		return nil, err
	}

	return store, nil
}

func (s *WALStore) replay() error {
	for msg := range s.wal.Iterator() {
		switch {
		case strings.HasPrefix(msg.Key, pendingKeyPrefix):
			var order domain.PendingOrder
			if err := json.Unmarshal(msg.Value, &order); err != nil {
				return errors.Wrapf(err, "decode ledger record %s", msg.Key)
			}
			s.pending[order.TxID] = order
		case strings.HasPrefix(msg.Key, closedKeyPrefix):
			delete(s.pending, strings.TrimPrefix(msg.Key, closedKeyPrefix))
		}
	}

	return nil
}

// InsertPending records a freshly placed order. Inserting a transaction id
// that is already pending is a no-op, preserving the one-record-per-id
// invariant.
func (s *WALStore) InsertPending(txid string) error {
	if txid == "" {
		return errors.New("transaction id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[txid]; exists {
		return nil
	}

	order := domain.PendingOrder{
		TxID:      txid,
		CreatedAt: time.Now().UTC(),
		Status:    domain.OrderStatusPending,
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return errors.Wrap(err, "marshal pending order")
	}

	if err := s.wal.Write(s.wal.CurrentIndex()+1, pendingKeyPrefix+txid, payload); err != nil {
		return errors.Wrapf(err, "persist pending order %s", txid)
	}

	s.pending[txid] = order

	return nil
}

// ListPending returns all orders still awaiting settlement, oldest first.
func (s *WALStore) ListPending() []domain.PendingOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PendingOrder, 0, len(s.pending))
	for _, order := range s.pending {
		out = append(out, order)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TxID < out[j].TxID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

// RemovePending marks an order settled. Removing an absent id is not an
// error and writes nothing.
func (s *WALStore) RemovePending(txid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.pending[txid]
	if !exists {
		return nil
	}

	order.Status = domain.OrderStatusClosed

	payload, err := json.Marshal(order)
	if err != nil {
		return errors.Wrap(err, "marshal closed order")
	}

	if err := s.wal.Write(s.wal.CurrentIndex()+1, closedKeyPrefix+txid, payload); err != nil {
		return errors.Wrapf(err, "persist settlement of order %s", txid)
	}

	delete(s.pending, txid)

	return nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
