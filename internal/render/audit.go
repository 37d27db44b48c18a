package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

// AuditEntry records one finished export. Entries form a hash chain: each
// carries the hash of its predecessor.
type AuditEntry struct {
	AuditID      string    `json:"auditId"`
	ExportID     string    `json:"exportId"`
	CorrID       string    `json:"corrId,omitempty"`
	Target       string    `json:"target"`
	DocumentType string    `json:"documentType"`
	Action       string    `json:"action"`
	Digest       string    `json:"digest,omitempty"`
	Ts           time.Time `json:"timestamp"`
	Hash         string    `json:"hash"`
	PrevHash     string    `json:"prevHash"`
}

type AuditRecorder interface {
	Append(ctx context.Context, entry AuditEntry) error
	Last(ctx context.Context) (AuditEntry, error)
}

var errEmptyAudit = errors.New("audit log empty")

// HashChain links entry to the last recorded entry and appends it.
func HashChain(ctx context.Context, rec AuditRecorder, entry AuditEntry) (AuditEntry, error) {
	prev, _ := rec.Last(ctx)
	entry.PrevHash = prev.Hash
	entry.Hash = hashAudit(entry)
	return entry, rec.Append(ctx, entry)
}

func hashAudit(entry AuditEntry) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		entry.ExportID, entry.CorrID, entry.Target, entry.Action, entry.Digest,
		entry.Ts.UTC().Format(time.RFC3339Nano), entry.PrevHash)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// VerifyChain recomputes every hash and link in order.
func VerifyChain(entries []AuditEntry) error {
	prev := ""
	for i, e := range entries {
		if e.PrevHash != prev {
			return fmt.Errorf("audit entry %d: broken link", i)
		}
		if hashAudit(e) != e.Hash {
			return fmt.Errorf("audit entry %d: hash mismatch", i)
		}
		prev = e.Hash
	}
	return nil
}

type MemoryAuditRecorder struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

func NewMemoryAuditRecorder() *MemoryAuditRecorder {
	return &MemoryAuditRecorder{}
}

func (m *MemoryAuditRecorder) Append(_ context.Context, entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MemoryAuditRecorder) Last(_ context.Context) (AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return AuditEntry{}, errEmptyAudit
	}
	return m.entries[len(m.entries)-1], nil
}

func (m *MemoryAuditRecorder) Entries() []AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]AuditEntry(nil), m.entries...)
}
