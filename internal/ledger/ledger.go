// Package ledger persists every submitted or failed transaction as audit
// history. Entries are appended and updated, never deleted.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pedrotmr/origin-dollar/internal/coin"
)

// TxType is the semantic type of a recorded transaction.
type TxType string

const (
	TxApprove TxType = "approve"
	TxMint    TxType = "mint"
	TxRedeem  TxType = "redeem"
	TxSwap    TxType = "swap"
)

func (t TxType) String() string {
	return string(t)
}

// Status of a ledger entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusMined   Status = "mined"
	StatusFailed  Status = "failed"
	StatusLost    Status = "lost"
)

// Entry is one recorded transaction. Failed submissions have no hash.
type Entry struct {
	ID        uuid.UUID
	Hash      string
	Type      TxType
	Coin      coin.Coin
	Amounts   map[coin.Coin]string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the persistent transaction ledger.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	SetStatus(ctx context.Context, hash string, status Status) error
	Pending(ctx context.Context) ([]Entry, error)
	List(ctx context.Context) ([]Entry, error)
}
