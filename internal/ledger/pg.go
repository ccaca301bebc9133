package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedrotmr/origin-dollar/internal/coin"
)

const schema = `
CREATE TABLE IF NOT EXISTS swap_transactions (
	id         UUID PRIMARY KEY,
	tx_hash    TEXT NOT NULL DEFAULT '',
	tx_type    TEXT NOT NULL,
	coin       TEXT NOT NULL,
	amounts    JSONB NOT NULL DEFAULT '{}',
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS swap_transactions_status_idx ON swap_transactions (status);
CREATE INDEX IF NOT EXISTS swap_transactions_hash_idx ON swap_transactions (tx_hash);
`

// Pg is the postgres-backed Store.
type Pg struct {
	pool *pgxpool.Pool
}

func NewPg(ctx context.Context, pool *pgxpool.Pool) (*Pg, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	return &Pg{pool: pool}, nil
}

func (p *Pg) Insert(ctx context.Context, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	amounts, err := json.Marshal(e.Amounts)
	if err != nil {
		return fmt.Errorf("failed to marshal amounts: %w", err)
	}

	_, err = p.pool.Exec(
		ctx,
		`INSERT INTO swap_transactions (id, tx_hash, tx_type, coin, amounts, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID,
		e.Hash,
		string(e.Type),
		e.Coin.String(),
		amounts,
		string(e.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

func (p *Pg) SetStatus(ctx context.Context, hash string, status Status) error {
	tag, err := p.pool.Exec(
		ctx,
		`UPDATE swap_transactions SET status = $1, updated_at = now() WHERE tx_hash = $2`,
		string(status),
		hash,
	)
	if err != nil {
		return fmt.Errorf("failed to update ledger entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no ledger entry for hash %s", hash)
	}
	return nil
}

func (p *Pg) Pending(ctx context.Context) ([]Entry, error) {
	return p.query(ctx, `SELECT id, tx_hash, tx_type, coin, amounts, status, created_at, updated_at
		FROM swap_transactions WHERE status = 'pending' ORDER BY created_at`)
}

func (p *Pg) List(ctx context.Context) ([]Entry, error) {
	return p.query(ctx, `SELECT id, tx_hash, tx_type, coin, amounts, status, created_at, updated_at
		FROM swap_transactions ORDER BY created_at`)
}

func (p *Pg) query(ctx context.Context, q string) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			txType     string
			coinStr    string
			amountsRaw []byte
			status     string
		)
		if err := rows.Scan(&e.ID, &e.Hash, &txType, &coinStr, &amountsRaw, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		e.Type = TxType(txType)
		e.Coin = coin.Coin(coinStr)
		e.Status = Status(status)
		if len(amountsRaw) > 0 {
			if err := json.Unmarshal(amountsRaw, &e.Amounts); err != nil {
				return nil, fmt.Errorf("failed to unmarshal amounts: %w", err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger rows: %w", err)
	}
	return out, nil
}
