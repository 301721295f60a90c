// Package journal persists served quotes to Postgres.
package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/domain"
	"github.com/fd1az/quote-engine/internal/apperror"
)

const schema = `
CREATE TABLE IF NOT EXISTS quotes (
	id             UUID PRIMARY KEY,
	chain_id       BIGINT      NOT NULL,
	token_in       TEXT        NOT NULL,
	token_out      TEXT        NOT NULL,
	amount_in      NUMERIC     NOT NULL,
	amount_out     NUMERIC     NOT NULL,
	min_amount_out NUMERIC     NOT NULL,
	slippage_bps   INTEGER     NOT NULL,
	source         TEXT        NOT NULL,
	model          TEXT        NOT NULL,
	provenance     TEXT        NOT NULL,
	outcome        TEXT        NOT NULL,
	gas_estimate   BIGINT      NOT NULL,
	route          JSONB,
	sources        JSONB,
	created_at     TIMESTAMPTZ NOT NULL
)`

const insertQuote = `
INSERT INTO quotes (
	id, chain_id, token_in, token_out, amount_in, amount_out, min_amount_out,
	slippage_bps, source, model, provenance, outcome, gas_estimate, route, sources, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (id) DO NOTHING`

var _ app.Journal = (*Postgres)(nil)

// execer is the part of pgxpool.Pool the journal uses.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres writes one row per quote.
type Postgres struct {
	db   execer
	pool *pgxpool.Pool
}

// Open connects to dsn, verifies the connection and creates the table.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("journal dsn is required"))
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("parse journal dsn"), apperror.WithCause(err))
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperror.New(apperror.CodeConnectionFailed,
			apperror.WithContext("connect to postgres"), apperror.WithCause(err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperror.New(apperror.CodeConnectionFailed,
			apperror.WithContext("ping postgres"), apperror.WithCause(err))
	}

	j := &Postgres{db: pool, pool: pool}
	if err := j.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return j, nil
}

// Migrate creates the quotes table if needed.
func (j *Postgres) Migrate(ctx context.Context) error {
	if _, err := j.db.Exec(ctx, schema); err != nil {
		return apperror.New(apperror.CodeJournalWriteFailed,
			apperror.WithContext("create quotes table"), apperror.WithCause(err))
	}
	return nil
}

// Record inserts q. Re-recording the same quote is a no-op.
func (j *Postgres) Record(ctx context.Context, q *domain.Quote) error {
	route, err := json.Marshal(q.Route)
	if err != nil {
		return fmt.Errorf("marshal route: %w", err)
	}
	sources, err := json.Marshal(q.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	_, err = j.db.Exec(ctx, insertQuote,
		q.ID.String(),
		int64(q.ChainID),
		q.TokenIn.Symbol(),
		q.TokenOut.Symbol(),
		q.AmountIn.Raw().String(),
		q.AmountOut.Raw().String(),
		q.MinAmountOut.Raw().String(),
		q.SlippageBps,
		q.Source,
		string(q.Model),
		string(q.Provenance),
		string(q.Outcome),
		int64(q.GasEstimate),
		route,
		sources,
		q.CreatedAt,
	)
	if err != nil {
		return apperror.New(apperror.CodeJournalWriteFailed,
			apperror.WithContext(q.ID.String()), apperror.WithCause(err))
	}
	return nil
}

// Close releases the connection pool.
func (j *Postgres) Close() {
	if j.pool != nil {
		j.pool.Close()
	}
}
