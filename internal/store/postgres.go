package store

import (
	"context"

	"github.com/bpal-app/bpal-backend/internal/scoring"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX est satisfait par pgxpool.Pool et pgx.Tx : les mêmes requêtes servent
// dans et hors transaction.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres implémente scoring.Store au-dessus de pgx.
type Postgres struct {
	pool *pgxpool.Pool // nil à l'intérieur d'une transaction
	db   DBTX
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, db: pool}
}

// InTx exécute fn dans une transaction sérialisable. Un appel imbriqué
// réutilise la transaction en cours.
func (p *Postgres) InTx(ctx context.Context, fn func(scoring.Store) error) error {
	if p.pool == nil {
		return fn(p)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&Postgres{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
