package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents as JSONB rows in the documents table
// (see migrations/000001_create_documents.up.sql).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Store on top of a pgx pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, collection, id string, dst any) error {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return Snapshot{ID: id, Data: data}.Decode(dst)
}

func (p *Postgres) Set(ctx context.Context, collection, id string, doc any, opts ...SetOption) error {
	data, _, err := encode(doc)
	if err != nil {
		return err
	}

	query := `INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (collection, id) DO UPDATE
		 SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if applySetOptions(opts).merge {
		query = `INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (collection, id) DO UPDATE
		 SET data = documents.data || EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	}

	if _, err := p.pool.Exec(ctx, query, collection, id, data, now()); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (p *Postgres) Insert(ctx context.Context, collection, id string, doc any) error {
	data, _, err := encode(doc)
	if err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (collection, id) DO NOTHING`,
		collection, id, data, now(),
	)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (p *Postgres) Create(ctx context.Context, collection string, doc any) (string, error) {
	data, _, err := encode(doc)
	if err != nil {
		return "", err
	}

	id := newID()
	_, err = p.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)`,
		collection, id, data, now(),
	)
	if err != nil {
		return "", fmt.Errorf("create in %s: %w", collection, err)
	}
	return id, nil
}

func (p *Postgres) List(ctx context.Context, collection string) ([]Snapshot, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, data FROM documents
		 WHERE collection = $1
		 ORDER BY created_at, id`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var data []byte
		if err := rows.Scan(&s.ID, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		s.Data = data
		out = append(out, s)
	}
	return out, rows.Err()
}
