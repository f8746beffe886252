package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists client records in PostgreSQL, one JSONB snapshot
// per client.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmt := `CREATE TABLE IF NOT EXISTS client_memories (
		client_id TEXT PRIMARY KEY,
		snapshot JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Save replaces the whole record set in one transaction so forgotten
// clients do not linger.
func (s *PostgresStore) Save(ctx context.Context, records map[string]ClientRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM client_memories`); err != nil {
		return fmt.Errorf("clear memories: %w", err)
	}

	for clientID, record := range records {
		snapshot, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode snapshot for %s: %w", clientID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO client_memories (client_id, snapshot, updated_at) VALUES ($1, $2, now())`,
			clientID, snapshot,
		); err != nil {
			return fmt.Errorf("save snapshot for %s: %w", clientID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]ClientRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT client_id, snapshot FROM client_memories`)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	records := make(map[string]ClientRecord)
	for rows.Next() {
		var clientID string
		var snapshot []byte
		if err := rows.Scan(&clientID, &snapshot); err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		var record ClientRecord
		if err := json.Unmarshal(snapshot, &record); err != nil {
			return nil, fmt.Errorf("decode snapshot for %s: %w", clientID, err)
		}
		records[clientID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
