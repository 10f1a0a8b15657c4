package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Divoolej/prtrade/conf"
	"github.com/Divoolej/prtrade/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool описывает минимальный интерфейс пула подключений к PostgreSQL.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Storage — бэкенд снапшота поверх PostgreSQL. Переживает рестарты
// процесса: прогретый кеш не нужно строить заново после деплоя.
type Storage struct {
	pool DBPool
}

const schema = `
	CREATE TABLE IF NOT EXISTS cache_state (
		id smallint PRIMARY KEY DEFAULT 1,
		materialized boolean NOT NULL DEFAULT false,
		built_at timestamptz
	);
	CREATE TABLE IF NOT EXISTS cache_entries (
		organization text NOT NULL,
		project text NOT NULL,
		number integer NOT NULL,
		payload jsonb NOT NULL,
		PRIMARY KEY (organization, project, number)
	);
`

// NewStorage создаёт пул подключений к PostgreSQL, проверяет соединение
// и гарантирует наличие таблиц кеша.
func NewStorage(ctx context.Context, cfg *conf.DbConf) (*Storage, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create cache tables: %w", err)
	}

	return &Storage{pool: pool}, nil
}

// Close закрывает пул подключений, когда он больше не нужен.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Read восстанавливает снапшот из таблиц кеша.
func (s *Storage) Read(ctx context.Context) (models.Snapshot, bool, error) {
	const qState = `SELECT materialized FROM cache_state WHERE id = 1`

	rows, err := s.pool.Query(ctx, qState)
	if err != nil {
		return nil, false, fmt.Errorf("query cache_state: %w", err)
	}
	materialized := false
	if rows.Next() {
		if err := rows.Scan(&materialized); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("scan cache_state: %w", err)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate cache_state: %w", err)
	}
	if !materialized {
		return nil, false, nil
	}

	const qEntries = `SELECT organization, project, number, payload FROM cache_entries`
	entryRows, err := s.pool.Query(ctx, qEntries)
	if err != nil {
		return nil, false, fmt.Errorf("query cache_entries: %w", err)
	}
	defer entryRows.Close()

	snapshot := models.Snapshot{}
	for entryRows.Next() {
		var (
			organization string
			project      string
			number       int
			payload      []byte
		)
		if err := entryRows.Scan(&organization, &project, &number, &payload); err != nil {
			return nil, false, fmt.Errorf("scan cache_entries: %w", err)
		}
		var pr models.PullRequest
		if err := json.Unmarshal(payload, &pr); err != nil {
			return nil, false, fmt.Errorf("decode cache entry %s/%s#%d: %w", organization, project, number, err)
		}
		if snapshot[organization] == nil {
			snapshot[organization] = make(map[string]map[int]models.PullRequest)
		}
		if snapshot[organization][project] == nil {
			snapshot[organization][project] = make(map[int]models.PullRequest)
		}
		snapshot[organization][project][number] = pr
	}
	if err := entryRows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate cache_entries: %w", err)
	}

	return snapshot, true, nil
}

// Write заменяет содержимое кеша новым снапшотом в одной транзакции.
func (s *Storage) Write(ctx context.Context, snapshot models.Snapshot) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rollbackErr))
			}
		}
	}()

	const clearEntries = `DELETE FROM cache_entries`
	if _, err := tx.Exec(ctx, clearEntries); err != nil {
		return fmt.Errorf("clear cache_entries: %w", err)
	}

	const insertEntry = `INSERT INTO cache_entries (organization, project, number, payload) VALUES ($1, $2, $3, $4)`
	for organization, projects := range snapshot {
		for project, pullRequests := range projects {
			for number, pr := range pullRequests {
				payload, err := json.Marshal(pr)
				if err != nil {
					return fmt.Errorf("encode cache entry %s/%s#%d: %w", organization, project, number, err)
				}
				if _, err := tx.Exec(ctx, insertEntry, organization, project, number, payload); err != nil {
					return fmt.Errorf("insert cache entry %s/%s#%d: %w", organization, project, number, err)
				}
			}
		}
	}

	const markMaterialized = `
	INSERT INTO cache_state (id, materialized, built_at) VALUES (1, true, $1)
	ON CONFLICT (id) DO UPDATE SET materialized = true, built_at = EXCLUDED.built_at
`
	if _, err := tx.Exec(ctx, markMaterialized, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark cache materialized: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// Delete переводит кеш в холодное состояние.
func (s *Storage) Delete(ctx context.Context) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rollbackErr))
			}
		}
	}()

	const clearEntries = `DELETE FROM cache_entries`
	if _, err := tx.Exec(ctx, clearEntries); err != nil {
		return fmt.Errorf("clear cache_entries: %w", err)
	}

	const markCold = `
	INSERT INTO cache_state (id, materialized, built_at) VALUES (1, false, NULL)
	ON CONFLICT (id) DO UPDATE SET materialized = false, built_at = NULL
`
	if _, err := tx.Exec(ctx, markCold); err != nil {
		return fmt.Errorf("mark cache cold: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
