package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/scaleurl/internal/shortener"
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPostgresPool opens a connection pool and verifies it with a ping.
func NewPostgresPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func (p *PostgresStore) Save(ctx context.Context, shortURL *shortener.ShortURL) error {
	query := `
		INSERT INTO short_urls (short_code, original_url, visit_count, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (short_code) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query,
		string(shortURL.Code),
		shortURL.OriginalURL,
		shortURL.VisitCount,
		shortURL.CreatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrConflict
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	query := `
		SELECT short_code, original_url, visit_count, created_at
		FROM short_urls
		WHERE short_code = $1
	`

	var url shortener.ShortURL

	err := p.pool.QueryRow(ctx, query, string(code)).Scan(
		&url.Code,
		&url.OriginalURL,
		&url.VisitCount,
		&url.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &url, nil
}

func (p *PostgresStore) IncrementVisits(ctx context.Context, code shortener.Code) error {
	query := `
		UPDATE short_urls
		SET visit_count = visit_count + 1
		WHERE short_code = $1
	`

	tag, err := p.pool.Exec(ctx, query, string(code))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) TopByVisits(
	ctx context.Context, from, to time.Time, limit int,
) ([]shortener.ShortURL, error) {
	query := `
		SELECT short_code, original_url, visit_count, created_at
		FROM short_urls
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY visit_count DESC, id ASC
		LIMIT $3
	`

	rows, err := p.pool.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := make([]shortener.ShortURL, 0, limit)

	for rows.Next() {
		var url shortener.ShortURL

		if err := rows.Scan(&url.Code, &url.OriginalURL, &url.VisitCount, &url.CreatedAt); err != nil {
			return nil, err
		}

		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
