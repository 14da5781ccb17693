// Package storage は PostgreSQL を使った永続化レイヤーを提供します。
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var (
	// ErrNotFound は対象の行が存在しない場合に返されます。
	ErrNotFound = errors.New("not found")
	// ErrConflict は一意制約違反の場合に返されます。
	ErrConflict = errors.New("already exists")
)

// uniqueViolation は PostgreSQL の unique_violation エラーコードです。
const uniqueViolation = "23505"

//go:embed migrations/*.sql
var migrations embed.FS

// Open はコネクションプールを開き、疎通確認とマイグレーションを行います。
// 失敗した場合は起動を中断する想定です。
func Open(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return db, nil
}

// Migrate は埋め込みの SQL マイグレーションを適用します。
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
