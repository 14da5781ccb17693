package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const healthQuery = `SELECT now()`

// Health はデータベースの疎通確認を行います。
type Health struct {
	db *sql.DB
}

// NewHealth は Health を作成します。
func NewHealth(db *sql.DB) *Health {
	return &Health{db: db}
}

// Check は簡単なクエリを実行して応答を確認します。
func (h *Health) Check(ctx context.Context) error {
	var now time.Time
	if err := h.db.QueryRowContext(ctx, healthQuery).Scan(&now); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}
