package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// User は users テーブルの1行を表します。
type User struct {
	ID          int64     `json:"id"`
	LoginName   string    `json:"loginName"`
	SecretHash  string    `json:"-"`
	DisplayName string    `json:"displayName"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	insertUserQuery = `INSERT INTO users (login_name, secret_hash, display_name, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	findUserByLoginQuery = `SELECT id, login_name, secret_hash, display_name, address, created_at
		FROM users
		WHERE login_name = $1`

	listUsersQuery = `SELECT id, login_name, display_name, address, created_at
		FROM users
		ORDER BY id`
)

// Users はユーザーの永続化を担います。
type Users struct {
	db *sql.DB
}

// NewUsers は Users を作成します。
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// Insert はユーザーを登録し、採番された ID を返します。
// ログイン名が重複している場合は ErrConflict を返します。
func (r *Users) Insert(ctx context.Context, loginName, secretHash, displayName, address string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, insertUserQuery, loginName, secretHash, displayName, address).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("user %q: %w", loginName, ErrConflict)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// FindByLogin はログイン名でユーザーを取得します。
func (r *Users) FindByLogin(ctx context.Context, loginName string) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, findUserByLoginQuery, loginName).
		Scan(&user.ID, &user.LoginName, &user.SecretHash, &user.DisplayName, &user.Address, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", loginName, ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// List は全ユーザーを返します。パスワードハッシュは読み出しません。
func (r *Users) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.LoginName, &u.DisplayName, &u.Address, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
