package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashing はハッシュ生成の内部失敗、または保存済みハッシュの形式不正を表します。
var ErrHashing = errors.New("credential hashing failed")

// Hasher は bcrypt でパスワードをハッシュ化・照合します。
// 状態を持たないため並行に呼び出して問題ありません。
type Hasher struct {
	cost int
}

// NewHasher は Hasher を作成します。範囲外のコストは bcrypt.DefaultCost に置き換えます。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash はソルト付きの一方向ハッシュを返します。強度チェックは行いません。
func (h *Hasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(hash), nil
}

// Verify は candidate が stored と一致するかを返します。
// 不一致はエラーではなく false、保存済みハッシュが壊れている場合のみ ErrHashing を返します。
func (h *Hasher) Verify(stored, candidate string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrHashing, err)
	}
}
