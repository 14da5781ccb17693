package auth

import "context"

// AuthContext はリクエスト単位で確定した認証済みの利用者です。
type AuthContext struct {
	SubjectID int64
}

type authContextKey struct{}

// WithAuth は AuthContext を付与したコンテキストを返します。
func WithAuth(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext は AuthContext を取り出します。値渡しなのでハンドラー側で書き換えても元には影響しません。
func FromContext(ctx context.Context) (AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey{}).(AuthContext)
	return auth, ok
}
