package auth

import (
	"net/http"
	"time"
)

const (
	// SessionCookieName はトークンを運ぶ Cookie の名前です。
	SessionCookieName = "OKIJ"
	// BearerPrefix は Authorization ヘッダーと Cookie 値の共通接頭辞です。
	BearerPrefix = "Bearer "
	// SessionCookieMaxAge はブラウザ側の保持期間です。トークンの期限は TokenCodec が決めます。
	SessionCookieMaxAge = 2 * time.Hour
)

// BuildSessionCookie はトークンを固定のセキュリティ属性付き Cookie に包みます。
func BuildSessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    BearerPrefix + token,
		Path:     "/",
		MaxAge:   int(SessionCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}
