package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/order-api/internal/api"
)

// NewGate は Authorization ヘッダーを検証するミドルウェアを返します。
//
//   - ヘッダーが無い場合は認証情報なしで次へ進みます。要否は各ハンドラーが判断します。
//   - "Bearer " で始まらない、または検証に失敗した場合は 401 で中断します。
//   - 成功した場合は AuthContext をリクエストのコンテキストに付与します。
//
// 判定ごとにログを1件出力しますが、結果には影響しません。
func NewGate(verifier TokenVerifier, logger *slog.Logger, now func() time.Time) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		if len(c.Request.Header.Values("Authorization")) == 0 {
			logGate(c, logger, "anonymous", "no_header", 0)
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), BearerPrefix)
		if !ok {
			logGate(c, logger, "reject", "bad_scheme", 0)
			api.Abort(c, http.StatusUnauthorized, api.MsgUnauthorized)
			return
		}

		claims, err := verifier.Verify(token, now())
		if err != nil {
			logGate(c, logger, "reject", tokenErrorReason(err), 0)
			api.Abort(c, http.StatusUnauthorized, api.MsgUnauthorized)
			return
		}

		logGate(c, logger, "pass", "ok", claims.SubjectID)
		ctx := WithAuth(c.Request.Context(), AuthContext{SubjectID: claims.SubjectID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Gate は Manager のトークン設定でゲートを返します。
func (m *Manager) Gate() gin.HandlerFunc {
	return NewGate(m.tokens, m.logger, m.now)
}

// RequireLogin は AuthContext が無いリクエストを 401 で中断します。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := FromContext(c.Request.Context()); !ok {
			api.Abort(c, http.StatusUnauthorized, api.MsgUnauthorized)
			return
		}
		c.Next()
	}
}

func logGate(c *gin.Context, logger *slog.Logger, result, reason string, subjectID int64) {
	attrs := []any{
		"result", result,
		"reason", reason,
		"method", c.Request.Method,
		"path", c.FullPath(),
	}
	if subjectID != 0 {
		attrs = append(attrs, "subject_id", subjectID)
	}
	if result == "reject" {
		logger.Warn("auth gate", attrs...)
		return
	}
	logger.Info("auth gate", attrs...)
}
