package auth

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/order-api/internal/api"
	"github.com/yourusername/order-api/internal/storage"
)

const (
	MsgRegistered      = "User registered & token generated"
	MsgLoggedIn        = "User logged in"
	MsgUserInfo        = "User info fetched"
	MsgUserList        = "User list fetched"
	MsgTooManyAttempts = "Too many login attempts"
)

type registerRequest struct {
	LoginName   string `json:"loginName" binding:"required"`
	Secret      string `json:"secret" binding:"required"`
	DisplayName string `json:"displayName"`
	Address     string `json:"address"`
}

type loginRequest struct {
	LoginName string `json:"loginName" binding:"required"`
	Secret    string `json:"secret" binding:"required"`
}

// Register は POST /users/register のハンドラーです。
// 重複したログイン名も他の保存失敗と同じく 500 を返します。
func (m *Manager) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c)
		return
	}

	hash, err := m.hasher.Hash(req.Secret)
	if err != nil {
		m.logger.Error("failed to hash secret", "error", err)
		api.InternalError(c)
		return
	}

	id, err := m.users.Insert(c.Request.Context(), req.LoginName, hash, req.DisplayName, req.Address)
	if err != nil {
		m.logger.Error("failed to insert user", "login_name", req.LoginName, "error", err)
		api.InternalError(c)
		return
	}

	if _, err := m.issueSession(c, id); err != nil {
		m.logger.Error("failed to issue token", "user_id", id, "error", err)
		api.InternalError(c)
		return
	}

	api.Respond(c, http.StatusOK, MsgRegistered, nil)
}

// Login は POST /users/login のハンドラーです。
// 未登録のログイン名もパスワード不一致と同じく 401 として扱います。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c)
		return
	}

	ctx := c.Request.Context()
	key := c.ClientIP() + "|" + req.LoginName
	if wait := m.retryAfter(ctx, key); wait > 0 {
		// Retry-After は秒数で返す（切り上げ）
		seconds := int64((wait + time.Second - 1) / time.Second)
		c.Header("Retry-After", strconv.FormatInt(seconds, 10))
		api.Respond(c, http.StatusTooManyRequests, MsgTooManyAttempts, nil)
		return
	}

	user, err := m.users.FindByLogin(ctx, req.LoginName)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Error("failed to find user", "login_name", req.LoginName, "error", err)
			api.InternalError(c)
			return
		}
		_, _ = m.hasher.Verify(m.dummyHash, req.Secret)
		m.recordFailure(ctx, key)
		api.Unauthorized(c)
		return
	}

	ok, err := m.hasher.Verify(user.SecretHash, req.Secret)
	if err != nil {
		m.logger.Error("failed to verify secret", "user_id", user.ID, "error", err)
		api.InternalError(c)
		return
	}
	if !ok {
		m.recordFailure(ctx, key)
		api.Unauthorized(c)
		return
	}

	m.resetAttempts(ctx, key)

	token, err := m.issueSession(c, user.ID)
	if err != nil {
		m.logger.Error("failed to issue token", "user_id", user.ID, "error", err)
		api.InternalError(c)
		return
	}

	api.Respond(c, http.StatusOK, MsgLoggedIn, BearerPrefix+token)
}

// WhoAmI は GET /check_user_status のハンドラーです。
func (m *Manager) WhoAmI(c *gin.Context) {
	auth, ok := FromContext(c.Request.Context())
	if !ok {
		api.Unauthorized(c)
		return
	}
	api.Respond(c, http.StatusOK, MsgUserInfo, gin.H{"userId": auth.SubjectID})
}

// ListUsers は GET /users/fetch_all のハンドラーです。RequireLogin の後ろに置きます。
func (m *Manager) ListUsers(c *gin.Context) {
	users, err := m.users.List(c.Request.Context())
	if err != nil {
		m.logger.Error("failed to list users", "error", err)
		api.InternalError(c)
		return
	}
	api.Respond(c, http.StatusOK, MsgUserList, users)
}

// issueSession はトークンを発行し、セッション Cookie をレスポンスに設定します。
func (m *Manager) issueSession(c *gin.Context, userID int64) (string, error) {
	token, err := m.tokens.Issue(userID, m.now())
	if err != nil {
		return "", err
	}
	http.SetCookie(c.Writer, BuildSessionCookie(token))
	return token, nil
}
