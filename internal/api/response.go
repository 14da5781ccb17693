// Package api はレスポンス形式と共通ミドルウェアを提供します。
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 汎用メッセージ。内部エラーの詳細はレスポンスに含めず、ログにのみ出力します。
const (
	MsgUnauthorized = "Unauthorized access"
	MsgInternal     = "Internal server error"
	MsgBadRequest   = "Invalid request"
	MsgNotFound     = "Route not found"
)

// Envelope は全エンドポイント共通のレスポンス形式です。
type Envelope struct {
	Status  int    `json:"status"`
	Msg     string `json:"msg"`
	Results any    `json:"results"`
}

// Respond は Envelope を JSON で返します。results が nil の場合は null になります。
func Respond(c *gin.Context, status int, msg string, results any) {
	c.JSON(status, Envelope{Status: status, Msg: msg, Results: results})
}

// Abort は Envelope を返してハンドラーチェーンを中断します。
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Envelope{Status: status, Msg: msg})
}

// Unauthorized は 401 を返します。
func Unauthorized(c *gin.Context) {
	Respond(c, http.StatusUnauthorized, MsgUnauthorized, nil)
}

// InternalError は 500 を返します。
func InternalError(c *gin.Context) {
	Respond(c, http.StatusInternalServerError, MsgInternal, nil)
}

// BadRequest は 400 を返します。
func BadRequest(c *gin.Context) {
	Respond(c, http.StatusBadRequest, MsgBadRequest, nil)
}

// NotFound は未定義ルート用のハンドラーです。
func NotFound(c *gin.Context) {
	Respond(c, http.StatusNotFound, MsgNotFound, nil)
}
