package auth

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenIssuer / TokenAudience はすべてのトークンで固定です。
	TokenIssuer   = "order-api"
	TokenAudience = "order-api-clients"

	// DefaultTokenLifetime はトークン自体の有効期限です（Cookie の MaxAge とは独立）。
	DefaultTokenLifetime = 48 * time.Hour
)

var (
	// ErrSigningKey は署名鍵が未設定、または署名に失敗した場合のエラーです。起動時に検出する想定です。
	ErrSigningKey = errors.New("signing key unavailable")

	ErrTokenMalformed    = errors.New("malformed token")
	ErrTokenBadSignature = errors.New("invalid token signature")
	ErrTokenExpired      = errors.New("token expired")
)

// TokenClaims は検証済みトークンの中身です。
type TokenClaims struct {
	SubjectID int64
	IssuedAt  time.Time
	ExpiresAt time.Time
	Issuer    string
	Audience  string
}

// TokenVerifier はトークンを検証してクレームを返します。
type TokenVerifier interface {
	Verify(token string, now time.Time) (*TokenClaims, error)
}

// TokenCodec は HS256 で署名したトークンの発行と検証を行います。
// 鍵は生成時に固定され、以後変更されません。
type TokenCodec struct {
	key      []byte
	lifetime time.Duration
	parser   *jwt.Parser
}

// NewTokenCodec は TokenCodec を作成します。鍵が空の場合は ErrSigningKey を返します。
func NewTokenCodec(key []byte, lifetime time.Duration) (*TokenCodec, error) {
	if len(key) == 0 {
		return nil, ErrSigningKey
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	return &TokenCodec{
		key:      bytes.Clone(key),
		lifetime: lifetime,
		// 時刻・発行者・受信者の検証は now を使って自前で行う
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Lifetime はトークンの有効期間を返します。
func (c *TokenCodec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue は subjectID 向けのトークンを発行します。
func (c *TokenCodec) Issue(subjectID int64, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subjectID, 10),
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningKey, err)
	}
	return signed, nil
}

// Verify は署名・発行者・受信者・有効期限を検証します。
// now が expiresAt を過ぎている場合のみ ErrTokenExpired になります（秒単位）。
func (c *TokenCodec) Verify(token string, now time.Time) (*TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenBadSignature, err)
	}

	if claims.Issuer != TokenIssuer || len(claims.Audience) != 1 || claims.Audience[0] != TokenAudience {
		return nil, fmt.Errorf("%w: unexpected issuer or audience", ErrTokenBadSignature)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat/exp", ErrTokenMalformed)
	}
	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: sub: %v", ErrTokenMalformed, err)
	}

	if now.Unix() > claims.ExpiresAt.Unix() {
		return nil, ErrTokenExpired
	}

	return &TokenClaims{
		SubjectID: subjectID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		Issuer:    claims.Issuer,
		Audience:  claims.Audience[0],
	}, nil
}

// tokenErrorReason はログ用の短い理由を返します。
func tokenErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenBadSignature):
		return "bad_signature"
	default:
		return "malformed"
	}
}
