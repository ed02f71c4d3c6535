package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"dryshift/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

const tokenTypeService = "service"

// Claims 服务令牌声明，ClientID 标识调用方（聊天前端适配器）
type Claims struct {
	ClientID  string `json:"client_id"`
	TokenType string `json:"token_type"`
	jwtv5.RegisteredClaims
}

// Manager JWT 管理器
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "dryshift"
	}
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		issuer: issuer,
	}
}

// GenerateServiceToken 为调用方签发服务令牌
// ttl 为 0 时令牌不过期
func (m *Manager) GenerateServiceToken(clientID string) (string, error) {
	now := time.Now()
	claims := Claims{
		ClientID:  clientID,
		TokenType: tokenTypeService,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:       uuid.New().String(),
			Subject:  clientID,
			IssuedAt: jwtv5.NewNumericDate(now),
			Issuer:   m.issuer,
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwtv5.NewNumericDate(now.Add(m.ttl))
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(m.issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenTypeService || claims.ClientID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
