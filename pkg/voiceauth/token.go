package voiceauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "lingvoice"

// TokenConfig 认证令牌配置
type TokenConfig struct {
	// Secret HS256 签名密钥
	Secret string `env:"AUTH_TOKEN_SECRET"`
	// TTL 令牌有效期
	TTL time.Duration `env:"AUTH_TOKEN_TTL"`
}

// DefaultTokenConfig 返回默认配置
func DefaultTokenConfig() *TokenConfig {
	return &TokenConfig{
		Secret: "lingvoice-dev-secret",
		TTL:    10 * time.Minute,
	}
}

// Validate 校验配置
func (c *TokenConfig) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("auth token secret is required")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("auth token ttl must be positive")
	}
	return nil
}

// TokenIssuer 签发和校验认证通过后的短时令牌。
// 令牌的 subject 是认证成功的注册名，后续克隆请求凭它放行。
type TokenIssuer struct {
	cfg *TokenConfig
}

// NewTokenIssuer 创建令牌签发器
func NewTokenIssuer(cfg *TokenConfig) (*TokenIssuer, error) {
	if cfg == nil {
		cfg = DefaultTokenConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// Issue 为认证通过的用户签发令牌
func (t *TokenIssuer) Issue(name string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify 校验令牌并返回其中的注册名
func (t *TokenIssuer) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return []byte(t.cfg.Secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
