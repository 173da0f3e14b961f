// Package auth 认证核心：标识分类、凭证校验、JWT 会话、路由守卫
package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// contextKey context 键类型
type contextKey string

const ctxKeyAuthUser contextKey = "auth_user"

// bcryptCost 密码与身份证号哈希的 bcrypt 代价因子
const bcryptCost = 12

// SessionCookieName 会话令牌 Cookie 名
const SessionCookieName = "court_session"

// Config 认证配置
type Config struct {
	JWTSecret string        `yaml:"-"` // 从 JWT_SECRET 环境变量读取，必须非空
	TokenTTL  time.Duration `yaml:"token_ttl"`

	// 客户端不活动监控参数（下发给前端/WS 会话监视）
	TimeoutMinutes int `yaml:"timeout_minutes"`
	WarningMinutes int `yaml:"warning_minutes"`

	// 登录限流：窗口内同一 IP 允许的失败次数，0 表示不限
	MaxLoginFails int           `yaml:"max_login_fails"`
	ThrottleTTL   time.Duration `yaml:"throttle_ttl"`
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		TokenTTL:       24 * time.Hour,
		TimeoutMinutes: 30,
		WarningMinutes: 5,
		MaxLoginFails:  10,
		ThrottleTTL:    15 * time.Minute,
	}
}

// AuthUser 从 JWT 解析出的用户信息
type AuthUser struct {
	ID       int64
	Username string
	Name     string
	Role     string
}

// Identity 认证成功后对外暴露的最小身份投影
// 从不携带密码哈希或身份证号哈希
type Identity struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashNationalID 哈希身份证号（与密码同参数，存储侧从不落明文）
func HashNationalID(nationalID string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(nationalID), bcryptCost)
	return string(bytes), err
}

// ============================================================================
// JWT Token
// ============================================================================

// Claims JWT 声明
//
// 签发时刻的快照：之后账户的角色/状态变更不影响已签发的令牌，
// 直到令牌自然过期（无服务端吊销列表）。
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// IssueToken 为认证通过的身份签发会话令牌
//
// 有效期为固定时长（默认 24h），不滑动续期；过期后需重新认证。
func IssueToken(cfg Config, id *Identity) (string, error) {
	if cfg.JWTSecret == "" {
		return "", newError(ErrMisconfigured, "")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: id.Username,
		Name:     id.Name,
		Role:     id.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ValidateToken 解析并验证会话令牌（签名 + 过期时间）
//
// 不回查账户状态：已签发令牌的声明是签发时刻的快照。
func ValidateToken(cfg Config, tokenString string) (*Claims, error) {
	return parseWithTime(cfg, tokenString, nil)
}

// parseWithTime 带可注入时钟的解析，timeFunc 为 nil 时用系统时间
func parseWithTime(cfg Config, tokenString string, timeFunc func() time.Time) (*Claims, error) {
	if cfg.JWTSecret == "" {
		return nil, newError(ErrMisconfigured, "")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if timeFunc != nil {
		opts = append(opts, jwt.WithTimeFunc(timeFunc))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// UserFromClaims 将令牌声明转换为 AuthUser
func UserFromClaims(claims *Claims) *AuthUser {
	id, _ := strconv.ParseInt(claims.Subject, 10, 64)
	return &AuthUser{
		ID:       id,
		Username: claims.Username,
		Name:     claims.Name,
		Role:     claims.Role,
	}
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithAuthUser 将认证用户信息注入 context
func WithAuthUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser, user)
}

// GetAuthUser 从 context 获取认证用户
func GetAuthUser(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(ctxKeyAuthUser).(*AuthUser)
	return user
}
