package auth

import (
	"context"
	"fmt"
	"time"

	"court-admin/internal/shared/cache"
	"court-admin/internal/shared/model"
	"court-admin/internal/shared/storage"
	"court-admin/pkg/logging"
)

// Credentials 一次登录请求的输入
//
// OriginalIdentifier 仅身份证号登录使用：存储侧只有哈希，
// 比对需要明文，与 Identifier 分开携带。
type Credentials struct {
	Identifier         string
	Password           string
	Type               IdentifierType
	OriginalIdentifier string
}

// RequestMeta 请求元信息，进审计日志
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Authenticator 认证状态机
//
// Received → Classified → Located → Verified → Authorized → (Success | Rejected)
//
// 每次认证自包含，无跨请求共享可变状态；存储查询与 bcrypt 比对
// 是仅有的两个耗时点。
type Authenticator struct {
	store    storage.PersistentStore
	throttle cache.LoginThrottleCache // 可为 nil（不限流）
	cfg      Config
	logger   *logging.Logger

	// verifyHash 哈希比对函数，测试中可替换以统计调用次数
	verifyHash func(plain, hash string) bool

	// nationalIDRoles 身份证号路径的候选角色集合
	nationalIDRoles []model.UserRole

	now func() time.Time
}

// Option Authenticator 构造选项
type Option func(*Authenticator)

// WithNationalIDRoles 覆盖身份证号登录的候选角色集合
// （管理端登录入口在 staff/guest 之外额外纳入 admin）
func WithNationalIDRoles(roles ...model.UserRole) Option {
	return func(a *Authenticator) { a.nationalIDRoles = roles }
}

// WithHashVerifier 覆盖哈希比对函数（测试用）
func WithHashVerifier(fn func(plain, hash string) bool) Option {
	return func(a *Authenticator) { a.verifyHash = fn }
}

// WithClock 覆盖时钟（测试用）
func WithClock(fn func() time.Time) Option {
	return func(a *Authenticator) { a.now = fn }
}

// NewAuthenticator 创建认证器
//
// throttle 传 nil 时关闭登录限流。
func NewAuthenticator(store storage.PersistentStore, throttle cache.LoginThrottleCache,
	cfg Config, logger *logging.Logger, opts ...Option) *Authenticator {
	a := &Authenticator{
		store:    store,
		throttle: throttle,
		cfg:      cfg,
		logger:   logger,
		verifyHash: func(plain, hash string) bool {
			return CheckPassword(plain, hash)
		},
		nationalIDRoles: model.NationalIDRoles,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate 执行一次完整的认证
//
// 格式错误在触达存储之前被拒绝，不写审计（恶意探测拿不到账户存在性信号）；
// 账户定位成功之后的每个分支（停用、密码错、成功）恰好写一条审计。
// 未匹配到账户时不写审计，维持参照实现的既有行为。
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials, meta RequestMeta) (*Identity, error) {
	// Received → Classified：字段齐全性与格式校验，不触达存储
	if creds.Password == "" {
		return nil, newError(ErrMissingFields, "กรุณากรอกรหัสผ่าน")
	}
	identifier, err := NormalizeIdentifier(creds.Identifier, creds.Type)
	if err != nil {
		return nil, err
	}

	// 限流检查（可选）
	if err := a.checkThrottle(ctx, meta.IP); err != nil {
		return nil, err
	}

	// Classified → Located
	user, err := a.locate(ctx, identifier, creds)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// NotFound 不写审计；见 DESIGN.md 的取舍记录
		return nil, newError(ErrNotFound, "")
	}

	// Located → Verified：状态检查先于密码比对，
	// 停用账户不得泄露"密码是否本来会匹配"
	if !user.IsActive() {
		a.writeAudit(ctx, &user.ID, creds.Identifier, model.AuditActionLoginFail, meta)
		return nil, newError(ErrAccountSuspended, "")
	}

	if !a.verifyHash(creds.Password, user.PasswordHash) {
		a.writeAudit(ctx, &user.ID, creds.Identifier, model.AuditActionLoginFail, meta)
		a.countFailure(ctx, meta.IP)
		return nil, newError(ErrInvalidPassword, "")
	}

	// Verified → Authorized → Success
	now := a.now()
	if err := a.store.UpdateLastLogin(ctx, user.ID, now, meta.IP); err != nil {
		// fire-and-forget：回写失败只进运维日志，不影响认证结果
		a.logger.WithError(err).Warn("failed to stamp last login",
			"user_id", user.ID)
	}
	a.writeAudit(ctx, &user.ID, creds.Identifier, model.AuditActionLoginSuccess, meta)
	a.resetThrottle(ctx, meta.IP)

	username := ""
	if user.Username != nil {
		username = *user.Username
	}
	return &Identity{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Username: username,
		Role:     string(user.Role),
	}, nil
}

// RecordLogout 登出时追加审计条目
func (a *Authenticator) RecordLogout(ctx context.Context, user *AuthUser, meta RequestMeta) {
	input := user.Username
	if input == "" {
		input = user.Name
	}
	a.writeAudit(ctx, &user.ID, input, model.AuditActionLogout, meta)
}

// locate 按标识类型定位候选账户，未命中返回 (nil, nil)
func (a *Authenticator) locate(ctx context.Context, identifier string, creds Credentials) (*model.User, error) {
	switch creds.Type {
	case IdentifierStudentID:
		user, err := a.store.GetUserByStudentID(ctx, identifier)
		if err != nil {
			return nil, a.storeError(err)
		}
		return user, nil

	case IdentifierNationalID:
		// 存储侧只有 bcrypt 哈希，无法按索引查，只能对候选集线性比对。
		// O(n) 是"不存可检索的敏感标识"这一要求的固有代价。
		plaintext := creds.OriginalIdentifier
		if plaintext == "" {
			plaintext = identifier
		}
		candidates, err := a.store.ListNationalIDCandidates(ctx, a.nationalIDRoles)
		if err != nil {
			return nil, a.storeError(err)
		}
		for _, c := range candidates {
			if c.NationalIDHash != nil && a.verifyHash(plaintext, *c.NationalIDHash) {
				return c, nil
			}
		}
		return nil, nil

	case IdentifierUsername:
		user, err := a.store.GetUserByUsername(ctx, identifier, model.AdminRoles)
		if err != nil {
			return nil, a.storeError(err)
		}
		return user, nil

	default:
		return nil, newError(ErrInvalidFormat, "ประเภทรหัสผู้ใช้ไม่ถูกต้อง")
	}
}

// writeAudit 追加审计条目；写失败进运维日志，从不吞掉认证结果
func (a *Authenticator) writeAudit(ctx context.Context, userID *int64, input string,
	action model.AuditAction, meta RequestMeta) {
	entry := &model.AuditLog{
		UserID:        userID,
		UsernameInput: input,
		Action:        action,
		IP:            meta.IP,
		UserAgent:     meta.UserAgent,
		CreatedAt:     a.now(),
	}
	if err := a.store.AppendAuditLog(ctx, entry); err != nil {
		a.logger.WithError(err).Error("audit log write failed",
			"action", string(action), "ip", meta.IP)
	}
}

// storeError 将存储基础设施错误折叠为对外的统一类别
func (a *Authenticator) storeError(err error) error {
	a.logger.WithError(err).Error("credential store query failed")
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// checkThrottle 只读检查当前窗口的失败次数，超限直接拒绝；
// 限流缓存不可用时放行（可用性优先于限流精度）
func (a *Authenticator) checkThrottle(ctx context.Context, ip string) error {
	if a.throttle == nil || a.cfg.MaxLoginFails <= 0 || ip == "" {
		return nil
	}
	n, err := a.throttle.GetLoginFails(ctx, ip)
	if err != nil {
		a.logger.WithError(err).Warn("login throttle unavailable")
		return nil
	}
	if n >= int64(a.cfg.MaxLoginFails) {
		return newError(ErrThrottled, "")
	}
	return nil
}

func (a *Authenticator) countFailure(ctx context.Context, ip string) {
	if a.throttle == nil || a.cfg.MaxLoginFails <= 0 || ip == "" {
		return
	}
	if _, err := a.throttle.IncrLoginFail(ctx, ip, a.cfg.ThrottleTTL); err != nil {
		a.logger.WithError(err).Warn("login throttle unavailable")
	}
}

func (a *Authenticator) resetThrottle(ctx context.Context, ip string) {
	if a.throttle == nil || ip == "" {
		return
	}
	if err := a.throttle.ResetLoginFail(ctx, ip); err != nil {
		a.logger.WithError(err).Warn("login throttle reset failed")
	}
}
