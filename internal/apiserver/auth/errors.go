package auth

import (
	"errors"
	"net/http"
)

// 认证错误分类
//
// 调用方通过 errors.Is 判断类别；用户可见文案是泰文、不含内部细节。
// InvalidPassword 不暗示其他标识类型下是否存在该账户；
// Suspended 与 InvalidPassword 的区分意味着账户存在，这是设计上已接受的
// 轻微信息泄露（两者都要求账户已被定位）。
var (
	// ErrMissingFields 必填字段缺失
	ErrMissingFields = errors.New("auth: missing required fields")

	// ErrInvalidFormat 标识格式与声明的类型不符
	ErrInvalidFormat = errors.New("auth: identifier format mismatch")

	// ErrNotFound 未匹配到任何账户
	ErrNotFound = errors.New("auth: user not found")

	// ErrAccountSuspended 账户存在但状态非 active
	ErrAccountSuspended = errors.New("auth: account suspended")

	// ErrInvalidPassword 账户 active 但密码不匹配
	ErrInvalidPassword = errors.New("auth: invalid password")

	// ErrThrottled 同一来源失败次数过多
	ErrThrottled = errors.New("auth: too many failed attempts")

	// ErrMisconfigured 签名密钥缺失等启动配置错误（对单次操作致命，进程不退出）
	ErrMisconfigured = errors.New("auth: misconfigured")

	// ErrStoreUnavailable 存储不可达等瞬时基础设施错误
	ErrStoreUnavailable = errors.New("auth: credential store unavailable")
)

// Error 带用户文案的认证错误
//
// Message 覆盖默认文案（如格式校验细分哪条规则失败），为空时
// 由 UserMessage 按类别取默认值。
type Error struct {
	Kind    error  // 上面的分类 sentinel 之一
	Message string // 泰文用户文案，可为空
}

func (e *Error) Error() string {
	return e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// newError 构造带自定义文案的分类错误
func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// 默认用户文案（泰文）
var defaultMessages = map[error]string{
	ErrMissingFields:    "กรุณากรอกข้อมูลให้ครบถ้วน",
	ErrInvalidFormat:    "รูปแบบรหัสผู้ใช้ไม่ถูกต้อง",
	ErrNotFound:         "ไม่พบผู้ใช้ในระบบ",
	ErrAccountSuspended: "บัญชีนี้ถูกระงับการใช้งาน กรุณาติดต่อเจ้าหน้าที่",
	ErrInvalidPassword:  "รหัสผ่านไม่ถูกต้อง",
	ErrThrottled:        "พยายามเข้าสู่ระบบผิดพลาดหลายครั้งเกินไป กรุณาลองใหม่ภายหลัง",
	ErrMisconfigured:    "เกิดข้อผิดพลาดในระบบ กรุณาลองใหม่อีกครั้ง",
	ErrStoreUnavailable: "เกิดข้อผิดพลาดในระบบ กรุณาลองใหม่อีกครั้ง",
}

// UserMessage 返回错误对应的用户可见文案
//
// 未分类错误一律返回通用文案，保证数据库错误等内部细节不外泄。
func UserMessage(err error) string {
	var authErr *Error
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	for kind, msg := range defaultMessages {
		if errors.Is(err, kind) {
			return msg
		}
	}
	return "เกิดข้อผิดพลาดในระบบ กรุณาลองใหม่อีกครั้ง"
}

// HTTPStatus 返回错误对应的 HTTP 状态码
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidPassword):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountSuspended):
		return http.StatusForbidden
	case errors.Is(err, ErrThrottled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode 返回错误的机器可读代码（JSON 响应中的 code 字段）
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAccountSuspended):
		return "account_suspended"
	case errors.Is(err, ErrInvalidPassword):
		return "invalid_password"
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrMisconfigured):
		return "misconfigured"
	default:
		return "internal_error"
	}
}
