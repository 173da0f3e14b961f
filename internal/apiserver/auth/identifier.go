package auth

import "strings"

// IdentifierType 登录标识类型
type IdentifierType string

const (
	IdentifierStudentID  IdentifierType = "student_id"  // 学号，8-10 位数字
	IdentifierNationalID IdentifierType = "national_id" // 身份证号，13 位数字
	IdentifierUsername   IdentifierType = "username"    // 管理员用户名，≤20 字符
)

// maxUsernameLen 用户名在入口处截断到 20 字符
const maxUsernameLen = 20

// ClassifyIdentifier 判定原始输入属于哪种登录标识
//
// 纯函数，无副作用。返回 (类型, 归一化后的标识)。
// 空输入返回 ErrMissingFields，与格式错误区分。
func ClassifyIdentifier(raw string) (IdentifierType, string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", "", newError(ErrMissingFields, "กรุณากรอกชื่อผู้ใช้หรือรหัสประจำตัว")
	}

	if isAllDigits(s) {
		switch {
		case len(s) >= 8 && len(s) <= 10:
			return IdentifierStudentID, s, nil
		case len(s) == 13:
			return IdentifierNationalID, s, nil
		}
		// 纯数字但位数对不上任何一种标识
		return "", "", newError(ErrInvalidFormat,
			"รหัสประจำตัวไม่ถูกต้อง (รหัสนักศึกษา 8-10 หลัก หรือเลขบัตรประชาชน 13 หลัก)")
	}

	if len(s) > maxUsernameLen {
		s = s[:maxUsernameLen]
	}
	return IdentifierUsername, s, nil
}

// NormalizeIdentifier 校验归一化后的输入与声明类型是否一致
//
// 登录请求自带 type 字段，这里确认 identifier 的形状与之相符，
// 防止用学号形状的输入走 username 路径之类的混用。
func NormalizeIdentifier(raw string, declared IdentifierType) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", newError(ErrMissingFields, "กรุณากรอกชื่อผู้ใช้หรือรหัสประจำตัว")
	}

	switch declared {
	case IdentifierStudentID:
		if !isAllDigits(s) || len(s) < 8 || len(s) > 10 {
			return "", newError(ErrInvalidFormat, "รหัสนักศึกษาไม่ถูกต้อง (ต้องเป็นตัวเลข 8-10 หลัก)")
		}
		return s, nil

	case IdentifierNationalID:
		if !isAllDigits(s) || len(s) != 13 {
			return "", newError(ErrInvalidFormat, "เลขบัตรประชาชนไม่ถูกต้อง (ต้องเป็นตัวเลข 13 หลัก)")
		}
		return s, nil

	case IdentifierUsername:
		if len(s) > maxUsernameLen {
			s = s[:maxUsernameLen]
		}
		return s, nil

	default:
		return "", newError(ErrInvalidFormat, "ประเภทรหัสผู้ใช้ไม่ถูกต้อง")
	}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
