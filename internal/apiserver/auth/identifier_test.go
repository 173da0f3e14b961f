package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType IdentifierType
		wantID   string
		wantErr  error
	}{
		// 学号：8-10 位数字
		{"student id 8 digits", "64010001", IdentifierStudentID, "64010001", nil},
		{"student id 9 digits", "640100012", IdentifierStudentID, "640100012", nil},
		{"student id 10 digits", "6401000123", IdentifierStudentID, "6401000123", nil},

		// 身份证号：13 位数字
		{"national id", "1103700012345", IdentifierNationalID, "1103700012345", nil},

		// 用户名：任何含非数字的输入
		{"username", "admin", IdentifierUsername, "admin", nil},
		{"username with digits", "admin01", IdentifierUsername, "admin01", nil},
		{"username trimmed", "  admin  ", IdentifierUsername, "admin", nil},

		// 纯数字但位数不匹配任何标识
		{"7 digits", "1234567", "", "", ErrInvalidFormat},
		{"11 digits", "12345678901", "", "", ErrInvalidFormat},
		{"12 digits", "123456789012", "", "", ErrInvalidFormat},
		{"14 digits", "12345678901234", "", "", ErrInvalidFormat},

		// 空输入
		{"empty", "", "", "", ErrMissingFields},
		{"whitespace only", "   ", "", "", ErrMissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotID, err := ClassifyIdentifier(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ClassifyIdentifier(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ClassifyIdentifier(%q) unexpected error: %v", tt.input, err)
			}
			if gotType != tt.wantType || gotID != tt.wantID {
				t.Errorf("ClassifyIdentifier(%q) = (%s, %q), want (%s, %q)",
					tt.input, gotType, gotID, tt.wantType, tt.wantID)
			}
		})
	}
}

func TestClassifyIdentifierTruncatesLongUsername(t *testing.T) {
	long := strings.Repeat("a", 30)
	gotType, gotID, err := ClassifyIdentifier(long)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotType != IdentifierUsername {
		t.Errorf("expected username type, got %s", gotType)
	}
	if len(gotID) != maxUsernameLen {
		t.Errorf("expected username truncated to %d chars, got %d", maxUsernameLen, len(gotID))
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		declared IdentifierType
		want     string
		wantErr  error
	}{
		{"valid student id", "64010001", IdentifierStudentID, "64010001", nil},
		{"valid national id", "1103700012345", IdentifierNationalID, "1103700012345", nil},
		{"valid username", "admin", IdentifierUsername, "admin", nil},

		// 形状与声明类型不符
		{"student id too short", "1234567", IdentifierStudentID, "", ErrInvalidFormat},
		{"student id with letters", "6401000a", IdentifierStudentID, "", ErrInvalidFormat},
		{"national id 12 digits", "110370001234", IdentifierNationalID, "", ErrInvalidFormat},
		{"national id with letters", "110370001234x", IdentifierNationalID, "", ErrInvalidFormat},

		{"empty input", "", IdentifierStudentID, "", ErrMissingFields},
		{"unknown type", "abc", IdentifierType("email"), "", ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIdentifier(tt.input, tt.declared)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizeIdentifier(%q, %s) error = %v, want %v",
						tt.input, tt.declared, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeIdentifier(%q, %s) = %q, want %q",
					tt.input, tt.declared, got, tt.want)
			}
		})
	}
}

func TestUserMessageIsThai(t *testing.T) {
	// 所有分类错误都要有用户可见文案，且不暴露内部细节
	for _, err := range []error{
		ErrMissingFields, ErrInvalidFormat, ErrNotFound,
		ErrAccountSuspended, ErrInvalidPassword, ErrThrottled,
		ErrMisconfigured, ErrStoreUnavailable,
	} {
		msg := UserMessage(err)
		if msg == "" {
			t.Errorf("no user message for %v", err)
		}
		if strings.Contains(msg, "sql") || strings.Contains(msg, "auth:") {
			t.Errorf("user message leaks internals: %q", msg)
		}
	}
}

func TestUserMessageUnknownErrorIsGeneric(t *testing.T) {
	msg := UserMessage(errors.New("pq: connection refused"))
	if strings.Contains(msg, "connection") {
		t.Errorf("internal error leaked to user message: %q", msg)
	}
	if msg == "" {
		t.Error("expected generic fallback message")
	}
}
