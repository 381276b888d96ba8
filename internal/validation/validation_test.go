package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Aa1@" + strings.Repeat("x", 68), true},  // exactly 72 bytes
		{"Aa1@" + strings.Repeat("x", 69), false}, // 73 bytes
		{"Aa1@" + strings.Repeat("x", 80), false},
		{"Aa1@" + strings.Repeat("é", 35), false}, // 74 bytes in 39 characters
		{"Password@123", true},
		{"aB3#efgh", true},
		{"aB3#efg", false},        // too short
		{"password@123", false},   // no uppercase
		{"PASSWORD@123", false},   // no lowercase
		{"Password@abc", false},   // no digit
		{"Password123", false},    // no special character
		{"Password!123", false},   // '!' is not in the special set
		{"Pass word@123", false},  // whitespace
		{"Password@123\t", false}, // trailing tab
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPassword(tt.password))
		})
	}
}

type signup struct {
	Password string  `validate:"required,password"`
	Phone    *string `validate:"omitempty,len=10,numeric"`
	Email    *string `validate:"omitempty,email"`
}

func strPtr(s string) *string { return &s }

func TestNew_RegistersPasswordRule(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(signup{Password: "Password@123"}))
	assert.Error(t, v.Struct(signup{Password: "weak"}))
}

func TestNew_ContactFields(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(signup{Password: "Password@123", Phone: strPtr("1234567890"), Email: strPtr("a@example.com")}))
	assert.Error(t, v.Struct(signup{Password: "Password@123", Phone: strPtr("12345")}))
	assert.Error(t, v.Struct(signup{Password: "Password@123", Phone: strPtr("12345abcde")}))
	assert.Error(t, v.Struct(signup{Password: "Password@123", Email: strPtr("not-an-email")}))
}
