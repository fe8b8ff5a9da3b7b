package errors

import (
	"strings"
	"testing"
)

func TestValidateIncludePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "base.json", false},
		{"nested", "shared/servers/base.json", false},
		{"dot segment", "./base.json", false},
		{"inner parent", "shared/../base.json", false},
		{"sibling dir", "../shared/base.json", false},
		{"parent nested", "a/../../b.json", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 600), true},
		{"absolute", "/etc/passwd", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
		{"backslash", "foo\\bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIncludePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIncludePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateIncludePath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateLocalIncludePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "base.json", false},
		{"inner parent", "shared/../base.json", false},

		{"escapes", "../secret.json", true},
		{"escapes nested", "a/../../b.json", true},
		{"absolute", "/etc/passwd", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocalIncludePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLocalIncludePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateLocalIncludePath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "red-S.json", false},
		{"spaces", "red S.json", false},
		{"hidden", ".json", false},

		{"empty", "", true},
		{"slash", "a/b.json", true},
		{"backslash", "a\\b.json", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"control", "a\tb", true},
		{"too long", strings.Repeat("x", 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
