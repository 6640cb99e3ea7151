package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "code and message",
			err:  New(ErrCodeSchemaStructure, "schema has no layers"),
			want: "SCHEMA_STRUCTURE: schema has no layers",
		},
		{
			name: "with location",
			err:  New(ErrCodeCellBounds, "0.5 + 0.6 exceeds 1").At("main", "body", "startX+width"),
			want: `CELL_BOUNDS: layer "main" cell "body" field "startX+width": 0.5 + 0.6 exceeds 1`,
		},
		{
			name: "layer only",
			err:  New(ErrCodeViewport, "width must be positive").At("main", "", "width"),
			want: `VIEWPORT: layer "main" field "width": width must be positive`,
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeInvalidFormat, fmt.Errorf("unexpected EOF"), "decode schema"),
			want: "INVALID_FORMAT: decode schema: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAndGetCode(t *testing.T) {
	err := New(ErrCodeViewport, "bad")
	wrapped := fmt.Errorf("resolve: %w", err)

	if !Is(wrapped, ErrCodeViewport) {
		t.Error("Is should find code through fmt wrapping")
	}
	if Is(wrapped, ErrCodeCellBounds) {
		t.Error("Is should not match a different code")
	}
	if GetCode(wrapped) != ErrCodeViewport {
		t.Errorf("GetCode = %q, want %q", GetCode(wrapped), ErrCodeViewport)
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode of plain error should be empty")
	}
	if Is(nil, ErrCodeViewport) {
		t.Error("Is(nil) should be false")
	}
}

func TestListAggregation(t *testing.T) {
	var l List
	if l.Err() != nil {
		t.Fatal("empty list should produce nil error")
	}

	l.Add(New(ErrCodeSchemaStructure, "duplicate layer name").At("A", "", "name"))
	if _, ok := l.Err().(*Error); !ok {
		t.Fatalf("single-item list should return the item, got %T", l.Err())
	}

	l.Add(New(ErrCodeCellBounds, "width out of range").At("B", "c", "width"))
	l.Add(nil)
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}

	err := fmt.Errorf("validate: %w", l.Err())
	if !Is(err, ErrCodeSchemaStructure) || !Is(err, ErrCodeCellBounds) {
		t.Error("Is should match every code in the list")
	}
	if Is(err, ErrCodeViewport) {
		t.Error("Is should not match absent codes")
	}

	var target *Error
	if !errors.As(err, &target) {
		t.Fatal("errors.As should reach list items")
	}

	flat := Flatten(err)
	if len(flat) != 2 || flat[1].Cell != "c" {
		t.Errorf("Flatten = %v, want both items", flat)
	}
	if !strings.HasPrefix(l.Error(), "2 validation errors:") {
		t.Errorf("List.Error() = %q", l.Error())
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeCellBounds, "startX out of range").At("L", "c", "startX")
	if got := UserMessage(err); got != `layer "L" cell "c" field "startX": startX out of range` {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(errors.New("boom")); got != "boom" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "dashboard", false},
		{"with dash", "main-screen", false},
		{"with dot", "v1.2", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"path traversal", "a..b", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"control char", "a\x01b", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("schema", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
