package validation

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"two letters", "Al", true},
		{"one letter", "A", false},
		{"with spaces", "Ada Lovelace", true},
		{"fifty letters", strings.Repeat("a", 50), true},
		{"fifty one letters", strings.Repeat("a", 51), false},
		{"digits", "Ada1", false},
		{"accented", "José", false},
		{"hyphen", "Mary-Jane", false},
		{"no-break space", "Ana\u00a0Maria", true},
		{"ideographic space", "Ana\u3000Maria", true},
		{"zero width space", "Ana\u200bMaria", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidName(tt.input); got != tt.want {
				t.Fatalf("ValidName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"a@b.co", true},
		{"first.last-x@mail.example.org", true},
		{"user_1@sub-domain.io", true},
		{"a@b", false},
		{"a@b.c", false},
		{"a@b.museum", false},
		{"@b.co", false},
		{"a b@c.co", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ValidEmail(tt.input); got != tt.want {
				t.Fatalf("ValidEmail(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"all classes", "Abcdef1!", true},
		{"underscore counts as symbol", "Abcdef1_", true},
		{"classes in any order", "!1fedcbA", true},
		{"no uppercase", "abcdef1!", false},
		{"no lowercase", "ABCDEF1!", false},
		{"no digit", "Abcdefg!", false},
		{"no symbol", "Abcdefg1", false},
		{"too short", "Abcd1!", false},
		{"line break", "Abc\ndef1!", false},
		{"carriage return", "Abc\rdef1!", false},
		{"line separator", "Abc\u2028def1!", false},
		{"astral symbols count twice", "Aa1!\U0001F600\U0001F600", true},
		{"seven units", "Aa1!\U0001F600x", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidPassword(tt.input); got != tt.want {
				t.Fatalf("ValidPassword(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRegister_TagsOnStruct(t *testing.T) {
	v := validator.New()
	if err := Register(v); err != nil {
		t.Fatalf("Register: %v", err)
	}

	type payload struct {
		Name     string `validate:"personname"`
		Email    string `validate:"accountemail"`
		Password string `validate:"strongpassword"`
	}

	if err := v.Struct(payload{Name: "Ada", Email: "ada@example.com", Password: "Abcdef1!"}); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	err := v.Struct(payload{Name: "A", Email: "nope", Password: "weak"})
	if err == nil {
		t.Fatalf("expected validation errors")
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(verrs), verrs)
	}
}
