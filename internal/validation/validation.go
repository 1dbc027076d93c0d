// Package validation holds the account field rules and exposes them as
// go-playground/validator tags.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"
)

const (
	TagName     = "personname"
	TagEmail    = "accountemail"
	TagPassword = "strongpassword"

	MaxNameLength  = 50
	MaxEmailLength = 100
)

// spaceClass is the whitespace set of an HTML form pattern's \s, which is
// wider than the ASCII-only \s of RE2.
const spaceClass = `\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

const (
	minPasswordLength = 8
	// line terminators a form pattern's "." does not match
	lineTerminators = "\n\r\u2028\u2029"
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z` + spaceClass + `]{2,50}$`)
	emailRe = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

	// RE2 has no lookahead, so each password class is its own pattern.
	passwordClasses = []*regexp.Regexp{
		regexp.MustCompile(`[a-z]`),
		regexp.MustCompile(`[A-Z]`),
		regexp.MustCompile(`\d`),
		regexp.MustCompile(`[\W_]`),
	}
)

// ValidName reports whether s is 2-50 ASCII letters or whitespace, where
// whitespace includes the Unicode spaces such as NBSP.
func ValidName(s string) bool {
	return nameRe.MatchString(s)
}

// ValidEmail reports whether s has a local@domain.tld shape with a 2-4 char top label.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidPassword reports whether s has at least 8 characters and contains a
// lowercase letter, an uppercase letter, a digit and a symbol. Length is in
// UTF-16 code units and line terminators are rejected, so the rule agrees
// with the same check run as an HTML form pattern.
func ValidPassword(s string) bool {
	if strings.ContainsAny(s, lineTerminators) || utf16Len(s) < minPasswordLength {
		return false
	}

	for _, re := range passwordClasses {
		if !re.MatchString(s) {
			return false
		}
	}
	return true
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Register installs the account tags on v.
func Register(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		TagName:     ValidName,
		TagEmail:    ValidEmail,
		TagPassword: ValidPassword,
	}

	for tag, fn := range rules {
		fn := fn
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
		if err != nil {
			return err
		}
	}
	return nil
}
