// Package validator checks user input and decodes structured replies from
// the language model.
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// spaceRegexp is compiled once at package init and reused across all Sanitize calls.
var spaceRegexp = regexp.MustCompile(`[ \t]+`)

type InputValidator struct {
	maxLength int
}

func NewInputValidator() *InputValidator {
	return &InputValidator{
		maxLength: 8000,
	}
}

func (v *InputValidator) Validate(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("input is empty")
	}

	if len(input) > v.maxLength {
		return fmt.Errorf("input too long: maximum %d characters", v.maxLength)
	}

	if !utf8.ValidString(input) {
		return errors.New("invalid UTF-8 encoding")
	}

	return nil
}

func (v *InputValidator) Sanitize(input string) string {
	input = strings.TrimSpace(input)
	input = spaceRegexp.ReplaceAllString(input, " ")
	return input
}
