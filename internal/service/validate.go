package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Shivanand-hulikatti/community-registration/internal/model"
)

// Validation messages.
const (
	MsgNameRequired    = "Name is required"
	MsgPhoneRequired   = "Phone number is required"
	MsgPhoneInvalid    = "Please enter a valid 10-digit phone number"
	MsgEmailRequired   = "Email is required"
	MsgEmailInvalid    = "Please enter a valid email"
	MsgCollegeRequired = "College/Department is required"
	MsgFileRequired    = "Please upload a file"
)

// Whitespace here is the browser set: ASCII blanks, Unicode separators and
// the byte order mark.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// Validate checks every rule against d and returns a fresh error set.
// An empty set means the draft may be submitted.
func Validate(d model.Draft) model.ValidationErrors {
	errs := model.ValidationErrors{}

	if blank(d.Name) {
		errs[model.FieldName] = MsgNameRequired
	}

	switch {
	case blank(d.Phone):
		errs[model.FieldPhone] = MsgPhoneRequired
	case countDigits(d.Phone) != 10:
		errs[model.FieldPhone] = MsgPhoneInvalid
	}

	switch {
	case blank(d.Email):
		errs[model.FieldEmail] = MsgEmailRequired
	case !emailPattern.MatchString(d.Email):
		errs[model.FieldEmail] = MsgEmailInvalid
	}

	if blank(d.College) {
		errs[model.FieldCollege] = MsgCollegeRequired
	}

	if d.File == nil {
		errs[model.FieldFile] = MsgFileRequired
	}

	return errs
}

// blank reports whether s holds nothing but whitespace.
func blank(s string) bool {
	return strings.TrimFunc(s, isSpace) == ""
}

func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Z, r)
}

// countDigits counts ASCII digits, ignoring separators and other formatting.
func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
