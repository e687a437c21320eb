package printing

import (
	"regexp"
	"strconv"
	"strings"
)

// ValueValidator decides whether a raw option value is acceptable.
type ValueValidator interface {
	Validate(value string) bool
	// Describe names the accepted grammar, used in logs and docs.
	Describe() string
}

// AnyString accepts every value that can be passed as a process argument.
type AnyString struct{}

func (AnyString) Validate(value string) bool { return isArgSafe(value) }

func (AnyString) Describe() string { return "string" }

var numericPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Numeric accepts decimal numbers such as "1", "-2" or "1.5".
type Numeric struct{}

func (Numeric) Validate(value string) bool { return numericPattern.MatchString(value) }

func (Numeric) Describe() string { return "numeric" }

// Boolean accepts strconv.ParseBool spellings and numeric values.
// Numbers are truthy when non-zero.
type Boolean struct{}

func (Boolean) Validate(value string) bool {
	_, ok := parseTruthy(value)
	return ok
}

func (Boolean) Describe() string { return "boolean" }

// Pattern accepts values that fully match Expr.
type Pattern struct {
	Expr *regexp.Regexp
}

// MustPattern compiles expr into a Pattern validator.
func MustPattern(expr string) Pattern {
	return Pattern{Expr: regexp.MustCompile(expr)}
}

func (p Pattern) Validate(value string) bool {
	return isArgSafe(value) && p.Expr.MatchString(value)
}

func (p Pattern) Describe() string { return p.Expr.String() }

// IsTruthy reports whether a boolean option value enables its flag.
// Values rejected by Boolean are treated as false.
func IsTruthy(value string) bool {
	b, _ := parseTruthy(value)
	return b
}

func parseTruthy(value string) (bool, bool) {
	if b, err := strconv.ParseBool(value); err == nil {
		return b, true
	}
	if numericPattern.MatchString(value) {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false, false
		}
		return f != 0, true
	}
	return false, false
}

// A NUL byte cannot be carried by an exec argument.
func isArgSafe(value string) bool {
	return !strings.ContainsRune(value, 0)
}

var (
	_ ValueValidator = AnyString{}
	_ ValueValidator = Numeric{}
	_ ValueValidator = Boolean{}
	_ ValueValidator = Pattern{}
)
