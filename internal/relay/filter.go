package relay

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

const matchTimeout = 100 * time.Millisecond

// Filter decides whether a label name is relevant. It is read-only after construction and
// safe for concurrent use. Any compile or match error makes Match report false.
type Filter struct {
	pattern string
	re      *regexp2.Regexp
	err     error
}

func NewFilter(pattern string) *Filter {
	f := &Filter{pattern: pattern}

	expr, opts, err := parsePattern(pattern)
	if err != nil {
		f.err = err
		return f
	}

	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		f.err = fmt.Errorf("compile label pattern %q: %w", pattern, err)
		return f
	}
	re.MatchTimeout = matchTimeout
	f.re = re
	return f
}

// Match reports whether name matches the pattern anywhere.
func (f *Filter) Match(name string) bool {
	if f == nil || f.re == nil {
		return false
	}

	ok, err := f.re.MatchString(name)
	if err != nil {
		return false
	}
	return ok
}

// Err returns the error that left the filter unable to match, if any.
func (f *Filter) Err() error {
	return f.err
}

func (f *Filter) String() string {
	return f.pattern
}

// parsePattern splits a PCRE-style "/expr/flags" value into an expression and regexp2
// options. As in PCRE, the delimiter is the first non-space byte when it is neither
// alphanumeric nor a backslash, and ( [ { < close with their pair. Values starting with
// ^ . $ are plain expressions, as are ( and [ values that do not close into valid flags.
func parsePattern(pattern string) (string, regexp2.RegexOptions, error) {
	trimmed := strings.TrimLeft(pattern, " \t\n\r\v\f")
	if trimmed == "" {
		return "", regexp2.None, fmt.Errorf("empty label pattern")
	}

	delim := trimmed[0]
	if !isDelimiter(delim) || strings.IndexByte("^.$", delim) >= 0 {
		return pattern, regexp2.None, nil
	}
	maybePlain := delim == '(' || delim == '['

	end := closingDelimiter(trimmed)
	if end < 0 {
		if maybePlain {
			return pattern, regexp2.None, nil
		}
		return "", regexp2.None, fmt.Errorf("no ending delimiter %q in label pattern %q", delim, pattern)
	}

	opts, err := parseModifiers(trimmed[end+1:])
	if err != nil {
		if maybePlain {
			return pattern, regexp2.None, nil
		}
		return "", regexp2.None, fmt.Errorf("%w in label pattern %q", err, pattern)
	}

	return trimmed[1:end], opts, nil
}

func isDelimiter(c byte) bool {
	switch {
	case c >= 0x80, c == '\\':
		return false
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	}
	return true
}

var bracketPairs = map[byte]byte{'(': ')', '[': ']', '{': '}', '<': '>'}

// closingDelimiter returns the index of the first unescaped delimiter closing s[0], counting
// nesting for bracket pairs, or -1.
func closingDelimiter(s string) int {
	open := s[0]
	closing, bracket := bracketPairs[open]
	if !bracket {
		closing = open
	}

	depth := 0
	for i := 1; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			i++
		case c == closing && depth == 0:
			return i
		case c == closing:
			depth--
		case bracket && c == open:
			depth++
		}
	}
	return -1
}

func parseModifiers(flags string) (regexp2.RegexOptions, error) {
	opts := regexp2.None
	for _, flag := range flags {
		switch flag {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		case 'u':
			// regexp2 already matches on runes
		case ' ', '\n', '\r':
		default:
			return regexp2.None, fmt.Errorf("unknown modifier %q", flag)
		}
	}
	return opts, nil
}
