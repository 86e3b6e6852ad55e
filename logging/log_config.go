package logging

import (
	"regexp"
	"strings"
)

// LoggerPatternConfig sets Level on every logger whose dotted name matches Pattern. A `*`
// section matches any run of characters, dots included.
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

// A section is alphanumeric runs joined by `_` or `-`, or a lone `*`.
var loggerPatternRegexp = regexp.MustCompile(
	`^([a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*|\*)(\.([a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*|\*))*$`)

// ValidatePattern reports whether pattern is a dotted logger name, optionally with wildcards.
func ValidatePattern(pattern string) bool {
	return loggerPatternRegexp.MatchString(pattern)
}

// compilePattern turns a validated pattern into an anchored regexp.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	quoted := strings.Split(pattern, "*")
	for i, part := range quoted {
		quoted[i] = regexp.QuoteMeta(part)
	}
	return regexp.Compile("^" + strings.Join(quoted, ".*") + "$")
}
