package logging

import (
	"regexp"
	"sync"
)

type levelRule struct {
	re    *regexp.Regexp
	level Level
}

// Registry tracks named loggers so that pattern levels from a config reach loggers created
// before or after the config was read.
type Registry struct {
	mu      sync.Mutex
	loggers map[string]Logger
	rules   []levelRule
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{loggers: map[string]Logger{}}
}

// Register adds logger under name and gives it the level of the last matching rule, if any.
func (lr *Registry) Register(name string, logger Logger) error {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.loggers[name] = logger
	if level, ok := lr.match(name); ok {
		logger.SetLevel(level)
	}
	return nil
}

// LoggerNamed returns the logger registered under name, if any.
func (lr *Registry) LoggerNamed(name string) (Logger, bool) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	logger, ok := lr.loggers[name]
	return logger, ok
}

// UpdateConfig replaces the rules and re-levels every registered logger. Later patterns win
// over earlier ones and loggers matching nothing go back to INFO. Unusable entries are reported
// to warnLogger and skipped.
func (lr *Registry) UpdateConfig(logConfig []LoggerPatternConfig, warnLogger Logger) error {
	rules := make([]levelRule, 0, len(logConfig))
	for _, lpc := range logConfig {
		if !ValidatePattern(lpc.Pattern) {
			warnLogger.Warnw("skipping invalid logger pattern", "pattern", lpc.Pattern)
			continue
		}
		re, err := compilePattern(lpc.Pattern)
		if err != nil {
			warnLogger.Warnw("skipping invalid logger pattern", "pattern", lpc.Pattern, "error", err)
			continue
		}
		level, err := LevelFromString(lpc.Level)
		if err != nil {
			warnLogger.Warnw("skipping invalid logger level", "pattern", lpc.Pattern, "level", lpc.Level, "error", err)
			continue
		}
		rules = append(rules, levelRule{re: re, level: level})
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.rules = rules
	for name, logger := range lr.loggers {
		level, ok := lr.match(name)
		if !ok {
			level = INFO
		}
		logger.SetLevel(level)
	}
	return nil
}

// match must be called with mu held.
func (lr *Registry) match(name string) (Level, bool) {
	var (
		level   Level
		matched bool
	)
	for _, rule := range lr.rules {
		if rule.re.MatchString(name) {
			level, matched = rule.level, true
		}
	}
	return level, matched
}
