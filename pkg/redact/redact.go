// Package redact masks credential-bearing values in command lines before they
// are written to a log. Output is for humans only and is never re-parsed.
package redact

import (
	"regexp"
	"strings"
)

// Placeholder replaces every redacted value.
const Placeholder = "<REDACTED>"

// Rule is one ordered pattern. Pattern must capture the text to keep in group
// 1 and match the secret value with the rest of the expression; Skip, when
// set, vetoes a match by looking at the captured value.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Skip    func(value string) bool
}

// valuePattern is what counts as a secret value: the next run of non-space
// characters.
const valuePattern = `(\S+)`

// DefaultRules returns the built-in rules in evaluation order. Specific forms
// come first so that a general rule never rewrites text a specific rule has
// already handled.
func DefaultRules() []Rule {
	return []Rule{
		keyRule("authorization-bearer", `Authorization:\s*Bearer\s+`),
		keyRule("bearer", `Bearer\s+`),
		keyRule("token", `token[=:]`),
		keyRule("api-key", `api[_-]?key[=:]`),
		keyRule("password", `password[=:]`),
		keyRule("client-secret", `client[_-]?secret[=:]`),
		keyRule("client-id", `client[_-]?id[=:]`),
		authorizationRule(),
	}
}

func keyRule(name, prefix string) Rule {
	return Rule{
		Name:    name,
		Pattern: regexp.MustCompile(`(?i)(` + prefix + `)` + valuePattern),
	}
}

// authorizationRule catches any Authorization header that is not in Bearer
// form. RE2 has no lookahead, so the Bearer case is vetoed in Skip.
func authorizationRule() Rule {
	return Rule{
		Name:    "authorization",
		Pattern: regexp.MustCompile(`(?i)(Authorization:\s*)` + valuePattern),
		Skip: func(value string) bool {
			return len(value) >= len("bearer") && strings.EqualFold(value[:len("bearer")], "bearer")
		},
	}
}

// KeyRule builds a `key=value` / `key:value` rule for an extra credential key.
func KeyRule(key string) Rule {
	return keyRule(strings.ToLower(key), regexp.QuoteMeta(key)+`[=:]`)
}

// Sanitizer applies an ordered rule list.
type Sanitizer struct {
	rules       []Rule
	placeholder string
}

// Option configures a Sanitizer
type Option func(*Sanitizer)

// WithPlaceholder overrides the replacement text. Placeholders containing
// whitespace are ignored; they would break idempotence.
func WithPlaceholder(placeholder string) Option {
	return func(s *Sanitizer) {
		if placeholder != "" && !strings.ContainsAny(placeholder, " \t\r\n") {
			s.placeholder = placeholder
		}
	}
}

// WithAdditionalKeys adds key=value rules for site-specific secrets. They run
// after the built-in key rules and before the general Authorization rule.
func WithAdditionalKeys(keys ...string) Option {
	return func(s *Sanitizer) {
		var extra []Rule
		for _, key := range keys {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			extra = append(extra, KeyRule(key))
		}
		if len(extra) == 0 {
			return
		}
		last := len(s.rules) - 1
		rules := make([]Rule, 0, len(s.rules)+len(extra))
		rules = append(rules, s.rules[:last]...)
		rules = append(rules, extra...)
		rules = append(rules, s.rules[last])
		s.rules = rules
	}
}

// New creates a Sanitizer with the default rules.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		rules:       DefaultRules(),
		placeholder: Placeholder,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns a copy of the rule list in evaluation order.
func (s *Sanitizer) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Sanitize redacts a shell-form command.
func (s *Sanitizer) Sanitize(command string) string {
	sanitized := command
	for _, rule := range s.rules {
		sanitized = s.apply(rule, sanitized)
	}
	return sanitized
}

// SanitizeArgs joins an argument vector with single spaces and redacts it.
// Argument boundaries are lost, which is fine for log output.
func (s *Sanitizer) SanitizeArgs(args []string) string {
	return s.Sanitize(strings.Join(args, " "))
}

func (s *Sanitizer) apply(rule Rule, text string) string {
	matches := rule.Pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		// m: full match, group 1 (kept prefix), group 2 (value)
		value := text[m[4]:m[5]]
		if rule.Skip != nil && rule.Skip(value) {
			continue
		}
		b.WriteString(text[last:m[3]])
		b.WriteString(s.placeholder)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

var defaultSanitizer = New()

// Sanitize redacts command with the default rules.
func Sanitize(command string) string {
	return defaultSanitizer.Sanitize(command)
}

// SanitizeArgs redacts an argument vector with the default rules.
func SanitizeArgs(args []string) string {
	return defaultSanitizer.SanitizeArgs(args)
}
