package generation

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// credentialPatterns match text that looks like a secret. They also match ordinary
// prose ("The secret: ..."), so they are only installed on request.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)password[:=]\s*\S+`),
	regexp.MustCompile(`(?i)api[_-]?key[:=]\s*\S+`),
	regexp.MustCompile(`(?i)secret[:=]\s*\S+`),
	regexp.MustCompile(`\bAIza[0-9A-Za-z_\-]{35}\b`), // Google API keys
	regexp.MustCompile(`\bsk-[0-9A-Za-z_\-]{20,}\b`), // OpenAI-style keys
}

// Guardrails masks sensitive text in model replies before they are shown to the user
// or stored in the conversation. A new Guardrails only masks registered literals.
type Guardrails struct {
	outputFilters []*regexp.Regexp
	literals      []string
}

func NewGuardrails() *Guardrails {
	return &Guardrails{}
}

// AddCredentialFilters installs the built-in credential patterns.
func (g *Guardrails) AddCredentialFilters() {
	g.outputFilters = append(g.outputFilters, credentialPatterns...)
}

// AddFilter adds a regex whose matches are masked.
func (g *Guardrails) AddFilter(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	g.outputFilters = append(g.outputFilters, re)
	return nil
}

// RedactLiteral masks every occurrence of s, typically the configured API key.
func (g *Guardrails) RedactLiteral(s string) {
	if strings.TrimSpace(s) != "" {
		g.literals = append(g.literals, s)
	}
}

// SanitizeOutput removes or masks sensitive information from output.
func (g *Guardrails) SanitizeOutput(output string) string {
	sanitized := output
	for _, lit := range g.literals {
		sanitized = strings.ReplaceAll(sanitized, lit, redacted)
	}
	for _, filter := range g.outputFilters {
		sanitized = filter.ReplaceAllString(sanitized, redacted)
	}
	return sanitized
}
