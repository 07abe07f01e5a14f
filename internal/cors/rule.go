package cors

import (
	"fmt"
	"strings"
)

// DefaultMaxAgeSeconds is the preflight cache duration used by the default policy
const DefaultMaxAgeSeconds = 3600

// Rule is a single bucket CORS policy rule in the storage JSON format
type Rule struct {
	Origins         []string `json:"origin"`
	Methods         []string `json:"method"`
	ResponseHeaders []string `json:"responseHeader"`
	MaxAgeSeconds   int      `json:"maxAgeSeconds"`
}

// Configuration is the ordered list of rules written to the CORS file
type Configuration []Rule

// Policy describes the values a Configuration is built from.
// One rule is produced per method group, all sharing origins, headers and max age.
type Policy struct {
	Origins         []string
	MethodGroups    [][]string
	ResponseHeaders []string
	MaxAgeSeconds   int
}

// DefaultPolicy returns the local development policy: read-style and
// write-style methods for the three local front-end dev servers.
func DefaultPolicy() Policy {
	return Policy{
		Origins: []string{
			"http://localhost:5173",
			"http://localhost:5174",
			"http://localhost:3000",
		},
		MethodGroups: [][]string{
			{"GET", "HEAD", "DELETE"},
			{"PUT", "POST", "OPTIONS"},
		},
		ResponseHeaders: []string{"Content-Type"},
		MaxAgeSeconds:   DefaultMaxAgeSeconds,
	}
}

// Build creates the configuration for a policy
func Build(p Policy) Configuration {
	cfg := make(Configuration, 0, len(p.MethodGroups))
	for _, methods := range p.MethodGroups {
		cfg = append(cfg, Rule{
			Origins:         cloneStrings(p.Origins),
			Methods:         cloneStrings(methods),
			ResponseHeaders: cloneStrings(p.ResponseHeaders),
			MaxAgeSeconds:   p.MaxAgeSeconds,
		})
	}
	return cfg
}

// Validate checks the rule invariants
func (r Rule) Validate() error {
	if len(r.Origins) == 0 {
		return fmt.Errorf("origin cannot be empty")
	}
	for i, origin := range r.Origins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("origin[%d] cannot be blank", i)
		}
	}
	if len(r.Methods) == 0 {
		return fmt.Errorf("method cannot be empty")
	}
	for i, method := range r.Methods {
		if !isMethodToken(method) {
			return fmt.Errorf("method[%d]: invalid HTTP method %q", i, method)
		}
	}
	if r.MaxAgeSeconds < 0 {
		return fmt.Errorf("maxAgeSeconds must be non-negative, got %d", r.MaxAgeSeconds)
	}
	return nil
}

// Validate checks every rule of the configuration
func (c Configuration) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("configuration must contain at least one rule")
	}
	for i, rule := range c {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// normalize replaces nil slices so every field serializes as a JSON array
func (c Configuration) normalize() Configuration {
	out := make(Configuration, len(c))
	for i, rule := range c {
		out[i] = Rule{
			Origins:         nonNil(rule.Origins),
			Methods:         nonNil(rule.Methods),
			ResponseHeaders: nonNil(rule.ResponseHeaders),
			MaxAgeSeconds:   rule.MaxAgeSeconds,
		}
	}
	return out
}

func isMethodToken(method string) bool {
	if method == "" {
		return false
	}
	for _, c := range method {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
