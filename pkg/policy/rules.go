package policy

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"mercator-hq/janus/pkg/decision"
)

// DefaultOwner is the data-owner identity assumed when the rule document
// does not name one.
const DefaultOwner = "Self"

// DomainRule is the disclosure rule for a single topic domain.
type DomainRule struct {
	// Allow permits disclosure in this domain.
	Allow bool `yaml:"allow"`

	// RequireVerify demands verification before any disclosure in this
	// domain, even when allowed.
	RequireVerify bool `yaml:"require_verify"`

	// Redactions lists tags the conversational layer must redact from any
	// disclosed content.
	Redactions []string `yaml:"redactions"`
}

// RuleSet is a validated, immutable policy table. Evaluators swap whole
// tables atomically on reload and never serve a partially loaded one.
type RuleSet struct {
	// Owner is the data-owner identity for the Ultra owner-only rule.
	Owner string

	// Domains maps each configured topic domain to its rule.
	Domains map[decision.Domain]DomainRule

	// Ultra is the override rule applied to Ultra-classified requests from
	// the owner. Nil falls through to the domain table.
	Ultra *DomainRule
}

// rawRuleSet is the YAML shape of a rule document.
type rawRuleSet struct {
	Owner   string                `yaml:"owner"`
	Domains map[string]DomainRule `yaml:"domains"`
	Ultra   *DomainRule           `yaml:"ultra"`
}

// ParseRules parses and validates a YAML rule document. The path is used
// only for error reporting. Validation is strict: a domain key outside the
// closed domain set is a configuration error, because a typo there would
// otherwise silently fall through to the permissive unknown-domain default.
func ParseRules(data []byte, path string) (*RuleSet, error) {
	var raw rawRuleSet
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}

	var verrs []string
	domains := make(map[decision.Domain]DomainRule, len(raw.Domains))
	for name, rule := range raw.Domains {
		d := decision.ParseDomain(name)
		if !d.Known() {
			verrs = append(verrs, fmt.Sprintf("unknown domain %q", name))
			continue
		}
		if _, dup := domains[d]; dup {
			verrs = append(verrs, fmt.Sprintf("duplicate domain %q", name))
			continue
		}
		domains[d] = rule
	}

	if len(verrs) > 0 {
		return nil, &ParseError{Path: path, Errors: verrs, Cause: ErrInvalidRules}
	}

	owner := raw.Owner
	if owner == "" {
		owner = DefaultOwner
	}

	return &RuleSet{
		Owner:   owner,
		Domains: domains,
		Ultra:   raw.Ultra,
	}, nil
}

// Rule returns the rule for a domain and whether one is configured.
func (rs *RuleSet) Rule(d decision.Domain) (DomainRule, bool) {
	r, ok := rs.Domains[d]
	return r, ok
}
