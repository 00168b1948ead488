// Package hound implements secrethound, the "simpler form" reuse of the
// core engine described in spec.md §1: a content-only scan against a list
// of detection rules loaded from a JSON file, with Shannon-entropy gating,
// grounded on tools/secret-hound's Scanner and RuleParser.
package hound

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/log"
)

// Rule is one detection rule: an id, a compiled regex, and an optional
// minimum Shannon entropy gate on the matched substring.
type Rule struct {
	ID          string
	Description string
	Regex       *regexp.Regexp
	MinEntropy  float64
}

// rawRule mirrors the on-disk JSON schema: {"id","description","regex","min_entropy"}.
type rawRule struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Regex       string  `json:"regex"`
	MinEntropy  float64 `json:"min_entropy"`
}

// LoadRules parses a JSON array of rules from path. A rule missing "id" or
// "regex", or carrying an uncompilable regex, is skipped with a warning
// rather than aborting the whole load — mirroring RuleParser::parse_rules_from_file's
// per-rule skip-and-warn behavior.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rule file not found or could not be opened: %w", err)
	}

	var raw []rawRule
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	var rules []Rule
	for _, r := range raw {
		if r.ID == "" || r.Regex == "" {
			log.Warn("skipping rule missing id or regex", "id", r.ID)
			continue
		}
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			log.Warn("skipping rule with uncompilable regex", "id", r.ID, "regex", r.Regex, "err", err)
			continue
		}
		desc := r.Description
		if desc == "" {
			desc = "No description provided."
		}
		rules = append(rules, Rule{ID: r.ID, Description: desc, Regex: re, MinEntropy: r.MinEntropy})
	}
	return rules, nil
}
