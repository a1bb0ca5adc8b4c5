package gate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	ai "github.com/spetersoncode/gatekeep"
)

// DefaultDescriptionPrefix heads the description shown to reviewers.
const DefaultDescriptionPrefix = "Tool execution requires approval"

// Condition gates a call when the named argument is present and satisfies
// every constraint that is set.
type Condition struct {
	// Field is the argument name to inspect.
	Field string
	// Pattern is a regular expression a string value must match.
	Pattern string
	// Min is an inclusive lower bound for a numeric value.
	Min *float64
	// Max is an inclusive upper bound for a numeric value.
	Max *float64

	re *regexp.Regexp
}

func (c *Condition) compile() error {
	if c.Field == "" {
		return fmt.Errorf("condition requires a field")
	}
	if c.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern for field %s: %w", c.Field, err)
	}
	c.re = re
	return nil
}

func (c Condition) matches(args map[string]any) bool {
	value, ok := args[c.Field]
	if !ok {
		return false
	}
	switch v := value.(type) {
	case string:
		if c.Min != nil || c.Max != nil {
			return false
		}
		return c.re == nil || c.re.MatchString(v)
	case float64:
		return c.matchNumber(v)
	case int:
		return c.matchNumber(float64(v))
	case int64:
		return c.matchNumber(float64(v))
	default:
		return c.re == nil && c.Min == nil && c.Max == nil
	}
}

func (c Condition) matchNumber(v float64) bool {
	if c.re != nil && !c.re.MatchString(strconv.FormatFloat(v, 'f', -1, 64)) {
		return false
	}
	if c.Min != nil && v < *c.Min {
		return false
	}
	if c.Max != nil && v > *c.Max {
		return false
	}
	return true
}

// Rule configures approval for one tool.
type Rule struct {
	// Always gates every call to the tool.
	Always bool
	// When gates calls whose arguments match any condition.
	When []Condition
	// Allowed restricts the decisions a reviewer may make. Empty allows both.
	Allowed []Decision
	// Description replaces the policy's description prefix for this tool.
	Description string
}

func (r Rule) gates(args map[string]any) bool {
	if r.Always {
		return true
	}
	for _, c := range r.When {
		if c.matches(args) {
			return true
		}
	}
	return false
}

// Policy maps tool names to approval rules. A Policy is immutable; the zero
// value and a nil *Policy gate nothing.
type Policy struct {
	rules  map[string]Rule
	prefix string
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithDescriptionPrefix sets the text that opens every approval description.
func WithDescriptionPrefix(prefix string) PolicyOption {
	return func(p *Policy) {
		p.prefix = prefix
	}
}

// NewPolicy builds a policy from rules keyed by tool name. The rules are
// copied, so later changes to the map do not affect the policy.
func NewPolicy(rules map[string]Rule, opts ...PolicyOption) (*Policy, error) {
	p := &Policy{
		rules:  make(map[string]Rule, len(rules)),
		prefix: DefaultDescriptionPrefix,
	}
	for _, opt := range opts {
		opt(p)
	}

	for name, rule := range rules {
		for _, d := range rule.Allowed {
			if !d.Valid() {
				return nil, fmt.Errorf("gate: tool %s: %w: %q", name, ErrInvalidDecision, d)
			}
		}
		cp := Rule{
			Always:      rule.Always,
			Allowed:     slices.Clone(rule.Allowed),
			Description: rule.Description,
		}
		for _, c := range rule.When {
			if err := c.compile(); err != nil {
				return nil, fmt.Errorf("gate: tool %s: %w", name, err)
			}
			cp.When = append(cp.When, c)
		}
		p.rules[name] = cp
	}
	return p, nil
}

// MustPolicy is like NewPolicy but panics on error.
func MustPolicy(rules map[string]Rule, opts ...PolicyOption) *Policy {
	p, err := NewPolicy(rules, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Gate returns a policy that always gates the named tools.
func Gate(tools ...string) *Policy {
	rules := make(map[string]Rule, len(tools))
	for _, name := range tools {
		rules[name] = Rule{Always: true}
	}
	return MustPolicy(rules)
}

// DefaultPolicy gates the calculate and web_search tools.
func DefaultPolicy() *Policy {
	return Gate("calculate", "web_search")
}

// RequiresApproval reports whether a call to the named tool with args must
// wait for a human decision.
func (p *Policy) RequiresApproval(name string, args map[string]any) bool {
	if p == nil {
		return false
	}
	rule, ok := p.rules[name]
	return ok && rule.gates(args)
}

// Allows reports whether the reviewer may resolve a call to the named tool
// with decision d.
func (p *Policy) Allows(name string, d Decision) bool {
	if !d.Valid() {
		return false
	}
	if p == nil {
		return true
	}
	rule := p.rules[name]
	return len(rule.Allowed) == 0 || slices.Contains(rule.Allowed, d)
}

// Tools returns the names of tools that have a rule, sorted.
func (p *Policy) Tools() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.rules))
	for name := range p.rules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Check returns the approval request for a call when the policy gates it.
func (p *Policy) Check(call ai.ToolCall, args map[string]any) (Pending, bool) {
	if !p.RequiresApproval(call.Name, args) {
		return Pending{}, false
	}
	rule := p.rules[call.Name]
	allowed := slices.Clone(rule.Allowed)
	if len(allowed) == 0 {
		allowed = slices.Clone(Decisions)
	}
	return Pending{
		CallID:      call.ID,
		ToolName:    call.Name,
		Arguments:   args,
		Description: p.describe(rule, call.Name, args),
		Allowed:     allowed,
		RequestedAt: time.Now().UTC(),
	}, true
}

func (p *Policy) describe(rule Rule, name string, args map[string]any) string {
	prefix := p.prefix
	if rule.Description != "" {
		prefix = rule.Description
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		encoded = []byte(fmt.Sprint(args))
	}
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString("\n\nTool: ")
	b.WriteString(name)
	b.WriteString("\nArgs: ")
	b.Write(encoded)
	return b.String()
}
