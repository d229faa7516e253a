// Package quota models the per-assignment survey targets: either a single
// global counter or a list of cross-tabulated rules matched against the
// coded responses of incoming survey records.
package quota

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Kind discriminates the two quota configuration variants
type Kind string

const (
	// KindGlobal counts every record against a single target
	KindGlobal Kind = "global"
	// KindCrossed counts records against per-rule condition sets
	KindCrossed Kind = "croise"
)

var (
	ErrUnknownKind    = errors.New("unknown quota kind")
	ErrNoRules        = errors.New("crossed quota requires at least one rule")
	ErrEmptyCondition = errors.New("quota rule requires at least one condition")
	ErrNegativeTarget = errors.New("quota target cannot be negative")
)

// Rule is one cross-tabulated objective, e.g.
// {"conditions": {"SEXE": "F"}, "cible": 15}.
// All conditions must match for the rule to count a record.
type Rule struct {
	Description string            `json:"description,omitempty"`
	Conditions  map[string]string `json:"conditions"`
	Target      int               `json:"cible"`
	Current     int               `json:"actuel"`
}

// Matches reports whether every condition of the rule is satisfied by the
// record's coded responses. The responses document is the raw JSON synced
// from the tablet; attributes are looked up by variable name. A missing
// attribute never matches.
func (r *Rule) Matches(responses string) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for name, want := range r.Conditions {
		got := gjson.Get(responses, name)
		if !got.Exists() || got.String() != want {
			return false
		}
	}
	return true
}

// IsMet reports whether the rule reached its target
func (r *Rule) IsMet() bool {
	return r.Current >= r.Target
}

// Config is the quota payload stored on an assignment. Exactly one variant
// is populated depending on Kind.
type Config struct {
	Kind         Kind   `json:"type"`
	GlobalTarget int    `json:"cible_globale,omitempty"`
	Current      int    `json:"actuel,omitempty"`
	Rules        []Rule `json:"regles,omitempty"`
}

// Validate checks the structural invariants of the configuration
func (c *Config) Validate() error {
	switch c.Kind {
	case KindGlobal:
		if c.GlobalTarget < 0 {
			return ErrNegativeTarget
		}
		return nil
	case KindCrossed:
		if len(c.Rules) == 0 {
			return ErrNoRules
		}
		for i := range c.Rules {
			if len(c.Rules[i].Conditions) == 0 {
				return ErrEmptyCondition
			}
			if c.Rules[i].Target < 0 {
				return ErrNegativeTarget
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
}

// UnknownVariableError reports a crossed-rule condition that refers to a
// variable which is absent from the dictionary or not quota-eligible.
type UnknownVariableError struct {
	Variable string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("quota condition refers to unknown or non-quota variable %q", e.Variable)
}

// ValidateAgainst checks that every crossed-rule condition key refers to a
// quota-eligible variable of the dictionary.
func (c *Config) ValidateAgainst(quotaVariables map[string]bool) error {
	if c.Kind != KindCrossed {
		return nil
	}
	for i := range c.Rules {
		for name := range c.Rules[i].Conditions {
			if !quotaVariables[name] {
				return &UnknownVariableError{Variable: name}
			}
		}
	}
	return nil
}

// Apply counts one survey record against the configuration and returns the
// number of counters that were incremented. A global quota counts every
// record; a crossed quota increments every rule whose conditions all match,
// so a single record may touch zero, one, or several rules. Counting is
// advisory only and never rejects a record, even past the target.
func (c *Config) Apply(responses string) int {
	switch c.Kind {
	case KindGlobal:
		c.Current++
		return 1
	case KindCrossed:
		matched := 0
		for i := range c.Rules {
			if c.Rules[i].Matches(responses) {
				c.Rules[i].Current++
				matched++
			}
		}
		return matched
	default:
		return 0
	}
}

// IsMet reports whether the whole configuration reached its targets:
// the single counter for a global quota, every rule for a crossed one.
func (c *Config) IsMet() bool {
	switch c.Kind {
	case KindGlobal:
		return c.Current >= c.GlobalTarget
	case KindCrossed:
		for i := range c.Rules {
			if !c.Rules[i].IsMet() {
				return false
			}
		}
		return len(c.Rules) > 0
	default:
		return false
	}
}

// Value implements driver.Valuer so gorm stores the config as a JSON column
func (c Config) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *Config) Scan(value any) error {
	if value == nil {
		*c = Config{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported quota column type %T", value)
	}
}
