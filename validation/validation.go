// Package validation holds field-level validators and a declarative
// constraint table evaluated synchronously against submitted values.
package validation

import (
	"sort"
	"strings"
)

// Violation codes. They double as i18n message codes.
const (
	CodeRequired    = "required"
	CodeNotNullable = "not_nullable"
	CodeTooLong     = "too_long"
)

// Violations maps a field name to a violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the violated field names in a stable order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = CodeRequired
	}
}

func MaxLength(field, value string, maxLen int, v Violations) {
	if len([]rune(value)) > maxLen {
		v[field] = CodeTooLong
	}
}

// Check inspects a non-null value and returns a violation code, or "" when
// the value is acceptable.
type Check func(value string) string

// Rule declares the constraints of one string field.
//
// Optional: the field may be absent from the submitted values.
// Nullable: the field may be present with a null value.
// Checks run only on non-null values, in order; the first failure wins.
type Rule struct {
	Field    string
	Optional bool
	Nullable bool
	Checks   []Check
}

// Lookup reports the submitted value of a field. present=false means the
// field was not submitted at all; value=nil means it was submitted as null.
type Lookup func(field string) (value *string, present bool)

// Schema is an ordered constraint table.
type Schema []Rule

// Rule returns the rule for field.
func (s Schema) Rule(field string) (Rule, bool) {
	for _, r := range s {
		if r.Field == field {
			return r, true
		}
	}
	return Rule{}, false
}

// Fields lists the declared fields in table order.
func (s Schema) Fields() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.Field
	}
	return out
}

// Validate evaluates every rule against lookup. Fields without a rule are
// ignored. The result is empty when all rules pass.
func (s Schema) Validate(lookup Lookup) Violations {
	v := make(Violations)
	for _, r := range s {
		value, present := lookup(r.Field)
		switch {
		case !present:
			if !r.Optional {
				v[r.Field] = CodeRequired
			}
		case value == nil:
			if !r.Nullable {
				v[r.Field] = CodeNotNullable
			}
		default:
			for _, check := range r.Checks {
				if code := check(*value); code != "" {
					v[r.Field] = code
					break
				}
			}
		}
	}
	return v
}
