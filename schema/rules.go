package schema

import (
	"strings"

	"github.com/aachurin/sqldantic/utils"
)

// boundSettings map sqld settings straight onto validator tags.
var boundSettings = []struct{ key, tag string }{
	{"GT", "gt"},
	{"GTE", "gte"},
	{"LT", "lt"},
	{"LTE", "lte"},
	{"MIN", "min"},
	{"MAX", "max"},
	{"LEN", "len"},
}

// buildValidationRule assembles the go-playground/validator rule string
// for the field. Explicit required wins; otherwise RequireByDefault marks
// every field that has no other way to get a value.
func (field *Field) buildValidationRule() {
	var rules []string

	if val, ok := field.TagSettings["REQUIRED"]; ok {
		if utils.CheckTruth(val) {
			rules = append(rules, "required")
		}
	} else if field.Schema != nil && field.Schema.opts.RequireByDefault && field.requirable() {
		rules = append(rules, "required")
	}

	for _, b := range boundSettings {
		if val, ok := field.TagSettings[b.key]; ok {
			rules = append(rules, b.tag+"="+strings.TrimSpace(val))
		}
	}

	if val, ok := field.TagSettings["ONEOF"]; ok {
		rules = append(rules, "oneof="+strings.Join(toColumns(val), " "))
	} else if field.Kind == KindEnum && len(field.EnumValues) > 0 {
		quoted := make([]string, len(field.EnumValues))
		for i, v := range field.EnumValues {
			if strings.Contains(v, " ") {
				quoted[i] = "'" + v + "'"
			} else {
				quoted[i] = v
			}
		}
		rules = append(rules, "oneof="+strings.Join(quoted, " "))
	}

	if val, ok := field.TagSettings["VALIDATE"]; ok && val != "" {
		rules = append(rules, val)
	}

	field.Rule = strings.Join(rules, ",")
}

// requirable reports whether RequireByDefault applies: a field is exempt
// when something else can supply its value, or when its zero value is a
// legitimate one.
func (field *Field) requirable() bool {
	switch {
	case field.Kind == KindRelation:
		return false
	case field.Nullable:
		return false
	case field.HasDefaultValue || field.DefaultFunc != nil:
		return false
	case field.AutoCreateTime != 0 || field.AutoUpdateTime != 0:
		return false
	case field.DataType == Bool:
		return false
	}
	return true
}

// RefreshRule recomputes the rule after the descriptor is mutated, e.g.
// when a default factory is attached to the field.
func (field *Field) RefreshRule() {
	field.buildValidationRule()
	if field.Schema != nil {
		field.Schema.buildRules()
	}
}

// buildRules collects per-field rules into the schema map, keyed by the
// merged field name so shadowed embedded declarations do not leak in.
func (schema *Schema) buildRules() {
	rules := make(map[string]string, len(schema.FieldsByName))
	for name, field := range schema.FieldsByName {
		if field.Rule != "" {
			rules[name] = field.Rule
		}
	}
	schema.Rules = rules
}
