package resource

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/simp-lee/tourbase/internal/domain"
)

// Kind is the declared type of a descriptor field. Incoming values are cast
// to it before validation; a value that cannot be cast is a validation
// failure, not a server fault.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInt
	KindBool
	KindTime
	KindObjectID
	KindStringSlice
	KindTimeSlice
)

// FieldRule declares the constraints of one document field. Rules are plain
// data evaluated by Descriptor.Validate; there is no reflection or tag
// parsing involved.
type FieldRule struct {
	Name     string
	Kind     Kind
	Required bool
	// MinLen/MaxLen apply to KindString (rune count). Zero means unset.
	MinLen int
	MaxLen int
	// Min/Max apply to KindNumber and KindInt. Nil means unset.
	Min *float64
	Max *float64
	// Enum restricts KindString values to the listed set.
	Enum []string
	// Trim removes surrounding whitespace before validation.
	Trim bool
}

// CrossRule validates across fields of the whole candidate document.
// It returns a violation message, or "" when the document passes.
type CrossRule struct {
	Name  string
	Check func(doc bson.M) string
}

// Populate declares one relation expansion: the referenced document is
// joined in under As, projected down to Project.
type Populate struct {
	LocalField string
	From       string
	As         string
	Project    bson.D
	// Single unwinds the joined array into a single embedded document.
	Single bool
}

// Descriptor is the static metadata of a domain resource: its collection,
// field constraints, defaults, unique fields, and relation expansions. It
// parameterizes the generic handler.
type Descriptor struct {
	Name       string
	Collection string
	Rules      []FieldRule
	CrossRules []CrossRule
	// Defaults are applied on create for absent fields.
	Defaults map[string]any
	// UniqueFields is enforced by the collaborator's unique indexes; a
	// violation surfaces as a duplicate-key error.
	UniqueFields []string
	Populates    []Populate
}

// Violation is one failed constraint.
type Violation struct {
	Field   string
	Message string
}

// CastAndValidate casts the fields of patch in place according to the
// declared kinds, then validates the full candidate document. For creates,
// patch and candidate are the same map; for updates, candidate is the stored
// document with patch merged in so that cross-field and required rules see
// the whole record. Unknown fields in patch are dropped.
func (d *Descriptor) CastAndValidate(patch, candidate bson.M) error {
	var violations []Violation

	rulesByName := make(map[string]FieldRule, len(d.Rules))
	for _, rule := range d.Rules {
		rulesByName[rule.Name] = rule
	}
	for key := range patch {
		if _, ok := rulesByName[key]; !ok {
			delete(patch, key)
			delete(candidate, key)
		}
	}

	for _, rule := range d.Rules {
		if raw, ok := patch[rule.Name]; ok {
			cast, err := castValue(rule, raw)
			if err != nil {
				violations = append(violations, Violation{Field: rule.Name, Message: err.Error()})
				continue
			}
			patch[rule.Name] = cast
			candidate[rule.Name] = cast
		}

		if v := checkRule(rule, candidate); v != nil {
			violations = append(violations, *v)
		}
	}

	for _, cross := range d.CrossRules {
		if msg := cross.Check(candidate); msg != "" {
			violations = append(violations, Violation{Field: cross.Name, Message: msg})
		}
	}

	if len(violations) > 0 {
		return violationError(violations)
	}
	return nil
}

// ApplyDefaults fills in default values for fields absent from doc.
func (d *Descriptor) ApplyDefaults(doc bson.M) {
	for field, value := range d.Defaults {
		if _, ok := doc[field]; !ok {
			doc[field] = value
		}
	}
}

func checkRule(rule FieldRule, doc bson.M) *Violation {
	value, present := doc[rule.Name]
	if !present || value == nil {
		if rule.Required {
			return &Violation{Field: rule.Name, Message: fmt.Sprintf("%s is required", rule.Name)}
		}
		return nil
	}

	switch rule.Kind {
	case KindString:
		s, _ := value.(string)
		if rule.Required && s == "" {
			return &Violation{Field: rule.Name, Message: fmt.Sprintf("%s is required", rule.Name)}
		}
		if rule.MinLen > 0 && len([]rune(s)) < rule.MinLen {
			return &Violation{Field: rule.Name, Message: fmt.Sprintf("%s must have at least %d characters", rule.Name, rule.MinLen)}
		}
		if rule.MaxLen > 0 && len([]rune(s)) > rule.MaxLen {
			return &Violation{Field: rule.Name, Message: fmt.Sprintf("%s must have at most %d characters", rule.Name, rule.MaxLen)}
		}
		if len(rule.Enum) > 0 && !contains(rule.Enum, s) {
			return &Violation{Field: rule.Name, Message: fmt.Sprintf("%s must be one of: %s", rule.Name, strings.Join(rule.Enum, ", "))}
		}
	case KindNumber, KindInt:
		n, ok := toFloat(value)
		if !ok {
			return &Violation{Field: rule.Name, Message: fmt.Sprintf("%s must be a number", rule.Name)}
		}
		if rule.Min != nil && n < *rule.Min {
			return &Violation{Field: rule.Name, Message: fmt.Sprintf("%s must be at least %v", rule.Name, *rule.Min)}
		}
		if rule.Max != nil && n > *rule.Max {
			return &Violation{Field: rule.Name, Message: fmt.Sprintf("%s must be at most %v", rule.Name, *rule.Max)}
		}
	}
	return nil
}

// castValue converts a JSON-decoded value into the field's declared kind.
func castValue(rule FieldRule, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch rule.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", rule.Name)
		}
		if rule.Trim {
			s = strings.TrimSpace(s)
		}
		return s, nil
	case KindNumber:
		n, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("%s must be a number", rule.Name)
		}
		return n, nil
	case KindInt:
		n, ok := toFloat(value)
		if !ok || n != float64(int64(n)) {
			return nil, fmt.Errorf("%s must be an integer", rule.Name)
		}
		return int64(n), nil
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%s must be a boolean", rule.Name)
		}
		return b, nil
	case KindTime:
		return castTime(rule.Name, value)
	case KindObjectID:
		switch v := value.(type) {
		case primitive.ObjectID:
			return v, nil
		case string:
			id, err := primitive.ObjectIDFromHex(v)
			if err != nil {
				return nil, fmt.Errorf("%s must be a valid identifier", rule.Name)
			}
			return id, nil
		default:
			return nil, fmt.Errorf("%s must be a valid identifier", rule.Name)
		}
	case KindStringSlice:
		return castSlice(rule.Name, value, func(item any) (any, error) {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must contain only strings", rule.Name)
			}
			return s, nil
		})
	case KindTimeSlice:
		return castSlice(rule.Name, value, func(item any) (any, error) {
			return castTime(rule.Name, item)
		})
	}
	return value, nil
}

func castTime(field string, value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case primitive.DateTime:
		return v.Time(), nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			// Date-only form, common in request bodies.
			t, err = time.Parse("2006-01-02", v)
		}
		if err != nil {
			return nil, fmt.Errorf("%s must be a valid date", field)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%s must be a valid date", field)
	}
}

func castSlice(field string, value any, castItem func(any) (any, error)) (any, error) {
	items, ok := value.([]any)
	if !ok {
		// Already-typed slices pass through (e.g. seeded documents).
		return value, nil
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		cast, err := castItem(item)
		if err != nil {
			return nil, err
		}
		out = append(out, cast)
	}
	return out, nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// violationError folds the violation list into a single validation error,
// mirroring the collaborator's multi-field validation failures.
func violationError(violations []Violation) error {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
	}
	return domain.NewAppError(domain.CodeValidation, "invalid input data: "+strings.Join(msgs, ". "), nil)
}
