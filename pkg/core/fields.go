package core

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ControlKind identifies how a resolved form control is operated.
type ControlKind int

// ControlKind values
const (
	ControlText     ControlKind = iota // free-text input or textarea
	ControlRadio                       // single choice within a group
	ControlCheckbox                    // independently checkable option
	ControlSelect                      // native dropdown
	ControlDate                        // composite day/month/year group
)

func (k ControlKind) String() string {
	switch k {
	case ControlText:
		return "text"
	case ControlRadio:
		return "radio"
	case ControlCheckbox:
		return "checkbox"
	case ControlSelect:
		return "select"
	case ControlDate:
		return "date"
	default:
		return "unknown"
	}
}

// Control is a resolved form control: a concrete selector plus how to
// operate it. Produced by label resolution, consumed by fill dispatch.
type Control struct {
	Selector string
	Kind     ControlKind
	Label    string
}

// DateParts holds a date split the way multi-input date groups expect it.
type DateParts struct {
	Day   int `yaml:"day"`
	Month int `yaml:"month"`
	Year  int `yaml:"year"`
}

// String renders the combined single-input form, e.g. "4/5/1988".
func (d DateParts) String() string {
	return fmt.Sprintf("%d/%d/%d", d.Day, d.Month, d.Year)
}

// ParseDateParts parses "4/5/1988" or "4 5 1988" into date parts.
// The second return is false when the string is not in either form.
func ParseDateParts(s string) (DateParts, bool) {
	var parts []string
	if strings.Contains(s, "/") {
		parts = strings.Split(strings.TrimSpace(s), "/")
	} else {
		parts = strings.Fields(s)
	}
	if len(parts) != 3 {
		return DateParts{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return DateParts{}, false
		}
		nums[i] = n
	}
	return DateParts{Day: nums[0], Month: nums[1], Year: nums[2]}, true
}

// FieldValue is the value side of a fill instruction: a scalar string,
// a list of options to check, or date parts.
// Pure data structure - the runner decides how to apply it.
type FieldValue struct {
	Text    string
	Options []string
	Date    *DateParts
}

// Text returns a scalar field value.
func Text(s string) FieldValue {
	return FieldValue{Text: s}
}

// Options returns a multi-option field value (checkbox group).
func Options(opts ...string) FieldValue {
	return FieldValue{Options: opts}
}

// Date returns a composite date field value.
func Date(day, month, year int) FieldValue {
	return FieldValue{Date: &DateParts{Day: day, Month: month, Year: year}}
}

// IsOptions reports whether the value names multiple options to check.
func (v FieldValue) IsOptions() bool {
	return len(v.Options) > 0
}

// AsDate coerces the value to date parts: either the explicit date form
// or a scalar that parses as one. The second return is false otherwise.
func (v FieldValue) AsDate() (DateParts, bool) {
	if v.Date != nil {
		return *v.Date, true
	}
	return ParseDateParts(v.Text)
}

// UnmarshalYAML allows FieldValue to be unmarshaled from a scalar, a
// sequence of option names, or a day/month/year mapping.
func (v *FieldValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v.Text = node.Value
		return nil
	case yaml.SequenceNode:
		return node.Decode(&v.Options)
	case yaml.MappingNode:
		var d DateParts
		if err := node.Decode(&d); err != nil {
			return err
		}
		v.Date = &d
		return nil
	default:
		return fmt.Errorf("field value must be a scalar, sequence, or day/month/year mapping")
	}
}

// Describe returns a human-readable description for logs.
func (v FieldValue) Describe() string {
	switch {
	case v.IsOptions():
		return strings.Join(v.Options, ", ")
	case v.Date != nil:
		return v.Date.String()
	default:
		return v.Text
	}
}
