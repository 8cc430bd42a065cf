package csvimport

import (
	"fmt"
	"net/mail"
	"unicode/utf8"
)

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column     string
	Required   bool
	Email      bool
	MaxLength  int
	CustomFunc func(value string) error
}

// FieldRuleBuilder helps build field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field creates a new field rule builder
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{Column: column}}
}

// Required marks the field as required
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// Email requires a valid address when the field is set
func (b *FieldRuleBuilder) Email() *FieldRuleBuilder {
	b.rule.Email = true
	return b
}

// MaxLength bounds the number of characters
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Custom adds a validation function
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator applies rules to rows and records failures in an ErrorCollection
type FieldValidator struct {
	rules  []FieldRule
	errors *ErrorCollection
}

// NewFieldValidator creates a new field validator. Rules run in the given order.
func NewFieldValidator(rules []FieldRule, errs *ErrorCollection) *FieldValidator {
	return &FieldValidator{rules: rules, errors: errs}
}

// ValidateRow validates all fields in a row and reports whether it passed
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		if value == "" {
			if rule.Required {
				v.errors.Add(NewRowError(row.LineNumber, rule.Column, ErrCodeImportRequiredField,
					fmt.Sprintf("field '%s' is required", rule.Column)))
				ok = false
			}
			continue
		}
		if rule.MaxLength > 0 && utf8.RuneCountInString(value) > rule.MaxLength {
			v.errors.Add(NewRowError(row.LineNumber, rule.Column, ErrCodeImportInvalidLength,
				fmt.Sprintf("length must be at most %d", rule.MaxLength)))
			ok = false
			continue
		}
		if rule.Email {
			if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
				err := NewRowError(row.LineNumber, rule.Column, ErrCodeImportInvalidFormat, "invalid format, expected email")
				err.Value = value
				v.errors.Add(err)
				ok = false
				continue
			}
		}
		if rule.CustomFunc != nil {
			if err := rule.CustomFunc(value); err != nil {
				re := NewRowError(row.LineNumber, rule.Column, ErrCodeImportValidation, err.Error())
				re.Value = value
				v.errors.Add(re)
				ok = false
			}
		}
	}
	return ok
}
