package validate

import (
	"fmt"
	"reflect"
	"strings"
)

// requiredTag is the struct tag marking fields the completeness rule checks.
const requiredTag = "punch"

// requiredFieldFailures runs the required-field completeness rule: every
// struct field tagged `punch:"required"` whose value is its type's zero
// sentinel yields one failure message. The second return reports whether the
// rule applied to the value at all (it only applies to struct instances).
func requiredFieldFailures(value any) ([]string, bool) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	var messages []string
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !isRequiredField(field) {
			continue
		}
		if rv.Field(i).IsZero() {
			messages = append(messages, fmt.Sprintf("Field %s is required but not set.", field.Name))
		}
	}
	return messages, true
}

// isRequiredField reports whether the field carries the required marker as
// the first tag token.
func isRequiredField(field reflect.StructField) bool {
	tag, ok := field.Tag.Lookup(requiredTag)
	if !ok {
		return false
	}
	token, _, _ := strings.Cut(tag, ",")
	return strings.TrimSpace(token) == "required"
}
