package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// minint=N: the field is a decimal integer >= N.
	if err := v.RegisterValidation("minint", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		return err == nil && n >= limit
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks payload against the schema of category and returns the
// typed form. Unknown categories are rejected before any field is looked at.
// On failure the error is a *ValidationError naming every failing field.
func Validate(category string, payload json.RawMessage) (Form, error) {
	c, err := ParseCategory(category)
	if err != nil {
		return nil, &ValidationError{
			Fields: []FieldError{{
				Field:   "category",
				Rule:    "oneof",
				Param:   joinCategories(),
				Message: "must be one of: " + joinCategories(),
			}},
			cause: err,
		}
	}

	fields, ok := decodeObject(payload)
	if !ok {
		return nil, &ValidationError{
			Category: c,
			Fields:   []FieldError{{Field: "payload", Rule: "type", Message: "must be a JSON object"}},
		}
	}

	form := schemas[c]()
	violations := assignFields(form, fields)

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate %s payload: %w", c, err)
		}
		for _, fe := range verrs {
			if hasField(violations, fe.Field()) {
				continue
			}
			violations = append(violations, describe(fe))
		}
	}

	if len(violations) > 0 {
		order := fieldOrder(form)
		sort.SliceStable(violations, func(i, j int) bool {
			return order[violations[i].Field] < order[violations[j].Field]
		})
		return nil, &ValidationError{Category: c, Fields: violations}
	}
	return form, nil
}

func decodeObject(payload json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// assignFields decodes each known field on its own so that one badly typed
// value does not hide problems in the others. Unknown keys are ignored.
func assignFields(form Form, fields map[string]json.RawMessage) []FieldError {
	var out []FieldError
	rv := reflect.ValueOf(form).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		name := jsonFieldName(rt.Field(i))
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		if err := json.Unmarshal(raw, rv.Field(i).Addr().Interface()); err != nil {
			out = append(out, FieldError{Field: name, Rule: "type", Message: typeMessage(rt.Field(i).Type)})
		}
	}
	return out
}

var numericStringType = reflect.TypeOf(NumericString(""))

func typeMessage(t reflect.Type) string {
	if t == numericStringType {
		return "must be a string or number"
	}
	return "must be a string"
}

func describe(fe validator.FieldError) FieldError {
	out := FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
	switch fe.Tag() {
	case "required":
		out.Message = "is required"
	case "min":
		out.Message = "must be at least " + fe.Param() + " characters"
	case "notblank":
		out.Message = "must not be blank"
	case "oneof":
		out.Message = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "minint":
		out.Message = "must be a whole number of at least " + fe.Param()
	default:
		out.Message = "failed " + fe.Tag() + " check"
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func fieldOrder(form Form) map[string]int {
	rt := reflect.TypeOf(form).Elem()
	order := make(map[string]int, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		order[jsonFieldName(rt.Field(i))] = i
	}
	return order
}

func hasField(list []FieldError, field string) bool {
	for _, f := range list {
		if f.Field == field {
			return true
		}
	}
	return false
}

func joinCategories() string {
	names := make([]string, 0, len(schemas))
	for _, c := range Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
