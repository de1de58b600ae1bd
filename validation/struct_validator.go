package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/canvasflow/errors"
)

// shared is built once; the validator caches struct metadata internally.
var shared = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return v
})

// jsonName reports fields by their json key so messages match the request
// body. Untagged fields fall back to snake_case.
func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return snakeCase(f.Name)
	}
	return name
}

// RegisterValidation adds a string rule usable as a `validate` tag.
func RegisterValidation(tag string, fn func(value string) bool) error {
	return shared().RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
}

// ValidateStruct checks s against its `validate` tags and returns one
// INVALID_INPUT AppError listing every failing field.
func ValidateStruct(s any) error {
	err := shared().Struct(s)
	if err == nil {
		return nil
	}
	var failures validator.ValidationErrors
	if !stderrors.As(err, &failures) {
		return errors.Validation("validation failed")
	}
	v := New()
	for _, f := range failures {
		v.AddError(fieldPath(f), describe(f))
	}
	return v.Validate()
}

// fieldPath drops the root struct: "executeRequest.nodes[0].id" becomes
// "nodes[0].id".
func fieldPath(f validator.FieldError) string {
	if _, rest, ok := strings.Cut(f.Namespace(), "."); ok {
		return rest
	}
	return f.Field()
}

var tagMessages = map[string]string{
	"required": "is required",
	"url":      "must be a valid URL",
	"uuid":     "must be a valid UUID",
}

func describe(f validator.FieldError) string {
	if msg, ok := tagMessages[f.Tag()]; ok {
		return msg
	}
	unit := ""
	if f.Kind() == reflect.String {
		unit = " characters"
	}
	switch f.Tag() {
	case "min":
		return "must be at least " + f.Param() + unit
	case "max":
		return "must be at most " + f.Param() + unit
	case "oneof":
		return "must be one of: " + f.Param()
	}
	return "is invalid"
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
