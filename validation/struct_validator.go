package validation

import (
	stderrors "errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/previewkit/errors"
)

var dimensionsPattern = regexp.MustCompile(`^[1-9][0-9]*x[1-9][0-9]*$`)

// tagMessages are the messages for tags that take no parameter.
var tagMessages = map[string]string{
	"required":      "is required",
	"url":           "must be a valid URL",
	"dimensions":    `must be in format "<width>x<height>"`,
	"hostname_port": "must be host:port",
}

// structValidator names fields after their mapstructure key, so messages
// point at the config keys the user actually wrote.
var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return toSnakeCase(fld.Name)
		}
		return name
	})
	_ = v.RegisterValidation("dimensions", func(fl validator.FieldLevel) bool {
		return dimensionsPattern.MatchString(fl.Field().String())
	})
	return v
})

// Validate checks s against its validate tags and reports every failing
// field as one INVALID_INPUT error.
func Validate(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.Validation("validation failed").WithCause(err)
	}

	v := New()
	for _, fe := range fieldErrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		v.AddError(path, message(fe))
	}
	return v.Validate()
}

func message(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param() + unit
	case "max":
		return "must be at most " + fe.Param() + unit
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

func toSnakeCase(s string) string {
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
