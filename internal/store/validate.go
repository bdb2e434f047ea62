package store

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/eleven-am/pantry/internal/orm"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})

	return v
}

// validationError converts validator failures into orm.ValidationErrors.
func validationError(op, table string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return orm.Invalid(op, table, orm.ValidationError{Field: "input", Message: err.Error()})
	}

	out := make([]orm.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, orm.ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Message: describe(fe),
		})
	}
	return orm.Invalid(op, table, out...)
}

// fieldPath drops the struct name from "NewRecipe.ingredients[0].name".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "slug":
		return "must be lowercase words separated by hyphens"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gt", "gte", "lt", "lte", "min", "max":
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	case "gtefield":
		return fmt.Sprintf("must not be before %s", fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
