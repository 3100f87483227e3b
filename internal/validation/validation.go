package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"storefront/internal/apperr"

	"github.com/go-playground/validator/v10"
)

// ProductForm is the raw product input as received from a form or JSON body.
// Validation runs over the trimmed values; escaping is applied afterwards.
type ProductForm struct {
	Name          string `json:"name" form:"name" validate:"min=2"`
	Description   string `json:"description" form:"description" validate:"min=10"`
	Category      string `json:"category" form:"category" validate:"min=1"`
	Price         string `json:"price" form:"price" validate:"min=1,numeric"`
	NumberInStock string `json:"numberInStock" form:"numberInStock" validate:"min=1,numeric"`
	Version       string `json:"version" form:"version" validate:"omitempty,number"`
}

// Product is a sanitized ProductForm.
type Product struct {
	Name          string
	Description   string
	Category      string
	Price         float64
	NumberInStock float64
	Version       int
}

// CategoryForm is the raw input of a category.
type CategoryForm struct {
	Name string `json:"name" form:"name" validate:"required"`
}

// Validator runs the field rules of product and category input.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator reporting field names by their form tag.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Product trims every field, validates all of them and, if every rule holds,
// returns the escaped record with numeric fields parsed. Otherwise it returns
// the ordered list of field errors.
func (val *Validator) Product(form ProductForm) (Product, []apperr.FieldError) {
	trimmed := ProductForm{
		Name:          strings.TrimSpace(form.Name),
		Description:   strings.TrimSpace(form.Description),
		Category:      strings.TrimSpace(form.Category),
		Price:         strings.TrimSpace(form.Price),
		NumberInStock: strings.TrimSpace(form.NumberInStock),
		Version:       strings.TrimSpace(form.Version),
	}

	if errs := val.check(trimmed); len(errs) > 0 {
		return Product{}, errs
	}

	price, err := strconv.ParseFloat(trimmed.Price, 64)
	if err != nil {
		return Product{}, []apperr.FieldError{{Field: "price", Message: "Must be Numeric"}}
	}
	stock, err := strconv.ParseFloat(trimmed.NumberInStock, 64)
	if err != nil {
		return Product{}, []apperr.FieldError{{Field: "numberInStock", Message: "Must be Numeric"}}
	}
	var version int
	if trimmed.Version != "" {
		version, err = strconv.Atoi(trimmed.Version)
		if err != nil {
			return Product{}, []apperr.FieldError{{Field: "version", Message: "Must be a whole number"}}
		}
	}

	return Product{
		Name:          Escape(trimmed.Name),
		Description:   Escape(trimmed.Description),
		Category:      Escape(trimmed.Category),
		Price:         price,
		NumberInStock: stock,
		Version:       version,
	}, nil
}

// Category validates and sanitizes a category name.
func (val *Validator) Category(form CategoryForm) (string, []apperr.FieldError) {
	trimmed := CategoryForm{Name: strings.TrimSpace(form.Name)}
	if errs := val.check(trimmed); len(errs) > 0 {
		return "", errs
	}
	return Escape(trimmed.Name), nil
}

// Struct validates s with its validate tags and returns the translated errors.
func (val *Validator) Struct(s any) []apperr.FieldError {
	return val.check(s)
}

func (val *Validator) check(s any) []apperr.FieldError {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperr.FieldError{{Field: "", Message: err.Error()}}
	}

	out := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperr.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		switch fe.Field() {
		case "name", "description":
			return fmt.Sprintf("Must be at least %s letters", fe.Param())
		case "price", "numberInStock":
			return fmt.Sprintf("Must be at least %s number", fe.Param())
		case "category":
			return "This field is required"
		}
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "numeric":
		return "Must be Numeric"
	case "number":
		return "Must be a whole number"
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	default:
		return "Is invalid"
	}
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#x27;",
	"<", "&lt;",
	">", "&gt;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"`", "&#96;",
)

// Escape replaces markup-significant characters with HTML entities.
func Escape(s string) string {
	return escaper.Replace(s)
}
