package validation_test

import (
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() validation.ProductForm {
	return validation.ProductForm{
		Name:          "TV",
		Description:   "A nice large television",
		Category:      "c1",
		Price:         "299",
		NumberInStock: "5",
	}
}

func TestProduct_Valid(t *testing.T) {
	v := validation.New()

	product, errs := v.Product(validForm())
	require.Empty(t, errs)
	assert.Equal(t, validation.Product{
		Name:          "TV",
		Description:   "A nice large television",
		Category:      "c1",
		Price:         299,
		NumberInStock: 5,
	}, product)
}

func TestProduct_TrimsBeforeMeasuringAndEscapesAfter(t *testing.T) {
	v := validation.New()

	form := validForm()
	form.Name = "   <b>   "
	form.Description = "  Fish & Chips \"deluxe\"  "
	form.Price = " 12.50 "

	product, errs := v.Product(form)
	require.Empty(t, errs)
	assert.Equal(t, "&lt;b&gt;", product.Name)
	assert.Equal(t, "Fish &amp; Chips &quot;deluxe&quot;", product.Description)
	assert.Equal(t, 12.5, product.Price)
}

func TestProduct_NameTooShortAfterTrim(t *testing.T) {
	v := validation.New()

	form := validForm()
	form.Name = " A "

	_, errs := v.Product(form)
	assert.Equal(t, []apperr.FieldError{{Field: "name", Message: "Must be at least 2 letters"}}, errs)
}

func TestProduct_CollectsEveryFieldError(t *testing.T) {
	v := validation.New()

	_, errs := v.Product(validation.ProductForm{
		Name:          "A",
		Description:   "short",
		Category:      "   ",
		Price:         "abc",
		NumberInStock: "",
	})

	assert.Equal(t, []apperr.FieldError{
		{Field: "name", Message: "Must be at least 2 letters"},
		{Field: "description", Message: "Must be at least 10 letters"},
		{Field: "category", Message: "This field is required"},
		{Field: "price", Message: "Must be Numeric"},
		{Field: "numberInStock", Message: "Must be at least 1 number"},
	}, errs)
}

func TestProduct_NumericRules(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name    string
		price   string
		wantErr bool
	}{
		{"integer", "10", false},
		{"decimal", "10.25", false},
		{"signed", "-3", false},
		{"letters", "ten", true},
		{"trailing dot", "10.", true},
		{"comma", "1,000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			form.Price = tt.price
			_, errs := v.Product(form)
			if tt.wantErr {
				assert.Equal(t, []apperr.FieldError{{Field: "price", Message: "Must be Numeric"}}, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestProduct_Version(t *testing.T) {
	v := validation.New()

	form := validForm()
	form.Version = "3"
	product, errs := v.Product(form)
	require.Empty(t, errs)
	assert.Equal(t, 3, product.Version)

	form.Version = "3.5"
	_, errs = v.Product(form)
	assert.Equal(t, []apperr.FieldError{{Field: "version", Message: "Must be a whole number"}}, errs)
}

func TestCategory(t *testing.T) {
	v := validation.New()

	name, errs := v.Category(validation.CategoryForm{Name: "  TVs & Audio "})
	require.Empty(t, errs)
	assert.Equal(t, "TVs &amp; Audio", name)

	_, errs = v.Category(validation.CategoryForm{Name: "  "})
	assert.Equal(t, []apperr.FieldError{{Field: "name", Message: "This field is required"}}, errs)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;a href=&quot;x&#x2F;y&quot;&gt;&#x27;&#96;&#x5C;", validation.Escape(`<a href="x/y">'`+"`"+`\`))
	assert.Equal(t, "plain text", validation.Escape("plain text"))
}
