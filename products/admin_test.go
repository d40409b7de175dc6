package products

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"kirana/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestParseProductFormSimple(t *testing.T) {
	body, ctype := buildForm(t, map[string]string{
		"name":        "Binh Nuoc Inox",
		"category_id": "c1",
		"price":       "120000",
		"stock":       "25",
		"sku":         "BN-01",
	})
	r := httptest.NewRequest("POST", "/api/admin/products", body)
	r.Header.Set("Content-Type", ctype)

	p, msg, err := parseProductForm(r, nil)
	require.NoError(t, err, msg)

	assert.Equal(t, "Binh Nuoc Inox", p.Name)
	assert.Equal(t, "c1", p.CategoryID)
	require.NotNil(t, p.Price)
	assert.EqualValues(t, 120000, *p.Price)
	assert.Equal(t, 25, p.Stock)
	assert.False(t, p.HasVariants)
	assert.Empty(t, p.Variants)
}

func TestParseProductFormVariants(t *testing.T) {
	body, ctype := buildForm(t, map[string]string{
		"name":         "Ao Thun Co Tron",
		"category_id":  "c1",
		"has_variants": "true",
		"variants": `[{
			"color": "Đen", "color_code": "#000",
			"sizes": [
				{"size": "M", "price": 150000, "stock": 10},
				{"size": "L", "price": 160000, "stock": 5}
			]
		}]`,
	})
	r := httptest.NewRequest("POST", "/api/admin/products", body)
	r.Header.Set("Content-Type", ctype)

	p, msg, err := parseProductForm(r, nil)
	require.NoError(t, err, msg)

	assert.True(t, p.HasVariants)
	assert.Nil(t, p.Price)
	require.Len(t, p.Variants, 1)

	v := p.Variants[0]
	assert.Equal(t, "Đen", v.Color)
	assert.NotEmpty(t, v.VariantID)
	require.Len(t, v.Sizes, 2)
	assert.EqualValues(t, 150000, v.Sizes[0].Price)
	assert.Equal(t, 5, v.Sizes[1].Stock)
}

func TestParseProductFormRejections(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
	}{
		{"short name", map[string]string{"name": "ab", "category_id": "c1", "price": "1000"}},
		{"missing category", map[string]string{"name": "Valid Name", "price": "1000"}},
		{"missing price", map[string]string{"name": "Valid Name", "category_id": "c1"}},
		{"negative price", map[string]string{"name": "Valid Name", "category_id": "c1", "price": "-5"}},
		{"negative stock", map[string]string{"name": "Valid Name", "category_id": "c1", "price": "1000", "stock": "-1"}},
		{"variants without sizes", map[string]string{
			"name": "Valid Name", "category_id": "c1", "has_variants": "true",
			"variants": `[{"color": "Red", "sizes": []}]`,
		}},
		{"variants bad json", map[string]string{
			"name": "Valid Name", "category_id": "c1", "has_variants": "true",
			"variants": `{not json`,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ctype := buildForm(t, tc.fields)
			r := httptest.NewRequest("POST", "/api/admin/products", body)
			r.Header.Set("Content-Type", ctype)

			_, msg, err := parseProductForm(r, nil)
			assert.Error(t, err)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestParseProductFormUpdateKeepsVariantImages(t *testing.T) {
	existing := &models.Product{
		Name:        "Ao Thun Co Tron",
		CategoryID:  "c1",
		HasVariants: true,
		Variants: []models.Variant{{
			VariantID: "v1",
			Color:     "Đen",
			Images:    []string{"/static/uploads/den.jpg"},
			Sizes:     []models.VariantSize{{Size: "M", Price: 150000, Stock: 10}},
		}},
	}

	body, ctype := buildForm(t, map[string]string{
		"has_variants": "true",
		"variants": `[{
			"variantId": "v1", "color": "Đen",
			"sizes": [{"size": "M", "price": 155000, "stock": 8}]
		}]`,
	})
	r := httptest.NewRequest("PUT", "/api/admin/products/p1", body)
	r.Header.Set("Content-Type", ctype)

	p, msg, err := parseProductForm(r, existing)
	require.NoError(t, err, msg)

	require.Len(t, p.Variants, 1)
	assert.Equal(t, []string{"/static/uploads/den.jpg"}, p.Variants[0].Images)
	assert.EqualValues(t, 155000, p.Variants[0].Sizes[0].Price)
}
