package models

import "time"

// Product carries exactly one active pricing mode. When HasVariants is false
// the flat Price/Stock pair is authoritative; when true, pricing and stock
// live on the per-variant size entries and the flat fields are ignored.
// Prices are integer VND.
type Product struct {
	ProductID   string    `json:"productId" bson:"productid"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug" bson:"slug"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CategoryID  string    `json:"category_id" bson:"category_id"`
	Price       *int64    `json:"price,omitempty" bson:"price,omitempty"`
	Stock       int       `json:"stock" bson:"stock"`
	SKU         string    `json:"sku,omitempty" bson:"sku,omitempty"`
	HasVariants bool      `json:"has_variants" bson:"has_variants"`
	Variants    []Variant `json:"variants,omitempty" bson:"variants,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Images      []string  `json:"images,omitempty" bson:"images,omitempty"`
	IsActive    bool      `json:"is_active" bson:"is_active"`
	TotalSold   int       `json:"total_sold" bson:"total_sold"`
	Rating      Rating    `json:"rating" bson:"rating"`
	Views       int64     `json:"views" bson:"views"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Variant groups the sizes of one color of a product.
type Variant struct {
	VariantID string        `json:"variantId" bson:"variantid"`
	Color     string        `json:"color" bson:"color"`
	ColorCode string        `json:"color_code,omitempty" bson:"color_code,omitempty"`
	Images    []string      `json:"images,omitempty" bson:"images,omitempty"`
	Sizes     []VariantSize `json:"sizes" bson:"sizes"`
}

// VariantSize is the leaf stock-keeping unit.
type VariantSize struct {
	Size  string `json:"size" bson:"size"`
	Price int64  `json:"price" bson:"price"`
	Stock int    `json:"stock" bson:"stock"`
	SKU   string `json:"sku,omitempty" bson:"sku,omitempty"`
}

type Rating struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}

// Variant returns the variant with the given id, or nil.
func (p *Product) Variant(variantID string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].VariantID == variantID {
			return &p.Variants[i]
		}
	}
	return nil
}

// Size returns the size entry with the given label, or nil.
func (v *Variant) Size(label string) *VariantSize {
	for i := range v.Sizes {
		if v.Sizes[i].Size == label {
			return &v.Sizes[i]
		}
	}
	return nil
}

// Image is the listing image for the variant, falling back to the product
// thumbnail when the variant has no images of its own.
func (v *Variant) Image(p *Product) string {
	if len(v.Images) > 0 {
		return v.Images[0]
	}
	return p.ListingImage()
}

func (p *Product) ListingImage() string {
	if p.Thumbnail != "" {
		return p.Thumbnail
	}
	return "/static/uploads/default-product.jpg"
}
