package domain

import "time"

type SelectionType string

const (
	SelectionSingle SelectionType = "single"
	SelectionMulti  SelectionType = "multi"
)

// Product prices are integers in the smallest currency unit (rupiah).
type Product struct {
	ID            int64           `bson:"_id" json:"id"`
	Name          string          `bson:"name" json:"name"`
	Price         int64           `bson:"price" json:"price"`
	Category      string          `bson:"category" json:"category"`
	Description   string          `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL      string          `bson:"image_url,omitempty" json:"image_url,omitempty"`
	IsAvailable   bool            `bson:"is_available" json:"is_available"`
	IsBundle      bool            `bson:"is_bundle" json:"is_bundle"`
	IsRecommended bool            `bson:"is_recommended" json:"is_recommended"`
	BundleItems   []BundleItem    `bson:"bundle_items,omitempty" json:"bundle_items,omitempty"`
	Modifiers     []ModifierGroup `bson:"modifiers,omitempty" json:"modifiers,omitempty"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updated_at"`
}

type BundleItem struct {
	ChildProductID int64 `bson:"child_product_id" json:"child_product_id"`
	Quantity       int   `bson:"quantity" json:"quantity"`
}

type ModifierGroup struct {
	ID            string           `bson:"id" json:"id"`
	Name          string           `bson:"name" json:"name"`
	IsRequired    bool             `bson:"is_required" json:"is_required"`
	SelectionType SelectionType    `bson:"type" json:"type"`
	Options       []ModifierOption `bson:"options" json:"options"`
}

type ModifierOption struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Price int64  `bson:"price" json:"price"`
}

func (p *Product) ModifierGroup(id string) (ModifierGroup, bool) {
	for _, g := range p.Modifiers {
		if g.ID == id {
			return g, true
		}
	}
	return ModifierGroup{}, false
}

func (g ModifierGroup) Option(id string) (ModifierOption, bool) {
	for _, o := range g.Options {
		if o.ID == id {
			return o, true
		}
	}
	return ModifierOption{}, false
}

type ProductFilter struct {
	Category      string
	AvailableOnly bool
	BundlesOnly   bool
}
