// Package catalog holds the composition rules for products, bundles and modifier groups.
package catalog

import (
	"fmt"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

// Validate checks a product definition before it is stored or imported.
func Validate(p domain.Product) error {
	if p.ID <= 0 {
		return invalid("id", "product id must be positive")
	}
	if p.Name == "" {
		return invalid("name", "product name is required")
	}
	if p.Price < 0 {
		return invalid("price", "price cannot be negative")
	}

	groupIDs := make(map[string]struct{}, len(p.Modifiers))
	for _, g := range p.Modifiers {
		if g.ID == "" {
			return invalid("modifiers", "modifier group id is required")
		}
		if _, dup := groupIDs[g.ID]; dup {
			return invalid("modifiers", fmt.Sprintf("duplicate modifier group %q", g.ID))
		}
		groupIDs[g.ID] = struct{}{}

		if g.SelectionType != domain.SelectionSingle && g.SelectionType != domain.SelectionMulti {
			return invalid("modifiers", fmt.Sprintf("group %q has unknown selection type %q", g.ID, g.SelectionType))
		}
		if g.IsRequired && len(g.Options) == 0 {
			return invalid("modifiers", fmt.Sprintf("required group %q has no options", g.ID))
		}

		optionIDs := make(map[string]struct{}, len(g.Options))
		for _, o := range g.Options {
			if o.ID == "" {
				return invalid("modifiers", fmt.Sprintf("group %q has an option without id", g.ID))
			}
			if _, dup := optionIDs[o.ID]; dup {
				return invalid("modifiers", fmt.Sprintf("group %q has duplicate option %q", g.ID, o.ID))
			}
			optionIDs[o.ID] = struct{}{}
			if o.Price < 0 {
				return invalid("modifiers", fmt.Sprintf("option %q has a negative price", o.ID))
			}
		}
	}

	if p.IsBundle {
		if len(p.BundleItems) == 0 {
			return invalid("bundle_items", "bundle must contain at least one item")
		}
		for _, item := range p.BundleItems {
			if item.ChildProductID == p.ID {
				return invalid("bundle_items", "bundle cannot contain itself")
			}
			if item.Quantity < 1 {
				return invalid("bundle_items", fmt.Sprintf("bundle item %d has quantity %d", item.ChildProductID, item.Quantity))
			}
		}
	} else if len(p.BundleItems) > 0 {
		return invalid("bundle_items", "only bundles can list bundle items")
	}

	return nil
}

// ValidateBundle checks bundle items against the resolved child products.
func ValidateBundle(bundle domain.Product, children map[int64]domain.Product) error {
	if err := Validate(bundle); err != nil {
		return err
	}
	for _, item := range bundle.BundleItems {
		child, ok := children[item.ChildProductID]
		if !ok {
			return invalid("bundle_items", fmt.Sprintf("bundle item %d does not exist", item.ChildProductID))
		}
		if child.IsBundle {
			return invalid("bundle_items", fmt.Sprintf("bundle item %d is itself a bundle", item.ChildProductID))
		}
	}
	return nil
}

// BundleOriginalPrice is what the bundle contents would cost bought separately.
// Children missing from the map contribute nothing.
func BundleOriginalPrice(bundle domain.Product, children map[int64]domain.Product) int64 {
	var total int64
	for _, item := range bundle.BundleItems {
		if child, ok := children[item.ChildProductID]; ok {
			total += child.Price * int64(item.Quantity)
		}
	}
	return total
}

func BundleSavings(bundle domain.Product, children map[int64]domain.Product) int64 {
	savings := BundleOriginalPrice(bundle, children) - bundle.Price
	if savings < 0 {
		return 0
	}
	return savings
}

func invalid(field, msg string) error {
	return domain.NewValidationError(domain.ValidationInvalidProduct, field, msg)
}
