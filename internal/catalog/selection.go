package catalog

import (
	"fmt"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

// ValidateSelections checks chosen options (group id -> option ids) against the
// product's modifier groups. A single group takes at most one option and a
// required group at least one.
func ValidateSelections(groups []domain.ModifierGroup, selections map[string][]string) error {
	byID := make(map[string]domain.ModifierGroup, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	for groupID, optionIDs := range selections {
		g, ok := byID[groupID]
		if !ok {
			if len(optionIDs) == 0 {
				continue
			}
			return invalidSelection(groupID, "unknown modifier group")
		}
		seen := make(map[string]struct{}, len(optionIDs))
		for _, id := range optionIDs {
			if _, ok := g.Option(id); !ok {
				return invalidSelection(groupID, fmt.Sprintf("unknown option %q", id))
			}
			seen[id] = struct{}{}
		}
		if g.SelectionType == domain.SelectionSingle && len(seen) > 1 {
			return invalidSelection(groupID, fmt.Sprintf("%s allows only one choice", g.Name))
		}
	}

	for _, g := range groups {
		if g.IsRequired && len(selections[g.ID]) == 0 {
			return invalidSelection(g.ID, fmt.Sprintf("please choose %s", g.Name))
		}
	}

	return nil
}

// SelectedOptions resolves selections to option definitions in group order.
func SelectedOptions(groups []domain.ModifierGroup, selections map[string][]string) []domain.ModifierOption {
	var out []domain.ModifierOption
	for _, g := range groups {
		chosen := selections[g.ID]
		if len(chosen) == 0 {
			continue
		}
		for _, o := range g.Options {
			for _, id := range chosen {
				if id == o.ID {
					out = append(out, o)
					break
				}
			}
		}
	}
	return out
}

func invalidSelection(groupID, msg string) error {
	return domain.NewValidationError(domain.ValidationInvalidSelection, "modifiers."+groupID, msg)
}
