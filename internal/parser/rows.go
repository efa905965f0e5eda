package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
)

// Sheet layout, one header row first:
//
//	A id | B name | C bundle | D price | E description | F image url | G available
//	H group id | I group name | J required | K type | L option id | M option name | N option price
//	O bundle child id | P bundle child quantity
//
// A row with only column A filled starts a category. A row with A and B filled
// starts a product. Rows with A empty add a modifier option and/or a bundle
// item to the product above them.
const (
	colID = iota
	colName
	colBundle
	colPrice
	colDescription
	colImageURL
	colAvailable
	colGroupID
	colGroupName
	colGroupRequired
	colGroupType
	colOptionID
	colOptionName
	colOptionPrice
	colBundleChild
	colBundleQty
)

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type Result struct {
	Products []domain.Product `json:"products"`
	Skipped  []RowError       `json:"skipped,omitempty"`
}

// ParseRows turns raw sheet values into products. Rows it cannot read are
// reported in Skipped; a bad product row also drops its detail rows.
func ParseRows(rows [][]interface{}) *Result {
	res := &Result{Products: []domain.Product{}}

	var current *domain.Product
	var currentCategory string
	skipping := false

	flush := func() {
		if current != nil {
			res.Products = append(res.Products, *current)
			current = nil
		}
	}

	// skip header
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowNum := i + 1
		if isBlank(row) {
			continue
		}

		id := cell(row, colID)

		if id != "" && cell(row, colName) == "" {
			flush()
			skipping = false
			currentCategory = id
			continue
		}

		if id != "" {
			flush()
			product, err := parseProduct(row, currentCategory)
			if err != nil {
				res.Skipped = append(res.Skipped, RowError{Row: rowNum, Reason: err.Error()})
				skipping = true
				continue
			}
			skipping = false
			current = product
		}

		if skipping {
			continue
		}
		if current == nil {
			res.Skipped = append(res.Skipped, RowError{Row: rowNum, Reason: "detail row without a product"})
			continue
		}

		if err := addModifier(current, row); err != nil {
			res.Skipped = append(res.Skipped, RowError{Row: rowNum, Reason: err.Error()})
		}
		if err := addBundleItem(current, row); err != nil {
			res.Skipped = append(res.Skipped, RowError{Row: rowNum, Reason: err.Error()})
		}
	}
	flush()

	return res
}

func parseProduct(row []interface{}, category string) (*domain.Product, error) {
	id, err := strconv.ParseInt(cell(row, colID), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid product id %q", cell(row, colID))
	}

	price, err := parseAmount(cell(row, colPrice))
	if err != nil {
		return nil, fmt.Errorf("invalid price for product %d: %w", id, err)
	}

	return &domain.Product{
		ID:          id,
		Name:        cell(row, colName),
		Category:    category,
		Price:       price,
		IsBundle:    parseBool(cell(row, colBundle), false),
		Description: cell(row, colDescription),
		ImageURL:    cell(row, colImageURL),
		IsAvailable: parseBool(cell(row, colAvailable), true),
	}, nil
}

func addModifier(p *domain.Product, row []interface{}) error {
	groupID := cell(row, colGroupID)
	if groupID == "" {
		return nil
	}

	idx := -1
	for i, g := range p.Modifiers {
		if g.ID == groupID {
			idx = i
			break
		}
	}
	if idx == -1 {
		selection := domain.SelectionSingle
		if strings.EqualFold(cell(row, colGroupType), string(domain.SelectionMulti)) {
			selection = domain.SelectionMulti
		}
		p.Modifiers = append(p.Modifiers, domain.ModifierGroup{
			ID:            groupID,
			Name:          cell(row, colGroupName),
			IsRequired:    parseBool(cell(row, colGroupRequired), false),
			SelectionType: selection,
			Options:       []domain.ModifierOption{},
		})
		idx = len(p.Modifiers) - 1
	}

	optionID := cell(row, colOptionID)
	if optionID == "" {
		return nil
	}

	var price int64
	if raw := cell(row, colOptionPrice); raw != "" {
		v, err := parseAmount(raw)
		if err != nil {
			return fmt.Errorf("invalid price for option %s: %w", optionID, err)
		}
		price = v
	}

	p.Modifiers[idx].Options = append(p.Modifiers[idx].Options, domain.ModifierOption{
		ID:    optionID,
		Name:  cell(row, colOptionName),
		Price: price,
	})
	return nil
}

func addBundleItem(p *domain.Product, row []interface{}) error {
	raw := cell(row, colBundleChild)
	if raw == "" {
		return nil
	}

	childID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid bundle item %q", raw)
	}

	qty := 1
	if q := cell(row, colBundleQty); q != "" {
		qty, err = strconv.Atoi(q)
		if err != nil {
			return fmt.Errorf("invalid bundle quantity %q", q)
		}
	}

	p.BundleItems = append(p.BundleItems, domain.BundleItem{ChildProductID: childID, Quantity: qty})
	return nil
}

func cell(row []interface{}, col int) string {
	if col >= len(row) || row[col] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[col]))
}

func isBlank(row []interface{}) bool {
	for i := range row {
		if cell(row, i) != "" {
			return false
		}
	}
	return true
}

// parseAmount accepts whole rupiah with optional thousands separators ("18.000", "18,000").
func parseAmount(raw string) (int64, error) {
	cleaned := strings.NewReplacer(".", "", ",", "", " ", "", "Rp", "", "rp", "").Replace(raw)
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole amount", raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%q is negative", raw)
	}
	return v, nil
}

func parseBool(raw string, def bool) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1":
		return true
	case "false", "no", "n", "0":
		return false
	}
	return def
}
