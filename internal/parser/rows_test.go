package parser

import (
	"testing"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(cells ...interface{}) []interface{} {
	return cells
}

func TestParseRows(t *testing.T) {
	rows := [][]interface{}{
		row("id", "name", "bundle", "price"),
		row("Coffee"),
		row("1", "Kopi Susu", "FALSE", "18.000", "House blend", "", "TRUE", "size", "Size", "TRUE", "single", "reg", "Regular", "0"),
		row("", "", "", "", "", "", "", "size", "", "", "", "lrg", "Large", "5000"),
		row("", "", "", "", "", "", "", "extra", "Extras", "FALSE", "multi", "shot", "Extra shot", "6000"),
		row("", "", "", "", "", "", "", "extra", "", "", "", "oat", "Oat milk", "7000"),
		row("2", "Americano", "FALSE", "15000"),
		row("Bundles"),
		row("10", "Breakfast Set", "TRUE", "30000", "", "", "yes", "", "", "", "", "", "", "", "1", "1"),
		row("", "", "", "", "", "", "", "", "", "", "", "", "", "", "3", "2"),
	}

	res := ParseRows(rows)
	require.Len(t, res.Products, 3)
	assert.Empty(t, res.Skipped)

	kopi := res.Products[0]
	assert.Equal(t, int64(1), kopi.ID)
	assert.Equal(t, "Coffee", kopi.Category)
	assert.Equal(t, int64(18000), kopi.Price)
	assert.True(t, kopi.IsAvailable)
	require.Len(t, kopi.Modifiers, 2)

	size := kopi.Modifiers[0]
	assert.Equal(t, "size", size.ID)
	assert.True(t, size.IsRequired)
	assert.Equal(t, domain.SelectionSingle, size.SelectionType)
	assert.Equal(t, []domain.ModifierOption{
		{ID: "reg", Name: "Regular", Price: 0},
		{ID: "lrg", Name: "Large", Price: 5000},
	}, size.Options)

	extra := kopi.Modifiers[1]
	assert.Equal(t, domain.SelectionMulti, extra.SelectionType)
	assert.Len(t, extra.Options, 2)

	americano := res.Products[1]
	assert.Equal(t, "Coffee", americano.Category)
	assert.True(t, americano.IsAvailable, "availability defaults to true")
	assert.Empty(t, americano.Modifiers)

	set := res.Products[2]
	assert.Equal(t, "Bundles", set.Category)
	assert.True(t, set.IsBundle)
	assert.Equal(t, []domain.BundleItem{
		{ChildProductID: 1, Quantity: 1},
		{ChildProductID: 3, Quantity: 2},
	}, set.BundleItems)
}

func TestParseRows_SkipsBadRows(t *testing.T) {
	rows := [][]interface{}{
		row("id", "name"),
		row("Coffee"),
		row("abc", "Broken", "FALSE", "10000"),
		row("", "", "", "", "", "", "", "size", "Size", "", "", "reg", "Regular", "0"),
		row("2", "Latte", "FALSE", "free"),
		row("3", "Mocha", "FALSE", "22000", "", "", "no"),
		row("", "", "", "", "", "", "", "size", "Size", "", "", "lrg", "Large", "-1"),
	}

	res := ParseRows(rows)
	require.Len(t, res.Products, 1)

	mocha := res.Products[0]
	assert.Equal(t, "Mocha", mocha.Name)
	assert.False(t, mocha.IsAvailable)
	require.Len(t, mocha.Modifiers, 1)
	assert.Empty(t, mocha.Modifiers[0].Options)

	require.Len(t, res.Skipped, 3)
	assert.Equal(t, 3, res.Skipped[0].Row)
	assert.Equal(t, 5, res.Skipped[1].Row)
	assert.Equal(t, 7, res.Skipped[2].Row)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "18000", want: 18000},
		{raw: "18.000", want: 18000},
		{raw: "18,000", want: 18000},
		{raw: "Rp 18.000", want: 18000},
		{raw: "abc", wantErr: true},
		{raw: "-500", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseAmount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
