package domain

import (
	"strings"
	"time"
)

type DiscountKind string

const (
	DiscountPercentage  DiscountKind = "percentage"
	DiscountFixedAmount DiscountKind = "fixed_amount"
)

type ScopeKind string

const (
	ScopeOrder    ScopeKind = "order"
	ScopeCategory ScopeKind = "category"
	ScopeProduct  ScopeKind = "product"
)

// Scope is one of OrderScope, CategoryScope or ProductScope.
type Scope interface {
	Kind() ScopeKind
	// Matches reports whether a cart line for the given product falls inside the scope.
	Matches(productID int64, category string) bool
}

type OrderScope struct{}

func (OrderScope) Kind() ScopeKind                { return ScopeOrder }
func (OrderScope) Matches(_ int64, _ string) bool { return true }

type CategoryScope struct {
	Category string
}

func (CategoryScope) Kind() ScopeKind { return ScopeCategory }
func (s CategoryScope) Matches(_ int64, category string) bool {
	return category == s.Category
}

type ProductScope struct {
	ProductID int64
}

func (ProductScope) Kind() ScopeKind { return ScopeProduct }
func (s ProductScope) Matches(productID int64, _ string) bool {
	return productID == s.ProductID
}

// Promotion is read-only to checkout. MinOrderValue and MinQuantity are unset when zero.
type Promotion struct {
	ID            string
	Code          string
	Description   string
	Kind          DiscountKind
	Value         int64
	Scope         Scope
	MinOrderValue int64
	MinQuantity   int
	StartsAt      time.Time
	EndsAt        *time.Time
	IsActive      bool
}

// NormalizeCode returns the stored (uppercase) form of a promo code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
