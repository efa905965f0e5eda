package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every typed error below reports itself as one of these through errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrPromotion    = errors.New("promotion rejected")
	ErrPoints       = errors.New("points redemption rejected")
	ErrPersistence  = errors.New("persistence failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrStaleRequest = errors.New("request no longer relevant")
)

type ValidationCode string

const (
	ValidationEmptyCart               ValidationCode = "empty_cart"
	ValidationMissingCustomerInfo     ValidationCode = "missing_customer_info"
	ValidationMissingDeliveryLocation ValidationCode = "missing_delivery_location"
	ValidationInvalidQuantity         ValidationCode = "invalid_quantity"
	ValidationInvalidSelection        ValidationCode = "invalid_selection"
	ValidationProductUnavailable      ValidationCode = "product_unavailable"
	ValidationInvalidProduct          ValidationCode = "invalid_product"
	ValidationInvalidInput            ValidationCode = "invalid_input"
)

type ValidationError struct {
	Code    ValidationCode
	Field   string
	Message string
}

func NewValidationError(code ValidationCode, field, message string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type PromotionReason string

const (
	PromotionInactive              PromotionReason = "inactive"
	PromotionNotStarted            PromotionReason = "not_started"
	PromotionExpired               PromotionReason = "expired"
	PromotionMinimumOrderNotMet    PromotionReason = "minimum_order_not_met"
	PromotionMinimumQuantityNotMet PromotionReason = "minimum_quantity_not_met"
	PromotionScopeNotEligible      PromotionReason = "scope_not_eligible"
	PromotionNotFound              PromotionReason = "not_found"
	PromotionInvalidConfiguration  PromotionReason = "invalid_configuration"
)

var promotionMessages = map[PromotionReason]string{
	PromotionInactive:              "promotion is no longer active",
	PromotionNotStarted:            "promotion has not started yet",
	PromotionExpired:               "promotion has expired",
	PromotionMinimumOrderNotMet:    "minimum order value not met",
	PromotionMinimumQuantityNotMet: "minimum item quantity not met",
	PromotionScopeNotEligible:      "no items in the cart qualify for this promotion",
	PromotionNotFound:              "invalid promotion code",
	PromotionInvalidConfiguration:  "promotion is misconfigured",
}

type PromotionError struct {
	Reason  PromotionReason
	Code    string
	Message string
}

func NewPromotionError(reason PromotionReason, code, message string) *PromotionError {
	return &PromotionError{Reason: reason, Code: code, Message: message}
}

func (e *PromotionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return promotionMessages[e.Reason]
}

func (e *PromotionError) Is(target error) bool { return target == ErrPromotion }

type PointsReason string

const (
	PointsInvalidAmount       PointsReason = "invalid_amount"
	PointsInsufficientBalance PointsReason = "insufficient_balance"
	PointsExceedsRedeemCap    PointsReason = "exceeds_redeemable_cap"
)

// PointsError carries Cap, the largest amount that would have been accepted.
type PointsError struct {
	Reason PointsReason
	Cap    int64
}

func (e *PointsError) Error() string {
	switch e.Reason {
	case PointsInvalidAmount:
		return "points must be a positive amount"
	case PointsInsufficientBalance:
		return fmt.Sprintf("insufficient points balance (available %d)", e.Cap)
	case PointsExceedsRedeemCap:
		return fmt.Sprintf("points exceed the payable amount (max %d)", e.Cap)
	}
	return string(e.Reason)
}

func (e *PointsError) Is(target error) bool { return target == ErrPoints }

// PersistenceError wraps a data store failure. Partial is set when the order header
// may exist without its lines.
type PersistenceError struct {
	Op      string
	OrderID string
	Partial bool
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.OrderID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

type ConflictError struct {
	OrderID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("order id %s already exists", e.OrderID)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsUserFacing reports whether err explains a rejected action to the customer
// rather than a system failure.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPromotion) ||
		errors.Is(err, ErrPoints)
}
