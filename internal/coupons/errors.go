package coupons

import (
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
)

// RejectionReason classifies why a coupon cannot be applied. The SPA renders
// these inline next to the coupon field, so the strings are part of the API.
type RejectionReason string

const (
	ReasonNotFound              RejectionReason = "NOT_FOUND"
	ReasonExpired               RejectionReason = "EXPIRED"
	ReasonMinOrderNotMet        RejectionReason = "MIN_ORDER_NOT_MET"
	ReasonUsageLimitExceeded    RejectionReason = "USAGE_LIMIT_EXCEEDED"
	ReasonCategoryNotApplicable RejectionReason = "CATEGORY_NOT_APPLICABLE"
)

var reasonMessages = map[RejectionReason]string{
	ReasonNotFound:              "coupon code not found",
	ReasonExpired:               "coupon has expired",
	ReasonMinOrderNotMet:        "order does not meet the coupon minimum",
	ReasonUsageLimitExceeded:    "coupon usage limit reached",
	ReasonCategoryNotApplicable: "coupon does not apply to items in the cart",
}

// Rejection wraps a rejection reason as a coded validation error so the HTTP
// layer renders it with the reason in the details payload.
func Rejection(reason RejectionReason) error {
	return pkgerrors.New(pkgerrors.CodeValidation, reasonMessages[reason]).
		WithDetails(map[string]any{"reason": string(reason)})
}

// ReasonOf extracts the rejection reason from an error produced by Rejection.
// Returns empty when the error is not a coupon rejection.
func ReasonOf(err error) RejectionReason {
	coded := pkgerrors.As(err)
	if coded == nil {
		return ""
	}
	details, ok := coded.Details().(map[string]any)
	if !ok {
		return ""
	}
	raw, ok := details["reason"].(string)
	if !ok {
		return ""
	}
	reason := RejectionReason(raw)
	if _, known := reasonMessages[reason]; !known {
		return ""
	}
	return reason
}
