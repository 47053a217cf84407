package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/zaika-foods/zaika-backend/internal/pricing"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
	"github.com/zaika-foods/zaika-backend/pkg/types"
)

// Session is the redis-persisted state of one checkout attempt. Entered data
// survives step transitions and failed guards; only successful placement or
// TTL expiry removes it.
type Session struct {
	ID             string              `json:"id"`
	CustomerRef    string              `json:"customer_ref"`
	Step           enums.CheckoutStep  `json:"step"`
	Contact        types.ContactInfo   `json:"contact"`
	Address        types.Address       `json:"address"`
	SavedAddressID *uuid.UUID          `json:"saved_address_id,omitempty"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method,omitempty"`
	CartVersion    int64               `json:"cart_version"`
	Snapshot       pricing.Snapshot    `json:"snapshot"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// AdvanceInput carries the data entered on the current step. Nil fields
// leave previously entered values untouched.
type AdvanceInput struct {
	Contact        *types.ContactInfo   `json:"contact,omitempty"`
	Address        *types.Address       `json:"address,omitempty"`
	SavedAddressID *uuid.UUID           `json:"saved_address_id,omitempty"`
	PaymentMethod  *enums.PaymentMethod `json:"payment_method,omitempty"`
}
