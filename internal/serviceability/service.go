package serviceability

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/types"
)

// Result is the serviceability answer for one PIN code.
type Result struct {
	Pincode               string           `json:"pincode"`
	Serviceable           bool             `json:"serviceable"`
	ZoneName              string           `json:"zone_name,omitempty"`
	EstimatedDeliveryFee  *decimal.Decimal `json:"estimated_delivery_fee,omitempty"`
	EstimatedDeliveryTime *string          `json:"estimated_delivery_time,omitempty"`
}

// Repository reads and maintains delivery zones.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByPincode returns (nil, nil) for unknown pincodes.
func (r *Repository) FindByPincode(ctx context.Context, pincode string) (*models.PincodeZone, error) {
	var zone models.PincodeZone
	err := r.db.WithContext(ctx).Where("pincode = ?", pincode).First(&zone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

// Upsert writes a zone row (admin path).
func (r *Repository) Upsert(ctx context.Context, zone *models.PincodeZone) error {
	return r.db.WithContext(ctx).Save(zone).Error
}

// List returns every configured zone (admin path).
func (r *Repository) List(ctx context.Context) ([]models.PincodeZone, error) {
	var out []models.PincodeZone
	err := r.db.WithContext(ctx).Order("pincode ASC").Find(&out).Error
	return out, err
}

// Service answers "do we deliver there?".
type Service struct {
	repo *Repository
}

// NewService constructs the serviceability service.
func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("serviceability repository required")
	}
	return &Service{repo: repo}, nil
}

// Check validates the pincode format and looks up the delivery zone. Unknown
// pincodes come back as not serviceable, not as an error.
func (s *Service) Check(ctx context.Context, pincode string) (*Result, error) {
	if !types.IsValidPincode(pincode) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincode must be 6 digits")
	}

	zone, err := s.repo.FindByPincode(ctx, pincode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "serviceability lookup failed")
	}
	if zone == nil || !zone.IsServiceable {
		return &Result{Pincode: pincode, Serviceable: false}, nil
	}

	return &Result{
		Pincode:               pincode,
		Serviceable:           true,
		ZoneName:              zone.ZoneName,
		EstimatedDeliveryFee:  zone.EstimatedDeliveryFee,
		EstimatedDeliveryTime: zone.EstimatedDeliveryTime,
	}, nil
}
