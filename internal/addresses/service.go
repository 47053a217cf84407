package addresses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/pkg/db"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/types"
)

// MaxSavedAddresses is the hard per-customer cap.
const MaxSavedAddresses = 3

// Input carries the fields of a saved address create or update.
type Input struct {
	Label     string  `json:"label"`
	PlotHouse string  `json:"plot_house"`
	Street    string  `json:"street"`
	Landmark  *string `json:"landmark,omitempty"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Pincode   string  `json:"pincode"`
	IsDefault bool    `json:"is_default"`
}

// Repository persists saved addresses.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListByCustomer returns the customer's addresses, default first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.SavedAddress, error) {
	var out []models.SavedAddress
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC, created_at ASC").
		Find(&out).Error
	return out, err
}

// FindByID scopes the lookup to the owning customer.
func (r *Repository) FindByID(ctx context.Context, customerID, addressID uuid.UUID) (*models.SavedAddress, error) {
	var addr models.SavedAddress
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		First(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// CountByCustomer returns how many addresses the customer has saved.
func (r *Repository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SavedAddress{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error
	return count, err
}

// Create inserts the address.
func (r *Repository) Create(ctx context.Context, addr *models.SavedAddress) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

// Save writes edits to an existing address.
func (r *Repository) Save(ctx context.Context, addr *models.SavedAddress) error {
	return r.db.WithContext(ctx).Save(addr).Error
}

// Delete removes the address, scoped to the owner.
func (r *Repository) Delete(ctx context.Context, customerID, addressID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", addressID, customerID).
		Delete(&models.SavedAddress{}).Error
}

// ClearDefault unsets is_default on all of the customer's addresses.
func (r *Repository) ClearDefault(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SavedAddress{}).
		Where("customer_id = ?", customerID).
		Update("is_default", false).Error
}

// Service manages a customer's saved addresses.
type Service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs the addresses service.
func NewService(repo *Repository, dbClient *db.Client) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Service{repo: repo, dbClient: dbClient}, nil
}

// List returns the customer's saved addresses.
func (s *Service) List(ctx context.Context, customerID uuid.UUID) ([]models.SavedAddress, error) {
	out, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list addresses")
	}
	return out, nil
}

// Get returns one address owned by the customer.
func (s *Service) Get(ctx context.Context, customerID, addressID uuid.UUID) (*models.SavedAddress, error) {
	addr, err := s.repo.FindByID(ctx, customerID, addressID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load address")
	}
	if addr == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return addr, nil
}

// Create saves a new address, enforcing the per-customer cap.
func (s *Service) Create(ctx context.Context, customerID uuid.UUID, input Input) (*models.SavedAddress, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var created *models.SavedAddress
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		count, err := txRepo.CountByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		if count >= MaxSavedAddresses {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("address limit reached: delete one of your %d saved addresses first", MaxSavedAddresses))
		}

		makeDefault := input.IsDefault || count == 0
		if makeDefault {
			if err := txRepo.ClearDefault(ctx, customerID); err != nil {
				return err
			}
		}

		addr := &models.SavedAddress{
			ID:         uuid.New(),
			CustomerID: customerID,
			Label:      labelOrDefault(input.Label),
			PlotHouse:  strings.TrimSpace(input.PlotHouse),
			Street:     strings.TrimSpace(input.Street),
			Landmark:   input.Landmark,
			City:       strings.TrimSpace(input.City),
			State:      strings.TrimSpace(input.State),
			Pincode:    strings.TrimSpace(input.Pincode),
			IsDefault:  makeDefault,
		}
		if err := txRepo.Create(ctx, addr); err != nil {
			return err
		}
		created = addr
		return nil
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to save address")
	}
	return created, nil
}

// Update edits an existing address owned by the customer.
func (s *Service) Update(ctx context.Context, customerID, addressID uuid.UUID, input Input) (*models.SavedAddress, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *models.SavedAddress
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		addr, err := txRepo.FindByID(ctx, customerID, addressID)
		if err != nil {
			return err
		}
		if addr == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}

		if input.IsDefault && !addr.IsDefault {
			if err := txRepo.ClearDefault(ctx, customerID); err != nil {
				return err
			}
		}

		addr.Label = labelOrDefault(input.Label)
		addr.PlotHouse = strings.TrimSpace(input.PlotHouse)
		addr.Street = strings.TrimSpace(input.Street)
		addr.Landmark = input.Landmark
		addr.City = strings.TrimSpace(input.City)
		addr.State = strings.TrimSpace(input.State)
		addr.Pincode = strings.TrimSpace(input.Pincode)
		addr.IsDefault = input.IsDefault

		if err := txRepo.Save(ctx, addr); err != nil {
			return err
		}
		updated = addr
		return nil
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to update address")
	}
	return updated, nil
}

// Delete removes the address. Deleting the default promotes the oldest
// remaining address to default.
func (s *Service) Delete(ctx context.Context, customerID, addressID uuid.UUID) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		addr, err := txRepo.FindByID(ctx, customerID, addressID)
		if err != nil {
			return err
		}
		if addr == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		wasDefault := addr.IsDefault

		if err := txRepo.Delete(ctx, customerID, addressID); err != nil {
			return err
		}

		if wasDefault {
			remaining, err := txRepo.ListByCustomer(ctx, customerID)
			if err != nil {
				return err
			}
			if len(remaining) > 0 {
				remaining[0].IsDefault = true
				return txRepo.Save(ctx, &remaining[0])
			}
		}
		return nil
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return coded
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to delete address")
	}
	return nil
}

func validateInput(input Input) error {
	var problems []string
	if strings.TrimSpace(input.PlotHouse) == "" {
		problems = append(problems, "plot/house is required")
	}
	if strings.TrimSpace(input.Street) == "" {
		problems = append(problems, "street is required")
	}
	if strings.TrimSpace(input.City) == "" {
		problems = append(problems, "city is required")
	}
	if strings.TrimSpace(input.State) == "" {
		problems = append(problems, "state is required")
	}
	if !types.IsValidPincode(input.Pincode) {
		problems = append(problems, "pincode must be 6 digits")
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid address").
			WithDetails(map[string]any{"errors": problems})
	}
	return nil
}

func labelOrDefault(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "home"
	}
	return label
}
