package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/zaika-foods/zaika-backend/api/responses"
	"github.com/zaika-foods/zaika-backend/api/validators"
	"github.com/zaika-foods/zaika-backend/internal/addresses"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
)

type addressRequest struct {
	Label     string  `json:"label" validate:"required"`
	PlotHouse string  `json:"plot_house" validate:"required"`
	Street    string  `json:"street" validate:"required"`
	Landmark  *string `json:"landmark,omitempty"`
	City      string  `json:"city" validate:"required"`
	State     string  `json:"state" validate:"required"`
	Pincode   string  `json:"pincode" validate:"required,len=6,numeric"`
	IsDefault bool    `json:"is_default"`
}

func (a addressRequest) toInput() addresses.Input {
	return addresses.Input{
		Label:     a.Label,
		PlotHouse: a.PlotHouse,
		Street:    a.Street,
		Landmark:  a.Landmark,
		City:      a.City,
		State:     a.State,
		Pincode:   a.Pincode,
		IsDefault: a.IsDefault,
	}
}

type addressResponse struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	PlotHouse string    `json:"plot_house"`
	Street    string    `json:"street"`
	Landmark  *string   `json:"landmark,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	IsDefault bool      `json:"is_default"`
}

func toAddressResponse(addr *models.SavedAddress) addressResponse {
	return addressResponse{
		ID:        addr.ID,
		Label:     addr.Label,
		PlotHouse: addr.PlotHouse,
		Street:    addr.Street,
		Landmark:  addr.Landmark,
		City:      addr.City,
		State:     addr.State,
		Pincode:   addr.Pincode,
		IsDefault: addr.IsDefault,
	}
}

func ListAddresses(svc *addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saved, err := svc.List(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]addressResponse, 0, len(saved))
		for i := range saved {
			out = append(out, toAddressResponse(&saved[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func CreateAddress(svc *addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Create(r.Context(), customerID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toAddressResponse(addr))
	}
}

func UpdateAddress(svc *addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathUUID(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addr, err := svc.Update(r.Context(), customerID, addressID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toAddressResponse(addr))
	}
}

func DeleteAddress(svc *addresses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := pathUUID(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), customerID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
