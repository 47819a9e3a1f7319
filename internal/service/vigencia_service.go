package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateVigenciaRequest struct {
	Year      int   `json:"year" binding:"required"`
	AmountCOP int64 `json:"amount_cop" binding:"required"`
}

type UpdateVigenciaRequest struct {
	Year      *int   `json:"year"`
	AmountCOP *int64 `json:"amount_cop"`
}

type VigenciaResponse struct {
	ID        string `json:"id"`
	VehicleID string `json:"vehicle_id"`
	Year      int    `json:"year"`
	AmountCOP int64  `json:"amount_cop"`
	IsPaid    bool   `json:"is_paid"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

// VigenciaService owns the tax-obligation lifecycle: one obligation per
// (vehicle, year), unpaid obligations mutable by owner or admin, paid
// obligations frozen for everyone.
type VigenciaService interface {
	CreateVigencia(ctx context.Context, vehicleID string, req CreateVigenciaRequest) (*VigenciaResponse, error)
	GetVigenciaByID(ctx context.Context, id string) (*VigenciaResponse, error)
	ListByVehicle(ctx context.Context, vehicleID string, actorID uuid.UUID, role model.Role, unpaidOnly bool) ([]VigenciaResponse, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, unpaidOnly bool) ([]VigenciaResponse, error)
	UpdateVigencia(ctx context.Context, id string, req UpdateVigenciaRequest, actorID uuid.UUID, role model.Role) (*VigenciaResponse, error)
	DeleteVigencia(ctx context.Context, id string, actorID uuid.UUID, role model.Role) (bool, error)
}

type vigenciaService struct {
	vigenciaRepo repository.VigenciaRepository
	vehicleRepo  repository.VehicleRepository
	txManager    repository.TransactionManager
}

func NewVigenciaService(
	vigenciaRepo repository.VigenciaRepository,
	vehicleRepo repository.VehicleRepository,
	txManager repository.TransactionManager,
) VigenciaService {
	return &vigenciaService{
		vigenciaRepo: vigenciaRepo,
		vehicleRepo:  vehicleRepo,
		txManager:    txManager,
	}
}

// --- Implementation ---

func (s *vigenciaService) CreateVigencia(ctx context.Context, vehicleID string, req CreateVigenciaRequest) (*VigenciaResponse, error) {
	vid, err := uuid.Parse(vehicleID)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid vehicle id")
	}

	if !model.ValidVigenciaYear(req.Year) {
		return nil, apperrors.New(apperrors.KindInvalidInput,
			fmt.Sprintf("year must be between %d and %d", model.MinVigenciaYear, model.MaxVigenciaYear()))
	}
	if !model.ValidAmount(req.AmountCOP) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "amount must be greater than zero")
	}

	var vigencia model.Vigencia
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.vehicleRepo.FindByID(txCtx, vid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.KindNotFound, "vehicle not found")
			}
			return apperrors.Internal(err)
		}

		if _, err := s.vigenciaRepo.FindByVehicleAndYear(txCtx, vid, req.Year); err == nil {
			return apperrors.New(apperrors.KindConflict,
				fmt.Sprintf("a vigencia for year %d already exists for this vehicle", req.Year))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Internal(err)
		}

		vigencia = model.Vigencia{
			VehicleID: vid,
			Year:      req.Year,
			AmountCOP: req.AmountCOP,
		}
		if err := s.vigenciaRepo.Create(txCtx, &vigencia); err != nil {
			// the (vehicle_id, year) unique index is the backstop for
			// creations racing past the pre-check above
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.New(apperrors.KindConflict,
					fmt.Sprintf("a vigencia for year %d already exists for this vehicle", req.Year))
			}
			return apperrors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toVigenciaResponse(vigencia)
	return &resp, nil
}

func (s *vigenciaService) GetVigenciaByID(ctx context.Context, id string) (*VigenciaResponse, error) {
	vigencia, err := s.findVigencia(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toVigenciaResponse(*vigencia)
	return &resp, nil
}

func (s *vigenciaService) ListByVehicle(ctx context.Context, vehicleID string, actorID uuid.UUID, role model.Role, unpaidOnly bool) ([]VigenciaResponse, error) {
	vid, err := uuid.Parse(vehicleID)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid vehicle id")
	}

	vehicle, err := s.vehicleRepo.FindByID(ctx, vid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "vehicle not found")
		}
		return nil, apperrors.Internal(err)
	}

	if !role.IsAdmin() && vehicle.OwnerID != actorID {
		return nil, apperrors.New(apperrors.KindForbidden, "you do not have permission to view this vehicle's vigencias")
	}

	vigencias, err := s.vigenciaRepo.ListByVehicle(ctx, vid, unpaidOnly)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return toVigenciaResponses(vigencias), nil
}

func (s *vigenciaService) ListByOwner(ctx context.Context, ownerID uuid.UUID, unpaidOnly bool) ([]VigenciaResponse, error) {
	vigencias, err := s.vigenciaRepo.ListByOwner(ctx, ownerID, unpaidOnly)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return toVigenciaResponses(vigencias), nil
}

func (s *vigenciaService) UpdateVigencia(ctx context.Context, id string, req UpdateVigenciaRequest, actorID uuid.UUID, role model.Role) (*VigenciaResponse, error) {
	vigenciaID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid vigencia id")
	}

	var updated model.Vigencia
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vigencia, err := s.vigenciaRepo.FindByID(txCtx, vigenciaID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.KindNotFound, "vigencia not found")
			}
			return apperrors.Internal(err)
		}

		// a paid vigencia is frozen for every role, admin included
		if vigencia.IsPaid {
			return apperrors.New(apperrors.KindLocked, "a paid vigencia cannot be modified")
		}

		if err := s.authorizeMutation(txCtx, vigencia.VehicleID, actorID, role); err != nil {
			return err
		}

		if req.Year != nil {
			if !model.ValidVigenciaYear(*req.Year) {
				return apperrors.New(apperrors.KindInvalidInput,
					fmt.Sprintf("year must be between %d and %d", model.MinVigenciaYear, model.MaxVigenciaYear()))
			}
			if *req.Year != vigencia.Year {
				if _, err := s.vigenciaRepo.FindByVehicleAndYear(txCtx, vigencia.VehicleID, *req.Year); err == nil {
					return apperrors.New(apperrors.KindConflict,
						fmt.Sprintf("a vigencia for year %d already exists for this vehicle", *req.Year))
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.Internal(err)
				}
				vigencia.Year = *req.Year
			}
		}

		if req.AmountCOP != nil {
			if !model.ValidAmount(*req.AmountCOP) {
				return apperrors.New(apperrors.KindInvalidInput, "amount must be greater than zero")
			}
			vigencia.AmountCOP = *req.AmountCOP
		}

		written, err := s.vigenciaRepo.Update(txCtx, vigencia)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.New(apperrors.KindConflict,
					"a vigencia for that year already exists for this vehicle")
			}
			return apperrors.Internal(err)
		}
		if !written {
			// the unpaid guard matched no row: a settlement committed
			// between our read and this write
			return apperrors.New(apperrors.KindLocked, "a paid vigencia cannot be modified")
		}

		updated = *vigencia
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toVigenciaResponse(updated)
	return &resp, nil
}

func (s *vigenciaService) DeleteVigencia(ctx context.Context, id string, actorID uuid.UUID, role model.Role) (bool, error) {
	vigenciaID, err := uuid.Parse(id)
	if err != nil {
		return false, apperrors.New(apperrors.KindInvalidInput, "invalid vigencia id")
	}

	removed := false
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vigencia, err := s.vigenciaRepo.FindByID(txCtx, vigenciaID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// deleting a missing row is a no-op, not a failure
				return nil
			}
			return apperrors.Internal(err)
		}

		if vigencia.IsPaid {
			return apperrors.New(apperrors.KindLocked, "a paid vigencia cannot be deleted")
		}

		if err := s.authorizeMutation(txCtx, vigencia.VehicleID, actorID, role); err != nil {
			return err
		}

		removed, err = s.vigenciaRepo.Delete(txCtx, vigenciaID)
		if err != nil {
			return apperrors.Internal(err)
		}
		if !removed {
			// the unpaid guard refused: either the row settled since our
			// read, or it was deleted concurrently. Re-read to tell apart.
			if _, err := s.vigenciaRepo.FindByID(txCtx, vigenciaID); err == nil {
				return apperrors.New(apperrors.KindLocked, "a paid vigencia cannot be deleted")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Internal(err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// --- Helpers ---

func (s *vigenciaService) findVigencia(ctx context.Context, id string) (*model.Vigencia, error) {
	vigenciaID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid vigencia id")
	}
	vigencia, err := s.vigenciaRepo.FindByID(ctx, vigenciaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "vigencia not found")
		}
		return nil, apperrors.Internal(err)
	}
	return vigencia, nil
}

func (s *vigenciaService) authorizeMutation(ctx context.Context, vehicleID, actorID uuid.UUID, role model.Role) error {
	if role.IsAdmin() {
		return nil
	}
	owns, err := s.vehicleRepo.VerifyOwnership(ctx, vehicleID, actorID)
	if err != nil {
		return apperrors.Internal(err)
	}
	if !owns {
		return apperrors.New(apperrors.KindForbidden, "you do not have permission to modify this vigencia")
	}
	return nil
}

// --- Mapping ---

func toVigenciaResponse(v model.Vigencia) VigenciaResponse {
	return VigenciaResponse{
		ID:        v.ID.String(),
		VehicleID: v.VehicleID.String(),
		Year:      v.Year,
		AmountCOP: v.AmountCOP,
		IsPaid:    v.IsPaid,
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
	}
}

func toVigenciaResponses(vigencias []model.Vigencia) []VigenciaResponse {
	result := make([]VigenciaResponse, 0, len(vigencias))
	for _, v := range vigencias {
		result = append(result, toVigenciaResponse(v))
	}
	return result
}
