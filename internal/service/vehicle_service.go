package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateVehicleRequest struct {
	Plate string `json:"plate" binding:"required"`
	Brand string `json:"brand"`
	Model string `json:"model"`
}

type UpdateVehicleRequest struct {
	Plate *string `json:"plate"`
	Brand *string `json:"brand"`
	Model *string `json:"model"`
}

type VehicleResponse struct {
	ID        string `json:"id"`
	Plate     string `json:"plate"`
	Brand     string `json:"brand,omitempty"`
	Model     string `json:"model,omitempty"`
	OwnerID   string `json:"owner_id"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type VehicleService interface {
	CreateVehicle(ctx context.Context, ownerID uuid.UUID, req CreateVehicleRequest) (*VehicleResponse, error)
	GetVehicleByID(ctx context.Context, id string, actorID uuid.UUID, role model.Role) (*VehicleResponse, error)
	GetVehicleByPlate(ctx context.Context, plate string, actorID uuid.UUID, role model.Role) (*VehicleResponse, error)
	ListOwnVehicles(ctx context.Context, ownerID uuid.UUID) ([]VehicleResponse, error)
	UpdateVehicle(ctx context.Context, id string, req UpdateVehicleRequest, actorID uuid.UUID, role model.Role) (*VehicleResponse, error)
	DeleteVehicle(ctx context.Context, id string, actorID uuid.UUID, role model.Role) (bool, error)
	VerifyOwnership(ctx context.Context, vehicleID, ownerID uuid.UUID) (bool, error)
}

type vehicleService struct {
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
}

func NewVehicleService(vehicleRepo repository.VehicleRepository, userRepo repository.UserRepository) VehicleService {
	return &vehicleService{vehicleRepo: vehicleRepo, userRepo: userRepo}
}

// --- Implementation ---

func (s *vehicleService) CreateVehicle(ctx context.Context, ownerID uuid.UUID, req CreateVehicleRequest) (*VehicleResponse, error) {
	if _, err := s.userRepo.FindByID(ctx, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "owner not found")
		}
		return nil, apperrors.Internal(err)
	}

	plate := model.NormalizePlate(req.Plate)
	if !model.ValidPlate(plate) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid plate format, expected ABC123 or ABC12D")
	}

	if _, err := s.vehicleRepo.FindByPlate(ctx, plate); err == nil {
		return nil, apperrors.New(apperrors.KindConflict, "a vehicle with this plate already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal(err)
	}

	vehicle := model.Vehicle{
		Plate:   plate,
		Brand:   req.Brand,
		Model:   req.Model,
		OwnerID: ownerID,
	}
	if err := s.vehicleRepo.Create(ctx, &vehicle); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.KindConflict, "a vehicle with this plate already exists")
		}
		return nil, apperrors.Internal(err)
	}

	resp := toVehicleResponse(vehicle)
	return &resp, nil
}

func (s *vehicleService) GetVehicleByID(ctx context.Context, id string, actorID uuid.UUID, role model.Role) (*VehicleResponse, error) {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if !role.IsAdmin() && vehicle.OwnerID != actorID {
		return nil, apperrors.New(apperrors.KindForbidden, "you do not have permission to view this vehicle")
	}
	resp := toVehicleResponse(*vehicle)
	return &resp, nil
}

func (s *vehicleService) GetVehicleByPlate(ctx context.Context, plate string, actorID uuid.UUID, role model.Role) (*VehicleResponse, error) {
	plate = model.NormalizePlate(plate)
	if !model.ValidPlate(plate) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid plate format, expected ABC123 or ABC12D")
	}

	vehicle, err := s.vehicleRepo.FindByPlate(ctx, plate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "vehicle not found")
		}
		return nil, apperrors.Internal(err)
	}
	if !role.IsAdmin() && vehicle.OwnerID != actorID {
		return nil, apperrors.New(apperrors.KindForbidden, "you do not have permission to view this vehicle")
	}

	resp := toVehicleResponse(*vehicle)
	return &resp, nil
}

func (s *vehicleService) ListOwnVehicles(ctx context.Context, ownerID uuid.UUID) ([]VehicleResponse, error) {
	vehicles, err := s.vehicleRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	result := make([]VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		result = append(result, toVehicleResponse(v))
	}
	return result, nil
}

func (s *vehicleService) UpdateVehicle(ctx context.Context, id string, req UpdateVehicleRequest, actorID uuid.UUID, role model.Role) (*VehicleResponse, error) {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return nil, err
	}

	if !role.IsAdmin() && vehicle.OwnerID != actorID {
		return nil, apperrors.New(apperrors.KindForbidden, "you do not have permission to modify this vehicle")
	}

	if req.Plate != nil {
		plate := model.NormalizePlate(*req.Plate)
		if plate != vehicle.Plate {
			if !model.ValidPlate(plate) {
				return nil, apperrors.New(apperrors.KindInvalidInput, "invalid plate format, expected ABC123 or ABC12D")
			}
			if _, err := s.vehicleRepo.FindByPlate(ctx, plate); err == nil {
				return nil, apperrors.New(apperrors.KindConflict, "a vehicle with this plate already exists")
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.Internal(err)
			}
			vehicle.Plate = plate
		}
	}
	if req.Brand != nil {
		vehicle.Brand = *req.Brand
	}
	if req.Model != nil {
		vehicle.Model = *req.Model
	}

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.KindConflict, "a vehicle with this plate already exists")
		}
		return nil, apperrors.Internal(err)
	}

	resp := toVehicleResponse(*vehicle)
	return &resp, nil
}

func (s *vehicleService) DeleteVehicle(ctx context.Context, id string, actorID uuid.UUID, role model.Role) (bool, error) {
	vehicle, err := s.findVehicle(ctx, id)
	if err != nil {
		return false, err
	}

	if !role.IsAdmin() && vehicle.OwnerID != actorID {
		return false, apperrors.New(apperrors.KindForbidden, "you do not have permission to delete this vehicle")
	}

	removed, err := s.vehicleRepo.Delete(ctx, vehicle.ID)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	return removed, nil
}

func (s *vehicleService) VerifyOwnership(ctx context.Context, vehicleID, ownerID uuid.UUID) (bool, error) {
	owns, err := s.vehicleRepo.VerifyOwnership(ctx, vehicleID, ownerID)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	return owns, nil
}

// --- Helpers ---

func (s *vehicleService) findVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicleID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid vehicle id")
	}
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "vehicle not found")
		}
		return nil, apperrors.Internal(err)
	}
	return vehicle, nil
}

// --- Mapping ---

func toVehicleResponse(v model.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:        v.ID.String(),
		Plate:     v.Plate,
		Brand:     v.Brand,
		Model:     v.Model,
		OwnerID:   v.OwnerID.String(),
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
	}
}
