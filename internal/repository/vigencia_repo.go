package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VigenciaRepository defines the interface for data access of Vigencia entities
type VigenciaRepository interface {
	Create(ctx context.Context, vigencia *model.Vigencia) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vigencia, error)
	FindByVehicleAndYear(ctx context.Context, vehicleID uuid.UUID, year int) (*model.Vigencia, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID, unpaidOnly bool) ([]model.Vigencia, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, unpaidOnly bool) ([]model.Vigencia, error)
	Update(ctx context.Context, vigencia *model.Vigencia) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
}

type vigenciaRepository struct {
	db *gorm.DB
}

func NewVigenciaRepository(db *gorm.DB) VigenciaRepository {
	return &vigenciaRepository{db: db}
}

func (r *vigenciaRepository) Create(ctx context.Context, vigencia *model.Vigencia) error {
	return GetDB(ctx, r.db).Create(vigencia).Error
}

func (r *vigenciaRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vigencia, error) {
	var vigencia model.Vigencia
	if err := GetDB(ctx, r.db).First(&vigencia, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vigencia, nil
}

func (r *vigenciaRepository) FindByVehicleAndYear(ctx context.Context, vehicleID uuid.UUID, year int) (*model.Vigencia, error) {
	var vigencia model.Vigencia
	if err := GetDB(ctx, r.db).First(&vigencia, "vehicle_id = ? AND year = ?", vehicleID, year).Error; err != nil {
		return nil, err
	}
	return &vigencia, nil
}

func (r *vigenciaRepository) ListByVehicle(ctx context.Context, vehicleID uuid.UUID, unpaidOnly bool) ([]model.Vigencia, error) {
	var vigencias []model.Vigencia
	query := GetDB(ctx, r.db).Where("vehicle_id = ?", vehicleID)
	if unpaidOnly {
		query = query.Where("is_paid = false")
	}
	if err := query.Order("year desc, created_at desc").Find(&vigencias).Error; err != nil {
		return nil, err
	}
	return vigencias, nil
}

func (r *vigenciaRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, unpaidOnly bool) ([]model.Vigencia, error) {
	var vigencias []model.Vigencia
	query := GetDB(ctx, r.db).
		Joins("JOIN vehicles ON vehicles.id = vigencias.vehicle_id").
		Where("vehicles.owner_id = ?", ownerID)
	if unpaidOnly {
		query = query.Where("vigencias.is_paid = false")
	}
	if err := query.Order("vigencias.year desc, vigencias.created_at desc").
		Find(&vigencias).Error; err != nil {
		return nil, err
	}
	return vigencias, nil
}

// Update writes year and amount with the same unpaid guard as MarkPaid: a
// full-row Save could revert is_paid on a row that a concurrent settlement
// just flipped. Returns false when the guard matched no row, meaning the
// obligation settled (or vanished) since it was loaded.
func (r *vigenciaRepository) Update(ctx context.Context, vigencia *model.Vigencia) (bool, error) {
	result := GetDB(ctx, r.db).Model(&model.Vigencia{}).
		Where("id = ? AND is_paid = false", vigencia.ID).
		Updates(map[string]interface{}{
			"year":       vigencia.Year,
			"amount_cop": vigencia.AmountCOP,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete only removes unpaid rows; a paid obligation keeps its payment row
// attached and must survive.
func (r *vigenciaRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := GetDB(ctx, r.db).Where("id = ? AND is_paid = false", id).Delete(&model.Vigencia{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkPaid flips is_paid to true as a compare-and-set: the WHERE clause
// only matches while the row is still unpaid, so of two racing settlements
// exactly one sees a row update. Returns false when the obligation was
// already paid (or absent).
func (r *vigenciaRepository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	result := GetDB(ctx, r.db).Model(&model.Vigencia{}).
		Where("id = ? AND is_paid = false", id).
		Update("is_paid", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
