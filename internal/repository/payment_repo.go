package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository is the append-only settlement ledger. Payments are only
// ever inserted; the unique index on vigencia_id rejects a second payment
// for the same obligation even if a caller slips past the service checks.
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindByPayer(ctx context.Context, userID uuid.UUID) ([]model.Payment, error)
	FindByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Payment, error)
	FindAll(ctx context.Context, page, limit int) ([]model.Payment, int64, error)
	FindByDateRange(ctx context.Context, start, end time.Time) ([]model.Payment, error)
	Stats(ctx context.Context) (model.PaymentStats, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).First(&payment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByPayer(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := GetDB(ctx, r.db).Preload("Vehicle").
		Where("user_id = ?", userID).
		Order("created_at desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) FindByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := GetDB(ctx, r.db).Where("vehicle_id = ?", vehicleID).
		Order("created_at desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) FindAll(ctx context.Context, page, limit int) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Payment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("User").Preload("Vehicle").
		Order("created_at desc").Offset(offset).Limit(limit).
		Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]model.Payment, error) {
	var payments []model.Payment
	if err := GetDB(ctx, r.db).Preload("User").Preload("Vehicle").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Order("created_at desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Stats sums the ledger in one statement so the totals always reflect a
// consistent committed snapshot.
func (r *paymentRepository) Stats(ctx context.Context) (model.PaymentStats, error) {
	var stats model.PaymentStats
	err := GetDB(ctx, r.db).Raw(`
		SELECT
			COUNT(*) AS total_payments,
			COALESCE(SUM(amount_cop), 0) AS total_revenue,
			COALESCE(SUM(governor_amount_cop), 0) AS governor_revenue,
			COALESCE(SUM(platform_fee_cop), 0) AS platform_revenue
		FROM payments
	`).Scan(&stats).Error
	if err != nil {
		return model.PaymentStats{}, err
	}
	return stats, nil
}
