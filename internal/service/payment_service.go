package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/metrics"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"
	"backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type PaymentResponse struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	VehicleID         string `json:"vehicle_id"`
	VigenciaID        string `json:"vigencia_id"`
	VigenciaYear      int    `json:"vigencia_year"`
	AmountCOP         int64  `json:"amount_cop"`
	GovernorAmountCOP int64  `json:"governor_amount_cop"`
	PlatformFeeCOP    int64  `json:"platform_fee_cop"`
	CreatedAt         string `json:"created_at"`

	// Joined display metadata, populated on the read paths that preload it
	VehiclePlate string `json:"vehicle_plate,omitempty"`
	VehicleBrand string `json:"vehicle_brand,omitempty"`
	VehicleModel string `json:"vehicle_model,omitempty"`
	PayerName    string `json:"payer_name,omitempty"`
	PayerEmail   string `json:"payer_email,omitempty"`
}

type PaymentResult struct {
	Payment  PaymentResponse  `json:"payment"`
	Vigencia VigenciaResponse `json:"vigencia"`
}

// --- Interface ---

// PaymentService is the settlement orchestrator: the only component that
// writes to both the vigencia store and the payment ledger, and it does so
// inside a single transaction.
type PaymentService interface {
	ProcessPayment(ctx context.Context, vigenciaID string, actorID uuid.UUID, role model.Role) (*PaymentResult, error)
	GetPaymentByID(ctx context.Context, id string, actorID uuid.UUID, role model.Role) (*PaymentResponse, error)
	GetUserPayments(ctx context.Context, userID uuid.UUID) ([]PaymentResponse, error)
	GetVehiclePayments(ctx context.Context, vehicleID string, actorID uuid.UUID, role model.Role) ([]PaymentResponse, error)
	GetAllPayments(ctx context.Context, page, limit int) ([]PaymentResponse, int64, error)
	GetPaymentsByDateRange(ctx context.Context, start, end time.Time) ([]PaymentResponse, error)
	GetPaymentStats(ctx context.Context) (model.PaymentStats, error)
}

type paymentService struct {
	paymentRepo  repository.PaymentRepository
	vigenciaRepo repository.VigenciaRepository
	vehicleRepo  repository.VehicleRepository
	txManager    repository.TransactionManager
	hub          *websocket.Hub
}

// NewPaymentService wires the orchestrator. hub may be nil when no event
// feed is attached (tests).
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	vigenciaRepo repository.VigenciaRepository,
	vehicleRepo repository.VehicleRepository,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
) PaymentService {
	return &paymentService{
		paymentRepo:  paymentRepo,
		vigenciaRepo: vigenciaRepo,
		vehicleRepo:  vehicleRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

// --- Implementation ---

// ProcessPayment settles a vigencia: it records the payment and marks the
// obligation paid as one atomic unit. Against two racing calls for the same
// obligation, exactly one commits; the other fails with AlreadySettled,
// either from the paid-flag read, the compare-and-set on is_paid, or the
// unique index on payments.vigencia_id, whichever fires first.
func (s *paymentService) ProcessPayment(ctx context.Context, vigenciaID string, actorID uuid.UUID, role model.Role) (*PaymentResult, error) {
	id, err := uuid.Parse(vigenciaID)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid vigencia id")
	}

	var result PaymentResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		vigencia, err := s.vigenciaRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.KindNotFound, "vigencia not found")
			}
			return apperrors.Internal(err)
		}

		if vigencia.IsPaid {
			return apperrors.New(apperrors.KindAlreadySettled, "this vigencia has already been paid")
		}

		if !role.IsAdmin() {
			owns, err := s.vehicleRepo.VerifyOwnership(txCtx, vigencia.VehicleID, actorID)
			if err != nil {
				return apperrors.Internal(err)
			}
			if !owns {
				return apperrors.New(apperrors.KindForbidden, "you do not have permission to pay this vigencia")
			}
		}

		governorCOP, platformFeeCOP := model.SplitAmount(vigencia.AmountCOP)

		payment := model.Payment{
			UserID:            actorID,
			VehicleID:         vigencia.VehicleID,
			VigenciaID:        vigencia.ID,
			VigenciaYear:      vigencia.Year,
			AmountCOP:         vigencia.AmountCOP,
			GovernorAmountCOP: governorCOP,
			PlatformFeeCOP:    platformFeeCOP,
		}
		if err := s.paymentRepo.Create(txCtx, &payment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// unique index on vigencia_id: a concurrent settlement won
				return apperrors.New(apperrors.KindAlreadySettled, "this vigencia has already been paid")
			}
			return apperrors.Internal(err)
		}

		marked, err := s.vigenciaRepo.MarkPaid(txCtx, vigencia.ID)
		if err != nil {
			return apperrors.Internal(err)
		}
		if !marked {
			// compare-and-set miss: someone settled between our read and
			// write. Rolling back also discards the payment inserted above.
			return apperrors.New(apperrors.KindAlreadySettled, "this vigencia has already been paid")
		}

		vigencia.IsPaid = true
		result = PaymentResult{
			Payment:  toPaymentResponse(payment),
			Vigencia: toVigenciaResponse(*vigencia),
		}
		return nil
	})
	if err != nil {
		metrics.SettlementsRejected.WithLabelValues(string(apperrors.KindOf(err))).Inc()
		return nil, err
	}

	metrics.PaymentsSettled.Inc()
	metrics.SettledAmountCOP.Add(float64(result.Payment.AmountCOP))

	if s.hub != nil {
		s.hub.NotifySettlement(websocket.SettlementEvent{
			Type:              "payment.settled",
			PaymentID:         result.Payment.ID,
			VigenciaID:        result.Payment.VigenciaID,
			VehicleID:         result.Payment.VehicleID,
			VigenciaYear:      result.Payment.VigenciaYear,
			AmountCOP:         result.Payment.AmountCOP,
			GovernorAmountCOP: result.Payment.GovernorAmountCOP,
			PlatformFeeCOP:    result.Payment.PlatformFeeCOP,
		})
	}

	return &result, nil
}

func (s *paymentService) GetPaymentByID(ctx context.Context, id string, actorID uuid.UUID, role model.Role) (*PaymentResponse, error) {
	paymentID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid payment id")
	}

	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "payment not found")
		}
		return nil, apperrors.Internal(err)
	}

	if !role.IsAdmin() && payment.UserID != actorID {
		return nil, apperrors.New(apperrors.KindForbidden, "you do not have permission to view this payment")
	}

	resp := toPaymentResponse(*payment)
	return &resp, nil
}

func (s *paymentService) GetUserPayments(ctx context.Context, userID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindByPayer(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return toPaymentResponses(payments), nil
}

func (s *paymentService) GetVehiclePayments(ctx context.Context, vehicleID string, actorID uuid.UUID, role model.Role) ([]PaymentResponse, error) {
	vid, err := uuid.Parse(vehicleID)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInvalidInput, "invalid vehicle id")
	}

	if !role.IsAdmin() {
		owns, err := s.vehicleRepo.VerifyOwnership(ctx, vid, actorID)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		if !owns {
			return nil, apperrors.New(apperrors.KindForbidden, "you do not have permission to view this vehicle's payments")
		}
	}

	payments, err := s.paymentRepo.FindByVehicle(ctx, vid)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return toPaymentResponses(payments), nil
}

func (s *paymentService) GetAllPayments(ctx context.Context, page, limit int) ([]PaymentResponse, int64, error) {
	payments, total, err := s.paymentRepo.FindAll(ctx, page, limit)
	if err != nil {
		return nil, 0, apperrors.Internal(err)
	}
	return toPaymentResponses(payments), total, nil
}

func (s *paymentService) GetPaymentsByDateRange(ctx context.Context, start, end time.Time) ([]PaymentResponse, error) {
	if end.Before(start) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "end date must not be before start date")
	}
	payments, err := s.paymentRepo.FindByDateRange(ctx, start, end)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return toPaymentResponses(payments), nil
}

func (s *paymentService) GetPaymentStats(ctx context.Context) (model.PaymentStats, error) {
	stats, err := s.paymentRepo.Stats(ctx)
	if err != nil {
		return model.PaymentStats{}, apperrors.Internal(err)
	}
	return stats, nil
}

// --- Mapping ---

func toPaymentResponse(p model.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:                p.ID.String(),
		UserID:            p.UserID.String(),
		VehicleID:         p.VehicleID.String(),
		VigenciaID:        p.VigenciaID.String(),
		VigenciaYear:      p.VigenciaYear,
		AmountCOP:         p.AmountCOP,
		GovernorAmountCOP: p.GovernorAmountCOP,
		PlatformFeeCOP:    p.PlatformFeeCOP,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
	if p.Vehicle != nil {
		resp.VehiclePlate = p.Vehicle.Plate
		resp.VehicleBrand = p.Vehicle.Brand
		resp.VehicleModel = p.Vehicle.Model
	}
	if p.User != nil {
		resp.PayerName = p.User.Name
		resp.PayerEmail = p.User.Email
	}
	return resp
}

func toPaymentResponses(payments []model.Payment) []PaymentResponse {
	result := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		result = append(result, toPaymentResponse(p))
	}
	return result
}
