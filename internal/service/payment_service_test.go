package service_test

import (
	"context"
	"sync"
	"testing"

	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentService(store *fakeStore) service.PaymentService {
	return service.NewPaymentService(
		&fakePaymentRepo{store: store},
		&fakeVigenciaRepo{store: store},
		&fakeVehicleRepo{store: store},
		&fakeTxManager{store: store},
		nil,
	)
}

func TestProcessPayment_SplitsAmountAndMarksPaid(t *testing.T) {
	// GIVEN: U1 owns V1 with an unpaid 2024 vigencia of 900000 COP
	// WHEN: U1 pays it
	// THEN: payment is 855000/45000 and the vigencia is paid

	store := newFakeStore()
	ownerID := store.addUser(model.RoleUser)
	vehicleID := store.addVehicle(ownerID, "ABC123")
	vigenciaID := store.addVigencia(vehicleID, 2024, 900000, false)

	svc := newPaymentService(store)
	result, err := svc.ProcessPayment(context.Background(), vigenciaID.String(), ownerID, model.RoleUser)
	require.NoError(t, err)

	assert.Equal(t, int64(900000), result.Payment.AmountCOP)
	assert.Equal(t, int64(855000), result.Payment.GovernorAmountCOP)
	assert.Equal(t, int64(45000), result.Payment.PlatformFeeCOP)
	assert.Equal(t, 2024, result.Payment.VigenciaYear)
	assert.Equal(t, vehicleID.String(), result.Payment.VehicleID)
	assert.True(t, result.Vigencia.IsPaid)

	stored := store.vigencias[vigenciaID]
	assert.True(t, stored.IsPaid, "paid flag must be persisted")
	assert.Len(t, store.payments, 1)
}

func TestProcessPayment_SecondAttempt_AlreadySettled(t *testing.T) {
	store := newFakeStore()
	ownerID := store.addUser(model.RoleUser)
	vehicleID := store.addVehicle(ownerID, "ABC123")
	vigenciaID := store.addVigencia(vehicleID, 2024, 500000, false)

	svc := newPaymentService(store)
	_, err := svc.ProcessPayment(context.Background(), vigenciaID.String(), ownerID, model.RoleUser)
	require.NoError(t, err)

	_, err = svc.ProcessPayment(context.Background(), vigenciaID.String(), ownerID, model.RoleUser)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAlreadySettled, apperrors.KindOf(err))
	assert.Len(t, store.payments, 1, "no second payment row")
}

func TestProcessPayment_NonOwner_Forbidden(t *testing.T) {
	store := newFakeStore()
	ownerID := store.addUser(model.RoleUser)
	strangerID := store.addUser(model.RoleUser)
	vehicleID := store.addVehicle(ownerID, "ABC123")
	vigenciaID := store.addVigencia(vehicleID, 2024, 500000, false)

	svc := newPaymentService(store)
	_, err := svc.ProcessPayment(context.Background(), vigenciaID.String(), strangerID, model.RoleUser)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	assert.False(t, store.vigencias[vigenciaID].IsPaid, "rejected attempt must not mark paid")
	assert.Empty(t, store.payments)
}

func TestProcessPayment_AdminBypassesOwnership(t *testing.T) {
	store := newFakeStore()
	ownerID := store.addUser(model.RoleUser)
	adminID := store.addUser(model.RoleAdmin)
	vehicleID := store.addVehicle(ownerID, "ABC123")
	vigenciaID := store.addVigencia(vehicleID, 2024, 500000, false)

	svc := newPaymentService(store)
	result, err := svc.ProcessPayment(context.Background(), vigenciaID.String(), adminID, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, adminID.String(), result.Payment.UserID)
	assert.True(t, store.vigencias[vigenciaID].IsPaid)
}

func TestProcessPayment_UnknownVigencia_NotFound(t *testing.T) {
	store := newFakeStore()
	actorID := store.addUser(model.RoleUser)

	svc := newPaymentService(store)
	_, err := svc.ProcessPayment(context.Background(), "3b2c1f4e-0000-4000-8000-000000000000", actorID, model.RoleUser)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestProcessPayment_InvalidID_InvalidInput(t *testing.T) {
	store := newFakeStore()
	actorID := store.addUser(model.RoleUser)

	svc := newPaymentService(store)
	_, err := svc.ProcessPayment(context.Background(), "not-a-uuid", actorID, model.RoleUser)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
}

func TestProcessPayment_ConcurrentAttempts_ExactlyOneSucceeds(t *testing.T) {
	// GIVEN: one unpaid vigencia
	// WHEN: many goroutines race to settle it
	// THEN: exactly one payment exists; every other caller sees AlreadySettled

	store := newFakeStore()
	ownerID := store.addUser(model.RoleUser)
	vehicleID := store.addVehicle(ownerID, "ABC123")
	vigenciaID := store.addVigencia(vehicleID, 2024, 770001, false)

	svc := newPaymentService(store)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ProcessPayment(context.Background(), vigenciaID.String(), ownerID, model.RoleUser)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.Equal(t, apperrors.KindAlreadySettled, apperrors.KindOf(err))
	}
	assert.Equal(t, 1, successes, "exactly one settlement must win")
	assert.Len(t, store.payments, 1)
	assert.True(t, store.vigencias[vigenciaID].IsPaid)
}

func TestProcessPayment_ExistingLedgerRow_RejectedAndRolledBack(t *testing.T) {
	// Defense-in-depth: even if the paid flag is stale, the unique ledger
	// constraint blocks a second payment and the transaction rolls back.

	store := newFakeStore()
	ownerID := store.addUser(model.RoleUser)
	vehicleID := store.addVehicle(ownerID, "ABC123")
	vigenciaID := store.addVigencia(vehicleID, 2024, 500000, false)

	svc := newPaymentService(store)

	// Seed a ledger row for the obligation directly, leaving is_paid stale.
	paymentRepo := &fakePaymentRepo{store: store}
	require.NoError(t, paymentRepo.Create(context.Background(), &model.Payment{
		UserID:            ownerID,
		VehicleID:         vehicleID,
		VigenciaID:        vigenciaID,
		VigenciaYear:      2024,
		AmountCOP:         500000,
		GovernorAmountCOP: 475000,
		PlatformFeeCOP:    25000,
	}))

	_, err := svc.ProcessPayment(context.Background(), vigenciaID.String(), ownerID, model.RoleUser)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAlreadySettled, apperrors.KindOf(err))
	assert.Len(t, store.payments, 1, "the pre-existing row is untouched and no new row was added")
}

func TestGetPaymentByID_OtherUser_Forbidden(t *testing.T) {
	store := newFakeStore()
	ownerID := store.addUser(model.RoleUser)
	strangerID := store.addUser(model.RoleUser)
	adminID := store.addUser(model.RoleAdmin)
	vehicleID := store.addVehicle(ownerID, "ABC123")
	vigenciaID := store.addVigencia(vehicleID, 2024, 500000, false)

	svc := newPaymentService(store)
	result, err := svc.ProcessPayment(context.Background(), vigenciaID.String(), ownerID, model.RoleUser)
	require.NoError(t, err)

	_, err = svc.GetPaymentByID(context.Background(), result.Payment.ID, strangerID, model.RoleUser)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	// payer and admin can both read it
	_, err = svc.GetPaymentByID(context.Background(), result.Payment.ID, ownerID, model.RoleUser)
	assert.NoError(t, err)
	_, err = svc.GetPaymentByID(context.Background(), result.Payment.ID, adminID, model.RoleAdmin)
	assert.NoError(t, err)
}

func TestGetPaymentStats_SumsLedger(t *testing.T) {
	store := newFakeStore()
	ownerID := store.addUser(model.RoleUser)
	vehicleID := store.addVehicle(ownerID, "ABC123")

	svc := newPaymentService(store)
	amounts := []int64{900000, 123457, 1}
	for i, amount := range amounts {
		vigenciaID := store.addVigencia(vehicleID, 2020+i, amount, false)
		_, err := svc.ProcessPayment(context.Background(), vigenciaID.String(), ownerID, model.RoleUser)
		require.NoError(t, err)
	}

	stats, err := svc.GetPaymentStats(context.Background())
	require.NoError(t, err)

	var wantTotal, wantGovernor, wantPlatform int64
	for _, amount := range amounts {
		governor, platform := model.SplitAmount(amount)
		wantTotal += amount
		wantGovernor += governor
		wantPlatform += platform
	}
	assert.Equal(t, int64(len(amounts)), stats.TotalPayments)
	assert.Equal(t, wantTotal, stats.TotalRevenue)
	assert.Equal(t, wantGovernor, stats.GovernorRevenue)
	assert.Equal(t, wantPlatform, stats.PlatformRevenue)
	assert.Equal(t, stats.TotalRevenue, stats.GovernorRevenue+stats.PlatformRevenue)
}

func TestGetVehiclePayments_OwnershipGate(t *testing.T) {
	store := newFakeStore()
	ownerID := store.addUser(model.RoleUser)
	strangerID := store.addUser(model.RoleUser)
	vehicleID := store.addVehicle(ownerID, "ABC123")
	vigenciaID := store.addVigencia(vehicleID, 2024, 500000, false)

	svc := newPaymentService(store)
	_, err := svc.ProcessPayment(context.Background(), vigenciaID.String(), ownerID, model.RoleUser)
	require.NoError(t, err)

	_, err = svc.GetVehiclePayments(context.Background(), vehicleID.String(), strangerID, model.RoleUser)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	payments, err := svc.GetVehiclePayments(context.Background(), vehicleID.String(), ownerID, model.RoleUser)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}
