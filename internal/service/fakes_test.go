package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeStore is an in-memory stand-in for the Postgres store. It mimics the
// guarantees the services rely on: record-not-found and duplicated-key
// errors, the compare-and-set on is_paid, and transactional rollback via
// snapshot/restore in fakeTxManager.
type fakeStore struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	users     map[uuid.UUID]model.User
	vehicles  map[uuid.UUID]model.Vehicle
	vigencias map[uuid.UUID]model.Vigencia
	payments  map[uuid.UUID]model.Payment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[uuid.UUID]model.User),
		vehicles:  make(map[uuid.UUID]model.Vehicle),
		vigencias: make(map[uuid.UUID]model.Vigencia),
		payments:  make(map[uuid.UUID]model.Payment),
	}
}

func (s *fakeStore) addUser(role model.Role) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = model.User{ID: id, Name: "test", Email: id.String() + "@test.co", Role: role, CreatedAt: time.Now()}
	return id
}

func (s *fakeStore) addVehicle(ownerID uuid.UUID, plate string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.vehicles[id] = model.Vehicle{ID: id, Plate: plate, OwnerID: ownerID, CreatedAt: time.Now()}
	return id
}

func (s *fakeStore) addVigencia(vehicleID uuid.UUID, year int, amountCOP int64, paid bool) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.vigencias[id] = model.Vigencia{ID: id, VehicleID: vehicleID, Year: year, AmountCOP: amountCOP, IsPaid: paid, CreatedAt: time.Now()}
	return id
}

// --- transaction manager ---

// fakeTxManager serializes transactions with one mutex, emulating the
// store's isolation, and restores a snapshot when fn fails, emulating
// rollback.
type fakeTxManager struct {
	store *fakeStore
}

func (t *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	t.store.mu.Lock()
	vigenciasSnap := make(map[uuid.UUID]model.Vigencia, len(t.store.vigencias))
	for k, v := range t.store.vigencias {
		vigenciasSnap[k] = v
	}
	paymentsSnap := make(map[uuid.UUID]model.Payment, len(t.store.payments))
	for k, v := range t.store.payments {
		paymentsSnap[k] = v
	}
	t.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.store.mu.Lock()
		t.store.vigencias = vigenciasSnap
		t.store.payments = paymentsSnap
		t.store.mu.Unlock()
		return err
	}
	return nil
}

// --- user repository ---

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	r.store.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[id]; ok {
		copied := u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[id]; ok {
		u.PasswordHash = passwordHash
		r.store.users[id] = u
	}
	return nil
}

// --- vehicle repository ---

type fakeVehicleRepo struct {
	store *fakeStore
}

func (r *fakeVehicleRepo) Create(ctx context.Context, vehicle *model.Vehicle) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.vehicles {
		if v.Plate == vehicle.Plate {
			return gorm.ErrDuplicatedKey
		}
	}
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	vehicle.CreatedAt = time.Now()
	r.store.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (r *fakeVehicleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if v, ok := r.store.vehicles[id]; ok {
		copied := v
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVehicleRepo) FindByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.vehicles {
		if v.Plate == plate {
			copied := v
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVehicleRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Vehicle, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []model.Vehicle
	for _, v := range r.store.vehicles {
		if v.OwnerID == ownerID {
			result = append(result, v)
		}
	}
	return result, nil
}

func (r *fakeVehicleRepo) Update(ctx context.Context, vehicle *model.Vehicle) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (r *fakeVehicleRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.vehicles[id]; !ok {
		return false, nil
	}
	delete(r.store.vehicles, id)
	return true, nil
}

func (r *fakeVehicleRepo) VerifyOwnership(ctx context.Context, vehicleID, ownerID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.vehicles[vehicleID]
	return ok && v.OwnerID == ownerID, nil
}

// --- vigencia repository ---

type fakeVigenciaRepo struct {
	store *fakeStore
}

func (r *fakeVigenciaRepo) Create(ctx context.Context, vigencia *model.Vigencia) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.vigencias {
		if v.VehicleID == vigencia.VehicleID && v.Year == vigencia.Year {
			return gorm.ErrDuplicatedKey
		}
	}
	if vigencia.ID == uuid.Nil {
		vigencia.ID = uuid.New()
	}
	vigencia.CreatedAt = time.Now()
	r.store.vigencias[vigencia.ID] = *vigencia
	return nil
}

func (r *fakeVigenciaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Vigencia, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if v, ok := r.store.vigencias[id]; ok {
		copied := v
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVigenciaRepo) FindByVehicleAndYear(ctx context.Context, vehicleID uuid.UUID, year int) (*model.Vigencia, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.vigencias {
		if v.VehicleID == vehicleID && v.Year == year {
			copied := v
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVigenciaRepo) ListByVehicle(ctx context.Context, vehicleID uuid.UUID, unpaidOnly bool) ([]model.Vigencia, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []model.Vigencia
	for _, v := range r.store.vigencias {
		if v.VehicleID == vehicleID && (!unpaidOnly || !v.IsPaid) {
			result = append(result, v)
		}
	}
	sortVigencias(result)
	return result, nil
}

func (r *fakeVigenciaRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, unpaidOnly bool) ([]model.Vigencia, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []model.Vigencia
	for _, v := range r.store.vigencias {
		vehicle, ok := r.store.vehicles[v.VehicleID]
		if !ok || vehicle.OwnerID != ownerID {
			continue
		}
		if !unpaidOnly || !v.IsPaid {
			result = append(result, v)
		}
	}
	sortVigencias(result)
	return result, nil
}

// Update mirrors the unpaid write guard: only year and amount change, and
// only while the stored row is still unpaid.
func (r *fakeVigenciaRepo) Update(ctx context.Context, vigencia *model.Vigencia) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.vigencias {
		if v.ID != vigencia.ID && v.VehicleID == vigencia.VehicleID && v.Year == vigencia.Year {
			return false, gorm.ErrDuplicatedKey
		}
	}
	current, ok := r.store.vigencias[vigencia.ID]
	if !ok || current.IsPaid {
		return false, nil
	}
	current.Year = vigencia.Year
	current.AmountCOP = vigencia.AmountCOP
	r.store.vigencias[vigencia.ID] = current
	return true, nil
}

func (r *fakeVigenciaRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if v, ok := r.store.vigencias[id]; !ok || v.IsPaid {
		return false, nil
	}
	delete(r.store.vigencias, id)
	return true, nil
}

func (r *fakeVigenciaRepo) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.vigencias[id]
	if !ok || v.IsPaid {
		return false, nil
	}
	v.IsPaid = true
	r.store.vigencias[id] = v
	return true, nil
}

// year desc, then creation time desc, matching the SQL ordering
func sortVigencias(vigencias []model.Vigencia) {
	sort.Slice(vigencias, func(i, j int) bool {
		if vigencias[i].Year != vigencias[j].Year {
			return vigencias[i].Year > vigencias[j].Year
		}
		return vigencias[i].CreatedAt.After(vigencias[j].CreatedAt)
	})
}

// --- payment repository ---

type fakePaymentRepo struct {
	store *fakeStore
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.payments {
		if p.VigenciaID == payment.VigenciaID {
			return gorm.ErrDuplicatedKey
		}
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	r.store.payments[payment.ID] = *payment
	return nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p, ok := r.store.payments[id]; ok {
		copied := p
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) FindByPayer(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []model.Payment
	for _, p := range r.store.payments {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	sortPayments(result)
	return result, nil
}

func (r *fakePaymentRepo) FindByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []model.Payment
	for _, p := range r.store.payments {
		if p.VehicleID == vehicleID {
			result = append(result, p)
		}
	}
	sortPayments(result)
	return result, nil
}

func (r *fakePaymentRepo) FindAll(ctx context.Context, page, limit int) ([]model.Payment, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []model.Payment
	for _, p := range r.store.payments {
		result = append(result, p)
	}
	sortPayments(result)
	total := int64(len(result))
	offset := (page - 1) * limit
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (r *fakePaymentRepo) FindByDateRange(ctx context.Context, start, end time.Time) ([]model.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []model.Payment
	for _, p := range r.store.payments {
		if !p.CreatedAt.Before(start) && !p.CreatedAt.After(end) {
			result = append(result, p)
		}
	}
	sortPayments(result)
	return result, nil
}

func (r *fakePaymentRepo) Stats(ctx context.Context) (model.PaymentStats, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var stats model.PaymentStats
	for _, p := range r.store.payments {
		stats.TotalPayments++
		stats.TotalRevenue += p.AmountCOP
		stats.GovernorRevenue += p.GovernorAmountCOP
		stats.PlatformRevenue += p.PlatformFeeCOP
	}
	return stats, nil
}

func sortPayments(payments []model.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
}
