package billing_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	appbilling "github.com/dcevallos/restopos-api/internal/application/billing"
	"github.com/dcevallos/restopos-api/internal/domain"
	domainbilling "github.com/dcevallos/restopos-api/internal/domain/billing"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
)

// Dobles en memoria para los casos de uso de facturación. Implementan los
// puertos de repositorio con mapas protegidos por mutex; suficiente para
// ejercitar la orquestación sin Postgres.

const (
	testRestaurantID = "rest-1"
	testRUC          = "1790016919001"
)

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*entity.Order
	items  map[string][]*entity.OrderItem
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders: make(map[string]*entity.Order),
		items:  make(map[string][]*entity.OrderItem),
	}
}

func (r *memOrderRepo) Create(_ context.Context, o *entity.Order, items []*entity.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	r.items[o.ID] = items
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) GetItemsByOrderID(_ context.Context, orderID string) ([]*entity.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[orderID], nil
}

func (r *memOrderRepo) Update(_ context.Context, o *entity.Order, items []*entity.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	r.items[o.ID] = items
	return nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *memOrderRepo) MarkBilled(_ context.Context, id string, billed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Billed = billed
	return nil
}

func (r *memOrderRepo) UnmarkAllBilled(_ context.Context, restaurantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID {
			o.Billed = false
		}
	}
	return nil
}

func (r *memOrderRepo) ListByRestaurant(_ context.Context, restaurantID string, limit, offset int) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memOrderRepo) CountByRestaurant(_ context.Context, restaurantID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.orders {
		if o.RestaurantID == restaurantID {
			n++
		}
	}
	return n, nil
}

type memBillRepo struct {
	mu    sync.Mutex
	bills map[string]*entity.Bill
}

func newMemBillRepo() *memBillRepo {
	return &memBillRepo{bills: make(map[string]*entity.Bill)}
}

func (r *memBillRepo) Create(_ context.Context, b *entity.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bills[b.ID] = &cp
	return nil
}

func (r *memBillRepo) GetByID(_ context.Context, id string) (*entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBillRepo) GetByOrderID(_ context.Context, orderID string) (*entity.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entity.Bill
	for _, b := range r.bills {
		if b.OrderID != orderID {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *memBillRepo) UpdateSRIResult(_ context.Context, b *entity.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bills[b.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.SRIStatus = b.SRIStatus
	stored.AccessKey = b.AccessKey
	stored.AuthorizationNumber = b.AuthorizationNumber
	stored.AuthorizedAt = b.AuthorizedAt
	stored.SRIMessages = b.SRIMessages
	stored.UpdatedAt = b.UpdatedAt
	return nil
}

func (r *memBillRepo) MarkCanceled(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.SRIStatus = "CANCELADA"
	b.HasCreditNote = true
	return nil
}

func (r *memBillRepo) List(_ context.Context, restaurantID string, f repository.BillFilter) ([]*entity.Bill, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Bill
	for _, b := range r.bills {
		if b.RestaurantID != restaurantID {
			continue
		}
		if f.Identification != "" && b.CustomerIdentification != f.Identification {
			continue
		}
		if f.Number != "" && b.Number != f.Number {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *memBillRepo) DeleteByRestaurant(_ context.Context, restaurantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.bills {
		if b.RestaurantID == restaurantID {
			delete(r.bills, id)
		}
	}
	return nil
}

func (r *memBillRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bills)
}

type memCreditNoteRepo struct {
	mu    sync.Mutex
	notes map[string]*entity.CreditNote // por billID
}

func newMemCreditNoteRepo() *memCreditNoteRepo {
	return &memCreditNoteRepo{notes: make(map[string]*entity.CreditNote)}
}

func (r *memCreditNoteRepo) Create(_ context.Context, n *entity.CreditNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.notes[n.BillID] = &cp
	return nil
}

func (r *memCreditNoteRepo) GetByBillID(_ context.Context, billID string) (*entity.CreditNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[billID]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *memCreditNoteRepo) DeleteByRestaurant(_ context.Context, restaurantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.notes {
		if n.RestaurantID == restaurantID {
			delete(r.notes, id)
		}
	}
	return nil
}

func (r *memCreditNoteRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

type memRestaurantRepo struct {
	mu          sync.Mutex
	restaurants map[string]*entity.Restaurant
}

func newMemRestaurantRepo() *memRestaurantRepo {
	return &memRestaurantRepo{restaurants: make(map[string]*entity.Restaurant)}
}

func (r *memRestaurantRepo) Create(_ context.Context, rest *entity.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rest
	r.restaurants[rest.ID] = &cp
	return nil
}

func (r *memRestaurantRepo) GetByID(_ context.Context, id string) (*entity.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest, ok := r.restaurants[id]
	if !ok {
		return nil, nil
	}
	cp := *rest
	return &cp, nil
}

func (r *memRestaurantRepo) Update(_ context.Context, rest *entity.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rest
	r.restaurants[rest.ID] = &cp
	return nil
}

func (r *memRestaurantRepo) NextInvoiceSequence(_ context.Context, restaurantID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest, ok := r.restaurants[restaurantID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	rest.Billing.InvoiceSequence++
	return rest.Billing.InvoiceSequence, nil
}

func (r *memRestaurantRepo) NextCreditNoteSequence(_ context.Context, restaurantID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest, ok := r.restaurants[restaurantID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	rest.Billing.CreditNoteSequence++
	return rest.Billing.CreditNoteSequence, nil
}

func (r *memRestaurantRepo) ResetSequences(_ context.Context, restaurantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest, ok := r.restaurants[restaurantID]
	if !ok {
		return domain.ErrNotFound
	}
	rest.Billing.InvoiceSequence = 0
	rest.Billing.CreditNoteSequence = 0
	return nil
}

// fakeTxRunner pasa los repos en memoria tal cual: no hay transacción real,
// pero el contrato de serialización lo cubre el mutex de memRestaurantRepo.
type fakeTxRunner struct {
	billRepo       repository.BillRepository
	noteRepo       repository.CreditNoteRepository
	orderRepo      repository.OrderRepository
	restaurantRepo repository.RestaurantRepository
}

func (f *fakeTxRunner) RunIssuance(_ context.Context, fn func(
	repository.BillRepository,
	repository.OrderRepository,
	repository.RestaurantRepository,
) error) error {
	return fn(f.billRepo, f.orderRepo, f.restaurantRepo)
}

func (f *fakeTxRunner) RunReset(_ context.Context, fn func(
	repository.BillRepository,
	repository.CreditNoteRepository,
	repository.OrderRepository,
	repository.RestaurantRepository,
) error) error {
	return fn(f.billRepo, f.noteRepo, f.orderRepo, f.restaurantRepo)
}

// fakeAuthorizer devuelve un guion preconfigurado y registra los estados
// reportados por el callback de progreso.
type fakeAuthorizer struct {
	mu             sync.Mutex
	result         *appbilling.AuthorizationResult
	err            error
	progressStates []domainbilling.State // estados a reportar antes de responder
	reported       []domainbilling.State
	submitCalls    int
	noteCalls      int
	checkCalls     int
	blockCh        chan struct{} // si no es nil, SubmitInvoice espera aquí
}

func fullCycleStates() []domainbilling.State {
	return []domainbilling.State{
		domainbilling.StateGenerating,
		domainbilling.StateSigning,
		domainbilling.StateSending,
		domainbilling.StateWaitingAuthorization,
	}
}

func (f *fakeAuthorizer) SubmitInvoice(_ context.Context, _ *appbilling.InvoiceSubmission, progress appbilling.Progress) (*appbilling.AuthorizationResult, error) {
	f.mu.Lock()
	f.submitCalls++
	states := f.progressStates
	block := f.blockCh
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	for _, s := range states {
		f.mu.Lock()
		f.reported = append(f.reported, s)
		f.mu.Unlock()
		progress(s)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAuthorizer) SubmitCreditNote(_ context.Context, _ *entity.CreditNote, _ *entity.Bill, _ *entity.Restaurant) (*appbilling.AuthorizationResult, error) {
	f.mu.Lock()
	f.noteCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAuthorizer) CheckStatus(_ context.Context, _ string) (*appbilling.AuthorizationResult, error) {
	f.mu.Lock()
	f.checkCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// billingFixture entorno completo en memoria para los tests de emisión.
type billingFixture struct {
	orderRepo      *memOrderRepo
	billRepo       *memBillRepo
	noteRepo       *memCreditNoteRepo
	restaurantRepo *memRestaurantRepo
	txRunner       *fakeTxRunner
	authorizer     *fakeAuthorizer
}

func newBillingFixture() *billingFixture {
	orderRepo := newMemOrderRepo()
	billRepo := newMemBillRepo()
	noteRepo := newMemCreditNoteRepo()
	restaurantRepo := newMemRestaurantRepo()
	restaurantRepo.restaurants[testRestaurantID] = &entity.Restaurant{
		ID:     testRestaurantID,
		Name:   "La Esquina del Sabor",
		Status: "active",
		Billing: entity.BillingConfig{
			RUC:            testRUC,
			RazonSocial:    "LA ESQUINA DEL SABOR S.A.S.",
			NombreComercial: "La Esquina del Sabor",
			Direccion:      "Av. Amazonas N23-45, Quito",
			Email:          "facturacion@esquinadelsabor.ec",
			Regime:         "RIMPE",
			Environment:    "2",
			Establishment:  "001",
			EmissionPoint:  "001",
		},
	}
	return &billingFixture{
		orderRepo:      orderRepo,
		billRepo:       billRepo,
		noteRepo:       noteRepo,
		restaurantRepo: restaurantRepo,
		txRunner: &fakeTxRunner{
			billRepo:       billRepo,
			noteRepo:       noteRepo,
			orderRepo:      orderRepo,
			restaurantRepo: restaurantRepo,
		},
		authorizer: &fakeAuthorizer{progressStates: fullCycleStates()},
	}
}

// seedOrder crea una orden con una sola línea por el total indicado.
func (fx *billingFixture) seedOrder(id string, total decimal.Decimal) {
	fx.orderRepo.orders[id] = &entity.Order{
		ID:           id,
		RestaurantID: testRestaurantID,
		CustomerName: "Mesa 4",
		Type:         entity.OrderTypeDineIn,
		Status:       entity.OrderStatusCompleted,
		CreatedAt:    time.Now(),
	}
	fx.orderRepo.items[id] = []*entity.OrderItem{
		{ID: id + "-i1", OrderID: id, Name: "Menú del día", Quantity: decimal.NewFromInt(1), Price: total},
	}
}

func (fx *billingFixture) issueUseCase() *appbilling.IssueBillUseCase {
	return appbilling.NewIssueBillUseCase(
		fx.txRunner, fx.authorizer, fx.orderRepo, fx.billRepo, fx.restaurantRepo, nil)
}

func (fx *billingFixture) creditNoteUseCase() *appbilling.CreditNoteUseCase {
	return appbilling.NewCreditNoteUseCase(
		fx.authorizer, fx.billRepo, fx.noteRepo, fx.restaurantRepo, nil)
}

func (fx *billingFixture) resetUseCase() *appbilling.ResetBillingUseCase {
	return appbilling.NewResetBillingUseCase(fx.txRunner, nil)
}

func authorizedResult() *appbilling.AuthorizationResult {
	now := time.Now()
	return &appbilling.AuthorizationResult{
		Estado:              "AUTORIZADO",
		AuthorizationNumber: "2907202513021790016919001200110010",
		AuthorizedAt:        &now,
		Messages:            "",
	}
}
