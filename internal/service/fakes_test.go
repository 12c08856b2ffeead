package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"couture-commerce/internal/gateway"
	"couture-commerce/internal/models"
	"couture-commerce/internal/store"
)

// fakeOrderStore mirrors the conditional-update semantics of the SQL store
type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[int64]*models.Order
	runs   int
	markErrFor map[int64]error
}

func newFakeOrderStore(orders ...*models.Order) *fakeOrderStore {
	m := make(map[int64]*models.Order)
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeOrderStore{orders: m, markErrFor: map[int64]error{}}
}

func (f *fakeOrderStore) GetOrderForUser(_ context.Context, orderID, userID int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, store.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) AttachGatewayOrder(_ context.Context, orderID, userID int64, razorpayOrderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return store.ErrOrderNotFound
	}
	if o.PaymentStatus != models.PaymentStatusUnpaid {
		return store.ErrAlreadyPaid
	}
	o.RazorpayOrderID = nullString(razorpayOrderID)
	return nil
}

func (f *fakeOrderStore) MarkOrderPaid(_ context.Context, orderID, userID int64, razorpayOrderID, paymentID, signature string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.markErrFor[orderID]; err != nil {
		return false, err
	}
	o, ok := f.orders[orderID]
	if !ok || o.UserID != userID {
		return false, store.ErrOrderNotFound
	}
	if o.PaymentStatus == models.PaymentStatusPaid {
		return false, nil
	}
	if o.RazorpayOrderID.String != razorpayOrderID {
		return false, store.ErrOrderNotFound
	}
	o.PaymentStatus = models.PaymentStatusPaid
	o.Status = models.OrderStatusConfirmed
	o.RazorpayPaymentID = nullString(paymentID)
	o.RazorpaySignature = nullString(signature)
	return true, nil
}

func (f *fakeOrderStore) ListReconcileCandidates(_ context.Context, cutoff time.Time) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.PaymentStatus == models.PaymentStatusUnpaid &&
			o.RazorpayOrderID.Valid && o.CreatedAt.After(cutoff) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) StartReconcileRun(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return int64(f.runs), nil
}

func (f *fakeOrderStore) FinishReconcileRun(context.Context, int64, int, int, int) error {
	return nil
}

func (f *fakeOrderStore) LastReconcileRun(context.Context) (*models.ReconcileRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.runs == 0 {
		return nil, nil
	}
	return &models.ReconcileRun{ID: int64(f.runs), StartedAt: time.Now()}, nil
}

// fakeGateway signs with a real HMAC so verification paths are exercised
// end to end
type fakeGateway struct {
	secret      string
	payments    map[string][]gateway.Payment
	fetchErrFor map[string]error
	created     []int64
	fetchCalls  int
}

func newFakeGateway(secret string) *fakeGateway {
	return &fakeGateway{
		secret:      secret,
		payments:    map[string][]gateway.Payment{},
		fetchErrFor: map[string]error{},
	}
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	g.created = append(g.created, amount)
	return &gateway.Order{
		ID: "order_" + receipt, Amount: amount, Currency: currency,
		Receipt: receipt, Status: "created",
	}, nil
}

func (g *fakeGateway) FetchPayments(_ context.Context, gatewayOrderID string) ([]gateway.Payment, error) {
	g.fetchCalls++
	if err := g.fetchErrFor[gatewayOrderID]; err != nil {
		return nil, err
	}
	return g.payments[gatewayOrderID], nil
}

func (g *fakeGateway) SignPayment(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *fakeGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return hmac.Equal([]byte(g.SignPayment(gatewayOrderID, paymentID)), []byte(signature))
}

// fakeLocker models SetNX semantics in memory
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// fakePublisher records published events
type fakePublisher struct {
	mu        sync.Mutex
	created   []*models.OrderCreatedEvent
	paid      []*models.OrderPaidEvent
	cancelled []*models.OrderCancelledEvent
	alerts    []*models.AlertEvent
}

func (p *fakePublisher) PublishOrderCreated(_ context.Context, e *models.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return nil
}

func (p *fakePublisher) PublishOrderPaid(_ context.Context, e *models.OrderPaidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, e)
	return nil
}

func (p *fakePublisher) PublishOrderCancelled(_ context.Context, e *models.OrderCancelledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, e)
	return nil
}

func (p *fakePublisher) PublishAlert(_ context.Context, e *models.AlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, e)
	return nil
}

var errGatewayDown = errors.New("gateway timeout")

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
