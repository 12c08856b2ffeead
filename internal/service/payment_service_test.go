package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"couture-commerce/internal/models"
	"couture-commerce/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unpaidOrder(id, userID int64, total float64) *models.Order {
	return &models.Order{
		ID:            id,
		UserID:        userID,
		TotalAmount:   total,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		ShipEmail:     "bride@example.com",
		CreatedAt:     time.Now(),
	}
}

func newPaymentService(st PaymentStore, gw Gateway, locks Locker, pub EventPublisher) *PaymentService {
	return NewPaymentService(st, gw, locks, pub, NewAlerter(nil), "INR")
}

func TestCreatePayment(t *testing.T) {
	st := newFakeOrderStore(unpaidOrder(42, 7, 2500.00))
	gw := newFakeGateway("s3cret")
	pub := &fakePublisher{}
	ps := newPaymentService(st, gw, newFakeLocker(), pub)

	session, err := ps.CreatePayment(context.Background(), 7, 42)
	require.NoError(t, err)

	// 2500.00 major units must become 250000 minor units
	assert.Equal(t, int64(250000), session.Amount)
	assert.Equal(t, "INR", session.Currency)
	assert.Equal(t, "order_42", session.RazorpayOrderID)
	assert.Equal(t, "rzp_test_key", session.Key)

	order, err := st.GetOrderForUser(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, "order_42", order.RazorpayOrderID.String)
	assert.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
}

func TestCreatePaymentWrongOwner(t *testing.T) {
	st := newFakeOrderStore(unpaidOrder(42, 7, 100))
	ps := newPaymentService(st, newFakeGateway("s3cret"), newFakeLocker(), &fakePublisher{})

	_, err := ps.CreatePayment(context.Background(), 99, 42)
	assert.True(t, errors.Is(err, store.ErrOrderNotFound))
}

func TestCreatePaymentAlreadyPaid(t *testing.T) {
	o := unpaidOrder(42, 7, 100)
	o.PaymentStatus = models.PaymentStatusPaid
	ps := newPaymentService(newFakeOrderStore(o), newFakeGateway("s3cret"), newFakeLocker(), &fakePublisher{})

	_, err := ps.CreatePayment(context.Background(), 7, 42)
	assert.True(t, errors.Is(err, store.ErrAlreadyPaid))
}

func TestCreatePaymentSerializedPerOrder(t *testing.T) {
	st := newFakeOrderStore(unpaidOrder(42, 7, 100))
	locks := newFakeLocker()
	ps := newPaymentService(st, newFakeGateway("s3cret"), locks, &fakePublisher{})

	// simulate a second tab holding the attempt lock
	held, err := locks.AcquireLock(context.Background(), "payattempt:42", time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	_, err = ps.CreatePayment(context.Background(), 7, 42)
	assert.True(t, errors.Is(err, ErrPaymentInFlight))
}

func TestVerifyPayment(t *testing.T) {
	o := unpaidOrder(42, 7, 2500.00)
	o.RazorpayOrderID = nullString("order_abc")
	st := newFakeOrderStore(o)
	gw := newFakeGateway("s3cret")
	pub := &fakePublisher{}
	ps := newPaymentService(st, gw, newFakeLocker(), pub)

	req := &VerifyPaymentRequest{
		OrderID:           42,
		RazorpayOrderID:   "order_abc",
		RazorpayPaymentID: "pay_123",
		RazorpaySignature: gw.SignPayment("order_abc", "pay_123"),
	}
	require.NoError(t, ps.VerifyPayment(context.Background(), 7, req))

	got, err := st.GetOrderForUser(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)
	assert.Equal(t, "pay_123", got.RazorpayPaymentID.String)
	assert.True(t, gw.VerifySignature(got.RazorpayOrderID.String,
		got.RazorpayPaymentID.String, got.RazorpaySignature.String))

	require.Len(t, pub.paid, 1)
	assert.Equal(t, "verify", pub.paid[0].Source)
	assert.Equal(t, "bride@example.com", pub.paid[0].Email)
}

func TestVerifyPaymentIdempotent(t *testing.T) {
	o := unpaidOrder(42, 7, 2500.00)
	o.RazorpayOrderID = nullString("order_abc")
	st := newFakeOrderStore(o)
	gw := newFakeGateway("s3cret")
	pub := &fakePublisher{}
	ps := newPaymentService(st, gw, newFakeLocker(), pub)

	req := &VerifyPaymentRequest{
		OrderID:           42,
		RazorpayOrderID:   "order_abc",
		RazorpayPaymentID: "pay_123",
		RazorpaySignature: gw.SignPayment("order_abc", "pay_123"),
	}
	require.NoError(t, ps.VerifyPayment(context.Background(), 7, req))

	first, err := st.GetOrderForUser(context.Background(), 42, 7)
	require.NoError(t, err)

	// applying the same confirmation again is a no-op, not a double credit
	require.NoError(t, ps.VerifyPayment(context.Background(), 7, req))

	second, err := st.GetOrderForUser(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, pub.paid, 1)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	o := unpaidOrder(42, 7, 2500.00)
	o.RazorpayOrderID = nullString("order_abc")
	st := newFakeOrderStore(o)
	gw := newFakeGateway("s3cret")
	ps := newPaymentService(st, gw, newFakeLocker(), &fakePublisher{})

	req := &VerifyPaymentRequest{
		OrderID:           42,
		RazorpayOrderID:   "order_abc",
		RazorpayPaymentID: "pay_123",
		RazorpaySignature: "0000000000000000000000000000000000000000000000000000000000000000",
	}
	err := ps.VerifyPayment(context.Background(), 7, req)
	assert.True(t, errors.Is(err, ErrSignatureMismatch))

	// order state must be untouched
	got, err := st.GetOrderForUser(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnpaid, got.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.False(t, got.RazorpayPaymentID.Valid)
}
