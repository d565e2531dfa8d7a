package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thriftbazaar/internal/domain"
	"thriftbazaar/internal/services"
)

var goodCard = domain.CardDetails{Number: "4111 1111 1111 1111", Name: "ASHA RAO", Expiry: "09/28", CVV: "123"}

func TestValidateCard(t *testing.T) {
	require.NoError(t, services.ValidateCard(goodCard))

	bad := map[string]func(*domain.CardDetails){
		"cardNumber": func(c *domain.CardDetails) { c.Number = "4111 1111 1111" },
		"cardName":   func(c *domain.CardDetails) { c.Name = "" },
		"expiryDate": func(c *domain.CardDetails) { c.Expiry = "0928" },
		"cvv":        func(c *domain.CardDetails) { c.CVV = "12" },
	}
	for field, mutate := range bad {
		c := goodCard
		mutate(&c)
		err := services.ValidateCard(c)
		require.Error(t, err, field)
		assert.True(t, errors.Is(err, domain.ErrInvalidCard))
		var fe *domain.FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, field, fe.Field)
	}
}

func TestValidateUPI(t *testing.T) {
	assert.NoError(t, services.ValidateUPI("asha@okaxis"))
	assert.True(t, errors.Is(services.ValidateUPI("asha@ok"), domain.ErrInvalidUPI))
	assert.True(t, errors.Is(services.ValidateUPI("asha"), domain.ErrInvalidUPI))
}

func TestCODAlwaysSucceeds(t *testing.T) {
	s := newStack(t)
	s.payments.Decide = func() bool { return false }
	s.payments.Delay = time.Hour

	p, err := s.payments.Settle(context.Background(), s.sess.ID, domain.MethodCOD, decimal.NewFromInt(945), "ORD-x")
	require.NoError(t, err)
	assert.Equal(t, "completed", p.Status)
	assert.Equal(t, domain.MethodCOD, p.Method)

	list, _ := s.payments.List(context.Background(), s.sess.ID)
	require.Len(t, list, 1)
	assert.Equal(t, "ORD-x", list[0].OrderID)
}

func TestDeclineRecordsNothing(t *testing.T) {
	s := newStack(t)
	s.payments.Decide = func() bool { return false }

	_, err := s.payments.Settle(context.Background(), s.sess.ID, domain.MethodUPI, decimal.NewFromInt(10), "ORD-x")
	assert.True(t, errors.Is(err, domain.ErrPaymentDeclined))
	list, _ := s.payments.List(context.Background(), s.sess.ID)
	assert.Empty(t, list)
	assert.Contains(t, s.events.types(), domain.EventPaymentFailed)
}

func TestSettleHonoursContext(t *testing.T) {
	s := newStack(t)
	s.payments.Delay = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.payments.Settle(ctx, s.sess.ID, domain.MethodCard, decimal.NewFromInt(10), "ORD-x")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPayAdvancesOrder(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := placeOne(t, s, 1832)

	p, err := s.payments.Pay(ctx, s.sess.ID, id, services.PaymentRequest{Method: domain.MethodCard, Card: goodCard})
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(1924)))

	o, _ := s.orders.Get(ctx, s.sess.ID, id)
	assert.Equal(t, domain.StatusProcessing, o.Status)

	_, err = s.payments.Pay(ctx, s.sess.ID, id, services.PaymentRequest{Method: domain.MethodCOD})
	assert.True(t, errors.Is(err, domain.ErrNotPayable))
}

func TestPayFailureKeepsOrderPending(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := placeOne(t, s, 500)
	s.payments.Decide = func() bool { return false }

	_, err := s.payments.Pay(ctx, s.sess.ID, id, services.PaymentRequest{Method: domain.MethodWallet})
	assert.True(t, errors.Is(err, domain.ErrPaymentDeclined))
	o, _ := s.orders.Get(ctx, s.sess.ID, id)
	assert.Equal(t, domain.StatusPending, o.Status)

	// retry with another method
	_, err = s.payments.Pay(ctx, s.sess.ID, id, services.PaymentRequest{Method: domain.MethodCOD})
	require.NoError(t, err)
	o, _ = s.orders.Get(ctx, s.sess.ID, id)
	assert.Equal(t, domain.StatusProcessing, o.Status)
}

func TestOverlappingPaySettlesOnce(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := placeOne(t, s, 500)
	s.payments.Delay = 30 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.payments.Pay(ctx, s.sess.ID, id, services.PaymentRequest{Method: domain.MethodUPI, UPI: "asha@okaxis"})
		}(i)
	}
	wg.Wait()

	ok, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrNotPayable):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	list, _ := s.payments.List(ctx, s.sess.ID)
	assert.Len(t, list, 1)
	o, _ := s.orders.Get(ctx, s.sess.ID, id)
	assert.Equal(t, domain.StatusProcessing, o.Status)
}

func TestCancelWhileSettlingRecordsNothing(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := placeOne(t, s, 500)

	var cancelErr error
	s.payments.Decide = func() bool {
		// the shopper cancels while the gateway is still deciding
		_, cancelErr = s.orders.Cancel(ctx, s.sess.ID, id)
		return true
	}

	_, err := s.payments.Pay(ctx, s.sess.ID, id, services.PaymentRequest{Method: domain.MethodCard, Card: goodCard})
	require.NoError(t, cancelErr)
	assert.True(t, errors.Is(err, domain.ErrNotPayable))

	list, _ := s.payments.List(ctx, s.sess.ID)
	assert.Empty(t, list)
	o, _ := s.orders.Get(ctx, s.sess.ID, id)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	assert.NotContains(t, s.events.types(), domain.EventPaymentSettle)
}

func TestPayRejectsCancelledOrder(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := placeOne(t, s, 500)
	_, err := s.orders.Cancel(ctx, s.sess.ID, id)
	require.NoError(t, err)

	_, err = s.payments.Pay(ctx, s.sess.ID, id, services.PaymentRequest{Method: domain.MethodCOD})
	assert.True(t, errors.Is(err, domain.ErrNotPayable))
	list, _ := s.payments.List(ctx, s.sess.ID)
	assert.Empty(t, list)
}

func TestPayValidatesBeforeSettling(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	id := placeOne(t, s, 500)

	_, err := s.payments.Pay(ctx, s.sess.ID, id, services.PaymentRequest{Method: domain.MethodUPI, UPI: "nope"})
	assert.True(t, errors.Is(err, domain.ErrInvalidUPI))
	list, _ := s.payments.List(ctx, s.sess.ID)
	assert.Empty(t, list)
}

func TestDefaultDeciderRate(t *testing.T) {
	always := services.NewPaymentService(nil, nil, nil, 0, 1)
	never := services.NewPaymentService(nil, nil, nil, 0, 0)
	for i := 0; i < 50; i++ {
		require.True(t, always.Decide())
		require.False(t, never.Decide())
	}
}
