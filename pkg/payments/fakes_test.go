package payments_test

import (
	"context"

	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/orders"
	"github.com/example/shopcore/pkg/payments"
)

// fakeStore holds orders and payment records in memory for gateway tests.
type fakeStore struct {
	orders  map[string]*models.Order
	records []*models.PaymentRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[string]*models.Order)}
}

func (f *fakeStore) addOrder(o models.Order) {
	f.orders[o.ID] = &o
}

func (f *fakeStore) addRecord(rec models.PaymentRecord) {
	f.records = append(f.records, &rec)
}

func (f *fakeStore) OrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, orders.NotFoundError{Resource: "order", ID: orderID}
	}
	return o, nil
}

func (f *fakeStore) OrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, orders.NotFoundError{Resource: "order", ID: orderNumber}
}

func (f *fakeStore) CreatePayment(ctx context.Context, rec *models.PaymentRecord) error {
	copied := *rec
	f.records = append(f.records, &copied)
	return nil
}

func (f *fakeStore) LatestPaymentByOrder(ctx context.Context, orderID string) (*models.PaymentRecord, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].OrderID == orderID {
			copied := *f.records[i]
			return &copied, nil
		}
	}
	return nil, orders.NotFoundError{Resource: "payment", ID: orderID}
}

func (f *fakeStore) SavePayment(ctx context.Context, rec *models.PaymentRecord) error {
	for i, existing := range f.records {
		if existing.ID == rec.ID {
			copied := *rec
			f.records[i] = &copied
			return nil
		}
	}
	copied := *rec
	f.records = append(f.records, &copied)
	return nil
}

func (f *fakeStore) latest(orderID string) *models.PaymentRecord {
	rec, err := f.LatestPaymentByOrder(context.Background(), orderID)
	if err != nil {
		return nil
	}
	return rec
}

// fakeLifecycle records the transitions the gateway requests.
type fakeLifecycle struct {
	paymentUpdates []models.PaymentStatus
	statusUpdates  []models.OrderStatus
	statusErr      error
}

func (f *fakeLifecycle) UpdateStatus(ctx context.Context, orderID string, next models.OrderStatus) (*models.Order, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	f.statusUpdates = append(f.statusUpdates, next)
	return &models.Order{ID: orderID, Status: next}, nil
}

func (f *fakeLifecycle) UpdatePaymentStatus(ctx context.Context, orderID string, next models.PaymentStatus) (*models.Order, error) {
	f.paymentUpdates = append(f.paymentUpdates, next)
	return &models.Order{ID: orderID, PaymentStatus: next}, nil
}

// stubProvider is a canned-response provider, optionally pollable.
type stubProvider struct {
	name        string
	attempt     *payments.Attempt
	outcome     *payments.Outcome
	pollOutcome *payments.Outcome
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) CreateAttempt(ctx context.Context, order *models.Order, amount float64) (*payments.Attempt, error) {
	return s.attempt, nil
}

func (s *stubProvider) VerifyCallback(ctx context.Context, params map[string]string) (*payments.Outcome, error) {
	return s.outcome, nil
}

func (s *stubProvider) PollStatus(ctx context.Context, orderRef string) (*payments.Outcome, error) {
	return s.pollOutcome, nil
}
