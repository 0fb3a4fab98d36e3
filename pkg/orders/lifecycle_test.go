package orders_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/orders"
)

func newLifecycle(store orders.Store) *orders.LifecycleService {
	return orders.NewLifecycleService(store, nil, nil, nil, zap.NewNop())
}

func seedOrder(store *memStore, id string, status models.OrderStatus) {
	store.addOrder(models.Order{
		ID:            id,
		OrderNumber:   "ORD20260831120000-00001",
		UserID:        "user-1",
		Status:        status,
		PaymentStatus: models.PaymentStatusPending,
	})
}

func TestUpdateStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{models.OrderStatusPending, models.OrderStatusProcessing, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusShipped, false},
		{models.OrderStatusPending, models.OrderStatusDelivered, false},
		{models.OrderStatusProcessing, models.OrderStatusShipped, true},
		{models.OrderStatusProcessing, models.OrderStatusCancelled, true},
		{models.OrderStatusProcessing, models.OrderStatusDelivered, false},
		{models.OrderStatusProcessing, models.OrderStatusPending, false},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{models.OrderStatusShipped, models.OrderStatusProcessing, false},
		{models.OrderStatusDelivered, models.OrderStatusCancelled, false},
		{models.OrderStatusDelivered, models.OrderStatusPending, false},
		{models.OrderStatusCancelled, models.OrderStatusPending, false},
		{models.OrderStatusCancelled, models.OrderStatusProcessing, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			store := newMemStore()
			seedOrder(store, "order-1", tc.from)
			svc := newLifecycle(store)

			updated, err := svc.UpdateStatus(context.Background(), "order-1", tc.to)
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected transition to succeed: %v", err)
				}
				if updated.Status != tc.to {
					t.Errorf("status not updated: %s", updated.Status)
				}
				return
			}
			var illegal orders.IllegalTransitionError
			if !errors.As(err, &illegal) {
				t.Fatalf("expected IllegalTransitionError, got %v", err)
			}
			persisted, _ := store.OrderByID(context.Background(), "order-1")
			if persisted.Status != tc.from {
				t.Errorf("rejected transition mutated status: %s", persisted.Status)
			}
		})
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	store := newMemStore()
	seedOrder(store, "order-1", models.OrderStatusPending)

	_, err := newLifecycle(store).UpdateStatus(context.Background(), "order-1", models.OrderStatus("teleported"))

	var invalid orders.InvalidStatusError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStatusError, got %v", err)
	}
}

func TestUpdateStatusStampsTimestampsOnce(t *testing.T) {
	store := newMemStore()
	seedOrder(store, "order-1", models.OrderStatusProcessing)
	svc := newLifecycle(store)
	ctx := context.Background()

	shipped, err := svc.UpdateStatus(ctx, "order-1", models.OrderStatusShipped)
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if shipped.ShippedAt == nil {
		t.Fatal("ShippedAt not stamped")
	}
	shippedAt := *shipped.ShippedAt

	delivered, err := svc.UpdateStatus(ctx, "order-1", models.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Fatal("DeliveredAt not stamped")
	}
	if delivered.ShippedAt == nil || !delivered.ShippedAt.Equal(shippedAt) {
		t.Error("ShippedAt overwritten by later transition")
	}
}

func TestCancelRestocksEveryLine(t *testing.T) {
	store := newMemStore()
	store.addProduct(models.Product{ID: "prod-a", Name: "Widget", Price: 10, StockQuantity: 3, IsActive: true})
	store.addProduct(models.Product{ID: "prod-b", Name: "Gadget", Price: 20, StockQuantity: 0, IsActive: true})
	store.addOrder(models.Order{
		ID:            "order-1",
		OrderNumber:   "ORD20260831120000-00002",
		UserID:        "user-1",
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Lines: []models.OrderLine{
			{ID: "line-1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2},
			{ID: "line-2", OrderID: "order-1", ProductID: "prod-b", Quantity: 1},
		},
	})

	updated, err := newLifecycle(store).Cancel(context.Background(), "order-1", "changed my mind")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if updated.Status != models.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", updated.Status)
	}
	if !strings.Contains(updated.Notes, "cancelled: changed my mind") {
		t.Errorf("cancel reason not recorded in notes: %q", updated.Notes)
	}
	if got := store.stock("prod-a"); got != 5 {
		t.Errorf("prod-a not restocked: %d", got)
	}
	if got := store.stock("prod-b"); got != 1 {
		t.Errorf("prod-b not restocked: %d", got)
	}
}

func TestConcurrentCancelRestocksOnce(t *testing.T) {
	store := newMemStore()
	store.addProduct(models.Product{ID: "prod-a", Name: "Widget", Price: 10, StockQuantity: 0, IsActive: true})
	store.addOrder(models.Order{
		ID:            "order-1",
		OrderNumber:   "ORD20260831120000-00003",
		UserID:        "user-1",
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Lines: []models.OrderLine{
			{ID: "line-1", OrderID: "order-1", ProductID: "prod-a", Quantity: 4},
		},
	})
	svc := newLifecycle(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Cancel(context.Background(), "order-1", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var illegal orders.IllegalTransitionError
		if !errors.As(err, &illegal) {
			t.Errorf("unexpected error from duplicate cancel: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one cancel to succeed, got %d", succeeded)
	}
	if got := store.stock("prod-a"); got != 4 {
		t.Errorf("stock credited more than once: %d", got)
	}
}

func TestCancelShippedOrder(t *testing.T) {
	store := newMemStore()
	seedOrder(store, "order-1", models.OrderStatusShipped)

	_, err := newLifecycle(store).Cancel(context.Background(), "order-1", "too late")
	if !errors.Is(err, orders.ErrCancelShipped) {
		t.Fatalf("expected ErrCancelShipped, got %v", err)
	}
	persisted, _ := store.OrderByID(context.Background(), "order-1")
	if persisted.Status != models.OrderStatusShipped {
		t.Errorf("shipped order mutated: %s", persisted.Status)
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	store := newMemStore()

	_, err := newLifecycle(store).UpdateStatus(context.Background(), "ghost", models.OrderStatusProcessing)

	var nferr orders.NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdatePaymentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to paid", func(t *testing.T) {
		store := newMemStore()
		seedOrder(store, "order-1", models.OrderStatusPending)
		updated, err := newLifecycle(store).UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusPaid)
		if err != nil {
			t.Fatalf("expected success: %v", err)
		}
		if updated.PaymentStatus != models.PaymentStatusPaid {
			t.Errorf("payment status not updated: %s", updated.PaymentStatus)
		}
	})

	t.Run("same state is a no-op", func(t *testing.T) {
		store := newMemStore()
		seedOrder(store, "order-1", models.OrderStatusPending)
		svc := newLifecycle(store)
		if _, err := svc.UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusPaid); err != nil {
			t.Fatalf("first update failed: %v", err)
		}
		updated, err := svc.UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusPaid)
		if err != nil {
			t.Fatalf("repeated update should be a no-op: %v", err)
		}
		if updated.PaymentStatus != models.PaymentStatusPaid {
			t.Errorf("unexpected payment status: %s", updated.PaymentStatus)
		}
	})

	t.Run("paid to refunded", func(t *testing.T) {
		store := newMemStore()
		seedOrder(store, "order-1", models.OrderStatusPending)
		svc := newLifecycle(store)
		if _, err := svc.UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusPaid); err != nil {
			t.Fatalf("mark paid failed: %v", err)
		}
		if _, err := svc.UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusRefunded); err != nil {
			t.Fatalf("refund failed: %v", err)
		}
	})

	t.Run("paid back to pending is illegal", func(t *testing.T) {
		store := newMemStore()
		seedOrder(store, "order-1", models.OrderStatusPending)
		svc := newLifecycle(store)
		if _, err := svc.UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusPaid); err != nil {
			t.Fatalf("mark paid failed: %v", err)
		}
		_, err := svc.UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusPending)
		var illegal orders.IllegalTransitionError
		if !errors.As(err, &illegal) {
			t.Fatalf("expected IllegalTransitionError, got %v", err)
		}
	})

	t.Run("failed is terminal", func(t *testing.T) {
		store := newMemStore()
		seedOrder(store, "order-1", models.OrderStatusPending)
		svc := newLifecycle(store)
		if _, err := svc.UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusFailed); err != nil {
			t.Fatalf("mark failed failed: %v", err)
		}
		_, err := svc.UpdatePaymentStatus(ctx, "order-1", models.PaymentStatusPaid)
		var illegal orders.IllegalTransitionError
		if !errors.As(err, &illegal) {
			t.Fatalf("expected IllegalTransitionError, got %v", err)
		}
	})

	t.Run("unknown value", func(t *testing.T) {
		store := newMemStore()
		seedOrder(store, "order-1", models.OrderStatusPending)
		_, err := newLifecycle(store).UpdatePaymentStatus(ctx, "order-1", models.PaymentStatus("maybe"))
		var invalid orders.InvalidStatusError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidStatusError, got %v", err)
		}
	})
}

func TestPaymentFailureLeavesStockReserved(t *testing.T) {
	store := newMemStore()
	store.addProduct(models.Product{ID: "prod-a", Name: "Widget", Price: 10, StockQuantity: 0, IsActive: true})
	store.addOrder(models.Order{
		ID:            "order-1",
		OrderNumber:   "ORD20260831120000-00004",
		UserID:        "user-1",
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Lines: []models.OrderLine{
			{ID: "line-1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2},
		},
	})

	if _, err := newLifecycle(store).UpdatePaymentStatus(context.Background(), "order-1", models.PaymentStatusFailed); err != nil {
		t.Fatalf("mark failed failed: %v", err)
	}
	if got := store.stock("prod-a"); got != 0 {
		t.Errorf("payment failure must not restock, got %d", got)
	}
}
