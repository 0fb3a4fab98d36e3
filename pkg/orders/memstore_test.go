package orders_test

import (
	"context"
	"sync"

	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/orders"
)

// memStore is an in-memory orders.Store. A single mutex serializes
// transactions, mirroring how row locks serialize writers on the real
// store, and a pre-transaction snapshot gives full rollback on error.
type memStore struct {
	mu sync.Mutex

	products  map[string]*models.Product
	customers map[string]*models.Customer // keyed by user id
	carts     map[string][]models.CartItem
	orders    map[string]*models.Order

	// failCreates makes the next n CreateOrder calls report a duplicate
	// order number, for exercising the retry path.
	failCreates int
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[string]*models.Product),
		customers: make(map[string]*models.Customer),
		carts:     make(map[string][]models.CartItem),
		orders:    make(map[string]*models.Order),
	}
}

func (m *memStore) addProduct(p models.Product) {
	m.products[p.ID] = &p
}

func (m *memStore) addCustomer(userID, customerID string) {
	m.customers[userID] = &models.Customer{ID: customerID, UserID: userID, FullName: "Test Customer", Email: userID + "@example.com"}
}

func (m *memStore) addCartLine(userID, productID string, qty int) {
	m.carts[userID] = append(m.carts[userID], models.CartItem{UserID: userID, ProductID: productID, Quantity: qty})
}

func (m *memStore) addOrder(o models.Order) {
	copied := o
	copied.Lines = append([]models.OrderLine(nil), o.Lines...)
	m.orders[o.ID] = &copied
}

func (m *memStore) stock(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[productID].StockQuantity
}

func (m *memStore) snapshot() map[string]int {
	stocks := make(map[string]int, len(m.products))
	for id, p := range m.products {
		stocks[id] = p.StockQuantity
	}
	return stocks
}

func (m *memStore) restore(stocks map[string]int, orderIDs map[string]bool, carts map[string][]models.CartItem) {
	for id, qty := range stocks {
		m.products[id].StockQuantity = qty
	}
	for id := range m.orders {
		if !orderIDs[id] {
			delete(m.orders, id)
		}
	}
	m.carts = carts
}

func (m *memStore) InTransaction(ctx context.Context, fn func(tx orders.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stocks := m.snapshot()
	orderIDs := make(map[string]bool, len(m.orders))
	for id := range m.orders {
		orderIDs[id] = true
	}
	carts := make(map[string][]models.CartItem, len(m.carts))
	for user, lines := range m.carts {
		carts[user] = append([]models.CartItem(nil), lines...)
	}

	if err := fn(&memTx{s: m}); err != nil {
		m.restore(stocks, orderIDs, carts)
		return err
	}
	return nil
}

func (m *memStore) CartLines(ctx context.Context, userID string) ([]models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CartItem(nil), m.carts[userID]...), nil
}

func (m *memStore) ClearCart(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m *memStore) CustomerByUserID(ctx context.Context, userID string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[userID]
	if !ok {
		return nil, orders.NotFoundError{Resource: "customer", ID: userID}
	}
	return c, nil
}

func (m *memStore) ProductForUpdate(ctx context.Context, productID string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{s: m}).ProductForUpdate(ctx, productID)
}

func (m *memStore) AdjustStock(ctx context.Context, productID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{s: m}).AdjustStock(ctx, productID, delta)
}

func (m *memStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{s: m}).CreateOrder(ctx, order)
}

func (m *memStore) OrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{s: m}).OrderByID(ctx, orderID)
}

func (m *memStore) OrderForUpdate(ctx context.Context, orderID string) (*models.Order, error) {
	return m.OrderByID(ctx, orderID)
}

func (m *memStore) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			list = append(list, *o)
		}
	}
	return list, nil
}

func (m *memStore) SaveOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{s: m}).SaveOrder(ctx, order)
}

// memTx is the transactional view handed to InTransaction callbacks. The
// store mutex is already held, so it touches state directly.
type memTx struct {
	s *memStore
}

func (t *memTx) InTransaction(ctx context.Context, fn func(tx orders.Store) error) error {
	return fn(t)
}

func (t *memTx) CartLines(ctx context.Context, userID string) ([]models.CartItem, error) {
	return append([]models.CartItem(nil), t.s.carts[userID]...), nil
}

func (t *memTx) ClearCart(ctx context.Context, userID string) error {
	delete(t.s.carts, userID)
	return nil
}

func (t *memTx) CustomerByUserID(ctx context.Context, userID string) (*models.Customer, error) {
	c, ok := t.s.customers[userID]
	if !ok {
		return nil, orders.NotFoundError{Resource: "customer", ID: userID}
	}
	return c, nil
}

func (t *memTx) ProductForUpdate(ctx context.Context, productID string) (*models.Product, error) {
	p, ok := t.s.products[productID]
	if !ok || !p.IsActive {
		return nil, orders.NotFoundError{Resource: "product", ID: productID}
	}
	copied := *p
	return &copied, nil
}

func (t *memTx) AdjustStock(ctx context.Context, productID string, delta int) error {
	p, ok := t.s.products[productID]
	if !ok {
		return orders.NotFoundError{Resource: "product", ID: productID}
	}
	p.StockQuantity += delta
	return nil
}

func (t *memTx) CreateOrder(ctx context.Context, order *models.Order) error {
	if t.s.failCreates > 0 {
		t.s.failCreates--
		return orders.ErrDuplicateOrderNumber
	}
	for _, existing := range t.s.orders {
		if existing.OrderNumber == order.OrderNumber {
			return orders.ErrDuplicateOrderNumber
		}
	}
	copied := *order
	t.s.orders[order.ID] = &copied
	return nil
}

func (t *memTx) OrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	o, ok := t.s.orders[orderID]
	if !ok {
		return nil, orders.NotFoundError{Resource: "order", ID: orderID}
	}
	copied := *o
	copied.Lines = append([]models.OrderLine(nil), o.Lines...)
	return &copied, nil
}

func (t *memTx) OrderForUpdate(ctx context.Context, orderID string) (*models.Order, error) {
	return t.OrderByID(ctx, orderID)
}

func (t *memTx) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var list []models.Order
	for _, o := range t.s.orders {
		if o.UserID == userID {
			list = append(list, *o)
		}
	}
	return list, nil
}

func (t *memTx) SaveOrder(ctx context.Context, order *models.Order) error {
	copied := *order
	copied.Lines = append([]models.OrderLine(nil), order.Lines...)
	t.s.orders[order.ID] = &copied
	return nil
}
