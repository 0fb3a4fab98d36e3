package repository

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/orders"
)

// mysqlDuplicateEntry is the MySQL error number for a unique index
// violation.
const mysqlDuplicateEntry = 1062

// OpenMySQL connects to MySQL and applies the pool settings.
func OpenMySQL(cfg *config.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return db, nil
}

// AutoMigrate creates or updates the relational tables this service owns
// or depends on.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Product{},
		&models.CartItem{},
		&models.Customer{},
		&models.Order{},
		&models.OrderLine{},
		&models.PaymentRecord{},
	)
}

// Store is the MySQL implementation of the orders and payments store
// ports. A Store built inside InTransaction shares that transaction's
// connection, so row locks taken through it last until commit or rollback.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTransaction(ctx context.Context, fn func(tx orders.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CartLines(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func (s *Store) CustomerByUserID(ctx context.Context, userID string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orders.NotFoundError{Resource: "customer", ID: userID}
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *Store) ProductForUpdate(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orders.NotFoundError{Resource: "product", ID: productID}
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) AdjustStock(ctx context.Context, productID string, delta int) error {
	return s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta)).Error
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	err := s.db.WithContext(ctx).Create(order).Error
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return orders.ErrDuplicateOrderNumber
	}
	return err
}

func (s *Store) OrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Lines").Where("id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orders.NotFoundError{Resource: "order", ID: orderID}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) OrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Lines").Where("order_number = ?", orderNumber).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orders.NotFoundError{Resource: "order", ID: orderNumber}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) OrderForUpdate(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines").
		Where("id = ?", orderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orders.NotFoundError{Resource: "order", ID: orderID}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var list []models.Order
	err := s.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) SaveOrder(ctx context.Context, order *models.Order) error {
	// Lines are immutable after creation; only the order row is written.
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

func (s *Store) CreatePayment(ctx context.Context, rec *models.PaymentRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *Store) LatestPaymentByOrder(ctx context.Context, orderID string) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orders.NotFoundError{Resource: "payment record", ID: orderID}
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) SavePayment(ctx context.Context, rec *models.PaymentRecord) error {
	return s.db.WithContext(ctx).Save(rec).Error
}
