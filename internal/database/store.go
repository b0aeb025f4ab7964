package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cafe-pos-backend/internal/models"
	"cafe-pos-backend/internal/store"
)

// Rows keep the spreadsheet layout: structured fields are JSON text and
// flags are text. Seq preserves insertion order.

type productRow struct {
	Seq              uint   `gorm:"primaryKey;autoIncrement"`
	ID               string `gorm:"size:128;uniqueIndex;not null"`
	Name             string `gorm:"not null"`
	Category         string
	ProductType      string `gorm:"size:16"`
	Prices           string `gorm:"type:text"`
	Description      string `gorm:"type:text"`
	Image            string `gorm:"type:text"`
	AdditionalImages string `gorm:"type:text"`
	Video            string `gorm:"type:text"`
	IsPopular        string `gorm:"size:8"`
	IsRecommended    string `gorm:"size:8"`
}

func (productRow) TableName() string { return "products" }

type categoryRow struct {
	Seq  uint   `gorm:"primaryKey;autoIncrement"`
	ID   string `gorm:"size:128;uniqueIndex;not null"`
	Name string `gorm:"not null"`
}

func (categoryRow) TableName() string { return "categories" }

type orderRow struct {
	Seq              uint   `gorm:"primaryKey;autoIncrement"`
	ID               string `gorm:"size:128;uniqueIndex;not null"`
	CustomerName     string
	UserType         string `gorm:"size:16"`
	Items            string `gorm:"type:text"`
	TotalAmount      float64
	PaymentMethod    string `gorm:"size:16"`
	DeliveryLocation string
	Status           string `gorm:"size:16"`
	SlipURL          string `gorm:"column:slip_url;type:text"`
	Timestamp        int64  `gorm:"index"`
	PaymentStatus    string `gorm:"size:16"`
}

func (orderRow) TableName() string { return "orders" }

func toProductRow(p models.Product) productRow {
	r := store.ProductRecord(p)
	return productRow{
		ID:               r["id"],
		Name:             r["name"],
		Category:         r["category"],
		ProductType:      r["productType"],
		Prices:           r["prices"],
		Description:      r["description"],
		Image:            r["image"],
		AdditionalImages: r["additionalImages"],
		Video:            r["video"],
		IsPopular:        r["isPopular"],
		IsRecommended:    r["isRecommended"],
	}
}

func (r productRow) model() models.Product {
	return store.Record{
		"id":               r.ID,
		"name":             r.Name,
		"category":         r.Category,
		"productType":      r.ProductType,
		"prices":           r.Prices,
		"description":      r.Description,
		"image":            r.Image,
		"additionalImages": r.AdditionalImages,
		"video":            r.Video,
		"isPopular":        r.IsPopular,
		"isRecommended":    r.IsRecommended,
	}.Product()
}

func toOrderRow(o models.Order) orderRow {
	return orderRow{
		ID:               o.ID,
		CustomerName:     o.CustomerName,
		UserType:         string(o.UserType),
		Items:            models.EncodeItems(o.Items),
		TotalAmount:      o.TotalAmount,
		PaymentMethod:    string(o.PaymentMethod),
		DeliveryLocation: o.DeliveryLocation,
		Status:           string(o.Status),
		SlipURL:          o.SlipURL,
		Timestamp:        o.Timestamp,
		PaymentStatus:    string(o.PaymentStatus),
	}
}

func (r orderRow) model() models.Order {
	o := models.Order{
		ID:               r.ID,
		CustomerName:     r.CustomerName,
		UserType:         models.CustomerClass(r.UserType),
		Items:            models.DecodeItems(r.Items),
		TotalAmount:      r.TotalAmount,
		PaymentMethod:    models.PaymentMethod(r.PaymentMethod),
		DeliveryLocation: r.DeliveryLocation,
		Status:           models.OrderStatus(r.Status),
		SlipURL:          r.SlipURL,
		Timestamp:        r.Timestamp,
		PaymentStatus:    models.PaymentStatus(r.PaymentStatus),
	}
	if o.PaymentStatus == "" {
		o.PaymentStatus = models.PaymentPending
	}
	return o
}

// Store is the SQL row store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Products(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) SaveProduct(ctx context.Context, p models.Product) error {
	row := toProductRow(p)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing productRow
		err := tx.Where("id = ?", p.ID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&row).Error
		case err != nil:
			return err
		}
		row.Seq = existing.Seq
		return tx.Save(&row).Error
	})
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, &productRow{}, id)
}

func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	var rows []categoryRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]models.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Category{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (s *Store) SaveCategory(ctx context.Context, c models.Category) error {
	row := categoryRow{ID: c.ID, Name: c.Name}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing categoryRow
		err := tx.Where("id = ?", c.ID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&row).Error
		case err != nil:
			return err
		}
		row.Seq = existing.Seq
		return tx.Save(&row).Error
	})
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db, &categoryRow{}, id)
}

func (s *Store) Orders(ctx context.Context) ([]models.Order, error) {
	var rows []orderRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) Order(ctx context.Context, id string) (models.Order, error) {
	var row orderRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Order{}, fmt.Errorf("order %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return models.Order{}, err
	}
	return row.model(), nil
}

func (s *Store) CreateOrder(ctx context.Context, o models.Order) error {
	row := toOrderRow(o)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&orderRow{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("order %s: %w", o.ID, store.ErrDuplicate)
		}
		return tx.Create(&row).Error
	})
}

func (s *Store) ReplaceOrder(ctx context.Context, o models.Order) error {
	row := toOrderRow(o)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing orderRow
		err := tx.Where("id = ?", o.ID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("order %s: %w", o.ID, store.ErrNotFound)
		}
		if err != nil {
			return err
		}
		row.Seq = existing.Seq
		return tx.Save(&row).Error
	})
}

func deleteByID(ctx context.Context, db *gorm.DB, model any, id string) error {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	return nil
}
