package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/stock-manager/internal/audit"
	"github.com/diewo77/stock-manager/internal/inventory"
	"github.com/diewo77/stock-manager/internal/models"
	"github.com/diewo77/stock-manager/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductInput describes a new catalog entry. Quantity is the opening stock;
// afterwards only order reconciliation changes it.
type ProductInput struct {
	Name        string
	Reference   string
	Description string
	Quantity    int
	Threshold   *int
	Price       decimal.Decimal
	ExpiryDate  *time.Time
	SupplierID  *uint
}

type SupplierInput struct {
	Name          string
	Phone         string
	Address       string
	Email         string
	ContactPerson string
}

func (in SupplierInput) validate() error {
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	validation.Required("phone", in.Phone, v)
	validation.Required("address", in.Address, v)
	return inventory.Invalid(v)
}

type ClientInput struct {
	Name          string
	Phone         string
	Address       string
	ContactPerson string
}

// CatalogService manages products, suppliers and clients.
type CatalogService struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewCatalogService(db *gorm.DB, rec *audit.Recorder) *CatalogService {
	return &CatalogService{db: db, audit: rec}
}

// ListProducts returns a page of products by name, filtered by name or
// reference when q is set.
func (s *CatalogService) ListProducts(ctx context.Context, q string, limit, offset int) ([]models.Product, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	db := s.db.WithContext(ctx).Model(&models.Product{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(reference) LIKE ?", like, like)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, inventory.Persistence("count products", err)
	}
	var products []models.Product
	if err := db.Order("name").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, inventory.Persistence("list products", err)
	}
	return products, total, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Preload("Supplier").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &inventory.NotFoundError{Entity: "product", ID: id}
		}
		return nil, inventory.Persistence("load product", err)
	}
	return &p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, userID uint, in ProductInput) (*models.Product, error) {
	threshold := models.DefaultThreshold
	if in.Threshold != nil {
		threshold = *in.Threshold
	}
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	validation.Required("reference", in.Reference, v)
	validation.NonNegativeInt("quantity", in.Quantity, v)
	validation.NonNegativeInt("threshold", threshold, v)
	validation.NonNegativeDecimal("price", in.Price, v)
	if err := inventory.Invalid(v); err != nil {
		return nil, err
	}

	p := models.Product{
		Name:        strings.TrimSpace(in.Name),
		Reference:   strings.ToUpper(strings.TrimSpace(in.Reference)),
		Description: in.Description,
		Quantity:    in.Quantity,
		Threshold:   threshold,
		Price:       in.Price,
		ExpiryDate:  in.ExpiryDate,
		SupplierID:  in.SupplierID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.SupplierID != nil {
			var count int64
			if err := tx.Model(&models.Supplier{}).Where("id = ?", *p.SupplierID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return &inventory.NotFoundError{Entity: "supplier", ID: *p.SupplierID}
			}
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		// a zero threshold is replaced by the column default on insert
		if threshold == 0 {
			return tx.Model(&p).Update("threshold", 0).Error
		}
		return nil
	})
	if err != nil {
		return nil, inventory.Persistence("create product", err)
	}
	p.Threshold = threshold
	s.audit.Record(ctx, userID, "Added product %s (%s)", p.Name, p.Reference)
	return &p, nil
}

// DeleteProduct removes a product that no order line references. A product
// still on an order fails with inventory.ErrConflict.
func (s *CatalogService) DeleteProduct(ctx context.Context, userID, id uint) error {
	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &inventory.NotFoundError{Entity: "product", ID: id}
			}
			return err
		}
		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("product #%d is on %d order line(s): %w", id, refs, inventory.ErrConflict)
		}
		err := tx.Delete(&models.Product{}, id).Error
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return fmt.Errorf("product #%d is referenced: %w", id, inventory.ErrConflict)
		}
		return err
	})
	if err != nil {
		return inventory.Persistence("delete product", err)
	}
	s.audit.Record(ctx, userID, "Deleted product %s (%s)", p.Name, p.Reference)
	return nil
}

// ListSuppliers returns suppliers by name, filtered by name or contact when
// q is set.
func (s *CatalogService) ListSuppliers(ctx context.Context, q string) ([]models.Supplier, error) {
	db := s.db.WithContext(ctx).Model(&models.Supplier{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(contact_person) LIKE ?", like, like)
	}
	var suppliers []models.Supplier
	if err := db.Order("name").Find(&suppliers).Error; err != nil {
		return nil, inventory.Persistence("list suppliers", err)
	}
	return suppliers, nil
}

func (s *CatalogService) CreateSupplier(ctx context.Context, userID uint, in SupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sup := models.Supplier{
		Name:          strings.TrimSpace(in.Name),
		Phone:         strings.TrimSpace(in.Phone),
		Address:       strings.TrimSpace(in.Address),
		Email:         strings.TrimSpace(in.Email),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		IsActive:      true,
	}
	if err := s.db.WithContext(ctx).Create(&sup).Error; err != nil {
		return nil, inventory.Persistence("create supplier", err)
	}
	s.audit.Record(ctx, userID, "Added supplier %s", sup.Name)
	return &sup, nil
}

func (s *CatalogService) UpdateSupplier(ctx context.Context, userID, id uint, in SupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var sup models.Supplier
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sup, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &inventory.NotFoundError{Entity: "supplier", ID: id}
			}
			return err
		}
		if err := tx.Model(&sup).Updates(map[string]any{
			"name":           strings.TrimSpace(in.Name),
			"phone":          strings.TrimSpace(in.Phone),
			"address":        strings.TrimSpace(in.Address),
			"email":          strings.TrimSpace(in.Email),
			"contact_person": strings.TrimSpace(in.ContactPerson),
		}).Error; err != nil {
			return err
		}
		return tx.First(&sup, id).Error
	})
	if err != nil {
		return nil, inventory.Persistence("update supplier", err)
	}
	s.audit.Record(ctx, userID, "Updated supplier %s", sup.Name)
	return &sup, nil
}

// DeleteSupplier removes a supplier. Its products stay in the catalog with
// no supplier.
func (s *CatalogService) DeleteSupplier(ctx context.Context, userID, id uint) error {
	var sup models.Supplier
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sup, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &inventory.NotFoundError{Entity: "supplier", ID: id}
			}
			return err
		}
		if err := tx.Model(&models.Product{}).Where("supplier_id = ?", id).Update("supplier_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Supplier{}, id).Error
	})
	if err != nil {
		return inventory.Persistence("delete supplier", err)
	}
	s.audit.Record(ctx, userID, "Deleted supplier %s", sup.Name)
	return nil
}

func (s *CatalogService) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.WithContext(ctx).Order("name").Find(&clients).Error; err != nil {
		return nil, inventory.Persistence("list clients", err)
	}
	return clients, nil
}

func (s *CatalogService) CreateClient(ctx context.Context, userID uint, in ClientInput) (*models.Client, error) {
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	if err := inventory.Invalid(v); err != nil {
		return nil, err
	}
	c := models.Client{Name: strings.TrimSpace(in.Name), Phone: in.Phone, Address: in.Address, ContactPerson: in.ContactPerson}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, inventory.Persistence("create client", err)
	}
	s.audit.Record(ctx, userID, "Added client %s", c.Name)
	return &c, nil
}
