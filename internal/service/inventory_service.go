package service

import (
	"context"
	"errors"
	"fmt"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	SKU   string `json:"sku" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Price string `json:"price" binding:"required"`
}

type UpdateProductRequest struct {
	Name  *string `json:"name"`
	Price *string `json:"price"`
}

type AdjustStockRequest struct {
	Change int    `json:"change" binding:"required"`
	Note   string `json:"note"`
}

// --- Interface ---

// InventoryService manages products and stock. Every stock change writes
// exactly one inventory transaction row inside the same transaction as the
// stock update.
type InventoryService interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, tenantID uuid.UUID, id string, req UpdateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, tenantID uuid.UUID, id string) (*model.Product, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.Product, int64, error)
	AdjustStock(ctx context.Context, tenantID, userID uuid.UUID, id string, req AdjustStockRequest) (*model.Product, error)
	ListTransactions(ctx context.Context, tenantID uuid.UUID, productID string, page, limit int) ([]model.InventoryTransaction, int64, error)
}

type inventoryService struct {
	productRepo     repository.ProductRepository
	inventoryTxRepo repository.InventoryTxRepository
	txManager       repository.TransactionManager
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	inventoryTxRepo repository.InventoryTxRepository,
	txManager repository.TransactionManager,
) InventoryService {
	return &inventoryService{
		productRepo:     productRepo,
		inventoryTxRepo: inventoryTxRepo,
		txManager:       txManager,
	}
}

// --- Implementation ---

func (s *inventoryService) CreateProduct(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*model.Product, error) {
	if _, err := s.productRepo.FindBySKU(ctx, tenantID, req.SKU); err == nil {
		return nil, fmt.Errorf("sku %s already exists", req.SKU)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative")
	}

	product := model.Product{
		TenantID: tenantID,
		SKU:      req.SKU,
		Name:     req.Name,
		Price:    price,
	}
	if err := s.productRepo.Create(ctx, &product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, tenantID uuid.UUID, id string, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.findTenantProduct(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price: %w", err)
		}
		product.Price = price
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, tenantID uuid.UUID, id string) (*model.Product, error) {
	return s.findTenantProduct(ctx, tenantID, id)
}

func (s *inventoryService) ListProducts(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.List(ctx, tenantID, page, limit, search)
}

// AdjustStock applies a manual correction. The product row is locked so the
// recorded StockAfter always matches the applied change.
func (s *inventoryService) AdjustStock(ctx context.Context, tenantID, userID uuid.UUID, id string, req AdjustStockRequest) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %s", ErrEntityNotFound, id)
			}
			return err
		}
		if locked.TenantID != tenantID {
			return fmt.Errorf("%w: product %s", ErrEntityNotFound, id)
		}

		newStock := locked.CurrentStock + req.Change
		if newStock < 0 {
			return fmt.Errorf("stock cannot go negative: current %d, change %d", locked.CurrentStock, req.Change)
		}

		if err := s.productRepo.UpdateStock(txCtx, locked.ID, newStock); err != nil {
			return err
		}
		if err := s.inventoryTxRepo.Create(txCtx, &model.InventoryTransaction{
			TenantID:        tenantID,
			ProductID:       locked.ID,
			TransactionType: model.TxTypeAdjustment,
			QuantityChanged: req.Change,
			StockAfter:      newStock,
			Note:            req.Note,
			CreatedBy:       &userID,
		}); err != nil {
			return err
		}

		locked.CurrentStock = newStock
		product = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *inventoryService) ListTransactions(ctx context.Context, tenantID uuid.UUID, productID string, page, limit int) ([]model.InventoryTransaction, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if productID != "" {
		parsed, err := uuid.Parse(productID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid product id: %w", err)
		}
		return s.inventoryTxRepo.ListByProduct(ctx, parsed, page, limit)
	}
	return s.inventoryTxRepo.List(ctx, tenantID, page, limit)
}

func (s *inventoryService) findTenantProduct(ctx context.Context, tenantID uuid.UUID, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrEntityNotFound, id)
		}
		return nil, err
	}
	if product.TenantID != tenantID {
		return nil, fmt.Errorf("%w: product %s", ErrEntityNotFound, id)
	}
	return product, nil
}
