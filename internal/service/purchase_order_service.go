package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erpapi/internal/model"
	"erpapi/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type PurchaseOrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

type CreatePurchaseOrderRequest struct {
	PartnerID  string                     `json:"partner_id"`
	Department string                     `json:"department"`
	ExpectedAt string                     `json:"expected_at"` // YYYY-MM-DD
	Note       string                     `json:"note"`
	Items      []PurchaseOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type PurchaseOrderItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type PurchaseOrderResponse struct {
	ID          string                      `json:"id"`
	OrderNo     string                      `json:"order_no"`
	PartnerID   *string                     `json:"partner_id,omitempty"`
	PartnerName string                      `json:"partner_name,omitempty"`
	Status      string                      `json:"status"`
	TotalAmount string                      `json:"total_amount"`
	Department  string                      `json:"department"`
	Items       []PurchaseOrderItemResponse `json:"items,omitempty"`
	ExpectedAt  *string                     `json:"expected_at,omitempty"`
	Note        string                      `json:"note"`
	CreatedAt   string                      `json:"created_at"`
}

// --- Interface ---

// PurchaseOrderService manages procurement. Approval is gated by the
// workflow engine; receiving an approved order updates product stock and
// records one inventory transaction per item inside a single transaction.
type PurchaseOrderService interface {
	CreateOrder(ctx context.Context, tenantID, companyID, userID uuid.UUID, req CreatePurchaseOrderRequest) (PurchaseOrderResponse, error)
	SubmitOrder(ctx context.Context, tenantID, companyID, userID uuid.UUID, id string) (PurchaseOrderResponse, error)
	ReceiveOrder(ctx context.Context, tenantID, userID uuid.UUID, id string) (PurchaseOrderResponse, error)
	GetOrder(ctx context.Context, tenantID uuid.UUID, id string) (PurchaseOrderResponse, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]PurchaseOrderResponse, int64, error)
	HandleWorkflowOutcome(ctx context.Context, tenantID, orderID uuid.UUID, outcome string) error
}

type purchaseOrderService struct {
	orderRepo       repository.PurchaseOrderRepository
	productRepo     repository.ProductRepository
	partnerRepo     repository.PartnerRepository
	inventoryTxRepo repository.InventoryTxRepository
	approvals       ApprovalService
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
}

func NewPurchaseOrderService(
	orderRepo repository.PurchaseOrderRepository,
	productRepo repository.ProductRepository,
	partnerRepo repository.PartnerRepository,
	inventoryTxRepo repository.InventoryTxRepository,
	approvals ApprovalService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PurchaseOrderService {
	return &purchaseOrderService{
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		partnerRepo:     partnerRepo,
		inventoryTxRepo: inventoryTxRepo,
		approvals:       approvals,
		auditRepo:       auditRepo,
		txManager:       txManager,
	}
}

// --- Implementation ---

func (s *purchaseOrderService) CreateOrder(ctx context.Context, tenantID, companyID, userID uuid.UUID, req CreatePurchaseOrderRequest) (PurchaseOrderResponse, error) {
	var partnerID *uuid.UUID
	if req.PartnerID != "" {
		parsed, err := uuid.Parse(req.PartnerID)
		if err != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("invalid partner_id: %w", err)
		}
		partner, err := s.partnerRepo.FindByID(ctx, tenantID, parsed)
		if err != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("partner not found: %w", err)
		}
		if partner.Type == model.PartnerTypeCustomer {
			return PurchaseOrderResponse{}, fmt.Errorf("partner %s is not a vendor", partner.Name)
		}
		partnerID = &parsed
	}

	total := decimal.Zero
	items := make([]model.PurchaseOrderItem, 0, len(req.Items))
	for i, itemReq := range req.Items {
		productID, err := uuid.Parse(itemReq.ProductID)
		if err != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("item %d: invalid product_id: %w", i, err)
		}
		if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("item %d: product not found", i)
		}
		unitPrice, err := decimal.NewFromString(itemReq.UnitPrice)
		if err != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("item %d: invalid unit_price: %w", i, err)
		}
		if unitPrice.IsNegative() {
			return PurchaseOrderResponse{}, fmt.Errorf("item %d: unit_price must not be negative", i)
		}

		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(itemReq.Quantity))))
		items = append(items, model.PurchaseOrderItem{
			ProductID: productID,
			Quantity:  itemReq.Quantity,
			UnitPrice: unitPrice,
		})
	}

	var expectedAt *time.Time
	if req.ExpectedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpectedAt)
		if err != nil {
			return PurchaseOrderResponse{}, fmt.Errorf("invalid expected_at: %w", err)
		}
		expectedAt = &parsed
	}

	var order model.PurchaseOrder
	// Number generation and insert share one transaction so the advisory
	// lock taken while counting holds until the new order is visible.
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		orderNo, err := s.generateOrderNo(txCtx)
		if err != nil {
			return fmt.Errorf("failed to generate order number: %w", err)
		}

		order = model.PurchaseOrder{
			TenantID:    tenantID,
			CompanyID:   companyID,
			OrderNo:     orderNo,
			PartnerID:   partnerID,
			Status:      model.POStatusDraft,
			TotalAmount: total,
			Items:       items,
			Department:  req.Department,
			ExpectedAt:  expectedAt,
			CreatedBy:   &userID,
			Note:        req.Note,
		}
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	s.logAudit(ctx, tenantID, userID, model.ActionCreatePurchaseOrder, order.ID.String(), order.OrderNo)
	return s.GetOrder(ctx, tenantID, order.ID.String())
}

func (s *purchaseOrderService) SubmitOrder(ctx context.Context, tenantID, companyID, userID uuid.UUID, id string) (PurchaseOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("invalid purchase order id: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, tenantID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseOrderResponse{}, fmt.Errorf("%w: purchase order %s", ErrEntityNotFound, id)
		}
		return PurchaseOrderResponse{}, err
	}
	if order.Status != model.POStatusDraft {
		return PurchaseOrderResponse{}, fmt.Errorf("%w: purchase order is %s", ErrInvalidTransition, order.Status)
	}

	req, err := s.approvals.CreateApprovalRequest(ctx, CreateApprovalRequestInput{
		TenantID:    tenantID,
		CompanyID:   companyID,
		EntityType:  model.EntityTypePurchaseOrder,
		EntityID:    order.ID,
		RequestedBy: userID,
		Metadata: model.JSONMap{
			"amount":     order.TotalAmount.String(),
			"order_no":   order.OrderNo,
			"department": order.Department,
		},
	})
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	switch {
	case req == nil:
		if err := s.HandleWorkflowOutcome(ctx, tenantID, order.ID, OutcomeApproved); err != nil {
			return PurchaseOrderResponse{}, err
		}
	case !model.IsTerminalRequestStatus(req.Status):
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, model.POStatusPendingApproval); err != nil {
			return PurchaseOrderResponse{}, err
		}
	}

	return s.GetOrder(ctx, tenantID, id)
}

// ReceiveOrder books the goods of an APPROVED order into stock. Products
// are row-locked for the duration of the transaction so concurrent receipts
// and adjustments serialize.
func (s *purchaseOrderService) ReceiveOrder(ctx context.Context, tenantID, userID uuid.UUID, id string) (PurchaseOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("invalid purchase order id: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDWithItems(txCtx, tenantID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: purchase order %s", ErrEntityNotFound, id)
			}
			return err
		}
		if order.Status != model.POStatusApproved {
			return fmt.Errorf("%w: only approved orders can be received, order is %s", ErrInvalidTransition, order.Status)
		}

		for _, item := range order.Items {
			product, err := s.productRepo.FindByIDForUpdate(txCtx, item.ProductID)
			if err != nil {
				return fmt.Errorf("product %s not found: %w", item.ProductID, err)
			}

			newStock := product.CurrentStock + item.Quantity
			if err := s.productRepo.UpdateStock(txCtx, product.ID, newStock); err != nil {
				return err
			}
			if err := s.inventoryTxRepo.Create(txCtx, &model.InventoryTransaction{
				TenantID:        tenantID,
				ProductID:       product.ID,
				PurchaseOrderID: &order.ID,
				TransactionType: model.TxTypeIn,
				QuantityChanged: item.Quantity,
				StockAfter:      newStock,
				Note:            "received " + order.OrderNo,
				CreatedBy:       &userID,
			}); err != nil {
				return err
			}
		}

		if err := s.orderRepo.UpdateStatus(txCtx, order.ID, model.POStatusReceived); err != nil {
			return err
		}
		s.logAudit(txCtx, tenantID, userID, model.ActionReceivePurchaseOrder, order.ID.String(), order.OrderNo)
		return nil
	})
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	return s.GetOrder(ctx, tenantID, id)
}

func (s *purchaseOrderService) GetOrder(ctx context.Context, tenantID uuid.UUID, id string) (PurchaseOrderResponse, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseOrderResponse{}, fmt.Errorf("invalid purchase order id: %w", err)
	}
	order, err := s.orderRepo.FindByIDWithItems(ctx, tenantID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseOrderResponse{}, fmt.Errorf("%w: purchase order %s", ErrEntityNotFound, id)
		}
		return PurchaseOrderResponse{}, err
	}
	return toPurchaseOrderResponse(*order), nil
}

func (s *purchaseOrderService) ListOrders(ctx context.Context, tenantID uuid.UUID, status string, page, limit int) ([]PurchaseOrderResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	orders, total, err := s.orderRepo.List(ctx, tenantID, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchase orders: %w", err)
	}

	result := make([]PurchaseOrderResponse, 0, len(orders))
	for _, order := range orders {
		result = append(result, toPurchaseOrderResponse(order))
	}
	return result, total, nil
}

func (s *purchaseOrderService) HandleWorkflowOutcome(ctx context.Context, tenantID, orderID uuid.UUID, outcome string) error {
	switch outcome {
	case OutcomeApproved:
		return s.orderRepo.UpdateStatus(ctx, orderID, model.POStatusApproved)
	case OutcomeRejected:
		return s.orderRepo.UpdateStatus(ctx, orderID, model.POStatusRejected)
	default:
		return fmt.Errorf("unknown workflow outcome %q", outcome)
	}
}

func (s *purchaseOrderService) generateOrderNo(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "PO-" + today + "-"

	count, err := s.orderRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (s *purchaseOrderService) logAudit(ctx context.Context, tenantID, userID uuid.UUID, action, entityID, entityName string) {
	actor := userID
	_ = s.auditRepo.Log(ctx, &model.AuditLog{
		TenantID:   tenantID,
		UserID:     &actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	})
}

// --- Mapping ---

func toPurchaseOrderResponse(order model.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:          order.ID.String(),
		OrderNo:     order.OrderNo,
		Status:      order.Status,
		TotalAmount: order.TotalAmount.StringFixed(4),
		Department:  order.Department,
		Note:        order.Note,
		CreatedAt:   order.CreatedAt.Format(time.RFC3339),
	}
	if order.PartnerID != nil {
		id := order.PartnerID.String()
		resp.PartnerID = &id
	}
	if order.Partner != nil {
		resp.PartnerName = order.Partner.Name
	}
	if order.ExpectedAt != nil {
		expected := order.ExpectedAt.Format("2006-01-02")
		resp.ExpectedAt = &expected
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, PurchaseOrderItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(4),
		})
	}
	return resp
}
