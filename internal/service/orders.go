package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mynature/internal/events"
	"mynature/internal/logger"
	"mynature/internal/models"
	"mynature/internal/store"
)

const recentOrdersWindow = 7 * 24 * time.Hour

type OrderItemInput struct {
	ProductID string       `json:"product_id" binding:"required"`
	Quantity  int          `json:"quantity" binding:"required,gt=0"`
	Price     models.Money `json:"price"`
}

type PlaceOrderInput struct {
	CustomerName    string           `json:"customer_name" binding:"required"`
	CustomerEmail   string           `json:"customer_email" binding:"required"`
	CustomerPhone   string           `json:"customer_phone"`
	CustomerAddress string           `json:"customer_address"`
	CustomerCity    string           `json:"customer_city"`
	CustomerCountry string           `json:"customer_country"`
	Items           []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	TotalAmount     models.Money     `json:"total_amount"`
	Notes           *string          `json:"notes"`
}

type UpdateOrderInput struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type OrderService struct {
	orders    store.OrderRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewOrderService(orders store.OrderRepository, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &OrderService{orders: orders, publisher: publisher, now: time.Now}
}

// ValidateOrder checks the payload without touching the store.
func ValidateOrder(in PlaceOrderInput) error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return invalid("customer_name", "is required")
	}
	if strings.TrimSpace(in.CustomerEmail) == "" {
		return invalid("customer_email", "is required")
	}
	if len(in.Items) == 0 {
		return invalid("items", "at least one item is required")
	}
	for i, item := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.ProductID) == "" {
			return invalid(field+".product_id", "is required")
		}
		if item.Quantity <= 0 {
			return invalid(field+".quantity", "must be greater than zero")
		}
		if item.Price.IsNegative() {
			return invalid(field+".price", "must not be negative")
		}
	}
	if in.TotalAmount.IsNegative() {
		return invalid("total_amount", "must not be negative")
	}
	return nil
}

// PlaceOrder persists a pending order with its items and takes the ordered
// quantities out of stock. Either everything is written or nothing is.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	if err := ValidateOrder(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	country := strings.TrimSpace(in.CustomerCountry)
	if country == "" {
		country = models.DefaultCountry
	}

	order := &models.Order{
		ID:              uuid.NewString(),
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		CustomerCity:    strings.TrimSpace(in.CustomerCity),
		CustomerCountry: country,
		TotalAmount:     in.TotalAmount,
		Status:          models.OrderStatusPending,
		Notes:           cleanNotes(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	computed := models.Money{}
	for _, it := range in.Items {
		items = append(items, models.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: strings.TrimSpace(it.ProductID),
			Quantity:  it.Quantity,
			Price:     it.Price,
			CreatedAt: now,
		})
		computed = computed.Add(it.Price.Times(it.Quantity))
	}

	if !computed.Equal(in.TotalAmount) {
		logger.Log.Warn("order total differs from line items",
			zap.String("order_id", order.ID),
			zap.String("total_amount", in.TotalAmount.String()),
			zap.String("computed", computed.String()),
		)
	}

	if err := s.orders.Create(ctx, order, items); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	total := order.TotalAmount
	s.publish(ctx, events.OrderEvent{
		Type:        events.OrderPlaced,
		OrderID:     order.ID,
		Status:      order.Status,
		TotalAmount: &total,
		ItemCount:   len(items),
		OccurredAt:  now,
	})

	logger.Log.Info("order placed", zap.String("order_id", order.ID), zap.Int("items", len(items)))
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.OrderDetail, error) {
	detail, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return detail, nil
}

// Update sets a new status and notes. Any status may follow any other.
func (s *OrderService) Update(ctx context.Context, id string, in UpdateOrderInput) (*models.Order, error) {
	status := strings.TrimSpace(in.Status)
	if status == "" {
		return nil, invalid("status", "is required")
	}
	if !models.IsValidOrderStatus(status) {
		return nil, invalid("status", fmt.Sprintf("must be one of %s", strings.Join(models.OrderStatuses, ", ")))
	}

	now := s.now().UTC()
	order, err := s.orders.UpdateStatus(ctx, id, status, cleanNotes(in.Notes), now)
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}

	s.publish(ctx, events.OrderEvent{
		Type:       events.OrderStatusChanged,
		OrderID:    order.ID,
		Status:     order.Status,
		OccurredAt: now,
	})
	return order, nil
}

// Delete removes the order and returns its quantities to stock.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}

	s.publish(ctx, events.OrderEvent{
		Type:       events.OrderDeleted,
		OrderID:    id,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// List returns orders newest first. An empty status or "all" disables the filter.
func (s *OrderService) List(ctx context.Context, status string, limit int) ([]models.OrderDetail, error) {
	status = strings.TrimSpace(status)
	if status == "all" {
		status = ""
	}
	if status != "" && !models.IsValidOrderStatus(status) {
		return nil, invalid("status", "unknown order status")
	}
	if limit < 0 {
		return nil, invalid("limit", "must be a positive integer")
	}

	orders, err := s.orders.List(ctx, models.OrderListFilter{Status: status, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []models.OrderDetail{}
	}
	return orders, nil
}

func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats, err := s.orders.Stats(ctx, s.now().UTC().Add(-recentOrdersWindow))
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}

func (s *OrderService) publish(ctx context.Context, event events.OrderEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Log.Error("order event publish failed",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

func cleanNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
