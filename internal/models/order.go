package models

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"

	DefaultCountry = "Morocco"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Order is the persisted order header.
type Order struct {
	ID              string    `bson:"_id" json:"id" gorm:"primaryKey;type:uuid"`
	CustomerName    string    `bson:"customer_name" json:"customer_name" gorm:"not null"`
	CustomerEmail   string    `bson:"customer_email" json:"customer_email" gorm:"not null"`
	CustomerPhone   string    `bson:"customer_phone" json:"customer_phone"`
	CustomerAddress string    `bson:"customer_address" json:"customer_address"`
	CustomerCity    string    `bson:"customer_city" json:"customer_city"`
	CustomerCountry string    `bson:"customer_country" json:"customer_country"`
	TotalAmount     Money     `bson:"total_amount" json:"total_amount" gorm:"type:numeric(12,2);not null"`
	Status          string    `bson:"status" json:"status" gorm:"not null;index"`
	Notes           *string   `bson:"notes" json:"notes"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at" gorm:"index"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// OrderItem is one line of an order. Price is the unit price at purchase time.
type OrderItem struct {
	ID        string    `bson:"_id" json:"id" gorm:"primaryKey;type:uuid"`
	OrderID   string    `bson:"order_id" json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID string    `bson:"product_id" json:"product_id" gorm:"type:uuid;not null"`
	Quantity  int       `bson:"quantity" json:"quantity" gorm:"not null"`
	Price     Money     `bson:"price" json:"price" gorm:"type:numeric(12,2);not null"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type OrderItemDetail struct {
	OrderItem
	Product *ProductSnapshot `json:"product"`
}

// OrderDetail is an order with its items and their product snapshots.
type OrderDetail struct {
	Order
	OrderItems []OrderItemDetail `json:"order_items"`
}

type OrderListFilter struct {
	Status string
	Limit  int
}

type StatusCounts struct {
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Shipped   int64 `json:"shipped"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
}

// Add increments the counter for status. Unknown statuses are ignored.
func (c *StatusCounts) Add(status string, n int64) {
	switch status {
	case OrderStatusPending:
		c.Pending += n
	case OrderStatusConfirmed:
		c.Confirmed += n
	case OrderStatusShipped:
		c.Shipped += n
	case OrderStatusDelivered:
		c.Delivered += n
	case OrderStatusCancelled:
		c.Cancelled += n
	}
}

type OrderStats struct {
	TotalOrders    int64        `json:"totalOrders"`
	TotalRevenue   Money        `json:"totalRevenue"`
	RecentOrders   int64        `json:"recentOrders"`
	OrdersByStatus StatusCounts `json:"ordersByStatus"`
}
