package domain

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderPaid       OrderStatus = "paid"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type OrderItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unitPrice"`
}

type Order struct {
	OrderID         string      `json:"orderId"`
	Items           []OrderItem `json:"items"`
	Subtotal        Money       `json:"subtotal"`
	TaxAmount       Money       `json:"taxAmount"`
	ShippingAmount  Money       `json:"shippingAmount"`
	FinalAmount     Money       `json:"finalAmount"`
	Status          OrderStatus `json:"status"`
	PaymentID       string      `json:"paymentId,omitempty"`
	ShippingAddress Address     `json:"shippingAddress"`
	BillingAddress  Address     `json:"billingAddress"`
	CustomerEmail   string      `json:"customerEmail,omitempty"`
	CustomerName    string      `json:"customerName,omitempty"`
	CustomerPhone   string      `json:"customerPhone,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
