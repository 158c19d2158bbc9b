package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// orderTransitions lists the allowed next states; terminal states map to nothing.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// ParseOrderStatus accepts exactly one of the four status names.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderTransitions[st]; !ok {
		return "", fmt.Errorf("%w: status must be one of Pending, Shipped, Delivered, Cancelled", ErrValidation)
	}
	return st, nil
}

func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition naming the pair when from -> to is not allowed.
func CheckTransition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// OrderItem is frozen at checkout; price and name never follow the live product.
type OrderItem struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price"`
	Quantity   int    `json:"quantity"`
}

func (i OrderItem) LineTotal() int64 {
	return i.PriceCents * int64(i.Quantity)
}

type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Items         []OrderItem   `json:"items"`
	TotalCents    int64         `json:"totalAmount"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// NewOrder builds a Pending order and derives its total from the items.
func NewOrder(userID string, items []OrderItem, now time.Time) Order {
	o := Order{
		UserID:        userID,
		Items:         items,
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusPending,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}
	o.TotalCents = o.ItemsTotal()
	return o
}

// ItemsTotal sums price x quantity over the frozen items.
func (o Order) ItemsTotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.LineTotal()
	}
	return total
}

func (o Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

// CancellationWindow is how long after creation a customer may cancel their own order.
const CancellationWindow = time.Hour

// CheckCancellable applies the cancellation policy for the given actor at time now.
// Admins bypass the Pending-only and time-window rules.
func (o Order) CheckCancellable(actor Actor, now time.Time) error {
	if !o.OwnedBy(actor.UserID) && !actor.IsAdmin() {
		return ErrNotAuthorized
	}
	switch o.Status {
	case OrderStatusCancelled:
		return ErrAlreadyCancelled
	case OrderStatusShipped, OrderStatusDelivered:
		return fmt.Errorf("%w: order is %s", ErrNotCancellable, o.Status)
	}
	if actor.IsAdmin() {
		return nil
	}
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: order is %s", ErrNotCancellable, o.Status)
	}
	if now.Sub(o.CreatedAt) > CancellationWindow {
		return fmt.Errorf("%w: orders can only be cancelled within %s of placement", ErrCancellationWindowExpired, CancellationWindow)
	}
	return nil
}
