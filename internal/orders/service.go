package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service creates and reads storefront orders.
type Service interface {
	CreateOrder(ctx context.Context, payload checkout.OrderPayload) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID, identity string) (*models.Order, error)
	ListOrders(ctx context.Context, userID string, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService wires the order service dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, outbox: outbox, logg: logg}, nil
}

// CreateOrder persists the order, its line items and an order_created event
// in one transaction. The submitted total is stored as sent.
func (s *service) CreateOrder(ctx context.Context, payload checkout.OrderPayload) (*models.Order, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:        payload.UserID,
		CustomerName:  strings.TrimSpace(payload.CustomerName),
		Email:         strings.TrimSpace(payload.Email),
		Phone:         strings.TrimSpace(payload.Phone),
		Location:      strings.TrimSpace(payload.Location),
		PaymentMethod: payload.PaymentMethod,
		Status:        enums.OrderStatusPending,
		Total:         payload.Total,
		LineItems:     make([]models.OrderLineItem, 0, len(payload.Items)),
	}
	for i, item := range payload.Items {
		order.LineItems = append(order.LineItems, models.OrderLineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Color:     item.Color,
			Size:      item.Size.String(),
			Price:     item.Price,
			Quantity:  item.Quantity,
			Position:  i,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order = created
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorFor(payload),
			Data:          orderCreatedEvent(order),
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	return order, nil
}

func validatePayload(payload checkout.OrderPayload) error {
	if len(payload.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order items are required")
	}
	if !payload.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"payment_method": payload.PaymentMethod})
	}
	if strings.TrimSpace(payload.CustomerName) == "" || strings.TrimSpace(payload.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name and email are required")
	}
	if payload.Total.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total must not be negative")
	}
	for i, item := range payload.Items {
		if item.ProductID == uuid.Nil || item.Quantity <= 0 || !item.Price.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid order item").
				WithDetails(map[string]any{"index": i})
		}
	}
	return nil
}

func actorFor(payload checkout.OrderPayload) *outbox.ActorRef {
	if payload.UserID == nil {
		return &outbox.ActorRef{Identity: "guest"}
	}
	return &outbox.ActorRef{Identity: *payload.UserID}
}

func orderCreatedEvent(order *models.Order) payloads.OrderCreatedEvent {
	items := make([]payloads.OrderCreatedItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, payloads.OrderCreatedItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Color:     item.Color,
			Size:      item.Size,
			Price:     item.Price.StringFixed(2),
			Quantity:  item.Quantity,
		})
	}
	return payloads.OrderCreatedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Email:         order.Email,
		PaymentMethod: order.PaymentMethod.String(),
		Total:         order.Total.StringFixed(2),
		Items:         items,
	}
}

// GetOrder returns an order visible to identity: guest orders to anyone
// holding the id, user orders only to their owner.
func (s *service) GetOrder(ctx context.Context, id uuid.UUID, identity string) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != nil && *order.UserID != identity {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID string, params pagination.Params) (*OrderList, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to list orders")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.ListUserOrders(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}
