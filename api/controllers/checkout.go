package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// OrderSubmitter places orders for checkout carts.
type OrderSubmitter interface {
	Submit(ctx context.Context, checkoutCart checkout.CheckoutCart, customer checkout.Customer, paymentMethod string) (*models.Order, error)
	Rates() checkout.Rates
}

type totalsResponse struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type buyNowRequest struct {
	ProductID    string `json:"product_id" validate:"required,uuid"`
	VariantIndex *int   `json:"variant_index" validate:"required,gte=0"`
	Size         string `json:"size" validate:"required,max=8"`
	Quantity     int    `json:"quantity"`
}

type checkoutRequest struct {
	Name          string         `json:"name" validate:"required,max=200"`
	Email         string         `json:"email" validate:"required,email"`
	Phone         string         `json:"phone" validate:"required,max=40"`
	Address       string         `json:"address" validate:"required,max=300"`
	City          string         `json:"city" validate:"required,max=120"`
	PaymentMethod string         `json:"payment_method" validate:"required,oneof=cash card"`
	BuyNow        *buyNowRequest `json:"buy_now,omitempty"`
}

func (r checkoutRequest) customer(userID string) checkout.Customer {
	c := checkout.Customer{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
		City:    r.City,
	}
	if userID != "" {
		c.UserID = &userID
	}
	return c
}

// CheckoutTotals prices the caller's persisted cart.
func CheckoutTotals(sessions CartSessions, submitter OrderSubmitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil || submitter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var c cart.Cart
		err := withCart(r.Context(), sessions, func(view *cart.View) error {
			var err error
			c, err = view.Cart()
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totals := checkout.ComputeTotals(c.Items(), submitter.Rates()).Rounded()
		responses.WriteSuccess(w, totalsResponse{
			Subtotal:  totals.Subtotal,
			Tax:       totals.Tax,
			Shipping:  totals.Shipping,
			Total:     totals.Total,
			ItemCount: c.ItemCount(),
		})
	}
}

// SubmitCheckout places an order for the caller's cart, or for the single
// buy_now item when one is given. A buy-now order leaves the cart untouched.
func SubmitCheckout(sessions CartSessions, products ProductGetter, submitter OrderSubmitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil || products == nil || submitter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer := payload.customer(middleware.UserIDFromContext(r.Context()))

		var (
			order *models.Order
			err   error
		)
		if payload.BuyNow != nil {
			item, resolveErr := resolveBuyNow(r.Context(), products, *payload.BuyNow)
			if resolveErr != nil {
				responses.WriteError(r.Context(), logg, w, resolveErr)
				return
			}
			order, err = submitter.Submit(r.Context(), checkout.EphemeralCart{Item: item}, customer, payload.PaymentMethod)
		} else {
			// a superseded read fails before any order is created, so the
			// submission is retried against a freshly loaded view
			err = withCart(r.Context(), sessions, func(view *cart.View) error {
				var submitErr error
				order, submitErr = submitter.Submit(r.Context(), checkout.PersistedCart{Session: view}, customer, payload.PaymentMethod)
				return submitErr
			})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

func resolveBuyNow(ctx context.Context, products ProductGetter, req buyNowRequest) (catalog.LineItem, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return catalog.LineItem{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	product, err := products.GetProduct(ctx, productID)
	if err != nil {
		return catalog.LineItem{}, err
	}
	item, err := catalog.Resolve(*product, *req.VariantIndex, req.Size)
	if err != nil {
		return catalog.LineItem{}, err
	}
	if req.Quantity > 0 {
		item.Quantity = req.Quantity
	}
	return item, nil
}

type orderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Status        string              `json:"status"`
	CustomerName  string              `json:"customer_name"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	Location      string              `json:"location"`
	PaymentMethod string              `json:"payment_method"`
	Total         decimal.Decimal     `json:"total"`
	Items         []orderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		Status:        string(order.Status),
		CustomerName:  order.CustomerName,
		Email:         order.Email,
		Phone:         order.Phone,
		Location:      order.Location,
		PaymentMethod: string(order.PaymentMethod),
		Total:         order.Total,
		Items:         make([]orderItemResponse, 0, len(order.LineItems)),
		CreatedAt:     order.CreatedAt,
	}
	for _, li := range order.LineItems {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: li.ProductID,
			Name:      li.Name,
			Color:     li.Color,
			Size:      string(li.Size),
			Price:     li.Price,
			Quantity:  li.Quantity,
		})
	}
	return resp
}
