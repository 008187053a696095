package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const sessionAttempts = 3

// CartSessions hands out the cart session of a device.
type CartSessions interface {
	Session(deviceID string) (*cart.Session, error)
}

// ProductGetter resolves the product referenced by a request.
type ProductGetter interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type cartResponse struct {
	Identity  string          `json:"identity"`
	Items     []cart.LineItem `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

func newCartResponse(identity string, c cart.Cart) cartResponse {
	items := c.Items()
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartResponse{
		Identity:  identity,
		Items:     items,
		ItemCount: c.ItemCount(),
		Total:     c.Total(),
	}
}

type addCartItemRequest struct {
	ProductID    string `json:"product_id" validate:"required,uuid"`
	VariantIndex *int   `json:"variant_index" validate:"required,gte=0"`
	Size         string `json:"size" validate:"required,max=8"`
	Quantity     int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// withCart loads the caller's identity into the device session and runs fn
// on a view bound to it. When a concurrent request loads another identity,
// or the session is evicted, before fn completes, fn has had no effect and
// the whole step is retried.
func withCart(ctx context.Context, sessions CartSessions, fn func(view *cart.View) error) error {
	deviceID := middleware.DeviceIDFromContext(ctx)
	if deviceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device id missing")
	}
	identity := middleware.IdentityFromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < sessionAttempts; attempt++ {
		sess, err := sessions.Session(deviceID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cart session unavailable")
		}
		view, err := sess.EnsureIdentity(ctx, identity)
		if err == nil {
			err = fn(view)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, cart.ErrLoadSuperseded) && !errors.Is(err, cart.ErrSessionClosed) {
			return err
		}
		lastErr = err
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "cart is being reloaded, retry the request")
}

func GetCart(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var resp cartResponse
		err := withCart(r.Context(), sessions, func(view *cart.View) error {
			c, err := view.Cart()
			resp = newCartResponse(view.Identity(), c)
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AddCartItem resolves the referenced product variant and size and merges it
// into the caller's cart.
func AddCartItem(sessions CartSessions, products ProductGetter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil || products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := products.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var resp cartResponse
		err = withCart(r.Context(), sessions, func(view *cart.View) error {
			c, err := view.Add(r.Context(), *product, *payload.VariantIndex, payload.Size, payload.Quantity)
			resp = newCartResponse(view.Identity(), c)
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// UpdateCartItem sets an item's quantity; zero or less removes it.
func UpdateCartItem(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var resp cartResponse
		err := withCart(r.Context(), sessions, func(view *cart.View) error {
			c, err := view.UpdateQuantity(r.Context(), itemID, *payload.Quantity)
			resp = newCartResponse(view.Identity(), c)
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// RemoveCartItem removes an item. Removing an unknown item succeeds.
func RemoveCartItem(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var resp cartResponse
		err := withCart(r.Context(), sessions, func(view *cart.View) error {
			c, err := view.Remove(r.Context(), itemID)
			resp = newCartResponse(view.Identity(), c)
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func ClearCart(sessions CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var resp cartResponse
		err := withCart(r.Context(), sessions, func(view *cart.View) error {
			resp = newCartResponse(view.Identity(), cart.Cart{})
			return view.Clear(r.Context())
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
