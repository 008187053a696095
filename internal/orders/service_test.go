package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Order{}, &models.OrderLineItem{}, &models.OutboxEvent{}))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, publisher outboxPublisher) Service {
	t.Helper()
	if publisher == nil {
		publisher = outbox.NewService(outbox.NewRepository(conn), nil)
	}
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), publisher, nil)
	require.NoError(t, err)
	return svc
}

func samplePayload(userID *string) checkout.OrderPayload {
	return checkout.OrderPayload{
		CustomerName:  "Ada Lovelace",
		Email:         "ada@example.com",
		Phone:         "555-0100",
		Location:      "12 Analytical Way, London",
		PaymentMethod: enums.PaymentMethodCash,
		Items: []checkout.OrderItem{
			{ProductID: uuid.New(), Name: "Classic Tee", Color: "white", Size: enums.SizeM, Price: decimal.RequireFromString("20.00"), Quantity: 2},
			{ProductID: uuid.New(), Name: "Socks", Color: "black", Size: enums.SizeS, Price: decimal.RequireFromString("5.00"), Quantity: 1},
		},
		Total:  decimal.RequireFromString("58.59"),
		UserID: userID,
	}
}

func TestCreateOrderPersistsOrderAndEvent(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()
	userID := "user-1"

	order, err := svc.CreateOrder(ctx, samplePayload(&userID))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, enums.OrderStatusPending, order.Status)

	loaded, err := svc.GetOrder(ctx, order.ID, userID)
	require.NoError(t, err)
	require.Len(t, loaded.LineItems, 2)
	assert.Equal(t, "Classic Tee", loaded.LineItems[0].Name)
	assert.Equal(t, "M", loaded.LineItems[0].Size)
	assert.True(t, loaded.Total.Equal(decimal.RequireFromString("58.59")))

	events, err := outbox.NewRepository(conn).FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderCreated, events[0].EventType)
	assert.Equal(t, order.ID, events[0].AggregateID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var data payloads.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "58.59", data.Total)
	assert.Equal(t, "20.00", data.Items[0].Price)
	assert.Equal(t, "user-1", envelope.Actor.Identity)
}

func TestCreateOrderValidation(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	empty := samplePayload(nil)
	empty.Items = nil
	badMethod := samplePayload(nil)
	badMethod.PaymentMethod = "crypto"
	noEmail := samplePayload(nil)
	noEmail.Email = " "
	badItem := samplePayload(nil)
	badItem.Items[1].Quantity = 0

	for name, payload := range map[string]checkout.OrderPayload{
		"empty items":    empty,
		"payment method": badMethod,
		"missing email":  noEmail,
		"bad quantity":   badItem,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, payload)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}

	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

type failingPublisher struct{}

func (failingPublisher) Emit(context.Context, *gorm.DB, outbox.DomainEvent) error {
	return errors.New("outbox down")
}

func TestCreateOrderRollsBackWhenEventFails(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn, failingPublisher{})

	_, err := svc.CreateOrder(context.Background(), samplePayload(nil))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var orders, items int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, conn.Model(&models.OrderLineItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestGetOrderVisibility(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()
	owner := "user-1"

	owned, err := svc.CreateOrder(ctx, samplePayload(&owner))
	require.NoError(t, err)
	guest, err := svc.CreateOrder(ctx, samplePayload(nil))
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, owned.ID, "user-2")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.GetOrder(ctx, owned.ID, "guest")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetOrder(ctx, guest.ID, "guest")
	assert.NoError(t, err)
	_, err = svc.GetOrder(ctx, uuid.New(), owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListOrdersPaginates(t *testing.T) {
	conn := setupOrdersTestDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()
	owner := "user-1"

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		order, err := svc.CreateOrder(ctx, samplePayload(&owner))
		require.NoError(t, err)
		require.NoError(t, conn.Model(&models.Order{}).Where("id = ?", order.ID).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}
	_, err := svc.CreateOrder(ctx, samplePayload(nil))
	require.NoError(t, err)

	first, err := svc.ListOrders(ctx, owner, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Len(t, first.Orders[0].LineItems, 2)

	second, err := svc.ListOrders(ctx, owner, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Len(t, second.Orders, 1)
	assert.Empty(t, second.NextCursor)

	_, err = svc.ListOrders(ctx, "", pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
