package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	saveTargetLocal  = "local"
	saveTargetRemote = "remote"
)

// AdapterOptions configures an Adapter.
type AdapterOptions struct {
	Local  LocalStorage
	Remote RemoteStore
	// Products refreshes local snapshots under config.SnapshotPolicyResnapshot.
	Products productFinder
	Policy   string
	Metrics  *metrics.CartMetrics
	Logger   *logger.Logger
}

// Adapter moves carts between sessions and storage. Storage failures are
// logged and recovered; Load never fails.
type Adapter struct {
	local    LocalStorage
	remote   RemoteStore
	products productFinder
	policy   string
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
	loads    singleflight.Group
}

// NewAdapter validates opts and builds an Adapter.
func NewAdapter(opts AdapterOptions) (*Adapter, error) {
	if opts.Local == nil {
		return nil, fmt.Errorf("local storage required")
	}
	if opts.Remote == nil {
		return nil, fmt.Errorf("remote store required")
	}
	policy := opts.Policy
	if policy == "" {
		policy = config.SnapshotPolicyResnapshot
	}
	if policy != config.SnapshotPolicyResnapshot && policy != config.SnapshotPolicyKeep {
		return nil, fmt.Errorf("unknown snapshot policy %q", policy)
	}
	if policy == config.SnapshotPolicyResnapshot && opts.Products == nil {
		return nil, fmt.Errorf("product finder required for %s policy", policy)
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Adapter{
		local:    opts.Local,
		remote:   opts.Remote,
		products: opts.Products,
		policy:   policy,
		metrics:  opts.Metrics,
		logg:     logg,
	}, nil
}

// Load returns the stored cart of identity within the device scope.
// Concurrent loads of the same scope and identity share one storage read.
func (a *Adapter) Load(ctx context.Context, scope, identity string) Cart {
	identity = NormalizeIdentity(identity)
	v, _, _ := a.loads.Do(scope+"|"+identity, func() (any, error) {
		return a.load(ctx, scope, identity), nil
	})
	loaded, _ := v.(Cart)
	return loaded.Clone()
}

func (a *Adapter) load(ctx context.Context, scope, identity string) Cart {
	if IsGuest(identity) {
		return a.loadLocal(ctx, scope, identity)
	}

	items, err := a.remote.Fetch(ctx, identity)
	if err == nil {
		return NewCart(items...)
	}
	a.metrics.IncRemoteFailure("load")
	a.metrics.IncLocalFallback("load")
	a.logg.WarnErr(ctx, "remote cart load failed; using local storage", err)
	return a.loadLocal(ctx, scope, identity)
}

func (a *Adapter) loadLocal(ctx context.Context, scope, identity string) Cart {
	raw, ok, err := a.local.Get(ctx, scope, LocalKey(identity))
	if err != nil {
		a.logg.WarnErr(ctx, "local cart read failed", err)
		return Cart{}
	}
	if !ok || raw == "" {
		return Cart{}
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		a.logg.WarnErr(ctx, "corrupt local cart discarded", err)
		return Cart{}
	}
	valid := items[:0]
	for _, item := range items {
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		valid = append(valid, item)
	}
	if a.policy == config.SnapshotPolicyResnapshot {
		valid = a.resnapshot(ctx, valid)
	}
	return NewCart(valid...)
}

// resnapshot refreshes items from the catalog and drops vanished products.
// Items are kept untouched when the catalog is unreachable.
func (a *Adapter) resnapshot(ctx context.Context, items []LineItem) []LineItem {
	if len(items) == 0 {
		return items
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := a.products.FindProducts(ctx, ids)
	if err != nil {
		a.logg.WarnErr(ctx, "catalog unavailable; keeping local snapshots", err)
		return items
	}
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		refreshed, ok := catalog.Resnapshot(item, product)
		if !ok {
			continue
		}
		out = append(out, refreshed)
	}
	return out
}

// Save persists c for identity. The returned error is informational: a
// remote failure that was absorbed by local storage is still reported.
func (a *Adapter) Save(ctx context.Context, scope string, c Cart, identity string) error {
	identity = NormalizeIdentity(identity)
	items := c.Items()

	if IsGuest(identity) {
		return a.saveLocal(ctx, scope, identity, items)
	}

	start := time.Now()
	remoteErr := a.remote.Replace(ctx, identity, items)
	a.metrics.ObserveSave(saveTargetRemote, time.Since(start))
	if remoteErr == nil {
		return nil
	}
	a.metrics.IncRemoteFailure("save")
	a.metrics.IncLocalFallback("save")
	a.logg.WarnErr(ctx, "remote cart save failed; writing local storage", remoteErr)

	return multierr.Append(
		fmt.Errorf("remote save: %w", remoteErr),
		a.saveLocal(ctx, scope, identity, items),
	)
}

func (a *Adapter) saveLocal(ctx context.Context, scope, identity string, items []LineItem) error {
	start := time.Now()
	defer func() {
		a.metrics.ObserveSave(saveTargetLocal, time.Since(start))
	}()
	if items == nil {
		items = []LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode local cart: %w", err)
	}
	if err := a.local.Set(ctx, scope, LocalKey(identity), string(payload)); err != nil {
		a.logg.Error(ctx, "local cart write failed", err)
		return fmt.Errorf("local save: %w", err)
	}
	return nil
}
