package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// State is the load state of a Session.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateLoaded   State = "loaded"
)

var (
	// ErrLoadSuperseded is returned by Load when a newer Load started before
	// this one finished, and by View operations once another load replaced
	// the bound identity.
	ErrLoadSuperseded = errors.New("cart load superseded by a newer load")
	// ErrSessionClosed is returned by operations on a closed Session.
	ErrSessionClosed = errors.New("cart session closed")
)

type persister interface {
	Load(ctx context.Context, scope, identity string) Cart
	Save(ctx context.Context, scope string, c Cart, identity string) error
}

type saveTask struct {
	identity string
	cart     Cart
	barrier  chan struct{}
}

// Session is the cart of one device. Mutations apply in memory first and
// enqueue a save; save failures never undo a mutation. Saves run in order on
// a single worker, and queued saves for the same identity coalesce to the
// latest snapshot.
type Session struct {
	scope   string
	store   persister
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	baseCtx context.Context

	mu         sync.Mutex
	cond       *sync.Cond
	cart       Cart
	identity   string
	state      State
	generation uint64
	queue      []saveTask
	closed     bool
	lastErr    error
	done       chan struct{}
}

// NewSession starts the save worker of a session scoped to deviceID.
func NewSession(deviceID string, store persister, logg *logger.Logger, m *metrics.CartMetrics) *Session {
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Session{
		scope:    deviceID,
		store:    store,
		logg:     logg,
		metrics:  m,
		baseCtx:  logg.WithDeviceID(context.Background(), deviceID),
		identity: GuestIdentity,
		state:    StateUnloaded,
		done:     make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Load replaces the session cart with the stored cart of identity. When a
// newer Load starts first, this result is dropped and ErrLoadSuperseded is
// returned.
func (s *Session) Load(ctx context.Context, identity string) error {
	identity = NormalizeIdentity(identity)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.generation++
	gen := s.generation
	s.state = StateLoading
	s.identity = identity
	s.cart = Cart{}
	s.mu.Unlock()

	// saves queued under the previous identity must land before we read back
	if err := s.Flush(ctx); err != nil {
		s.logg.Debug(s.logg.WithIdentity(ctx, identity), "loading before pending cart saves drained")
	}

	loaded := s.store.Load(ctx, s.scope, identity)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.metrics.IncStaleLoad()
		s.logg.Debug(s.logg.WithIdentity(ctx, identity), "discarding superseded cart load")
		return ErrLoadSuperseded
	}
	s.cart = loaded
	s.state = StateLoaded
	return nil
}

// EnsureIdentity loads identity unless it is already the loaded identity,
// and returns a View bound to it.
func (s *Session) EnsureIdentity(ctx context.Context, identity string) (*View, error) {
	identity = NormalizeIdentity(identity)
	s.mu.Lock()
	ready := s.state == StateLoaded && s.identity == identity
	s.mu.Unlock()
	if !ready {
		if err := s.Load(ctx, identity); err != nil {
			return nil, err
		}
	}
	return s.For(identity), nil
}

// For returns a View of the session bound to identity. It does not load.
func (s *Session) For(identity string) *View {
	return &View{session: s, identity: NormalizeIdentity(identity)}
}

// View is a Session pinned to one identity. Every read and mutation checks,
// under the session lock, that identity is still the loaded one and fails
// with ErrLoadSuperseded otherwise.
type View struct {
	session  *Session
	identity string
}

// Identity is the identity the view is bound to.
func (v *View) Identity() string {
	return v.identity
}

// Cart returns a copy of the bound cart.
func (v *View) Cart() (Cart, error) {
	s := v.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(v.identity); err != nil {
		return Cart{}, err
	}
	return s.cart.Clone(), nil
}

// Items returns a copy of the bound cart's line items.
func (v *View) Items() ([]LineItem, error) {
	c, err := v.Cart()
	if err != nil {
		return nil, err
	}
	return c.Items(), nil
}

// Add resolves product into a line item, merges it with quantity and
// returns the resulting cart.
func (v *View) Add(ctx context.Context, product models.Product, variantIndex int, size string, quantity int) (Cart, error) {
	item, err := catalog.Resolve(product, variantIndex, size)
	if err != nil {
		return Cart{}, err
	}
	return v.mutate(func(c *Cart) { c.Add(item, quantity) })
}

// Remove deletes id from the cart. Unknown ids are not an error.
func (v *View) Remove(_ context.Context, id string) (Cart, error) {
	return v.mutate(func(c *Cart) { c.Remove(id) })
}

// UpdateQuantity sets the quantity of id; quantity <= 0 removes it.
func (v *View) UpdateQuantity(_ context.Context, id string, quantity int) (Cart, error) {
	return v.mutate(func(c *Cart) { c.UpdateQuantity(id, quantity) })
}

// Clear empties the cart.
func (v *View) Clear(_ context.Context) error {
	_, err := v.mutate(func(c *Cart) { c.Clear() })
	return err
}

func (v *View) mutate(fn func(c *Cart)) (Cart, error) {
	s := v.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkLocked(v.identity); err != nil {
		return Cart{}, err
	}
	fn(&s.cart)
	snapshot := s.cart.Clone()
	s.enqueueLocked(v.identity, snapshot.Clone())
	return snapshot, nil
}

// checkLocked reports whether identity's cart is loaded. A different or
// in-flight load yields ErrLoadSuperseded; a session never loaded yields a
// conflict.
func (s *Session) checkLocked(identity string) error {
	if s.closed {
		return ErrSessionClosed
	}
	switch {
	case s.state == StateUnloaded:
		return pkgerrors.New(pkgerrors.CodeConflict, "cart is not loaded")
	case s.state != StateLoaded || s.identity != identity:
		return ErrLoadSuperseded
	}
	return nil
}

func (s *Session) enqueueLocked(identity string, snapshot Cart) {
	if n := len(s.queue); n > 0 {
		last := &s.queue[n-1]
		if last.barrier == nil && last.identity == identity {
			last.cart = snapshot
			return
		}
	}
	s.queue = append(s.queue, saveTask{identity: identity, cart: snapshot})
	s.cond.Signal()
}

// Flush blocks until every save queued before the call has run.
func (s *Session) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.queue = append(s.queue, saveTask{barrier: barrier})
	s.cond.Signal()
	s.mu.Unlock()

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the save queue and stops the worker. It returns the last
// save error seen by the worker.
func (s *Session) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.cond.Broadcast()
	}
	s.mu.Unlock()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if task.barrier != nil {
			close(task.barrier)
			continue
		}
		ctx := s.logg.WithIdentity(s.baseCtx, task.identity)
		err := s.store.Save(ctx, s.scope, task.cart, task.identity)
		if err != nil {
			s.logg.WarnErr(ctx, "cart save failed", err)
			s.mu.Lock()
			s.lastErr = err
			s.mu.Unlock()
		}
	}
}

// Identity is the identity of the latest Load.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// State reports the load state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DeviceID is the local storage scope of the session.
func (s *Session) DeviceID() string {
	return s.scope
}
