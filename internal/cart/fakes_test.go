package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

var errRemoteDown = errors.New("remote unavailable")

type fakeRemote struct {
	mu       sync.Mutex
	carts    map[string][]LineItem
	fetchErr error
	saveErr  error
	fetches  int
	replaces int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{carts: make(map[string][]LineItem)}
}

func (f *fakeRemote) Fetch(_ context.Context, identity string) ([]LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]LineItem, len(f.carts[identity]))
	copy(out, f.carts[identity])
	return out, nil
}

func (f *fakeRemote) Replace(_ context.Context, identity string, items []LineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaces++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.carts[identity] = items
	return nil
}

type fakeProducts struct {
	products map[uuid.UUID]models.Product
	err      error
}

func (f *fakeProducts) FindProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uuid.UUID]models.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type failingLocal struct{}

func (failingLocal) Get(context.Context, string, string) (string, bool, error) {
	return "", false, errors.New("disk full")
}

func (failingLocal) Set(context.Context, string, string, string) error {
	return errors.New("disk full")
}

// scriptedStore records saves and lets tests hold loads and saves open.
type scriptedStore struct {
	mu          sync.Mutex
	carts       map[string]Cart
	saves       []savedCart
	loadGates   map[string]chan struct{}
	loadStarted chan string
	saveGate    chan struct{}
	saveStarted chan struct{}
	saveErr     error
}

type savedCart struct {
	identity string
	items    []LineItem
}

func newScriptedStore() *scriptedStore {
	return &scriptedStore{
		carts:       make(map[string]Cart),
		loadGates:   make(map[string]chan struct{}),
		loadStarted: make(chan string, 8),
		saveStarted: make(chan struct{}, 64),
	}
}

func (s *scriptedStore) Load(_ context.Context, _ string, identity string) Cart {
	s.mu.Lock()
	gate := s.loadGates[identity]
	s.mu.Unlock()
	s.loadStarted <- identity
	if gate != nil {
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[identity].Clone()
}

func (s *scriptedStore) Save(_ context.Context, _ string, c Cart, identity string) error {
	s.saveStarted <- struct{}{}
	s.mu.Lock()
	gate := s.saveGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, savedCart{identity: identity, items: c.Items()})
	s.carts[identity] = c.Clone()
	return s.saveErr
}

func (s *scriptedStore) savedCarts() []savedCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]savedCart, len(s.saves))
	copy(out, s.saves)
	return out
}
