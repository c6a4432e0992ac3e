package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
	"github.com/avvvet/deckvault-services/internal/vaultsvc/store"
)

var errStorage = errors.New("storage fault")

// fakeBinderStore keeps binders and binder cards in memory. WithinTx works on
// a copy of the card table and only publishes it on commit, mirroring a
// transactional store with a deferred (binder, page, slot) constraint.
type fakeBinderStore struct {
	mu      sync.Mutex
	binders map[int64]*models.Binder
	cards   map[int64]*models.BinderCard
	nextID  int64
	txCount int

	// failMoveOf makes MoveBinderCard fail for that binder card id.
	failMoveOf int64
}

func newFakeBinderStore() *fakeBinderStore {
	return &fakeBinderStore{
		binders: map[int64]*models.Binder{},
		cards:   map[int64]*models.BinderCard{},
		nextID:  100,
	}
}

func (f *fakeBinderStore) addBinder(id, owner int64, public bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.binders[id] = &models.Binder{ID: id, OwnerID: owner, Name: fmt.Sprintf("B%d", id), IsPublic: public}
}

func (f *fakeBinderStore) placementOf(id int64) models.Placement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cards[id].Placement()
}

func (f *fakeBinderStore) cardCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cards)
}

// seedCard inserts a binder card directly at the given cell.
func (f *fakeBinderStore) seedCard(binderID int64, page, slot int) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.cards[f.nextID] = &models.BinderCard{ID: f.nextID, BinderID: binderID, CardID: 1, PageNumber: page, SlotPosition: slot}
	return f.nextID
}

func (f *fakeBinderStore) WithinTx(ctx context.Context, fn func(store.PlacementTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCount++

	work := make(map[int64]*models.BinderCard, len(f.cards))
	for id, c := range f.cards {
		cp := *c
		work[id] = &cp
	}
	tx := &fakeTx{store: f, cards: work, nextID: f.nextID}

	if err := fn(tx); err != nil {
		return err
	}

	cells := map[[3]int64]bool{}
	for _, c := range work {
		key := [3]int64{c.BinderID, int64(c.PageNumber), int64(c.SlotPosition)}
		if cells[key] {
			return fmt.Errorf("commit tx: %w: binder_cards_cell_key", models.ErrConflict)
		}
		cells[key] = true
	}

	f.cards = work
	f.nextID = tx.nextID
	return nil
}

func (f *fakeBinderStore) LastPlacement(ctx context.Context, binderID int64) (*models.Placement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lastIn(f.cards, binderID), nil
}

func (f *fakeBinderStore) ListBinderCards(ctx context.Context, binderID int64) ([]*models.BinderCardView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.BinderCardView{}
	for _, c := range f.cards {
		if c.BinderID == binderID {
			out = append(out, &models.BinderCardView{BinderCard: *c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PageNumber != out[j].PageNumber {
			return out[i].PageNumber < out[j].PageNumber
		}
		return out[i].SlotPosition < out[j].SlotPosition
	})
	return out, nil
}

func (f *fakeBinderStore) RemoveBinderCard(ctx context.Context, ownerID, binderID, binderCardID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.binders[binderID]
	c, found := f.cards[binderCardID]
	if !ok || b.OwnerID != ownerID || !found || c.BinderID != binderID {
		return models.ErrNotFound
	}
	delete(f.cards, binderCardID)
	return nil
}

func (f *fakeBinderStore) CreateBinder(ctx context.Context, b *models.Binder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b.ID = f.nextID
	cp := *b
	f.binders[b.ID] = &cp
	return nil
}

func (f *fakeBinderStore) ListBindersByOwner(ctx context.Context, ownerID int64) ([]*models.Binder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Binder{}
	for _, b := range f.binders {
		if b.OwnerID == ownerID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBinderStore) GetBinder(ctx context.Context, binderID int64) (*models.Binder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.binders[binderID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBinderStore) UpdateBinder(ctx context.Context, ownerID, binderID int64, p models.BinderPatch) (*models.Binder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.binders[binderID]
	if !ok || b.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Color != nil {
		b.Color = *p.Color
	}
	if p.SleeveStyle != nil {
		b.SleeveStyle = *p.SleeveStyle
	}
	if p.IsPublic != nil {
		b.IsPublic = *p.IsPublic
	}
	if p.Description != nil {
		b.Description = p.Description
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBinderStore) DeleteBinder(ctx context.Context, ownerID, binderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.binders[binderID]
	if !ok || b.OwnerID != ownerID {
		return models.ErrNotFound
	}
	delete(f.binders, binderID)
	for id, c := range f.cards {
		if c.BinderID == binderID {
			delete(f.cards, id)
		}
	}
	return nil
}

type fakeTx struct {
	store  *fakeBinderStore
	cards  map[int64]*models.BinderCard
	nextID int64
}

func (t *fakeTx) LockOwnedBinder(ctx context.Context, ownerID, binderID int64) error {
	b, ok := t.store.binders[binderID]
	if !ok || b.OwnerID != ownerID {
		return models.ErrNotFound
	}
	return nil
}

func (t *fakeTx) LastPlacement(ctx context.Context, binderID int64) (*models.Placement, error) {
	return lastIn(t.cards, binderID), nil
}

func (t *fakeTx) InsertBinderCard(ctx context.Context, bc *models.BinderCard) error {
	t.nextID++
	bc.ID = t.nextID
	cp := *bc
	t.cards[bc.ID] = &cp
	return nil
}

func (t *fakeTx) MoveBinderCard(ctx context.Context, binderID int64, m models.Move) error {
	if t.store.failMoveOf == m.BinderCardID {
		return fmt.Errorf("move binder card %d: %w", m.BinderCardID, errStorage)
	}
	c, ok := t.cards[m.BinderCardID]
	if !ok || c.BinderID != binderID {
		return fmt.Errorf("binder card %d: %w", m.BinderCardID, models.ErrNotFound)
	}
	c.PageNumber = m.Page
	c.SlotPosition = m.Slot
	return nil
}

func lastIn(cards map[int64]*models.BinderCard, binderID int64) *models.Placement {
	var last *models.Placement
	for _, c := range cards {
		if c.BinderID != binderID {
			continue
		}
		p := c.Placement()
		if last == nil || p.Page > last.Page || (p.Page == last.Page && p.Slot > last.Slot) {
			last = &p
		}
	}
	return last
}

type recordedEvent struct {
	Type  string
	Event comm.BinderEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishBinderEvent(eventType string, ev comm.BinderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Event: ev})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
