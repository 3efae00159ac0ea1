package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/leafmart/cartd/internal/domain/pricing"
	"github.com/leafmart/cartd/internal/domain/promotion"
)

// Store holds one cart: the ordered line items and the per-vendor promotion
// ledger. All operations are synchronous and run to completion under the
// store's lock; the persisted blobs are written before any mutating call
// returns.
type Store struct {
	id      string
	storage Storage
	lg      *zap.Logger
	now     func() time.Time
	notify  func(Snapshot)

	mu     sync.Mutex
	items  []*LineItem
	promos map[string]*promotion.Applied
	// tokens tracks the newest validation token issued per vendor, so a
	// late-arriving validation result for a superseded token or an emptied
	// vendor group is discarded instead of committed.
	tokens map[string]uint64
	nextTok uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store's clock, used for discount rule validity
// windows. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithNotify registers an observer invoked with a fresh snapshot after every
// successful mutation, once state is persisted.
func WithNotify(fn func(Snapshot)) Option {
	return func(s *Store) { s.notify = fn }
}

// NewStore creates an empty cart store persisting under the given cart ID.
// Call Hydrate to load previously persisted state.
func NewStore(id string, storage Storage, lg *zap.Logger, opts ...Option) *Store {
	s := &Store{
		id:      id,
		storage: storage,
		lg:      lg,
		now:     time.Now,
		items:   nil,
		promos:  make(map[string]*promotion.Applied),
		tokens:  make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// itemsKey and promotionsKey name the two independent persisted blobs.
func (s *Store) itemsKey() string {
	if s.id == "" {
		return "cart"
	}
	return "cart:" + s.id
}

func (s *Store) promotionsKey() string {
	if s.id == "" {
		return "promotions"
	}
	return "promotions:" + s.id
}

// AddInput describes a product entering the cart, supplied by the catalog at
// add time. Rule and Deal are optional.
type AddInput struct {
	ProductID   string
	VendorID    string
	VendorName  string
	ProductName string
	Variant     string
	Flavor      string
	Quantity    int
	BasePrice   decimal.Decimal
	Rule        *pricing.DiscountRule
	Deal        *pricing.Deal
}

// AddItem adds a product to the cart. When an existing line item matches on
// (product, vendor, variant, flavor) the quantities are summed and, if the
// input carries a rule or deal, it replaces the stored one; otherwise the
// stored one is kept. The affected item's discount is re-resolved and the
// cart is persisted before returning.
func (s *Store) AddItem(ctx context.Context, in AddInput) (*LineItem, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if in.BasePrice.IsNegative() {
		in.BasePrice = decimal.Zero
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	probe := &LineItem{
		ProductID: in.ProductID,
		VendorID:  in.VendorID,
		Variant:   in.Variant,
		Flavor:    in.Flavor,
	}

	var item *LineItem
	for _, it := range s.items {
		if it.sameProduct(probe) {
			item = it
			break
		}
	}

	if item != nil {
		item.Quantity += in.Quantity
		if in.Rule != nil {
			item.Rule = in.Rule
		}
		if in.Deal != nil {
			item.Deal = in.Deal
		}
	} else {
		item = &LineItem{
			ID:          uuid.New().String(),
			ProductID:   in.ProductID,
			VendorID:    in.VendorID,
			VendorName:  in.VendorName,
			ProductName: in.ProductName,
			Variant:     in.Variant,
			Flavor:      in.Flavor,
			Quantity:    in.Quantity,
			BasePrice:   in.BasePrice,
			Rule:        in.Rule,
			Deal:        in.Deal,
		}
		s.items = append(s.items, item)
	}

	s.resolve(item)

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	s.emit()

	out := *item
	return &out, nil
}

// RemoveItem deletes a line item by its cart item ID. Removing an item that
// does not exist is a no-op. When the vendor's last item leaves the cart the
// vendor's promotion is dropped and any in-flight validation token for that
// vendor is invalidated.
func (s *Store) RemoveItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, it := range s.items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	vendorID := s.items[idx].VendorID
	s.items = append(s.items[:idx], s.items[idx+1:]...)

	if !s.vendorHasItems(vendorID) {
		delete(s.promos, vendorID)
		// Invalidate any pending validation for the now-empty group.
		s.nextTok++
		s.tokens[vendorID] = s.nextTok
	}

	if err := s.persist(ctx); err != nil {
		return err
	}
	s.emit()
	return nil
}

// SetQuantity changes a line item's quantity. A non-positive quantity behaves
// exactly like RemoveItem. Otherwise the item's discount is re-resolved,
// because quantity changes can flip eligibility for quantity and spend
// threshold rules.
func (s *Store) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, itemID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ID != itemID {
			continue
		}
		it.Quantity = quantity
		s.resolve(it)

		if err := s.persist(ctx); err != nil {
			return err
		}
		s.emit()
		return nil
	}
	return nil
}

// ApplyPromotion writes a vendor's promotion into the ledger, replacing any
// previous promotion for that vendor. A nil promotion removes the vendor's
// entry. Promotions for different vendors are fully independent.
func (s *Store) ApplyPromotion(ctx context.Context, vendorID string, applied *promotion.Applied) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if applied == nil {
		delete(s.promos, vendorID)
	} else {
		cp := *applied
		cp.VendorID = vendorID
		s.promos[vendorID] = &cp
	}

	if err := s.persist(ctx); err != nil {
		return err
	}
	s.emit()
	return nil
}

// Token identifies one promotion validation attempt for a vendor.
type Token struct {
	vendorID string
	seq      uint64
}

// BeginValidation issues a token for an in-flight promotion validation.
// Issuing a new token for the same vendor supersedes all earlier ones.
func (s *Store) BeginValidation(vendorID string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTok++
	s.tokens[vendorID] = s.nextTok
	return Token{vendorID: vendorID, seq: s.nextTok}
}

// CommitPromotion applies a validation result under the token issued by
// BeginValidation. The result is discarded — and false returned — when the
// token has been superseded, the vendor no longer has items in the cart, or
// the result is not applicable. A discarded result leaves the ledger exactly
// as it was.
func (s *Store) CommitPromotion(ctx context.Context, tok Token, applied *promotion.Applied) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens[tok.vendorID] != tok.seq {
		s.lg.Debug("discarding superseded promotion result",
			zap.String("vendor_id", tok.vendorID))
		return false, nil
	}
	if !s.vendorHasItems(tok.vendorID) {
		s.lg.Debug("discarding promotion result for empty vendor group",
			zap.String("vendor_id", tok.vendorID))
		return false, nil
	}
	if applied == nil || !applied.Applicable {
		return false, nil
	}

	cp := *applied
	cp.VendorID = tok.vendorID
	s.promos[tok.vendorID] = &cp

	if err := s.persist(ctx); err != nil {
		return false, err
	}
	s.emit()
	return true, nil
}

// Clear removes all line items and all promotions atomically.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.promos = make(map[string]*promotion.Applied)
	s.tokens = make(map[string]uint64)

	if err := s.persist(ctx); err != nil {
		return err
	}
	s.emit()
	return nil
}

// Hydrate loads persisted state. Missing blobs yield an empty cart; corrupt
// blobs are logged and likewise fall back to an empty cart rather than
// failing. Every hydrated item is re-resolved through the pricing engine:
// rule eligibility is time-dependent, so a persisted price is never trusted.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.loadItems(ctx)
	if err != nil {
		return err
	}
	promos, err := s.loadPromotions(ctx)
	if err != nil {
		return err
	}

	s.items = items
	s.promos = promos

	for _, it := range s.items {
		s.resolve(it)
	}
	return nil
}

func (s *Store) loadItems(ctx context.Context) ([]*LineItem, error) {
	blob, err := s.storage.Get(ctx, s.itemsKey())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load cart blob")
	}

	items, err := decodeItems(blob)
	if err != nil {
		s.lg.Warn("corrupt cart blob, starting empty",
			zap.String("cart_id", s.id), zap.Error(err))
		return nil, nil
	}
	return items, nil
}

func (s *Store) loadPromotions(ctx context.Context) (map[string]*promotion.Applied, error) {
	blob, err := s.storage.Get(ctx, s.promotionsKey())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return make(map[string]*promotion.Applied), nil
		}
		return nil, errors.Wrap(err, "load promotions blob")
	}

	promos, err := decodePromotions(blob)
	if err != nil {
		s.lg.Warn("corrupt promotions blob, starting empty",
			zap.String("cart_id", s.id), zap.Error(err))
		return make(map[string]*promotion.Applied), nil
	}
	return promos, nil
}

// Snapshot returns a deep copy of the current state for aggregation and
// display. Safe to use after the store has moved on.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Items:      make([]LineItem, len(s.items)),
		Promotions: make(map[string]promotion.Applied, len(s.promos)),
	}
	for i, it := range s.items {
		snap.Items[i] = *it
	}
	for vendorID, p := range s.promos {
		snap.Promotions[vendorID] = *p
	}
	return snap
}

// resolve recomputes the cached discount and price for one item.
// Must be called with s.mu held.
func (s *Store) resolve(it *LineItem) {
	it.Applied = pricing.ResolveDiscount(it.BasePrice, it.Quantity, it.Rule, it.Deal, s.now())
	it.Price = pricing.ResolveFinalPrice(it.BasePrice, it.Applied)
}

// vendorHasItems reports whether any line item belongs to the vendor.
// Must be called with s.mu held.
func (s *Store) vendorHasItems(vendorID string) bool {
	for _, it := range s.items {
		if it.VendorID == vendorID {
			return true
		}
	}
	return false
}

// persist writes both blobs. Must be called with s.mu held; the store is the
// sole writer of its keys so read-modify-persist is a single logical step.
func (s *Store) persist(ctx context.Context) error {
	if err := s.storage.Set(ctx, s.itemsKey(), encodeItems(s.items)); err != nil {
		return errors.Wrap(err, "persist cart blob")
	}
	if err := s.storage.Set(ctx, s.promotionsKey(), encodePromotions(s.promos)); err != nil {
		return errors.Wrap(err, "persist promotions blob")
	}
	return nil
}

// emit invokes the observer hook with a fresh snapshot.
// Must be called with s.mu held.
func (s *Store) emit() {
	if s.notify != nil {
		s.notify(s.snapshotLocked())
	}
}
