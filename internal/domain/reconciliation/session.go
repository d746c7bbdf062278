package reconciliation

import (
	"context"
	"sync"
	"time"

	"github.com/cotador/backend/internal/domain/catalog"
	"github.com/cotador/backend/internal/domain/shared"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentScoring bounds the per-item scoring fan-out during ingest
const maxConcurrentScoring = 8

// ResolutionStatus tracks how far an item is from a confirmed product link
type ResolutionStatus string

const (
	StatusUnresolved ResolutionStatus = "unresolved" // no candidate cleared the acceptance threshold
	StatusSuggested  ResolutionStatus = "suggested"  // has an auto-suggestion awaiting confirmation
	StatusLinked     ResolutionStatus = "linked"     // product link confirmed
)

// RawItem is a supplier quotation line as produced by the external extraction
// pipeline. It is treated as immutable input; edits inside a session mutate
// the session's working copy.
type RawItem struct {
	Description           string               `json:"description"`
	PartNumber            string               `json:"part_number"`
	TaxCode               string               `json:"tax_code"` // NCM
	Quantity              decimal.Decimal      `json:"quantity"`
	UnitPrice             decimal.Decimal      `json:"unit_price"`
	Currency              valueobject.Currency `json:"currency"`
	ImmediateAvailability bool                 `json:"immediate_availability"`
}

// Item is one line of the reconciliation working set. Items are addressed by
// ID, never by position: positions shift under duplication and removal.
type Item struct {
	ID          uuid.UUID        `json:"id"`
	Raw         RawItem          `json:"raw"`
	ProductID   *uuid.UUID       `json:"product_id,omitempty"`
	Status      ResolutionStatus `json:"status"`
	NeedsReview bool             `json:"needs_review"`
	BestMatch   *MatchCandidate  `json:"best_match,omitempty"`
	Candidates  []MatchCandidate `json:"candidates,omitempty"`
	Amounts     Amounts          `json:"amounts"`
}

// IsLinked returns true if the item has a confirmed product link
func (i *Item) IsLinked() bool {
	return i.Status == StatusLinked && i.ProductID != nil
}

// clone returns a deep copy of the item with a fresh ID
func (i *Item) clone() *Item {
	dup := &Item{
		ID:          uuid.New(),
		Raw:         i.Raw,
		Status:      i.Status,
		NeedsReview: i.NeedsReview,
		Amounts:     i.Amounts,
	}
	if i.ProductID != nil {
		id := *i.ProductID
		dup.ProductID = &id
	}
	if i.BestMatch != nil {
		best := *i.BestMatch
		dup.BestMatch = &best
	}
	if len(i.Candidates) > 0 {
		dup.Candidates = make([]MatchCandidate, len(i.Candidates))
		copy(dup.Candidates, i.Candidates)
	}
	return dup
}

// EditPatch carries a partial update for a session item. Nil fields are left
// untouched. Editing description or part number does NOT re-run the matcher;
// re-matching is an explicit operator action.
type EditPatch struct {
	Description           *string               `json:"description,omitempty"`
	PartNumber            *string               `json:"part_number,omitempty"`
	TaxCode               *string               `json:"tax_code,omitempty"`
	Quantity              *decimal.Decimal      `json:"quantity,omitempty"`
	UnitPrice             *decimal.Decimal      `json:"unit_price,omitempty"`
	Currency              *valueobject.Currency `json:"currency,omitempty"`
	ImmediateAvailability *bool                 `json:"immediate_availability,omitempty"`
}

// Session is the in-memory working set for one reconciliation workflow.
// Nothing is persisted until the commit coordinator is invoked; discarding a
// session has no side effects.
//
// All methods are safe for concurrent use; operations are applied in the
// order the lock is acquired.
type Session struct {
	ID           uuid.UUID
	SupplierID   uuid.UUID
	Currency     valueobject.Currency
	ExchangeRate decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time

	matcher *Matcher

	mu    sync.Mutex
	items []*Item
	index map[uuid.UUID]*Item
}

// NewSession creates an empty reconciliation session for a supplier
func NewSession(supplierID uuid.UUID, currency valueobject.Currency, exchangeRate decimal.Decimal, matcher *Matcher) (*Session, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported session currency")
	}
	if currency == valueobject.USD && exchangeRate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_EXCHANGE_RATE", "Exchange rate is required for USD sessions and must be positive")
	}
	if matcher == nil {
		matcher = NewMatcher()
	}

	now := time.Now()
	return &Session{
		ID:           uuid.New(),
		SupplierID:   supplierID,
		Currency:     currency,
		ExchangeRate: exchangeRate,
		CreatedAt:    now,
		UpdatedAt:    now,
		matcher:      matcher,
		items:        make([]*Item, 0),
		index:        make(map[uuid.UUID]*Item),
	}, nil
}

// Ingest scores a batch of raw items against the catalog and appends the
// resulting working items in input order. Scoring runs concurrently per item
// (no shared mutable state); auto-transition rules:
//   - code match or exact match at/above the cutoff: Linked
//   - best candidate at/above the acceptance threshold: Suggested
//   - otherwise: Unresolved
func (s *Session) Ingest(ctx context.Context, raws []RawItem, products []catalog.Product) ([]*Item, error) {
	if len(raws) == 0 {
		return nil, nil
	}

	rankings := make([][]MatchCandidate, len(raws))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScoring)
	for i := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rankings[i] = s.matcher.Score(raws[i].Description, raws[i].PartNumber, raws[i].TaxCode, products)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]*Item, 0, len(raws))
	for i, raw := range raws {
		item := &Item{
			ID:         uuid.New(),
			Raw:        raw,
			Status:     StatusUnresolved,
			Candidates: rankings[i],
			Amounts:    Convert(raw.UnitPrice, raw.Currency, s.ExchangeRate),
		}
		if len(rankings[i]) > 0 {
			best := rankings[i][0]
			item.BestMatch = &best
			s.applyAutoTransition(item, best)
		}
		s.items = append(s.items, item)
		s.index[item.ID] = item
		added = append(added, item)
	}
	s.touch()
	return added, nil
}

// applyAutoTransition sets the resolution status from the best candidate
func (s *Session) applyAutoTransition(item *Item, best MatchCandidate) {
	switch {
	case best.MatchType == MatchCode || (best.MatchType == MatchExact && best.Score >= s.matcher.ExactCutoff):
		productID := best.ProductID
		item.ProductID = &productID
		item.Status = StatusLinked
		item.NeedsReview = false
	case best.Score >= s.matcher.AcceptanceThreshold:
		item.Status = StatusSuggested
	default:
		item.Status = StatusUnresolved
	}
}

// Link forces a confirmed product link on an item, clearing NeedsReview.
// This is the operator override path: the chosen product need not appear in
// the candidate ranking.
func (s *Session) Link(itemID, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[itemID]
	if !ok {
		return ErrItemNotFound
	}
	item.ProductID = &productID
	item.Status = StatusLinked
	item.NeedsReview = false
	s.touch()
	return nil
}

// AcceptSuggestion confirms the item's best candidate. The NeedsReview flag
// is raised when the accepted score sits below the exact cutoff, so the
// committed item lands as "revisar" instead of "aprovado".
func (s *Session) AcceptSuggestion(itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[itemID]
	if !ok {
		return ErrItemNotFound
	}
	if item.BestMatch == nil {
		return shared.NewDomainError("NO_SUGGESTION", "Item has no match suggestion to accept")
	}

	productID := item.BestMatch.ProductID
	item.ProductID = &productID
	item.Status = StatusLinked
	item.NeedsReview = item.BestMatch.MatchType != MatchCode && item.BestMatch.Score < s.matcher.ExactCutoff
	s.touch()
	return nil
}

// Unlink removes a confirmed link, returning the item to Suggested when its
// ranking still clears the acceptance threshold, else Unresolved.
func (s *Session) Unlink(itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[itemID]
	if !ok {
		return ErrItemNotFound
	}
	item.ProductID = nil
	item.NeedsReview = false
	if item.BestMatch != nil && item.BestMatch.Score >= s.matcher.AcceptanceThreshold {
		item.Status = StatusSuggested
	} else {
		item.Status = StatusUnresolved
	}
	s.touch()
	return nil
}

// Edit applies a partial update to an item's raw fields and re-derives its
// monetary amounts. The matcher is deliberately not re-run here.
func (s *Session) Edit(itemID uuid.UUID, patch EditPatch) error {
	if patch.Quantity != nil && patch.Quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if patch.UnitPrice != nil && patch.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if patch.Currency != nil && !patch.Currency.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[itemID]
	if !ok {
		return ErrItemNotFound
	}

	if patch.Description != nil {
		item.Raw.Description = *patch.Description
	}
	if patch.PartNumber != nil {
		item.Raw.PartNumber = *patch.PartNumber
	}
	if patch.TaxCode != nil {
		item.Raw.TaxCode = *patch.TaxCode
	}
	if patch.Quantity != nil {
		item.Raw.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		item.Raw.UnitPrice = *patch.UnitPrice
	}
	if patch.Currency != nil {
		item.Raw.Currency = *patch.Currency
	}
	if patch.ImmediateAvailability != nil {
		item.Raw.ImmediateAvailability = *patch.ImmediateAvailability
	}

	item.Amounts = Convert(item.Raw.UnitPrice, item.Raw.Currency, s.ExchangeRate)
	s.touch()
	return nil
}

// Rematch explicitly re-runs the matcher for one item. A confirmed link is
// preserved; only the candidate ranking is refreshed in that case. Items not
// yet linked go through the auto-transition rules again.
func (s *Session) Rematch(itemID uuid.UUID, products []catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[itemID]
	if !ok {
		return ErrItemNotFound
	}

	ranking := s.matcher.Score(item.Raw.Description, item.Raw.PartNumber, item.Raw.TaxCode, products)
	item.Candidates = ranking
	item.BestMatch = nil
	if len(ranking) > 0 {
		best := ranking[0]
		item.BestMatch = &best
	}

	if item.Status != StatusLinked {
		item.ProductID = nil
		item.NeedsReview = false
		item.Status = StatusUnresolved
		if item.BestMatch != nil {
			s.applyAutoTransition(item, *item.BestMatch)
		}
	}
	s.touch()
	return nil
}

// Duplicate inserts a copy of an item at the end of the working set. A
// confirmed link is inherited; a duplicate of an unconfirmed item starts over
// as Unresolved (its candidate ranking is kept for manual search).
func (s *Session) Duplicate(itemID uuid.UUID) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}

	dup := item.clone()
	if !item.IsLinked() {
		dup.ProductID = nil
		dup.Status = StatusUnresolved
		dup.NeedsReview = false
	}
	s.items = append(s.items, dup)
	s.index[dup.ID] = dup
	s.touch()
	return dup, nil
}

// Remove deletes an item from the working set
func (s *Session) Remove(itemID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[itemID]; !ok {
		return ErrItemNotFound
	}
	delete(s.index, itemID)
	for i := range s.items {
		if s.items[i].ID == itemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.touch()
	return nil
}

// SetExchangeRate updates the session exchange rate and synchronously
// recomputes every item's monetary amounts. The recomputation is a barrier:
// when this returns, no item carries amounts derived from the old rate.
func (s *Session) SetExchangeRate(rate decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_EXCHANGE_RATE", "Exchange rate must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ExchangeRate = rate
	for _, item := range s.items {
		item.Amounts = Convert(item.Raw.UnitPrice, item.Raw.Currency, rate)
	}
	s.touch()
	return nil
}

// CanCommit reports whether every item carries a confirmed product link.
// Items flagged NeedsReview still count as linked; Unresolved or merely
// Suggested items block the commit.
func (s *Session) CanCommit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return false
	}
	for _, item := range s.items {
		if !item.IsLinked() {
			return false
		}
	}
	return true
}

// PendingItems returns every item that still blocks the commit, in one pass,
// so the caller can present the full list instead of stopping at the first.
func (s *Session) PendingItems() []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]*Item, 0)
	for _, item := range s.items {
		if !item.IsLinked() {
			pending = append(pending, item)
		}
	}
	return pending
}

// FlaggedItems returns linked items whose confirmation score was below the
// exact cutoff (they will be committed as "revisar")
func (s *Session) FlaggedItems() []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	flagged := make([]*Item, 0)
	for _, item := range s.items {
		if item.IsLinked() && item.NeedsReview {
			flagged = append(flagged, item)
		}
	}
	return flagged
}

// Items returns the working set in insertion order
func (s *Session) Items() []*Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Item, len(s.items))
	copy(out, s.items)
	return out
}

// Item returns a single item by ID
func (s *Session) Item(itemID uuid.UUID) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.index[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// ItemCount returns the number of items in the working set
func (s *Session) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// touch updates the session timestamp; callers must hold the lock
func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}
