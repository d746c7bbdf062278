package reconciliation

import (
	"context"
	"sync"

	"github.com/cotador/backend/internal/domain/catalog"
	"github.com/cotador/backend/internal/domain/partner"
	"github.com/cotador/backend/internal/domain/reconciliation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SessionService manages reconciliation sessions. Sessions live in memory
// only; the commit coordinator is the single path to persistence, and a
// discarded session leaves no trace.
type SessionService struct {
	productRepo  catalog.ProductRepository
	supplierRepo partner.SupplierRepository
	matcher      *reconciliation.Matcher
	logger       *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*reconciliation.Session
}

// NewSessionService creates a new session service
func NewSessionService(
	productRepo catalog.ProductRepository,
	supplierRepo partner.SupplierRepository,
	matcher *reconciliation.Matcher,
	logger *zap.Logger,
) *SessionService {
	if matcher == nil {
		matcher = reconciliation.NewMatcher()
	}
	return &SessionService{
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		matcher:      matcher,
		logger:       logger,
		sessions:     make(map[uuid.UUID]*reconciliation.Session),
	}
}

// Create starts a session from an extracted batch: the supplier is verified,
// every raw item is scored against the active catalog, and the auto-linked
// working set is returned.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*SessionResponse, error) {
	if _, err := s.supplierRepo.FindByID(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	session, err := reconciliation.NewSession(req.SupplierID, req.Currency, req.ExchangeRate, s.matcher)
	if err != nil {
		return nil, err
	}

	if len(req.Items) > 0 {
		products, err := s.productRepo.FindActive(ctx)
		if err != nil {
			return nil, err
		}
		raws := make([]reconciliation.RawItem, 0, len(req.Items))
		for _, in := range req.Items {
			raws = append(raws, reconciliation.RawItem{
				Description:           in.Description,
				PartNumber:            in.PartNumber,
				TaxCode:               in.TaxCode,
				Quantity:              in.Quantity,
				UnitPrice:             in.UnitPrice,
				Currency:              in.Currency,
				ImmediateAvailability: in.ImmediateAvailability,
			})
		}
		if _, err := session.Ingest(ctx, raws, products); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("reconciliation session created",
		zap.String("session_id", session.ID.String()),
		zap.String("supplier_id", req.SupplierID.String()),
		zap.Int("item_count", session.ItemCount()))

	resp := toSessionResponse(session)
	return &resp, nil
}

// Get returns the current state of a session
func (s *SessionService) Get(sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(session)
	return &resp, nil
}

// Review returns the items that still need operator attention
func (s *SessionService) Review(sessionID uuid.UUID) (*ReviewResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	resp := &ReviewResponse{
		Pending: make([]ItemResponse, 0),
		Flagged: make([]ItemResponse, 0),
	}
	for _, item := range session.PendingItems() {
		resp.Pending = append(resp.Pending, toItemResponse(item))
	}
	for _, item := range session.FlaggedItems() {
		resp.Flagged = append(resp.Flagged, toItemResponse(item))
	}
	return resp, nil
}

// Discard drops a session without persisting anything
func (s *SessionService) Discard(sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return reconciliation.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	s.logger.Info("reconciliation session discarded", zap.String("session_id", sessionID.String()))
	return nil
}

// LinkItem confirms a product link chosen by the operator. The product is
// verified against the catalog before the link is applied.
func (s *SessionService) LinkItem(ctx context.Context, sessionID, itemID, productID uuid.UUID) (*ItemResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	if err := session.Link(itemID, productID); err != nil {
		return nil, err
	}
	return s.itemResponse(session, itemID)
}

// AcceptSuggestion confirms an item's best match candidate
func (s *SessionService) AcceptSuggestion(sessionID, itemID uuid.UUID) (*ItemResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.AcceptSuggestion(itemID); err != nil {
		return nil, err
	}
	return s.itemResponse(session, itemID)
}

// UnlinkItem removes a confirmed product link
func (s *SessionService) UnlinkItem(sessionID, itemID uuid.UUID) (*ItemResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Unlink(itemID); err != nil {
		return nil, err
	}
	return s.itemResponse(session, itemID)
}

// EditItem applies a partial update to an item. Monetary amounts are
// re-derived; the match ranking is left alone.
func (s *SessionService) EditItem(sessionID, itemID uuid.UUID, req EditItemRequest) (*ItemResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	patch := reconciliation.EditPatch{
		Description:           req.Description,
		PartNumber:            req.PartNumber,
		TaxCode:               req.TaxCode,
		Quantity:              req.Quantity,
		UnitPrice:             req.UnitPrice,
		Currency:              req.Currency,
		ImmediateAvailability: req.ImmediateAvailability,
	}
	if err := session.Edit(itemID, patch); err != nil {
		return nil, err
	}
	return s.itemResponse(session, itemID)
}

// RematchItem explicitly re-scores one item against the current catalog
func (s *SessionService) RematchItem(ctx context.Context, sessionID, itemID uuid.UUID) (*ItemResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := session.Rematch(itemID, products); err != nil {
		return nil, err
	}
	return s.itemResponse(session, itemID)
}

// DuplicateItem copies an item to the end of the working set
func (s *SessionService) DuplicateItem(sessionID, itemID uuid.UUID) (*ItemResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	dup, err := session.Duplicate(itemID)
	if err != nil {
		return nil, err
	}
	resp := toItemResponse(dup)
	return &resp, nil
}

// RemoveItem deletes an item from the working set
func (s *SessionService) RemoveItem(sessionID, itemID uuid.UUID) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	return session.Remove(itemID)
}

// SetExchangeRate updates the session rate and recomputes every item's
// amounts before returning
func (s *SessionService) SetExchangeRate(sessionID uuid.UUID, rate decimal.Decimal) (*SessionResponse, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.SetExchangeRate(rate); err != nil {
		return nil, err
	}
	resp := toSessionResponse(session)
	return &resp, nil
}

// session looks up a live session by ID
func (s *SessionService) session(sessionID uuid.UUID) (*reconciliation.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, reconciliation.ErrSessionNotFound
	}
	return session, nil
}

// take removes a session from the registry, returning it. Used by the commit
// coordinator on success.
func (s *SessionService) take(sessionID uuid.UUID) (*reconciliation.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, reconciliation.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return session, nil
}

func (s *SessionService) itemResponse(session *reconciliation.Session, itemID uuid.UUID) (*ItemResponse, error) {
	item, err := session.Item(itemID)
	if err != nil {
		return nil, err
	}
	resp := toItemResponse(item)
	return &resp, nil
}
