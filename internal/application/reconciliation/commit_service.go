package reconciliation

import (
	"context"
	"errors"
	"strings"

	"github.com/cotador/backend/internal/domain/catalog"
	"github.com/cotador/backend/internal/domain/partner"
	"github.com/cotador/backend/internal/domain/quotation"
	"github.com/cotador/backend/internal/domain/reconciliation"
	"github.com/cotador/backend/internal/domain/shared"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CommitService translates a fully reconciled session into persisted
// quotation rows. It is the only component that writes reconciliation output.
//
// The append/create decision belongs to the caller: Plan reports whether the
// supplier already holds an active quotation, Commit executes the chosen mode.
// The existence check in Plan is advisory; the database-level constraints in
// the quotation repository are authoritative under concurrency.
type CommitService struct {
	sessions      *SessionService
	quotationRepo quotation.Repository
	productRepo   catalog.ProductRepository
	supplierRepo  partner.SupplierRepository
	logger        *zap.Logger
}

// NewCommitService creates a new commit coordinator
func NewCommitService(
	sessions *SessionService,
	quotationRepo quotation.Repository,
	productRepo catalog.ProductRepository,
	supplierRepo partner.SupplierRepository,
	logger *zap.Logger,
) *CommitService {
	return &CommitService{
		sessions:      sessions,
		quotationRepo: quotationRepo,
		productRepo:   productRepo,
		supplierRepo:  supplierRepo,
		logger:        logger,
	}
}

// Plan reports the session's commit readiness and whether the supplier
// already has an active quotation, so the caller can choose between append
// and create before committing.
func (s *CommitService) Plan(ctx context.Context, sessionID uuid.UUID) (*CommitPlanResponse, error) {
	session, err := s.sessions.session(sessionID)
	if err != nil {
		return nil, err
	}

	plan := &CommitPlanResponse{
		SessionID:  session.ID,
		SupplierID: session.SupplierID,
		CanCommit:  session.CanCommit(),
	}
	for _, item := range session.PendingItems() {
		plan.PendingItemIDs = append(plan.PendingItemIDs, item.ID)
	}

	active, err := s.quotationRepo.FindActiveBySupplier(ctx, session.SupplierID)
	switch {
	case err == nil:
		plan.HasActiveQuotation = true
		plan.ActiveQuotation = &ActiveQuotationRef{
			ID:         active.ID,
			Number:     active.Number,
			ItemCount:  active.ItemCount,
			TotalValue: active.TotalValue,
		}
	case errors.Is(err, shared.ErrNotFound):
		// no active quotation, create is the only path
	default:
		return nil, reconciliation.NewPersistenceError("failed to check active quotation: %v", err)
	}
	return plan, nil
}

// Commit persists a committable session as quotation items, either appending
// to the supplier's active quotation or creating a new one. On success the
// session is removed from the registry; on any failure it stays live and the
// operator can retry after resolving the reported problem.
func (s *CommitService) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	if !req.Mode.IsValid() {
		return nil, reconciliation.NewValidationError("unknown commit mode %q", req.Mode)
	}

	session, err := s.sessions.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	if !session.CanCommit() {
		pending := session.PendingItems()
		ids := make([]string, 0, len(pending))
		for _, item := range pending {
			ids = append(ids, item.ID.String())
		}
		if len(ids) == 0 {
			return nil, reconciliation.NewValidationError("session has no items to commit")
		}
		return nil, reconciliation.NewValidationError(
			"session has %d unlinked items: %s", len(ids), strings.Join(ids, ", "))
	}

	supplier, err := s.supplierRepo.FindByID(ctx, session.SupplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, reconciliation.NewLookupError("supplier %s no longer exists", session.SupplierID)
		}
		return nil, reconciliation.NewPersistenceError("failed to load supplier: %v", err)
	}

	items, err := s.buildItems(ctx, session)
	if err != nil {
		return nil, err
	}

	var result *CommitResult
	switch req.Mode {
	case CommitModeCreate:
		result, err = s.commitCreate(ctx, session, supplier, items, req)
	case CommitModeAppend:
		result, err = s.commitAppend(ctx, session, items)
	}
	if err != nil {
		return nil, err
	}

	// commit landed; the session is spent
	if _, err := s.sessions.take(req.SessionID); err != nil && !errors.Is(err, reconciliation.ErrSessionNotFound) {
		s.logger.Warn("failed to discard committed session", zap.String("session_id", req.SessionID.String()), zap.Error(err))
	}

	s.logger.Info("reconciliation session committed",
		zap.String("session_id", req.SessionID.String()),
		zap.String("quotation_number", result.Number),
		zap.String("mode", string(result.Mode)),
		zap.Int("items_written", result.ItemsWritten))
	return result, nil
}

// buildItems re-verifies every product link against the catalog and maps the
// session items to quotation items. Items flagged for review land as
// "revisar", the rest as "aprovado". A USD item with no positive session
// exchange rate would persist a zero converted value, so it fails validation.
func (s *CommitService) buildItems(ctx context.Context, session *reconciliation.Session) ([]quotation.Item, error) {
	sessionItems := session.Items()

	idSet := make(map[uuid.UUID]struct{}, len(sessionItems))
	ids := make([]uuid.UUID, 0, len(sessionItems))
	for _, item := range sessionItems {
		if _, seen := idSet[*item.ProductID]; !seen {
			idSet[*item.ProductID] = struct{}{}
			ids = append(ids, *item.ProductID)
		}
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, reconciliation.NewPersistenceError("failed to verify product links: %v", err)
	}
	known := make(map[uuid.UUID]struct{}, len(products))
	for _, p := range products {
		known[p.ID] = struct{}{}
	}

	items := make([]quotation.Item, 0, len(sessionItems))
	for _, item := range sessionItems {
		if _, ok := known[*item.ProductID]; !ok {
			return nil, reconciliation.NewLookupError(
				"product %s linked by item %s no longer exists", item.ProductID, item.ID)
		}
		if item.Raw.Currency == valueobject.USD && !session.ExchangeRate.GreaterThan(decimal.Zero) {
			return nil, reconciliation.NewValidationError(
				"item %s is priced in USD but the session has no exchange rate; set one before committing", item.ID)
		}

		status := quotation.ItemStatusAprovado
		if item.NeedsReview {
			status = quotation.ItemStatusRevisar
		}
		built, err := quotation.NewReconciledItem(quotation.ItemInput{
			ProductID:             item.ProductID,
			Description:           item.Raw.Description,
			PartNumber:            item.Raw.PartNumber,
			TaxCode:               item.Raw.TaxCode,
			Quantity:              item.Raw.Quantity,
			UnitPrice:             item.Raw.UnitPrice,
			Currency:              item.Raw.Currency,
			OriginalValue:         item.Amounts.Original,
			ConvertedValueBRL:     item.Amounts.ConvertedBRL,
			DollarCost:            item.Amounts.DollarCost,
			ImmediateAvailability: item.Raw.ImmediateAvailability,
			Status:                status,
		})
		if err != nil {
			return nil, reconciliation.NewValidationError("item %s is not persistable: %v", item.ID, err)
		}
		items = append(items, *built)
	}
	return items, nil
}

func (s *CommitService) commitCreate(
	ctx context.Context,
	session *reconciliation.Session,
	supplier *partner.Supplier,
	items []quotation.Item,
	req CommitRequest,
) (*CommitResult, error) {
	number, err := s.quotationRepo.GenerateNumber(ctx)
	if err != nil {
		return nil, reconciliation.NewPersistenceError("failed to generate quotation number: %v", err)
	}

	var rate *decimal.Decimal
	if session.ExchangeRate.GreaterThan(decimal.Zero) {
		r := session.ExchangeRate
		rate = &r
	}
	q, err := quotation.NewQuotation(number, session.SupplierID, supplier.Name, session.Currency, rate)
	if err != nil {
		return nil, reconciliation.NewValidationError("cannot build quotation: %v", err)
	}
	q.SetTerms(req.PaymentTerms, req.DeliveryTerms)
	if req.Notes != "" {
		q.SetNotes(req.Notes)
	}
	if req.ValidUntil != nil {
		if err := q.SetValidUntil(*req.ValidUntil); err != nil {
			return nil, reconciliation.NewValidationError("invalid validity date: %v", err)
		}
	}
	if err := q.AppendItems(items); err != nil {
		return nil, reconciliation.NewValidationError("cannot attach items: %v", err)
	}

	if err := s.quotationRepo.CreateWithItems(ctx, q); err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, reconciliation.NewConflictError(
				"supplier %s already has an active quotation; re-plan and choose append", session.SupplierID)
		}
		return nil, reconciliation.NewPersistenceError("failed to create quotation: %v", err)
	}

	return &CommitResult{
		QuotationID:  q.ID,
		Number:       q.Number,
		Mode:         CommitModeCreate,
		ItemsWritten: len(items),
		TotalValue:   q.TotalValue,
	}, nil
}

func (s *CommitService) commitAppend(
	ctx context.Context,
	session *reconciliation.Session,
	items []quotation.Item,
) (*CommitResult, error) {
	active, err := s.quotationRepo.FindActiveBySupplier(ctx, session.SupplierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, reconciliation.NewConflictError(
				"supplier %s has no active quotation to append to; re-plan and choose create", session.SupplierID)
		}
		return nil, reconciliation.NewPersistenceError("failed to load active quotation: %v", err)
	}

	written, total, err := s.quotationRepo.AppendItems(ctx, active.ID, items)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrInvalidState):
			return nil, reconciliation.NewConflictError(
				"quotation %s is no longer active; re-plan the commit", active.Number)
		default:
			return nil, reconciliation.NewPersistenceError("failed to append items: %v", err)
		}
	}

	return &CommitResult{
		QuotationID:  active.ID,
		Number:       active.Number,
		Mode:         CommitModeAppend,
		ItemsWritten: written,
		TotalValue:   total,
	}, nil
}
