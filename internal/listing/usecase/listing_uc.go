package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jollyrancherman/frauc-app-sub001/internal/listing/domain"
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/metrics"
)

// maxConflictRetries bounds re-fetch-and-retry on optimistic concurrency
// conflicts. The core itself never retries; this is the caller-side policy.
const maxConflictRetries = 3

// ListingUsecase implements the command and query handlers around the
// listing aggregate. It loads aggregates through the repository port,
// invokes aggregate operations, persists, and only then drains and publishes
// the buffered domain events.
type ListingUsecase struct {
	repo      domain.ListingRepository
	cache     ListingCache
	publisher EventPublisher
	metrics   *metrics.Manager
	logger    *logger.Logger
}

// NewListingUsecase wires the usecase. cache, publisher and metrics may be
// nil, which disables the respective concern.
func NewListingUsecase(
	repo domain.ListingRepository,
	cache ListingCache,
	publisher EventPublisher,
	m *metrics.Manager,
	log *logger.Logger,
) *ListingUsecase {
	return &ListingUsecase{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		logger:    log.Named("ListingUsecase"),
	}
}

// CreateListing validates input through the aggregate factory and persists
// the new listing.
func (uc *ListingUsecase) CreateListing(ctx context.Context, params domain.CreateListingParams) (*domain.Listing, error) {
	start := time.Now()
	uc.logger.Info("Creating listing",
		zap.String("seller_id", params.SellerID.String()),
		zap.String("type", string(params.Type)),
		zap.String("title", params.Title))

	listing, err := domain.NewListing(params)
	if err != nil {
		uc.observe("CreateListing", start, err)
		return nil, err
	}

	events := listing.PullEvents()
	if err := uc.repo.Create(ctx, listing); err != nil {
		uc.logger.Error("Failed to create listing", zap.Error(err), zap.String("listing_id", listing.ID().String()))
		uc.observe("CreateListing", start, err)
		return nil, err
	}
	uc.publishEvents(ctx, events)

	if uc.metrics != nil {
		uc.metrics.ListingsCreatedTotal.Inc()
	}
	uc.observe("CreateListing", start, nil)
	return listing, nil
}

// GetListing reads through the cache; on a miss it loads from the
// repository and backfills the cache.
func (uc *ListingUsecase) GetListing(ctx context.Context, id domain.ListingID) (*domain.Listing, error) {
	if uc.cache != nil {
		cached, err := uc.cache.GetListing(ctx, id)
		if err != nil {
			uc.logger.Warn("Cache read failed, falling through to repository",
				zap.Error(err), zap.String("listing_id", id.String()))
		} else if cached != nil {
			return cached, nil
		}
	}

	listing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetListing(ctx, listing); err != nil {
			uc.logger.Warn("Cache write failed", zap.Error(err), zap.String("listing_id", id.String()))
		}
	}
	return listing, nil
}

// GetListingByItem resolves the listing selling a given item.
func (uc *ListingUsecase) GetListingByItem(ctx context.Context, itemID domain.ItemID) (*domain.Listing, error) {
	return uc.repo.GetByItemID(ctx, itemID)
}

// RecordView bumps the stored view counter. The cache entry is left alone:
// a slightly stale view count on a cached read is acceptable.
func (uc *ListingUsecase) RecordView(ctx context.Context, id domain.ListingID) error {
	return uc.repo.IncrementViewCount(ctx, id)
}

// UpdatePrice changes the listing's current price, rejecting currency
// mismatches.
func (uc *ListingUsecase) UpdatePrice(ctx context.Context, id domain.ListingID, newPrice domain.Money) (*domain.Listing, error) {
	return uc.mutate(ctx, id, "UpdatePrice", func(l *domain.Listing) error {
		return l.UpdatePrice(newPrice)
	})
}

// ActivateListing publishes a draft.
func (uc *ListingUsecase) ActivateListing(ctx context.Context, id domain.ListingID) (*domain.Listing, error) {
	return uc.mutate(ctx, id, "ActivateListing", func(l *domain.Listing) error {
		return l.Activate()
	})
}

// MarkListingExpired transitions an active listing past its deadline.
func (uc *ListingUsecase) MarkListingExpired(ctx context.Context, id domain.ListingID) (*domain.Listing, error) {
	return uc.mutate(ctx, id, "MarkListingExpired", func(l *domain.Listing) error {
		return l.MarkExpired()
	})
}

// CompleteListing finishes an active listing with a sale.
func (uc *ListingUsecase) CompleteListing(ctx context.Context, id domain.ListingID) (*domain.Listing, error) {
	return uc.mutate(ctx, id, "CompleteListing", func(l *domain.Listing) error {
		return l.Complete()
	})
}

// CancelListing withdraws a draft or active listing.
func (uc *ListingUsecase) CancelListing(ctx context.Context, id domain.ListingID) (*domain.Listing, error) {
	return uc.mutate(ctx, id, "CancelListing", func(l *domain.Listing) error {
		return l.Cancel()
	})
}

// DeleteListing soft-deletes: the listing is hidden, never physically
// removed here.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, id domain.ListingID) error {
	_, err := uc.mutate(ctx, id, "DeleteListing", func(l *domain.Listing) error {
		l.SoftDelete()
		return nil
	})
	if err == nil && uc.metrics != nil {
		uc.metrics.ListingDeletesTotal.Inc()
	}
	return err
}

// SearchListings runs the composite search.
func (uc *ListingUsecase) SearchListings(ctx context.Context, filter domain.SearchFilter, page domain.Page) (*domain.PagedListings, error) {
	return uc.repo.Search(ctx, filter, page)
}

// NearbyListings returns effectively active listings within radiusKm of
// center, built by composing specifications rather than a bespoke query.
func (uc *ListingUsecase) NearbyListings(ctx context.Context, center domain.Location, radiusKm float64, page domain.Page) (*domain.PagedListings, error) {
	spec := domain.ActiveListings().And(domain.ListingsNearLocation(center, radiusKm))
	return uc.repo.FindBySpecification(ctx, spec, page)
}

// ActiveListingsBySeller lists a seller's effectively active listings.
func (uc *ListingUsecase) ActiveListingsBySeller(ctx context.Context, sellerID domain.UserID, page domain.Page) (*domain.PagedListings, error) {
	spec := domain.ActiveListings().And(domain.ListingsBySeller(sellerID))
	return uc.repo.FindBySpecification(ctx, spec, page)
}

// ListActiveListings pages through everything effectively active.
func (uc *ListingUsecase) ListActiveListings(ctx context.Context, page domain.Page) (*domain.PagedListings, error) {
	return uc.repo.FindActive(ctx, page)
}

// ExpireDueListings sweeps active listings past their deadline into the
// Expired status. Returns how many listings were transitioned.
func (uc *ListingUsecase) ExpireDueListings(ctx context.Context, batchSize int) (int, error) {
	page, err := domain.NewPage(1, batchSize)
	if err != nil {
		return 0, err
	}
	due, err := uc.repo.FindExpired(ctx, page)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, listing := range due.Items {
		if listing.Status() != domain.StatusActive {
			continue // already expired, nothing to transition
		}
		if _, err := uc.MarkListingExpired(ctx, listing.ID()); err != nil {
			uc.logger.Warn("Failed to expire listing",
				zap.Error(err), zap.String("listing_id", listing.ID().String()))
			continue
		}
		expired++
	}
	return expired, nil
}

// CountActiveListings exposes the active-listing count.
func (uc *ListingUsecase) CountActiveListings(ctx context.Context) (int64, error) {
	return uc.repo.CountActive(ctx)
}

// mutate loads the aggregate, applies fn, persists with bounded retries on
// version conflicts, invalidates the cache and publishes drained events.
func (uc *ListingUsecase) mutate(ctx context.Context, id domain.ListingID, method string, fn func(*domain.Listing) error) (*domain.Listing, error) {
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		listing, err := uc.repo.GetByID(ctx, id)
		if err != nil {
			uc.observe(method, start, err)
			return nil, err
		}

		if err := fn(listing); err != nil {
			uc.observe(method, start, err)
			return nil, err
		}

		events := listing.PullEvents()
		if err := uc.repo.Update(ctx, listing); err != nil {
			if errors.Is(err, domain.ErrConcurrencyConflict) {
				uc.logger.Debug("Version conflict, retrying",
					zap.String("method", method),
					zap.String("listing_id", id.String()),
					zap.Int("attempt", attempt+1))
				lastErr = err
				continue
			}
			uc.logger.Error("Failed to persist listing mutation",
				zap.Error(err), zap.String("method", method), zap.String("listing_id", id.String()))
			uc.observe(method, start, err)
			return nil, err
		}

		uc.invalidateCache(ctx, id)
		uc.publishEvents(ctx, events)

		if uc.metrics != nil {
			uc.metrics.ListingUpdatesTotal.Inc()
		}
		uc.observe(method, start, nil)
		return listing, nil
	}

	uc.observe(method, start, lastErr)
	return nil, lastErr
}

func (uc *ListingUsecase) invalidateCache(ctx context.Context, id domain.ListingID) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteListing(ctx, id); err != nil {
		uc.logger.Warn("Cache invalidation failed", zap.Error(err), zap.String("listing_id", id.String()))
	}
}

// publishEvents dispatches drained events in emission order. Called only
// after the storage write succeeded; delivery failures are logged, not
// surfaced, since the dispatcher contract is at-least-once and downstream
// consumers tolerate redelivery.
func (uc *ListingUsecase) publishEvents(ctx context.Context, events []domain.Event) {
	if uc.publisher == nil {
		return
	}
	for _, e := range events {
		payload := map[string]interface{}{
			"event":       e.EventName(),
			"listing_id":  e.AggregateID().String(),
			"occurred_at": e.OccurredAt(),
			"data":        e,
		}
		if err := uc.publisher.Publish(ctx, e.EventName(), payload); err != nil {
			uc.logger.Warn("Failed to publish domain event",
				zap.Error(err),
				zap.String("subject", e.EventName()),
				zap.String("listing_id", e.AggregateID().String()))
			continue
		}
		if uc.metrics != nil {
			uc.metrics.EventsPublishedTotal.WithLabelValues(e.EventName()).Inc()
		}
	}
}

func (uc *ListingUsecase) observe(method string, start time.Time, err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.OperationLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		uc.metrics.ErrorsTotal.WithLabelValues(method, errorType(err)).Inc()
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "concurrency_conflict"
	default:
		return "internal"
	}
}
