package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedPriceParams(t *testing.T) CreateListingParams {
	t.Helper()
	loc, err := NewLocation(40.7128, -74.0060)
	require.NoError(t, err)
	return CreateListingParams{
		ItemID:      NewItemID(),
		SellerID:    NewUserID(),
		CategoryID:  NewCategoryID(),
		Title:       "Vintage road bike",
		Description: "Well maintained, new tires.",
		Location:    loc,
		Type:        TypeFixedPrice,
		Price:       usd(t, 250),
	}
}

func newFixedListing(t *testing.T) *Listing {
	t.Helper()
	l, err := NewListing(fixedPriceParams(t))
	require.NoError(t, err)
	return l
}

func newForwardAuctionListing(t *testing.T, duration time.Duration) *Listing {
	t.Helper()
	settings, err := NewForwardAuctionSettings(usd(t, 100), usd(t, 150), duration, nil, nil, nil, true)
	require.NoError(t, err)
	p := fixedPriceParams(t)
	p.Type = TypeForwardAuction
	p.Price = Money{}
	p.AuctionSettings = settings
	l, err := NewListing(p)
	require.NoError(t, err)
	return l
}

func TestNewListing_FixedPrice(t *testing.T) {
	l := newFixedListing(t)

	assert.False(t, l.ID().IsZero())
	assert.Equal(t, TypeFixedPrice, l.Type())
	assert.Equal(t, StatusActive, l.Status())
	assert.True(t, l.CurrentPrice().Equals(usd(t, 250)))
	assert.Nil(t, l.AuctionSettings())
	assert.Nil(t, l.ExpiresAt())
	assert.Nil(t, l.CompletedAt())
	assert.Nil(t, l.DeletedAt())
	assert.False(t, l.IsDeleted())
	assert.EqualValues(t, 1, l.Version())
	assert.EqualValues(t, 0, l.ViewCount())
	assert.Equal(t, l.CreatedAt(), l.UpdatedAt())

	events := l.PullEvents()
	require.Len(t, events, 1)
	created, ok := events[0].(ListingCreated)
	require.True(t, ok)
	assert.Equal(t, l.ID(), created.AggregateID())
	assert.Equal(t, "listing.created", created.EventName())

	// Drained once, gone for good.
	assert.Empty(t, l.PullEvents())
}

func TestNewListing_StartAsDraft(t *testing.T) {
	p := fixedPriceParams(t)
	p.StartAsDraft = true
	l, err := NewListing(p)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, l.Status())
}

func TestNewListing_ForwardAuctionDerivesPriceAndExpiry(t *testing.T) {
	before := time.Now().UTC()
	l := newForwardAuctionListing(t, 72*time.Hour)

	assert.True(t, l.CurrentPrice().Equals(usd(t, 100)), "opening price comes from the starting price")
	require.NotNil(t, l.ExpiresAt())
	assert.WithinDuration(t, before.Add(72*time.Hour), *l.ExpiresAt(), 5*time.Second)
}

func TestNewListing_ReverseAuctionDerivesPriceFromCeiling(t *testing.T) {
	settings, err := NewReverseAuctionSettings(usd(t, 900), 24*time.Hour, false)
	require.NoError(t, err)
	p := fixedPriceParams(t)
	p.Type = TypeReverseAuction
	p.Price = Money{}
	p.AuctionSettings = settings

	l, err := NewListing(p)
	require.NoError(t, err)
	assert.True(t, l.CurrentPrice().Equals(usd(t, 900)))
	assert.NotNil(t, l.ExpiresAt())
}

func TestNewListing_Validation(t *testing.T) {
	fwd, err := NewForwardAuctionSettings(usd(t, 100), usd(t, 150), time.Hour, nil, nil, nil, false)
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*CreateListingParams)
	}{
		{"missing item id", func(p *CreateListingParams) { p.ItemID = ItemID{} }},
		{"missing seller id", func(p *CreateListingParams) { p.SellerID = UserID{} }},
		{"missing category id", func(p *CreateListingParams) { p.CategoryID = CategoryID{} }},
		{"empty title", func(p *CreateListingParams) { p.Title = "" }},
		{"title too long", func(p *CreateListingParams) { p.Title = strings.Repeat("x", 201) }},
		{"description too long", func(p *CreateListingParams) { p.Description = strings.Repeat("x", 5001) }},
		{"unknown type", func(p *CreateListingParams) { p.Type = ListingType("dutch_auction") }},
		{"auction without settings", func(p *CreateListingParams) {
			p.Type = TypeForwardAuction
		}},
		{"settings shape mismatch", func(p *CreateListingParams) {
			p.Type = TypeReverseAuction
			p.AuctionSettings = fwd
		}},
		{"fixed price with settings", func(p *CreateListingParams) {
			p.AuctionSettings = fwd
		}},
		{"fixed price without price", func(p *CreateListingParams) { p.Price = Money{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := fixedPriceParams(t)
			tc.mutate(&p)
			_, err := NewListing(p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestListing_UpdatePrice(t *testing.T) {
	l := newFixedListing(t)
	l.PullEvents()

	require.NoError(t, l.UpdatePrice(usd(t, 199)))
	assert.True(t, l.CurrentPrice().Equals(usd(t, 199)))

	events := l.PullEvents()
	require.Len(t, events, 1)
	updated, ok := events[0].(ListingPriceUpdated)
	require.True(t, ok)
	assert.True(t, updated.OldPrice.Equals(usd(t, 250)))
	assert.True(t, updated.NewPrice.Equals(usd(t, 199)))
}

func TestListing_UpdatePrice_CurrencyMismatch(t *testing.T) {
	l := newFixedListing(t)
	eur, err := NewMoneyFromFloat(100, "EUR")
	require.NoError(t, err)

	err = l.UpdatePrice(eur)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.True(t, l.CurrentPrice().Equals(usd(t, 250)), "price unchanged after rejected update")
}

func TestListing_Lifecycle_DraftToActiveToCompleted(t *testing.T) {
	p := fixedPriceParams(t)
	p.StartAsDraft = true
	l, err := NewListing(p)
	require.NoError(t, err)
	l.PullEvents()

	require.NoError(t, l.Activate())
	assert.Equal(t, StatusActive, l.Status())

	require.NoError(t, l.Complete())
	assert.Equal(t, StatusCompleted, l.Status())
	require.NotNil(t, l.CompletedAt())

	events := l.PullEvents()
	require.Len(t, events, 2)
	first, ok := events[0].(ListingStatusChanged)
	require.True(t, ok)
	assert.Equal(t, StatusDraft, first.From)
	assert.Equal(t, StatusActive, first.To)
	second, ok := events[1].(ListingStatusChanged)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, second.To)
}

func TestListing_Activate_OnlyFromDraft(t *testing.T) {
	l := newFixedListing(t)
	err := l.Activate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestListing_TerminalStatesRejectTransitions(t *testing.T) {
	l := newFixedListing(t)
	require.NoError(t, l.Complete())

	assert.ErrorIs(t, l.Complete(), ErrInvalidState)
	assert.ErrorIs(t, l.MarkExpired(), ErrInvalidState)
	assert.ErrorIs(t, l.Cancel(), ErrInvalidState)
	assert.ErrorIs(t, l.Activate(), ErrInvalidState)
}

func TestListing_CancelFromDraftAndActive(t *testing.T) {
	p := fixedPriceParams(t)
	p.StartAsDraft = true
	draft, err := NewListing(p)
	require.NoError(t, err)
	require.NoError(t, draft.Cancel())
	assert.Equal(t, StatusCancelled, draft.Status())

	active := newFixedListing(t)
	require.NoError(t, active.Cancel())
	assert.Equal(t, StatusCancelled, active.Status())
}

func TestListing_MarkExpired(t *testing.T) {
	l := newForwardAuctionListing(t, time.Hour)
	require.NoError(t, l.MarkExpired())
	assert.Equal(t, StatusExpired, l.Status())

	assert.ErrorIs(t, l.MarkExpired(), ErrInvalidState)
}

func TestListing_SoftDelete_Idempotent(t *testing.T) {
	l := newFixedListing(t)
	l.PullEvents()

	l.SoftDelete()
	require.True(t, l.IsDeleted())
	first := l.DeletedAt()
	require.NotNil(t, first)

	l.SoftDelete()
	assert.Equal(t, *first, *l.DeletedAt(), "repeated soft delete keeps the original timestamp")

	events := l.PullEvents()
	require.Len(t, events, 1)
	_, ok := events[0].(ListingDeleted)
	assert.True(t, ok)
}

func TestListing_IncrementViewCount_DoesNotTouchUpdatedAt(t *testing.T) {
	l := newFixedListing(t)
	before := l.UpdatedAt()

	l.IncrementViewCount()
	l.IncrementViewCount()
	l.IncrementViewCount()

	assert.EqualValues(t, 3, l.ViewCount())
	assert.Equal(t, before, l.UpdatedAt())
	assert.Len(t, l.PullEvents(), 1, "views emit no events beyond creation")
}

func TestListing_AddPhoto(t *testing.T) {
	l := newFixedListing(t)
	l.PullEvents()

	require.NoError(t, l.AddPhoto("https://cdn.example.com/photos/a.jpg"))
	require.NoError(t, l.AddPhoto("https://cdn.example.com/photos/b.jpg"))
	assert.Equal(t, []string{
		"https://cdn.example.com/photos/a.jpg",
		"https://cdn.example.com/photos/b.jpg",
	}, l.PhotoURLs())

	assert.ErrorIs(t, l.AddPhoto(""), ErrInvalidArgument)

	events := l.PullEvents()
	require.Len(t, events, 2)
	added, ok := events[0].(ListingPhotoAdded)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/photos/a.jpg", added.URL)
}

func TestListing_IsEffectivelyActive(t *testing.T) {
	now := time.Now().UTC()

	active := newFixedListing(t)
	assert.True(t, active.IsEffectivelyActive(now), "active without expiry")

	deleted := newFixedListing(t)
	deleted.SoftDelete()
	assert.False(t, deleted.IsEffectivelyActive(now), "soft-deleted is never active")

	p := fixedPriceParams(t)
	p.StartAsDraft = true
	draft, err := NewListing(p)
	require.NoError(t, err)
	assert.False(t, draft.IsEffectivelyActive(now))

	auction := newForwardAuctionListing(t, time.Hour)
	assert.True(t, auction.IsEffectivelyActive(now))
	assert.False(t, auction.IsEffectivelyActive(now.Add(2*time.Hour)), "past expiry deadline")
}

func TestSnapshotRehydrate_RoundTrip(t *testing.T) {
	l := newForwardAuctionListing(t, 48*time.Hour)
	require.NoError(t, l.AddPhoto("https://cdn.example.com/photos/a.jpg"))
	l.IncrementViewCount()

	restored, err := RehydrateListing(l.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, l.ID(), restored.ID())
	assert.Equal(t, l.Status(), restored.Status())
	assert.Equal(t, l.Type(), restored.Type())
	assert.True(t, l.CurrentPrice().Equals(restored.CurrentPrice()))
	assert.Equal(t, l.PhotoURLs(), restored.PhotoURLs())
	assert.Equal(t, l.ViewCount(), restored.ViewCount())
	assert.Equal(t, l.Version(), restored.Version())
	assert.Equal(t, l.AuctionSettings(), restored.AuctionSettings())
	assert.Empty(t, restored.PullEvents(), "rehydration buffers no events")
}

func TestRehydrateListing_RejectsCorruptSnapshots(t *testing.T) {
	base := newForwardAuctionListing(t, time.Hour).Snapshot()

	missingSettings := base
	missingSettings.AuctionSettings = nil
	_, err := RehydrateListing(missingSettings)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	badStatus := base
	badStatus.Status = ListingStatus("archived")
	_, err = RehydrateListing(badStatus)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	shapeMismatch := base
	shapeMismatch.Type = TypeReverseAuction
	_, err = RehydrateListing(shapeMismatch)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
