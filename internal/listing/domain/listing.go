package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// ListingType enumerates how a listing sells its item.
type ListingType string

const (
	TypeFixedPrice     ListingType = "fixed_price"
	TypeForwardAuction ListingType = "forward_auction"
	TypeReverseAuction ListingType = "reverse_auction"
)

// IsValid checks if the ListingType is one of the defined constants.
func (t ListingType) IsValid() bool {
	switch t {
	case TypeFixedPrice, TypeForwardAuction, TypeReverseAuction:
		return true
	}
	return false
}

// IsAuction reports whether the type requires auction settings.
func (t ListingType) IsAuction() bool {
	return t == TypeForwardAuction || t == TypeReverseAuction
}

// ListingStatus represents the lifecycle status of a listing.
type ListingStatus string

const (
	StatusDraft     ListingStatus = "draft"
	StatusActive    ListingStatus = "active"
	StatusCompleted ListingStatus = "completed"
	StatusExpired   ListingStatus = "expired"
	StatusCancelled ListingStatus = "cancelled"
)

// IsValid checks if the ListingStatus is one of the defined constants.
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
)

// Listing is the aggregate root for a sellable posting. All state lives in
// unexported fields and is mutated only through aggregate methods, which
// stamp UpdatedAt and buffer domain events. Soft deletion marks DeletedAt;
// the core never physically removes a listing.
type Listing struct {
	id              ListingID
	itemID          ItemID
	sellerID        UserID
	title           string
	description     string
	location        Location
	categoryID      CategoryID
	listingType     ListingType
	status          ListingStatus
	currentPrice    Money
	auctionSettings AuctionSettings
	photoURLs       []string
	viewCount       int64
	version         int64
	createdAt       time.Time
	updatedAt       time.Time
	expiresAt       *time.Time
	completedAt     *time.Time
	deletedAt       *time.Time

	events []Event
}

// CreateListingParams carries the factory input for NewListing.
type CreateListingParams struct {
	ItemID      ItemID
	SellerID    UserID
	CategoryID  CategoryID
	Title       string
	Description string
	Location    Location
	Type        ListingType
	// Price is the asking price for fixed-price listings. Ignored for
	// auctions, whose opening price derives from the settings.
	Price Money
	// AuctionSettings must be present iff Type is an auction type, and its
	// shape must match Type.
	AuctionSettings AuctionSettings
	// StartAsDraft creates the listing unpublished. The default is an
	// immediately active listing.
	StartAsDraft bool
}

// NewListing validates params and constructs a new listing aggregate. The
// listing's currency is fixed here and never changes across price updates.
// Auction listings get ExpiresAt = now + settings duration; fixed-price
// listings do not expire.
func NewListing(p CreateListingParams) (*Listing, error) {
	if p.ItemID.IsZero() {
		return nil, fmt.Errorf("%w: item id is required", ErrInvalidArgument)
	}
	if p.SellerID.IsZero() {
		return nil, fmt.Errorf("%w: seller id is required", ErrInvalidArgument)
	}
	if p.CategoryID.IsZero() {
		return nil, fmt.Errorf("%w: category id is required", ErrInvalidArgument)
	}
	if p.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(p.Title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidArgument, maxTitleLength)
	}
	if utf8.RuneCountInString(p.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description exceeds %d characters", ErrInvalidArgument, maxDescriptionLength)
	}
	if !p.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown listing type %q", ErrInvalidArgument, p.Type)
	}

	var price Money
	var expiresAt *time.Time
	now := time.Now().UTC()

	if p.Type.IsAuction() {
		if p.AuctionSettings == nil {
			return nil, fmt.Errorf("%w: %s listing requires auction settings", ErrInvalidArgument, p.Type)
		}
		if p.AuctionSettings.ListingType() != p.Type {
			return nil, fmt.Errorf("%w: auction settings shape %s does not match listing type %s",
				ErrInvalidArgument, p.AuctionSettings.ListingType(), p.Type)
		}
		switch s := p.AuctionSettings.(type) {
		case ForwardAuctionSettings:
			price = s.StartingPrice()
		case ReverseAuctionSettings:
			price = s.MaxPrice()
		}
		end := now.Add(p.AuctionSettings.Duration())
		expiresAt = &end
	} else {
		if p.AuctionSettings != nil {
			return nil, fmt.Errorf("%w: fixed-price listing must not carry auction settings", ErrInvalidArgument)
		}
		if p.Price.Currency == "" {
			return nil, fmt.Errorf("%w: fixed-price listing requires a price", ErrInvalidArgument)
		}
		price = p.Price
	}

	status := StatusActive
	if p.StartAsDraft {
		status = StatusDraft
	}

	l := &Listing{
		id:              NewListingID(),
		itemID:          p.ItemID,
		sellerID:        p.SellerID,
		categoryID:      p.CategoryID,
		title:           p.Title,
		description:     p.Description,
		location:        p.Location,
		listingType:     p.Type,
		status:          status,
		currentPrice:    price,
		auctionSettings: p.AuctionSettings,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
		expiresAt:       expiresAt,
	}
	l.record(ListingCreated{
		ID:       l.id,
		SellerID: l.sellerID,
		Type:     l.listingType,
		Price:    l.currentPrice,
		At:       now,
	})
	return l, nil
}

func (l *Listing) ID() ListingID                    { return l.id }
func (l *Listing) ItemID() ItemID                   { return l.itemID }
func (l *Listing) SellerID() UserID                 { return l.sellerID }
func (l *Listing) CategoryID() CategoryID           { return l.categoryID }
func (l *Listing) Title() string                    { return l.title }
func (l *Listing) Description() string              { return l.description }
func (l *Listing) Location() Location               { return l.location }
func (l *Listing) Type() ListingType                { return l.listingType }
func (l *Listing) Status() ListingStatus            { return l.status }
func (l *Listing) CurrentPrice() Money              { return l.currentPrice }
func (l *Listing) AuctionSettings() AuctionSettings { return l.auctionSettings }
func (l *Listing) ViewCount() int64                 { return l.viewCount }
func (l *Listing) Version() int64                   { return l.version }
func (l *Listing) CreatedAt() time.Time             { return l.createdAt }
func (l *Listing) UpdatedAt() time.Time             { return l.updatedAt }

func (l *Listing) ExpiresAt() *time.Time   { return copyTime(l.expiresAt) }
func (l *Listing) CompletedAt() *time.Time { return copyTime(l.completedAt) }
func (l *Listing) DeletedAt() *time.Time   { return copyTime(l.deletedAt) }

// PhotoURLs returns a copy of the attached photo URLs.
func (l *Listing) PhotoURLs() []string {
	out := make([]string, len(l.photoURLs))
	copy(out, l.photoURLs)
	return out
}

// IsDeleted is derived from DeletedAt and never stored directly.
func (l *Listing) IsDeleted() bool {
	return l.deletedAt != nil
}

// IsEffectivelyActive reports whether the listing is visible to buyers:
// active status, not soft-deleted, and not past its expiry deadline.
func (l *Listing) IsEffectivelyActive(now time.Time) bool {
	if l.status != StatusActive || l.IsDeleted() {
		return false
	}
	return l.expiresAt == nil || l.expiresAt.After(now)
}

// UpdatePrice replaces the current price. The currency is fixed at creation,
// so a mismatched currency is rejected.
func (l *Listing) UpdatePrice(newPrice Money) error {
	if newPrice.Currency != l.currentPrice.Currency {
		return fmt.Errorf("%w: price currency %s does not match listing currency %s",
			ErrInvalidArgument, newPrice.Currency, l.currentPrice.Currency)
	}
	old := l.currentPrice
	l.currentPrice = newPrice
	l.touch()
	l.record(ListingPriceUpdated{
		ID:       l.id,
		OldPrice: old,
		NewPrice: newPrice,
		At:       l.updatedAt,
	})
	return nil
}

// Activate publishes a draft listing.
func (l *Listing) Activate() error {
	if l.status != StatusDraft {
		return fmt.Errorf("%w: cannot activate listing in status %s", ErrInvalidState, l.status)
	}
	l.changeStatus(StatusActive)
	return nil
}

// MarkExpired transitions an active listing whose deadline has passed.
func (l *Listing) MarkExpired() error {
	if l.status != StatusActive {
		return fmt.Errorf("%w: cannot expire listing in status %s", ErrInvalidState, l.status)
	}
	l.changeStatus(StatusExpired)
	return nil
}

// Complete finishes an active listing with a sale, stamping CompletedAt.
func (l *Listing) Complete() error {
	if l.status != StatusActive {
		return fmt.Errorf("%w: cannot complete listing in status %s", ErrInvalidState, l.status)
	}
	l.changeStatus(StatusCompleted)
	l.completedAt = copyTime(&l.updatedAt)
	return nil
}

// Cancel withdraws a draft or active listing.
func (l *Listing) Cancel() error {
	if l.status != StatusDraft && l.status != StatusActive {
		return fmt.Errorf("%w: cannot cancel listing in status %s", ErrInvalidState, l.status)
	}
	l.changeStatus(StatusCancelled)
	return nil
}

// SoftDelete hides the listing by stamping DeletedAt. Valid from any status
// and idempotent: repeated calls are no-ops once set.
func (l *Listing) SoftDelete() {
	if l.deletedAt != nil {
		return
	}
	now := time.Now().UTC()
	l.deletedAt = &now
	l.updatedAt = now
	l.record(ListingDeleted{ID: l.id, At: now})
}

// IncrementViewCount bumps the view counter. It deliberately does not touch
// UpdatedAt: a view is not a content change.
func (l *Listing) IncrementViewCount() {
	l.viewCount++
}

// AddPhoto attaches an uploaded photo URL.
func (l *Listing) AddPhoto(url string) error {
	if url == "" {
		return fmt.Errorf("%w: photo url must not be empty", ErrInvalidArgument)
	}
	l.photoURLs = append(l.photoURLs, url)
	l.touch()
	l.record(ListingPhotoAdded{ID: l.id, URL: url, At: l.updatedAt})
	return nil
}

// PullEvents drains the buffered domain events in emission order. The caller
// must publish them only after the surrounding storage transaction commits.
func (l *Listing) PullEvents() []Event {
	out := l.events
	l.events = nil
	return out
}

func (l *Listing) changeStatus(to ListingStatus) {
	from := l.status
	l.status = to
	l.touch()
	l.record(ListingStatusChanged{ID: l.id, From: from, To: to, At: l.updatedAt})
}

func (l *Listing) touch() {
	l.updatedAt = time.Now().UTC()
}

func (l *Listing) record(e Event) {
	l.events = append(l.events, e)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
