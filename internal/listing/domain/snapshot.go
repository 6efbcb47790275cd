package domain

import (
	"fmt"
	"time"
)

// ListingSnapshot is the flat, exported view of a listing's state. Storage
// adapters map their document models to and from snapshots so the aggregate's
// fields stay closed to direct assignment.
type ListingSnapshot struct {
	ID              ListingID
	ItemID          ItemID
	SellerID        UserID
	CategoryID      CategoryID
	Title           string
	Description     string
	Location        Location
	Type            ListingType
	Status          ListingStatus
	CurrentPrice    Money
	AuctionSettings AuctionSettings
	PhotoURLs       []string
	ViewCount       int64
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       *time.Time
	CompletedAt     *time.Time
	DeletedAt       *time.Time
}

// Snapshot exports the aggregate's current state. Buffered events are not
// part of the snapshot.
func (l *Listing) Snapshot() ListingSnapshot {
	return ListingSnapshot{
		ID:              l.id,
		ItemID:          l.itemID,
		SellerID:        l.sellerID,
		CategoryID:      l.categoryID,
		Title:           l.title,
		Description:     l.description,
		Location:        l.location,
		Type:            l.listingType,
		Status:          l.status,
		CurrentPrice:    l.currentPrice,
		AuctionSettings: l.auctionSettings,
		PhotoURLs:       l.PhotoURLs(),
		ViewCount:       l.viewCount,
		Version:         l.version,
		CreatedAt:       l.createdAt,
		UpdatedAt:       l.updatedAt,
		ExpiresAt:       copyTime(l.expiresAt),
		CompletedAt:     copyTime(l.completedAt),
		DeletedAt:       copyTime(l.deletedAt),
	}
}

// RehydrateListing rebuilds an aggregate from persisted state. It trusts the
// snapshot's timestamps and version but still rejects structurally invalid
// combinations so a corrupted document cannot become a live aggregate.
func RehydrateListing(s ListingSnapshot) (*Listing, error) {
	if s.ID.IsZero() {
		return nil, fmt.Errorf("%w: snapshot missing listing id", ErrInvalidArgument)
	}
	if !s.Type.IsValid() {
		return nil, fmt.Errorf("%w: snapshot has unknown listing type %q", ErrInvalidArgument, s.Type)
	}
	if !s.Status.IsValid() {
		return nil, fmt.Errorf("%w: snapshot has unknown listing status %q", ErrInvalidArgument, s.Status)
	}
	if s.Type.IsAuction() {
		if s.AuctionSettings == nil {
			return nil, fmt.Errorf("%w: %s snapshot missing auction settings", ErrInvalidArgument, s.Type)
		}
		if s.AuctionSettings.ListingType() != s.Type {
			return nil, fmt.Errorf("%w: snapshot settings shape %s does not match listing type %s",
				ErrInvalidArgument, s.AuctionSettings.ListingType(), s.Type)
		}
	} else if s.AuctionSettings != nil {
		return nil, fmt.Errorf("%w: fixed-price snapshot must not carry auction settings", ErrInvalidArgument)
	}

	photos := make([]string, len(s.PhotoURLs))
	copy(photos, s.PhotoURLs)

	return &Listing{
		id:              s.ID,
		itemID:          s.ItemID,
		sellerID:        s.SellerID,
		categoryID:      s.CategoryID,
		title:           s.Title,
		description:     s.Description,
		location:        s.Location,
		listingType:     s.Type,
		status:          s.Status,
		currentPrice:    s.CurrentPrice,
		auctionSettings: s.AuctionSettings,
		photoURLs:       photos,
		viewCount:       s.ViewCount,
		version:         s.Version,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
		expiresAt:       copyTime(s.ExpiresAt),
		completedAt:     copyTime(s.CompletedAt),
		deletedAt:       copyTime(s.DeletedAt),
	}, nil
}
