package usecase

import (
	"context"

	"github.com/jollyrancherman/frauc-app-sub001/internal/listing/domain"
)

// ListingCache is the cache-aside port for listing-by-id reads. A miss is
// (nil, nil).
type ListingCache interface {
	GetListing(ctx context.Context, id domain.ListingID) (*domain.Listing, error)
	SetListing(ctx context.Context, listing *domain.Listing) error
	DeleteListing(ctx context.Context, id domain.ListingID) error
}

// EventPublisher delivers drained domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// PhotoStorage stores uploaded photo bytes and returns a public URL.
type PhotoStorage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}
