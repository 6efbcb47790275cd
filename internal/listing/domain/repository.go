package domain

import (
	"context"
	"fmt"
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage validates pagination input: pageNumber >= 1, pageSize > 0.
func NewPage(number, size int) (Page, error) {
	if number < 1 {
		return Page{}, fmt.Errorf("%w: page number must be >= 1, got %d", ErrInvalidArgument, number)
	}
	if size < 1 {
		return Page{}, fmt.Errorf("%w: page size must be > 0, got %d", ErrInvalidArgument, size)
	}
	return Page{Number: number, Size: size}, nil
}

// Offset is the number of items to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PagedListings is one page of results plus the total match count.
type PagedListings struct {
	Items      []*Listing
	TotalCount int64
	Page       Page
}

// TotalPages is ceil(TotalCount / pageSize).
func (p *PagedListings) TotalPages() int {
	if p.Page.Size == 0 {
		return 0
	}
	return int((p.TotalCount + int64(p.Page.Size) - 1) / int64(p.Page.Size))
}

func (p *PagedListings) HasNextPage() bool {
	return p.Page.Number < p.TotalPages()
}

func (p *PagedListings) HasPreviousPage() bool {
	return p.Page.Number > 1
}

// SortDirection orders a sorted query.
type SortDirection string

const (
	SortAscending  SortDirection = "ASC"
	SortDescending SortDirection = "DESC"
)

// Default composite-search ordering.
const DefaultSortField = "created_at"

// SearchFilter carries the optional filters of the composite search query.
// Nil/zero fields are not applied.
type SearchFilter struct {
	SearchTerm string
	CategoryID *CategoryID
	SellerID   *UserID
	Type       *ListingType
	Status     *ListingStatus
	MinPrice   *Money
	MaxPrice   *Money
	// Center plus RadiusKm restrict results to a great-circle radius.
	Center   *Location
	RadiusKm float64

	SortBy        string
	SortDirection SortDirection
}

// Sort resolves the requested ordering, defaulting to created_at DESC.
func (f SearchFilter) Sort() (string, SortDirection) {
	field := f.SortBy
	if field == "" {
		field = DefaultSortField
	}
	dir := f.SortDirection
	if dir != SortAscending && dir != SortDescending {
		dir = SortDescending
	}
	return field, dir
}

// BoundingBox is a latitude/longitude rectangle for area queries.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// NewBoundingBox validates corner ordering and coordinate bounds.
func NewBoundingBox(minLat, minLon, maxLat, maxLon float64) (BoundingBox, error) {
	if _, err := NewLocation(minLat, minLon); err != nil {
		return BoundingBox{}, err
	}
	if _, err := NewLocation(maxLat, maxLon); err != nil {
		return BoundingBox{}, err
	}
	if minLat > maxLat || minLon > maxLon {
		return BoundingBox{}, fmt.Errorf("%w: bounding box corners are inverted", ErrInvalidArgument)
	}
	return BoundingBox{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}, nil
}

// ListingRepository is the persistence port the core calls through. The core
// defines what to filter and sort by; execution strategy belongs to the
// adapter. Update performs a compare-and-swap on the listing version and
// returns ErrConcurrencyConflict on a mismatch.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error

	GetByID(ctx context.Context, id ListingID) (*Listing, error)
	GetByItemID(ctx context.Context, itemID ItemID) (*Listing, error)

	FindBySeller(ctx context.Context, sellerID UserID, page Page) (*PagedListings, error)
	FindByCategory(ctx context.Context, categoryID CategoryID, page Page) (*PagedListings, error)
	FindByType(ctx context.Context, listingType ListingType, page Page) (*PagedListings, error)
	FindActive(ctx context.Context, page Page) (*PagedListings, error)
	FindExpired(ctx context.Context, page Page) (*PagedListings, error)

	FindNearby(ctx context.Context, center Location, radiusKm float64, page Page) (*PagedListings, error)
	FindInBoundingBox(ctx context.Context, box BoundingBox, page Page) (*PagedListings, error)

	// FindBySpecification translates the specification's predicate tree into
	// a storage-native query.
	FindBySpecification(ctx context.Context, spec Specification, page Page) (*PagedListings, error)
	Search(ctx context.Context, filter SearchFilter, page Page) (*PagedListings, error)

	Exists(ctx context.Context, id ListingID) (bool, error)
	CountBySeller(ctx context.Context, sellerID UserID) (int64, error)
	CountByCategory(ctx context.Context, categoryID CategoryID) (int64, error)
	CountActive(ctx context.Context) (int64, error)

	// IncrementViewCount bumps the stored view counter atomically without
	// touching updated_at or the version.
	IncrementViewCount(ctx context.Context, id ListingID) error
}
