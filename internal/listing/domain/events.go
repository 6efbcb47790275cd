package domain

import "time"

// Event is an inert notification value describing a domain transition. Events
// are buffered on the aggregate and drained with PullEvents by the caller
// after its storage transaction commits; delivery, per-aggregate ordering and
// at-least-once semantics belong to the external dispatcher.
type Event interface {
	// EventName is the stable name used as the messaging subject.
	EventName() string
	// AggregateID identifies the listing the event belongs to.
	AggregateID() ListingID
	// OccurredAt is when the transition happened.
	OccurredAt() time.Time
}

// Subjects the dispatcher publishes on.
const (
	EventListingCreated       = "listing.created"
	EventListingPriceUpdated  = "listing.price_updated"
	EventListingStatusChanged = "listing.status_changed"
	EventListingDeleted       = "listing.deleted"
	EventListingPhotoAdded    = "listing.photo_added"
)

type ListingCreated struct {
	ID       ListingID
	SellerID UserID
	Type     ListingType
	Price    Money
	At       time.Time
}

func (e ListingCreated) EventName() string      { return EventListingCreated }
func (e ListingCreated) AggregateID() ListingID { return e.ID }
func (e ListingCreated) OccurredAt() time.Time  { return e.At }

type ListingPriceUpdated struct {
	ID       ListingID
	OldPrice Money
	NewPrice Money
	At       time.Time
}

func (e ListingPriceUpdated) EventName() string      { return EventListingPriceUpdated }
func (e ListingPriceUpdated) AggregateID() ListingID { return e.ID }
func (e ListingPriceUpdated) OccurredAt() time.Time  { return e.At }

type ListingStatusChanged struct {
	ID   ListingID
	From ListingStatus
	To   ListingStatus
	At   time.Time
}

func (e ListingStatusChanged) EventName() string      { return EventListingStatusChanged }
func (e ListingStatusChanged) AggregateID() ListingID { return e.ID }
func (e ListingStatusChanged) OccurredAt() time.Time  { return e.At }

type ListingDeleted struct {
	ID ListingID
	At time.Time
}

func (e ListingDeleted) EventName() string      { return EventListingDeleted }
func (e ListingDeleted) AggregateID() ListingID { return e.ID }
func (e ListingDeleted) OccurredAt() time.Time  { return e.At }

type ListingPhotoAdded struct {
	ID  ListingID
	URL string
	At  time.Time
}

func (e ListingPhotoAdded) EventName() string      { return EventListingPhotoAdded }
func (e ListingPhotoAdded) AggregateID() ListingID { return e.ID }
func (e ListingPhotoAdded) OccurredAt() time.Time  { return e.At }
