package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ListingID uniquely identifies a listing. The zero value is invalid.
type ListingID struct {
	value uuid.UUID
}

// NewListingID generates a fresh listing identifier.
func NewListingID() ListingID {
	return ListingID{value: uuid.New()}
}

// ListingIDFromUUID wraps an existing UUID, rejecting the nil UUID.
func ListingIDFromUUID(id uuid.UUID) (ListingID, error) {
	if id == uuid.Nil {
		return ListingID{}, fmt.Errorf("%w: listing id must not be nil", ErrInvalidArgument)
	}
	return ListingID{value: id}, nil
}

// ParseListingID parses a textual UUID into a ListingID.
func ParseListingID(s string) (ListingID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ListingID{}, fmt.Errorf("%w: malformed listing id %q", ErrInvalidArgument, s)
	}
	return ListingIDFromUUID(id)
}

func (id ListingID) UUID() uuid.UUID { return id.value }
func (id ListingID) String() string  { return id.value.String() }
func (id ListingID) IsZero() bool    { return id.value == uuid.Nil }

// ItemID identifies the item a listing sells.
type ItemID struct {
	value uuid.UUID
}

func NewItemID() ItemID {
	return ItemID{value: uuid.New()}
}

func ItemIDFromUUID(id uuid.UUID) (ItemID, error) {
	if id == uuid.Nil {
		return ItemID{}, fmt.Errorf("%w: item id must not be nil", ErrInvalidArgument)
	}
	return ItemID{value: id}, nil
}

func ParseItemID(s string) (ItemID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ItemID{}, fmt.Errorf("%w: malformed item id %q", ErrInvalidArgument, s)
	}
	return ItemIDFromUUID(id)
}

func (id ItemID) UUID() uuid.UUID { return id.value }
func (id ItemID) String() string  { return id.value.String() }
func (id ItemID) IsZero() bool    { return id.value == uuid.Nil }

// UserID identifies a user, here always the seller of a listing.
type UserID struct {
	value uuid.UUID
}

func NewUserID() UserID {
	return UserID{value: uuid.New()}
}

func UserIDFromUUID(id uuid.UUID) (UserID, error) {
	if id == uuid.Nil {
		return UserID{}, fmt.Errorf("%w: user id must not be nil", ErrInvalidArgument)
	}
	return UserID{value: id}, nil
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("%w: malformed user id %q", ErrInvalidArgument, s)
	}
	return UserIDFromUUID(id)
}

func (id UserID) UUID() uuid.UUID { return id.value }
func (id UserID) String() string  { return id.value.String() }
func (id UserID) IsZero() bool    { return id.value == uuid.Nil }

// CategoryID identifies the category a listing is published under.
type CategoryID struct {
	value uuid.UUID
}

func NewCategoryID() CategoryID {
	return CategoryID{value: uuid.New()}
}

func CategoryIDFromUUID(id uuid.UUID) (CategoryID, error) {
	if id == uuid.Nil {
		return CategoryID{}, fmt.Errorf("%w: category id must not be nil", ErrInvalidArgument)
	}
	return CategoryID{value: id}, nil
}

func ParseCategoryID(s string) (CategoryID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CategoryID{}, fmt.Errorf("%w: malformed category id %q", ErrInvalidArgument, s)
	}
	return CategoryIDFromUUID(id)
}

func (id CategoryID) UUID() uuid.UUID { return id.value }
func (id CategoryID) String() string  { return id.value.String() }
func (id CategoryID) IsZero() bool    { return id.value == uuid.Nil }

// Text marshaling so identifiers serialize as plain UUID strings in event
// payloads and cache entries.

func (id ListingID) MarshalText() ([]byte, error) { return []byte(id.value.String()), nil }
func (id *ListingID) UnmarshalText(text []byte) error {
	parsed, err := ParseListingID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ItemID) MarshalText() ([]byte, error) { return []byte(id.value.String()), nil }
func (id *ItemID) UnmarshalText(text []byte) error {
	parsed, err := ParseItemID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id UserID) MarshalText() ([]byte, error) { return []byte(id.value.String()), nil }
func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id CategoryID) MarshalText() ([]byte, error) { return []byte(id.value.String()), nil }
func (id *CategoryID) UnmarshalText(text []byte) error {
	parsed, err := ParseCategoryID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
