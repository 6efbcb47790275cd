package domain

import (
	"fmt"
	"time"
)

// AuctionSettings is the auction-type-specific pricing and duration rules of
// a listing. It is a closed sum of two shapes: ForwardAuctionSettings (price
// rises from a starting point toward a reserve via bids) and
// ReverseAuctionSettings (price falls from a ceiling over time). Settings are
// immutable once constructed; changing auction terms means constructing a new
// value and replacing it on the listing.
type AuctionSettings interface {
	// ListingType reports which listing type this shape belongs to,
	// TypeForwardAuction or TypeReverseAuction.
	ListingType() ListingType
	// Duration is the auction time box. Always positive; no upper bound is
	// enforced here, that policy belongs to the caller.
	Duration() time.Duration
	// AllowsAutoBidding reports whether proxy bidding is permitted.
	AllowsAutoBidding() bool

	isAuctionSettings()
}

// ForwardAuctionSettings holds the rules of a rising-price auction.
type ForwardAuctionSettings struct {
	startingPrice    Money
	reservePrice     Money
	buyNowPrice      *Money
	maxPrice         *Money
	minBidIncrement  *Money
	duration         time.Duration
	allowAutoBidding bool
}

// NewForwardAuctionSettings validates and constructs forward-auction rules.
// The reserve price must be greater than or equal to the starting price and
// all prices must share one currency. buyNow, maxPrice and minIncrement are
// optional; pass nil to omit them.
func NewForwardAuctionSettings(
	startingPrice, reservePrice Money,
	duration time.Duration,
	buyNow, maxPrice, minIncrement *Money,
	allowAutoBidding bool,
) (ForwardAuctionSettings, error) {
	if duration <= 0 {
		return ForwardAuctionSettings{}, fmt.Errorf("%w: auction duration must be positive, got %s", ErrInvalidArgument, duration)
	}
	if reservePrice.Currency != startingPrice.Currency {
		return ForwardAuctionSettings{}, fmt.Errorf("%w: reserve price currency %s does not match starting price currency %s",
			ErrInvalidArgument, reservePrice.Currency, startingPrice.Currency)
	}
	if reservePrice.LessThan(startingPrice) {
		return ForwardAuctionSettings{}, fmt.Errorf("%w: reserve price must be greater than or equal to starting price", ErrInvalidArgument)
	}
	for _, opt := range []*Money{buyNow, maxPrice, minIncrement} {
		if opt != nil && opt.Currency != startingPrice.Currency {
			return ForwardAuctionSettings{}, fmt.Errorf("%w: optional price currency %s does not match starting price currency %s",
				ErrInvalidArgument, opt.Currency, startingPrice.Currency)
		}
	}
	return ForwardAuctionSettings{
		startingPrice:    startingPrice,
		reservePrice:     reservePrice,
		buyNowPrice:      copyMoney(buyNow),
		maxPrice:         copyMoney(maxPrice),
		minBidIncrement:  copyMoney(minIncrement),
		duration:         duration,
		allowAutoBidding: allowAutoBidding,
	}, nil
}

func (s ForwardAuctionSettings) ListingType() ListingType { return TypeForwardAuction }
func (s ForwardAuctionSettings) Duration() time.Duration  { return s.duration }
func (s ForwardAuctionSettings) AllowsAutoBidding() bool  { return s.allowAutoBidding }
func (s ForwardAuctionSettings) isAuctionSettings()       {}

func (s ForwardAuctionSettings) StartingPrice() Money { return s.startingPrice }
func (s ForwardAuctionSettings) ReservePrice() Money  { return s.reservePrice }

// BuyNowPrice returns the optional buy-now price; ok is false when not set.
func (s ForwardAuctionSettings) BuyNowPrice() (Money, bool) { return deref(s.buyNowPrice) }

// MaxPrice returns the optional price ceiling; ok is false when not set.
func (s ForwardAuctionSettings) MaxPrice() (Money, bool) { return deref(s.maxPrice) }

// MinimumBidIncrement returns the optional minimum bid step; ok is false when not set.
func (s ForwardAuctionSettings) MinimumBidIncrement() (Money, bool) { return deref(s.minBidIncrement) }

// ReverseAuctionSettings holds the rules of a falling-price auction. There is
// no starting or reserve price; the price descends from MaxPrice toward a
// floor over the auction duration.
type ReverseAuctionSettings struct {
	maxPrice         Money
	duration         time.Duration
	allowAutoBidding bool
}

// NewReverseAuctionSettings validates and constructs reverse-auction rules.
// maxPrice non-negativity is already guaranteed by Money.
func NewReverseAuctionSettings(maxPrice Money, duration time.Duration, allowAutoBidding bool) (ReverseAuctionSettings, error) {
	if duration <= 0 {
		return ReverseAuctionSettings{}, fmt.Errorf("%w: auction duration must be positive, got %s", ErrInvalidArgument, duration)
	}
	return ReverseAuctionSettings{
		maxPrice:         maxPrice,
		duration:         duration,
		allowAutoBidding: allowAutoBidding,
	}, nil
}

func (s ReverseAuctionSettings) ListingType() ListingType { return TypeReverseAuction }
func (s ReverseAuctionSettings) Duration() time.Duration  { return s.duration }
func (s ReverseAuctionSettings) AllowsAutoBidding() bool  { return s.allowAutoBidding }
func (s ReverseAuctionSettings) isAuctionSettings()       {}

func (s ReverseAuctionSettings) MaxPrice() Money { return s.maxPrice }

func copyMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

func deref(m *Money) (Money, bool) {
	if m == nil {
		return Money{}, false
	}
	return *m, true
}
