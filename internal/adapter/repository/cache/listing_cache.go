package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jollyrancherman/frauc-app-sub001/internal/listing/domain"
)

const (
	keyPrefix  = "listing:"
	defaultTTL = 1 * time.Hour
)

// ListingCache is a cache-aside store for listing-by-id reads. Entries are
// JSON snapshots; a miss returns (nil, nil).
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListingCache(addr string) (*ListingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &ListingCache{client: client, ttl: defaultTTL}, nil
}

func (c *ListingCache) GetListing(ctx context.Context, id domain.ListingID) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, keyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}
	var entry cachedListing
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return entry.toDomain()
}

func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	entry, err := fromDomain(listing)
	if err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+listing.ID().String(), data, c.ttl).Err()
}

func (c *ListingCache) DeleteListing(ctx context.Context, id domain.ListingID) error {
	return c.client.Del(ctx, keyPrefix+id.String()).Err()
}

func (c *ListingCache) Close() error {
	return c.client.Close()
}

// cachedListing is the JSON shape of a cache entry. The auction settings sum
// type flattens to a kind tag plus optional fields.
type cachedListing struct {
	ID          string         `json:"id"`
	ItemID      string         `json:"item_id"`
	SellerID    string         `json:"seller_id"`
	CategoryID  string         `json:"category_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Type        string         `json:"type"`
	Status      string         `json:"status"`
	Price       cachedMoney    `json:"price"`
	Auction     *cachedAuction `json:"auction,omitempty"`
	PhotoURLs   []string       `json:"photo_urls,omitempty"`
	ViewCount   int64          `json:"view_count"`
	Version     int64          `json:"version"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

type cachedMoney struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type cachedAuction struct {
	Kind             string       `json:"kind"` // forward | reverse
	StartingPrice    *cachedMoney `json:"starting_price,omitempty"`
	ReservePrice     *cachedMoney `json:"reserve_price,omitempty"`
	BuyNowPrice      *cachedMoney `json:"buy_now_price,omitempty"`
	MaxPrice         *cachedMoney `json:"max_price,omitempty"`
	MinBidIncrement  *cachedMoney `json:"min_bid_increment,omitempty"`
	DurationSeconds  int64        `json:"duration_seconds"`
	AllowAutoBidding bool         `json:"allow_auto_bidding"`
}

func moneyOut(m domain.Money) cachedMoney {
	return cachedMoney{Amount: m.Amount.String(), Currency: m.Currency}
}

func moneyOutOpt(m domain.Money, ok bool) *cachedMoney {
	if !ok {
		return nil
	}
	out := moneyOut(m)
	return &out
}

func moneyIn(m cachedMoney) (domain.Money, error) {
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.NewMoney(amount, m.Currency)
}

func moneyInOpt(m *cachedMoney) (*domain.Money, error) {
	if m == nil {
		return nil, nil
	}
	out, err := moneyIn(*m)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func fromDomain(l *domain.Listing) (*cachedListing, error) {
	snap := l.Snapshot()

	entry := &cachedListing{
		ID:          snap.ID.String(),
		ItemID:      snap.ItemID.String(),
		SellerID:    snap.SellerID.String(),
		CategoryID:  snap.CategoryID.String(),
		Title:       snap.Title,
		Description: snap.Description,
		Latitude:    snap.Location.Latitude,
		Longitude:   snap.Location.Longitude,
		Type:        string(snap.Type),
		Status:      string(snap.Status),
		Price:       moneyOut(snap.CurrentPrice),
		PhotoURLs:   snap.PhotoURLs,
		ViewCount:   snap.ViewCount,
		Version:     snap.Version,
		CreatedAt:   snap.CreatedAt,
		UpdatedAt:   snap.UpdatedAt,
		ExpiresAt:   snap.ExpiresAt,
		CompletedAt: snap.CompletedAt,
		DeletedAt:   snap.DeletedAt,
	}

	switch s := snap.AuctionSettings.(type) {
	case nil:
	case domain.ForwardAuctionSettings:
		starting := moneyOut(s.StartingPrice())
		reserve := moneyOut(s.ReservePrice())
		entry.Auction = &cachedAuction{
			Kind:             "forward",
			StartingPrice:    &starting,
			ReservePrice:     &reserve,
			BuyNowPrice:      moneyOutOpt(s.BuyNowPrice()),
			MaxPrice:         moneyOutOpt(s.MaxPrice()),
			MinBidIncrement:  moneyOutOpt(s.MinimumBidIncrement()),
			DurationSeconds:  int64(s.Duration().Seconds()),
			AllowAutoBidding: s.AllowsAutoBidding(),
		}
	case domain.ReverseAuctionSettings:
		maxPrice := moneyOut(s.MaxPrice())
		entry.Auction = &cachedAuction{
			Kind:             "reverse",
			MaxPrice:         &maxPrice,
			DurationSeconds:  int64(s.Duration().Seconds()),
			AllowAutoBidding: s.AllowsAutoBidding(),
		}
	default:
		return nil, fmt.Errorf("unknown auction settings shape %T", snap.AuctionSettings)
	}

	return entry, nil
}

func (e *cachedListing) toDomain() (*domain.Listing, error) {
	id, err := domain.ParseListingID(e.ID)
	if err != nil {
		return nil, err
	}
	itemID, err := domain.ParseItemID(e.ItemID)
	if err != nil {
		return nil, err
	}
	sellerID, err := domain.ParseUserID(e.SellerID)
	if err != nil {
		return nil, err
	}
	categoryID, err := domain.ParseCategoryID(e.CategoryID)
	if err != nil {
		return nil, err
	}
	location, err := domain.NewLocation(e.Latitude, e.Longitude)
	if err != nil {
		return nil, err
	}
	price, err := moneyIn(e.Price)
	if err != nil {
		return nil, err
	}

	var settings domain.AuctionSettings
	if e.Auction != nil {
		duration := time.Duration(e.Auction.DurationSeconds) * time.Second
		switch e.Auction.Kind {
		case "forward":
			if e.Auction.StartingPrice == nil || e.Auction.ReservePrice == nil {
				return nil, fmt.Errorf("cached forward auction missing starting or reserve price")
			}
			starting, err := moneyIn(*e.Auction.StartingPrice)
			if err != nil {
				return nil, err
			}
			reserve, err := moneyIn(*e.Auction.ReservePrice)
			if err != nil {
				return nil, err
			}
			buyNow, err := moneyInOpt(e.Auction.BuyNowPrice)
			if err != nil {
				return nil, err
			}
			maxPrice, err := moneyInOpt(e.Auction.MaxPrice)
			if err != nil {
				return nil, err
			}
			inc, err := moneyInOpt(e.Auction.MinBidIncrement)
			if err != nil {
				return nil, err
			}
			settings, err = domain.NewForwardAuctionSettings(starting, reserve, duration, buyNow, maxPrice, inc, e.Auction.AllowAutoBidding)
			if err != nil {
				return nil, err
			}
		case "reverse":
			if e.Auction.MaxPrice == nil {
				return nil, fmt.Errorf("cached reverse auction missing max price")
			}
			maxPrice, err := moneyIn(*e.Auction.MaxPrice)
			if err != nil {
				return nil, err
			}
			settings, err = domain.NewReverseAuctionSettings(maxPrice, duration, e.Auction.AllowAutoBidding)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown cached auction kind %q", e.Auction.Kind)
		}
	}

	return domain.RehydrateListing(domain.ListingSnapshot{
		ID:              id,
		ItemID:          itemID,
		SellerID:        sellerID,
		CategoryID:      categoryID,
		Title:           e.Title,
		Description:     e.Description,
		Location:        location,
		Type:            domain.ListingType(e.Type),
		Status:          domain.ListingStatus(e.Status),
		CurrentPrice:    price,
		AuctionSettings: settings,
		PhotoURLs:       e.PhotoURLs,
		ViewCount:       e.ViewCount,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		ExpiresAt:       e.ExpiresAt,
		CompletedAt:     e.CompletedAt,
		DeletedAt:       e.DeletedAt,
	})
}
