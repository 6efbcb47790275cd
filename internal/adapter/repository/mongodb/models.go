package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jollyrancherman/frauc-app-sub001/internal/listing/domain"
)

// moneyDoc stores an amount as Decimal128 so range filters and sorts work
// numerically in queries.
type moneyDoc struct {
	Amount   primitive.Decimal128 `bson:"amount"`
	Currency string               `bson:"currency"`
}

// geoPoint is a GeoJSON Point, coordinates ordered [longitude, latitude].
type geoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

const (
	auctionKindForward = "forward"
	auctionKindReverse = "reverse"
)

type auctionSettingsDoc struct {
	Kind             string    `bson:"kind"`
	StartingPrice    *moneyDoc `bson:"starting_price,omitempty"`
	ReservePrice     *moneyDoc `bson:"reserve_price,omitempty"`
	BuyNowPrice      *moneyDoc `bson:"buy_now_price,omitempty"`
	MaxPrice         *moneyDoc `bson:"max_price,omitempty"`
	MinBidIncrement  *moneyDoc `bson:"min_bid_increment,omitempty"`
	DurationSeconds  int64     `bson:"duration_seconds"`
	AllowAutoBidding bool      `bson:"allow_auto_bidding"`
}

type listingDocument struct {
	ID          string              `bson:"_id"`
	ItemID      string              `bson:"item_id"`
	SellerID    string              `bson:"seller_id"`
	CategoryID  string              `bson:"category_id"`
	Title       string              `bson:"title"`
	Description string              `bson:"description"`
	Location    geoPoint            `bson:"location"`
	ListingType string              `bson:"listing_type"`
	Status      string              `bson:"status"`
	Price       moneyDoc            `bson:"price"`
	Auction     *auctionSettingsDoc `bson:"auction_settings,omitempty"`
	PhotoURLs   []string            `bson:"photo_urls,omitempty"`
	ViewCount   int64               `bson:"view_count"`
	Version     int64               `bson:"version"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
	ExpiresAt   *time.Time          `bson:"expires_at,omitempty"`
	CompletedAt *time.Time          `bson:"completed_at,omitempty"`
	DeletedAt   *time.Time          `bson:"deleted_at,omitempty"`
}

func moneyToDoc(m domain.Money) (moneyDoc, error) {
	amount, err := primitive.ParseDecimal128(m.Amount.String())
	if err != nil {
		return moneyDoc{}, fmt.Errorf("failed to encode amount %s: %w", m.Amount, err)
	}
	return moneyDoc{Amount: amount, Currency: m.Currency}, nil
}

func moneyPtrToDoc(m *domain.Money) (*moneyDoc, error) {
	if m == nil {
		return nil, nil
	}
	doc, err := moneyToDoc(*m)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func docToMoney(d moneyDoc) (domain.Money, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to decode amount %s: %w", d.Amount, err)
	}
	return domain.NewMoney(amount, d.Currency)
}

func docToMoneyPtr(d *moneyDoc) (*domain.Money, error) {
	if d == nil {
		return nil, nil
	}
	m, err := docToMoney(*d)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func locationToDoc(l domain.Location) geoPoint {
	return geoPoint{Type: "Point", Coordinates: []float64{l.Longitude, l.Latitude}}
}

func docToLocation(p geoPoint) (domain.Location, error) {
	if len(p.Coordinates) != 2 {
		return domain.Location{}, fmt.Errorf("malformed geo point with %d coordinates", len(p.Coordinates))
	}
	return domain.NewLocation(p.Coordinates[1], p.Coordinates[0])
}

func settingsToDoc(s domain.AuctionSettings) (*auctionSettingsDoc, error) {
	if s == nil {
		return nil, nil
	}
	switch v := s.(type) {
	case domain.ForwardAuctionSettings:
		starting, err := moneyToDoc(v.StartingPrice())
		if err != nil {
			return nil, err
		}
		reserve, err := moneyToDoc(v.ReservePrice())
		if err != nil {
			return nil, err
		}
		doc := &auctionSettingsDoc{
			Kind:             auctionKindForward,
			StartingPrice:    &starting,
			ReservePrice:     &reserve,
			DurationSeconds:  int64(v.Duration().Seconds()),
			AllowAutoBidding: v.AllowsAutoBidding(),
		}
		if buyNow, ok := v.BuyNowPrice(); ok {
			d, err := moneyToDoc(buyNow)
			if err != nil {
				return nil, err
			}
			doc.BuyNowPrice = &d
		}
		if maxPrice, ok := v.MaxPrice(); ok {
			d, err := moneyToDoc(maxPrice)
			if err != nil {
				return nil, err
			}
			doc.MaxPrice = &d
		}
		if inc, ok := v.MinimumBidIncrement(); ok {
			d, err := moneyToDoc(inc)
			if err != nil {
				return nil, err
			}
			doc.MinBidIncrement = &d
		}
		return doc, nil
	case domain.ReverseAuctionSettings:
		maxPrice, err := moneyToDoc(v.MaxPrice())
		if err != nil {
			return nil, err
		}
		return &auctionSettingsDoc{
			Kind:             auctionKindReverse,
			MaxPrice:         &maxPrice,
			DurationSeconds:  int64(v.Duration().Seconds()),
			AllowAutoBidding: v.AllowsAutoBidding(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown auction settings shape %T", s)
	}
}

func docToSettings(d *auctionSettingsDoc) (domain.AuctionSettings, error) {
	if d == nil {
		return nil, nil
	}
	duration := time.Duration(d.DurationSeconds) * time.Second
	switch d.Kind {
	case auctionKindForward:
		if d.StartingPrice == nil || d.ReservePrice == nil {
			return nil, fmt.Errorf("forward auction document missing starting or reserve price")
		}
		starting, err := docToMoney(*d.StartingPrice)
		if err != nil {
			return nil, err
		}
		reserve, err := docToMoney(*d.ReservePrice)
		if err != nil {
			return nil, err
		}
		buyNow, err := docToMoneyPtr(d.BuyNowPrice)
		if err != nil {
			return nil, err
		}
		maxPrice, err := docToMoneyPtr(d.MaxPrice)
		if err != nil {
			return nil, err
		}
		inc, err := docToMoneyPtr(d.MinBidIncrement)
		if err != nil {
			return nil, err
		}
		settings, err := domain.NewForwardAuctionSettings(starting, reserve, duration, buyNow, maxPrice, inc, d.AllowAutoBidding)
		if err != nil {
			return nil, err
		}
		return settings, nil
	case auctionKindReverse:
		if d.MaxPrice == nil {
			return nil, fmt.Errorf("reverse auction document missing max price")
		}
		maxPrice, err := docToMoney(*d.MaxPrice)
		if err != nil {
			return nil, err
		}
		settings, err := domain.NewReverseAuctionSettings(maxPrice, duration, d.AllowAutoBidding)
		if err != nil {
			return nil, err
		}
		return settings, nil
	default:
		return nil, fmt.Errorf("unknown auction settings kind %q", d.Kind)
	}
}

func fromDomainListing(l *domain.Listing) (*listingDocument, error) {
	snap := l.Snapshot()

	price, err := moneyToDoc(snap.CurrentPrice)
	if err != nil {
		return nil, err
	}
	auction, err := settingsToDoc(snap.AuctionSettings)
	if err != nil {
		return nil, err
	}

	return &listingDocument{
		ID:          snap.ID.String(),
		ItemID:      snap.ItemID.String(),
		SellerID:    snap.SellerID.String(),
		CategoryID:  snap.CategoryID.String(),
		Title:       snap.Title,
		Description: snap.Description,
		Location:    locationToDoc(snap.Location),
		ListingType: string(snap.Type),
		Status:      string(snap.Status),
		Price:       price,
		Auction:     auction,
		PhotoURLs:   snap.PhotoURLs,
		ViewCount:   snap.ViewCount,
		Version:     snap.Version,
		CreatedAt:   snap.CreatedAt,
		UpdatedAt:   snap.UpdatedAt,
		ExpiresAt:   snap.ExpiresAt,
		CompletedAt: snap.CompletedAt,
		DeletedAt:   snap.DeletedAt,
	}, nil
}

func (d *listingDocument) toDomainListing() (*domain.Listing, error) {
	id, err := domain.ParseListingID(d.ID)
	if err != nil {
		return nil, err
	}
	itemID, err := domain.ParseItemID(d.ItemID)
	if err != nil {
		return nil, err
	}
	sellerID, err := domain.ParseUserID(d.SellerID)
	if err != nil {
		return nil, err
	}
	categoryID, err := domain.ParseCategoryID(d.CategoryID)
	if err != nil {
		return nil, err
	}
	location, err := docToLocation(d.Location)
	if err != nil {
		return nil, err
	}
	price, err := docToMoney(d.Price)
	if err != nil {
		return nil, err
	}
	settings, err := docToSettings(d.Auction)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateListing(domain.ListingSnapshot{
		ID:              id,
		ItemID:          itemID,
		SellerID:        sellerID,
		CategoryID:      categoryID,
		Title:           d.Title,
		Description:     d.Description,
		Location:        location,
		Type:            domain.ListingType(d.ListingType),
		Status:          domain.ListingStatus(d.Status),
		CurrentPrice:    price,
		AuctionSettings: settings,
		PhotoURLs:       d.PhotoURLs,
		ViewCount:       d.ViewCount,
		Version:         d.Version,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ExpiresAt:       d.ExpiresAt,
		CompletedAt:     d.CompletedAt,
		DeletedAt:       d.DeletedAt,
	})
}
