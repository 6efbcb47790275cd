package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/jollyrancherman/frauc-app-sub001/internal/listing/domain"
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
)

const listingCollectionName = "listings"

// sortKeys maps the composite-search sortBy names to document keys.
var sortKeys = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"price":      "price.amount",
	"view_count": "view_count",
	"title":      "title",
	"expires_at": "expires_at",
}

// ListingRepository implements domain.ListingRepository on MongoDB.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewListingRepository creates the repository and ensures its indexes,
// including the 2dsphere index that backs spatial queries.
func NewListingRepository(db *mongo.Database, log *logger.Logger) (*ListingRepository, error) {
	collection := db.Collection(listingCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "item_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "listing_type", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Indexes may already exist or be managed externally; log and continue.
		log.Error("Failed to create indexes for listings collection", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes for listings collection")
	}

	return &ListingRepository{
		collection: collection,
		logger:     log.Named("ListingRepository"),
	}, nil
}

// Create inserts a new listing document.
func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	r.logger.Debug("Creating listing in DB", zap.String("listing_id", listing.ID().String()))

	doc, err := fromDomainListing(listing)
	if err != nil {
		r.logger.Error("Failed to convert listing to document for Create", zap.Error(err))
		return err
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("Duplicate key error on listing creation", zap.String("listing_id", doc.ID), zap.Error(err))
			return domain.ErrAlreadyExists
		}
		r.logger.Error("Failed to insert listing into DB", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}
	r.logger.Info("Listing created in DB", zap.String("listing_id", doc.ID))
	return nil
}

// Update replaces the document guarded by a compare-and-swap on the version
// field. A matched-count of zero with an existing document means another
// writer got there first.
func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	r.logger.Debug("Updating listing in DB",
		zap.String("listing_id", listing.ID().String()),
		zap.Int64("version", listing.Version()))

	doc, err := fromDomainListing(listing)
	if err != nil {
		r.logger.Error("Failed to convert listing to document for Update", zap.Error(err))
		return err
	}

	casFilter := bson.M{"_id": doc.ID, "version": doc.Version}
	update := bson.M{
		"$set": bson.M{
			"title":            doc.Title,
			"description":      doc.Description,
			"location":         doc.Location,
			"category_id":      doc.CategoryID,
			"status":           doc.Status,
			"price":            doc.Price,
			"auction_settings": doc.Auction,
			"photo_urls":       doc.PhotoURLs,
			"updated_at":       doc.UpdatedAt,
			"expires_at":       doc.ExpiresAt,
			"completed_at":     doc.CompletedAt,
			"deleted_at":       doc.DeletedAt,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, casFilter, update)
	if err != nil {
		r.logger.Error("Failed to update listing in DB", zap.Error(err), zap.String("listing_id", doc.ID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		exists, existsErr := r.Exists(ctx, listing.ID())
		if existsErr != nil {
			return existsErr
		}
		if exists {
			r.logger.Warn("Version conflict on listing update",
				zap.String("listing_id", doc.ID), zap.Int64("expected_version", doc.Version))
			return domain.ErrConcurrencyConflict
		}
		r.logger.Warn("Listing not found for update", zap.String("listing_id", doc.ID))
		return domain.ErrNotFound
	}
	return nil
}

// Delete physically removes the document. The core only ever soft-deletes;
// this is the storage-level cleanup path.
func (r *ListingRepository) Delete(ctx context.Context, id domain.ListingID) error {
	r.logger.Info("Deleting listing from DB", zap.String("listing_id", id.String()))

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		r.logger.Error("Failed to delete listing from DB", zap.Error(err), zap.String("listing_id", id.String()))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID retrieves a listing by its identifier, including soft-deleted ones.
func (r *ListingRepository) GetByID(ctx context.Context, id domain.ListingID) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get listing by ID from DB", zap.Error(err), zap.String("listing_id", id.String()))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainListing()
}

// GetByItemID retrieves the listing selling a given item.
func (r *ListingRepository) GetByItemID(ctx context.Context, itemID domain.ItemID) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"item_id": itemID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get listing by item ID from DB", zap.Error(err), zap.String("item_id", itemID.String()))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainListing()
}

func (r *ListingRepository) FindBySeller(ctx context.Context, sellerID domain.UserID, page domain.Page) (*domain.PagedListings, error) {
	return r.findPage(ctx, bson.M{"seller_id": sellerID.String()}, defaultSort(), page)
}

func (r *ListingRepository) FindByCategory(ctx context.Context, categoryID domain.CategoryID, page domain.Page) (*domain.PagedListings, error) {
	return r.findPage(ctx, bson.M{"category_id": categoryID.String()}, defaultSort(), page)
}

func (r *ListingRepository) FindByType(ctx context.Context, listingType domain.ListingType, page domain.Page) (*domain.PagedListings, error) {
	return r.findPage(ctx, bson.M{"listing_type": string(listingType)}, defaultSort(), page)
}

// FindActive reuses the translation of the ActiveListings specification so
// the storage query and in-memory evaluation cannot drift apart.
func (r *ListingRepository) FindActive(ctx context.Context, page domain.Page) (*domain.PagedListings, error) {
	filter, err := predicateToFilter(domain.ActiveListings().Predicate(), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return r.findPage(ctx, filter, defaultSort(), page)
}

// FindExpired returns listings already marked expired plus active listings
// whose deadline has passed, for the expiry sweeper.
func (r *ListingRepository) FindExpired(ctx context.Context, page domain.Page) (*domain.PagedListings, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"status": string(domain.StatusExpired)},
		bson.M{"status": string(domain.StatusActive), "expires_at": bson.M{"$lte": now}},
	}}
	return r.findPage(ctx, filter, bson.D{{Key: "expires_at", Value: 1}}, page)
}

// FindNearby answers the great-circle radius query with the 2dsphere index.
// $centerSphere is spherical, so the result set equals direct evaluation of
// the ListingsNearLocation specification.
func (r *ListingRepository) FindNearby(ctx context.Context, center domain.Location, radiusKm float64, page domain.Page) (*domain.PagedListings, error) {
	spec := domain.ListingsNearLocation(center, radiusKm)
	return r.FindBySpecification(ctx, spec, page)
}

func (r *ListingRepository) FindInBoundingBox(ctx context.Context, box domain.BoundingBox, page domain.Page) (*domain.PagedListings, error) {
	filter := bson.M{"location": bson.M{
		"$geoWithin": bson.M{
			"$box": bson.A{
				bson.A{box.MinLon, box.MinLat},
				bson.A{box.MaxLon, box.MaxLat},
			},
		},
	}}
	return r.findPage(ctx, filter, defaultSort(), page)
}

// FindBySpecification translates the specification's predicate tree into a
// native filter and runs it as one query.
func (r *ListingRepository) FindBySpecification(ctx context.Context, spec domain.Specification, page domain.Page) (*domain.PagedListings, error) {
	filter, err := predicateToFilter(spec.Predicate(), time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to translate specification predicate", zap.Error(err))
		return nil, err
	}
	return r.findPage(ctx, filter, defaultSort(), page)
}

// Search applies the composite filter, defaulting to created_at DESC.
func (r *ListingRepository) Search(ctx context.Context, f domain.SearchFilter, page domain.Page) (*domain.PagedListings, error) {
	filter := bson.M{}

	if f.SearchTerm != "" {
		pattern := primitive.Regex{Pattern: f.SearchTerm, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	if f.CategoryID != nil {
		filter["category_id"] = f.CategoryID.String()
	}
	if f.SellerID != nil {
		filter["seller_id"] = f.SellerID.String()
	}
	if f.Type != nil {
		filter["listing_type"] = string(*f.Type)
	}
	if f.Status != nil {
		filter["status"] = string(*f.Status)
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			amount, err := primitive.ParseDecimal128(f.MinPrice.Amount.String())
			if err != nil {
				return nil, fmt.Errorf("failed to encode min price: %w", err)
			}
			price["$gte"] = amount
		}
		if f.MaxPrice != nil {
			amount, err := primitive.ParseDecimal128(f.MaxPrice.Amount.String())
			if err != nil {
				return nil, fmt.Errorf("failed to encode max price: %w", err)
			}
			price["$lte"] = amount
		}
		filter["price.amount"] = price
	}
	if f.Center != nil {
		filter["location"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{f.Center.Longitude, f.Center.Latitude},
					f.RadiusKm / 6371.0,
				},
			},
		}
	}

	sortBy, direction := f.Sort()
	key, ok := sortKeys[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported sort field %q", domain.ErrInvalidArgument, sortBy)
	}
	order := -1
	if direction == domain.SortAscending {
		order = 1
	}

	return r.findPage(ctx, filter, bson.D{{Key: key, Value: order}}, page)
}

func (r *ListingRepository) Exists(ctx context.Context, id domain.ListingID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id.String()}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("db count failed: %w", err)
	}
	return count > 0, nil
}

func (r *ListingRepository) CountBySeller(ctx context.Context, sellerID domain.UserID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"seller_id": sellerID.String()})
	if err != nil {
		return 0, fmt.Errorf("db count failed: %w", err)
	}
	return count, nil
}

func (r *ListingRepository) CountByCategory(ctx context.Context, categoryID domain.CategoryID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"category_id": categoryID.String()})
	if err != nil {
		return 0, fmt.Errorf("db count failed: %w", err)
	}
	return count, nil
}

func (r *ListingRepository) CountActive(ctx context.Context) (int64, error) {
	filter, err := predicateToFilter(domain.ActiveListings().Predicate(), time.Now().UTC())
	if err != nil {
		return 0, err
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("db count failed: %w", err)
	}
	return count, nil
}

// IncrementViewCount bumps the counter atomically. Views are not content
// changes, so neither updated_at nor the version moves.
func (r *ListingRepository) IncrementViewCount(ctx context.Context, id domain.ListingID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$inc": bson.M{"view_count": 1}},
	)
	if err != nil {
		r.logger.Error("Failed to increment view count", zap.Error(err), zap.String("listing_id", id.String()))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) findPage(ctx context.Context, filter bson.M, sort bson.D, page domain.Page) (*domain.PagedListings, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count listings", zap.Error(err))
		return nil, fmt.Errorf("db count failed: %w", err)
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find listings", zap.Error(err))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*domain.Listing, 0, page.Size)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Error("Failed to decode listing document", zap.Error(err))
			return nil, fmt.Errorf("db decode failed: %w", err)
		}
		listing, err := doc.toDomainListing()
		if err != nil {
			r.logger.Error("Failed to rehydrate listing from document", zap.Error(err), zap.String("listing_id", doc.ID))
			return nil, err
		}
		items = append(items, listing)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("db cursor failed: %w", err)
	}

	return &domain.PagedListings{Items: items, TotalCount: total, Page: page}, nil
}

func defaultSort() bson.D {
	return bson.D{{Key: "created_at", Value: -1}}
}
