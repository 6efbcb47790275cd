package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jollyrancherman/frauc-app-sub001/internal/listing/domain"
)

// predicate field names map to document keys here; the domain tree knows
// nothing about the storage layout.
var fieldKeys = map[domain.Field]string{
	domain.FieldStatus:     "status",
	domain.FieldType:       "listing_type",
	domain.FieldSellerID:   "seller_id",
	domain.FieldCategoryID: "category_id",
	domain.FieldPrice:      "price.amount",
	domain.FieldLocation:   "location",
	domain.FieldExpiresAt:  "expires_at",
	domain.FieldDeletedAt:  "deleted_at",
	domain.FieldCreatedAt:  "created_at",
}

// predicateToFilter interprets a domain predicate tree as a MongoDB filter.
// now resolves NowValue markers so one translation is consistent within a
// single query.
func predicateToFilter(p domain.Predicate, now time.Time) (bson.M, error) {
	switch pr := p.(type) {
	case domain.AndPredicate:
		left, err := predicateToFilter(pr.Left, now)
		if err != nil {
			return nil, err
		}
		right, err := predicateToFilter(pr.Right, now)
		if err != nil {
			return nil, err
		}
		return bson.M{"$and": bson.A{left, right}}, nil
	case domain.OrPredicate:
		left, err := predicateToFilter(pr.Left, now)
		if err != nil {
			return nil, err
		}
		right, err := predicateToFilter(pr.Right, now)
		if err != nil {
			return nil, err
		}
		return bson.M{"$or": bson.A{left, right}}, nil
	case domain.NotPredicate:
		inner, err := predicateToFilter(pr.Inner, now)
		if err != nil {
			return nil, err
		}
		// $nor of one branch is boolean NOT and, unlike $not, is valid at
		// the top level of a filter.
		return bson.M{"$nor": bson.A{inner}}, nil
	case domain.FieldPredicate:
		return fieldPredicateToFilter(pr, now)
	default:
		return nil, fmt.Errorf("unknown predicate node %T", p)
	}
}

func fieldPredicateToFilter(p domain.FieldPredicate, now time.Time) (bson.M, error) {
	key, ok := fieldKeys[p.Field]
	if !ok {
		return nil, fmt.Errorf("unknown predicate field %q", p.Field)
	}

	switch p.Op {
	case domain.OpIsNull:
		// Matches both a null value and an absent field.
		return bson.M{key: nil}, nil
	case domain.OpWithinRadius:
		circle, ok := p.Value.(domain.GeoCircle)
		if !ok {
			return nil, fmt.Errorf("within_radius predicate requires a GeoCircle value, got %T", p.Value)
		}
		return bson.M{key: bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{circle.Center.Longitude, circle.Center.Latitude},
					circle.RadiusKm / 6371.0,
				},
			},
		}}, nil
	}

	value, err := predicateValue(p.Value, now)
	if err != nil {
		return nil, err
	}

	switch p.Op {
	case domain.OpEqual:
		return bson.M{key: value}, nil
	case domain.OpNotEqual:
		return bson.M{key: bson.M{"$ne": value}}, nil
	case domain.OpGreaterThan:
		return bson.M{key: bson.M{"$gt": value}}, nil
	case domain.OpGreaterOrEqual:
		return bson.M{key: bson.M{"$gte": value}}, nil
	case domain.OpLessThan:
		return bson.M{key: bson.M{"$lt": value}}, nil
	case domain.OpLessOrEqual:
		return bson.M{key: bson.M{"$lte": value}}, nil
	default:
		return nil, fmt.Errorf("unknown predicate op %q", p.Op)
	}
}

func predicateValue(v any, now time.Time) (any, error) {
	switch value := v.(type) {
	case domain.NowValue:
		return now, nil
	case domain.ListingStatus:
		return string(value), nil
	case domain.ListingType:
		return string(value), nil
	case domain.UserID:
		return value.String(), nil
	case domain.CategoryID:
		return value.String(), nil
	case domain.ListingID:
		return value.String(), nil
	case domain.Money:
		amount, err := primitive.ParseDecimal128(value.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("failed to encode money predicate value: %w", err)
		}
		return amount, nil
	case time.Time, string, int, int64, float64, bool:
		return value, nil
	default:
		return nil, fmt.Errorf("unsupported predicate value %T", v)
	}
}
