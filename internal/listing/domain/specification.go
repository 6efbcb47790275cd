package domain

import "time"

// Specification is a composable, reusable predicate over listings. It can be
// evaluated directly against an in-memory listing (IsSatisfiedBy) or handed
// to a repository, which translates its Predicate tree into a storage-native
// query. Specifications are immutable values; combining them never mutates
// the operands, so they are safe to share across goroutines.
type Specification struct {
	eval func(l *Listing, now time.Time) bool
	pred Predicate
}

// IsSatisfiedBy evaluates the specification against a single listing. The
// current time is read once per call, not memoized across a batch, so a
// batch of evaluations may straddle an expiry deadline. That approximation
// is accepted.
func (s Specification) IsSatisfiedBy(l *Listing) bool {
	return s.eval(l, time.Now().UTC())
}

// Predicate returns the declarative form of this specification for
// translation by a storage adapter.
func (s Specification) Predicate() Predicate {
	return s.pred
}

// And returns a specification satisfied when both operands are.
func (s Specification) And(other Specification) Specification {
	return Specification{
		eval: func(l *Listing, now time.Time) bool {
			return s.eval(l, now) && other.eval(l, now)
		},
		pred: AndPredicate{Left: s.pred, Right: other.pred},
	}
}

// Or returns a specification satisfied when either operand is.
func (s Specification) Or(other Specification) Specification {
	return Specification{
		eval: func(l *Listing, now time.Time) bool {
			return s.eval(l, now) || other.eval(l, now)
		},
		pred: OrPredicate{Left: s.pred, Right: other.pred},
	}
}

// Not returns the inverted specification.
func (s Specification) Not() Specification {
	return Specification{
		eval: func(l *Listing, now time.Time) bool {
			return !s.eval(l, now)
		},
		pred: NotPredicate{Inner: s.pred},
	}
}

// ActiveListings matches listings that are effectively active: status Active,
// not soft-deleted, and either without expiry or not yet past it.
func ActiveListings() Specification {
	return Specification{
		eval: func(l *Listing, now time.Time) bool {
			return l.IsEffectivelyActive(now)
		},
		pred: AndPredicate{
			Left: FieldPredicate{Field: FieldStatus, Op: OpEqual, Value: StatusActive},
			Right: AndPredicate{
				Left: FieldPredicate{Field: FieldDeletedAt, Op: OpIsNull},
				Right: OrPredicate{
					Left:  FieldPredicate{Field: FieldExpiresAt, Op: OpIsNull},
					Right: FieldPredicate{Field: FieldExpiresAt, Op: OpGreaterThan, Value: NowValue{}},
				},
			},
		},
	}
}

// ListingsByType matches listings of one listing type.
func ListingsByType(t ListingType) Specification {
	return Specification{
		eval: func(l *Listing, _ time.Time) bool {
			return l.Type() == t
		},
		pred: FieldPredicate{Field: FieldType, Op: OpEqual, Value: t},
	}
}

// ListingsBySeller matches listings posted by one seller.
func ListingsBySeller(sellerID UserID) Specification {
	return Specification{
		eval: func(l *Listing, _ time.Time) bool {
			return l.SellerID() == sellerID
		},
		pred: FieldPredicate{Field: FieldSellerID, Op: OpEqual, Value: sellerID},
	}
}

// ListingsNearLocation matches listings within radiusKm great-circle
// kilometers of center. A storage adapter may answer this with a spatial
// index as long as the result set equals direct evaluation.
func ListingsNearLocation(center Location, radiusKm float64) Specification {
	return Specification{
		eval: func(l *Listing, _ time.Time) bool {
			return l.Location().DistanceTo(center) <= radiusKm
		},
		pred: FieldPredicate{
			Field: FieldLocation,
			Op:    OpWithinRadius,
			Value: GeoCircle{Center: center, RadiusKm: radiusKm},
		},
	}
}
