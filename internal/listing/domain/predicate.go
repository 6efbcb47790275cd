package domain

// Predicate is the declarative form of a listing filter: a tagged tree that
// each storage adapter interprets into its own query language. It mirrors the
// in-memory evaluation of the Specification that produced it; an adapter may
// optimize (bounding box, spatial index) but must not change which listings
// match.
type Predicate interface {
	isPredicate()
}

// Field names a queryable listing attribute, independent of any storage
// layout. Adapters own the mapping from Field to column/key.
type Field string

const (
	FieldStatus     Field = "status"
	FieldType       Field = "type"
	FieldSellerID   Field = "seller_id"
	FieldCategoryID Field = "category_id"
	FieldPrice      Field = "price"
	FieldLocation   Field = "location"
	FieldExpiresAt  Field = "expires_at"
	FieldDeletedAt  Field = "deleted_at"
	FieldCreatedAt  Field = "created_at"
)

// Op is a comparison operator inside a FieldPredicate.
type Op string

const (
	OpEqual          Op = "eq"
	OpNotEqual       Op = "ne"
	OpGreaterThan    Op = "gt"
	OpGreaterOrEqual Op = "gte"
	OpLessThan       Op = "lt"
	OpLessOrEqual    Op = "lte"
	// OpIsNull matches when the field is absent. Value is ignored.
	OpIsNull Op = "is_null"
	// OpWithinRadius matches locations within a great-circle radius.
	// Value must be a GeoCircle.
	OpWithinRadius Op = "within_radius"
)

// NowValue marks a comparison value that the interpreter must resolve to the
// current time at evaluation or translation time, so the same predicate tree
// stays valid across calls.
type NowValue struct{}

// GeoCircle is the value of an OpWithinRadius predicate.
type GeoCircle struct {
	Center   Location
	RadiusKm float64
}

// FieldPredicate is a single field comparison.
type FieldPredicate struct {
	Field Field
	Op    Op
	Value any
}

// AndPredicate matches when both branches match.
type AndPredicate struct {
	Left  Predicate
	Right Predicate
}

// OrPredicate matches when either branch matches.
type OrPredicate struct {
	Left  Predicate
	Right Predicate
}

// NotPredicate inverts its inner predicate.
type NotPredicate struct {
	Inner Predicate
}

func (FieldPredicate) isPredicate() {}
func (AndPredicate) isPredicate()   {}
func (OrPredicate) isPredicate()    {}
func (NotPredicate) isPredicate()   {}
