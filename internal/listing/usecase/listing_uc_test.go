package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jollyrancherman/frauc-app-sub001/internal/listing/domain"
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
)

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id domain.ListingID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id domain.ListingID) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) GetByItemID(ctx context.Context, itemID domain.ItemID) (*domain.Listing, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) FindBySeller(ctx context.Context, sellerID domain.UserID, page domain.Page) (*domain.PagedListings, error) {
	args := m.Called(ctx, sellerID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedListings), args.Error(1)
}

func (m *MockListingRepository) FindByCategory(ctx context.Context, categoryID domain.CategoryID, page domain.Page) (*domain.PagedListings, error) {
	args := m.Called(ctx, categoryID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedListings), args.Error(1)
}

func (m *MockListingRepository) FindByType(ctx context.Context, listingType domain.ListingType, page domain.Page) (*domain.PagedListings, error) {
	args := m.Called(ctx, listingType, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedListings), args.Error(1)
}

func (m *MockListingRepository) FindActive(ctx context.Context, page domain.Page) (*domain.PagedListings, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedListings), args.Error(1)
}

func (m *MockListingRepository) FindExpired(ctx context.Context, page domain.Page) (*domain.PagedListings, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedListings), args.Error(1)
}

func (m *MockListingRepository) FindNearby(ctx context.Context, center domain.Location, radiusKm float64, page domain.Page) (*domain.PagedListings, error) {
	args := m.Called(ctx, center, radiusKm, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedListings), args.Error(1)
}

func (m *MockListingRepository) FindInBoundingBox(ctx context.Context, box domain.BoundingBox, page domain.Page) (*domain.PagedListings, error) {
	args := m.Called(ctx, box, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedListings), args.Error(1)
}

func (m *MockListingRepository) FindBySpecification(ctx context.Context, spec domain.Specification, page domain.Page) (*domain.PagedListings, error) {
	args := m.Called(ctx, spec, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedListings), args.Error(1)
}

func (m *MockListingRepository) Search(ctx context.Context, filter domain.SearchFilter, page domain.Page) (*domain.PagedListings, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PagedListings), args.Error(1)
}

func (m *MockListingRepository) Exists(ctx context.Context, id domain.ListingID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingRepository) CountBySeller(ctx context.Context, sellerID domain.UserID) (int64, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) CountByCategory(ctx context.Context, categoryID domain.CategoryID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) IncrementViewCount(ctx context.Context, id domain.ListingID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockListingCache struct {
	mock.Mock
}

func (m *MockListingCache) GetListing(ctx context.Context, id domain.ListingID) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingCache) DeleteListing(ctx context.Context, id domain.ListingID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func testMoney(t *testing.T, amount float64) domain.Money {
	t.Helper()
	m, err := domain.NewMoneyFromFloat(amount, "USD")
	require.NoError(t, err)
	return m
}

func testCreateParams(t *testing.T) domain.CreateListingParams {
	t.Helper()
	loc, err := domain.NewLocation(40.7128, -74.0060)
	require.NoError(t, err)
	return domain.CreateListingParams{
		ItemID:      domain.NewItemID(),
		SellerID:    domain.NewUserID(),
		CategoryID:  domain.NewCategoryID(),
		Title:       "Vintage road bike",
		Description: "Well maintained, new tires.",
		Location:    loc,
		Type:        domain.TypeFixedPrice,
		Price:       testMoney(t, 250),
	}
}

// testListing builds a persisted-looking aggregate with the creation event
// already drained.
func testListing(t *testing.T) *domain.Listing {
	t.Helper()
	l, err := domain.NewListing(testCreateParams(t))
	require.NoError(t, err)
	l.PullEvents()
	return l
}

// cloneListing makes an independent aggregate with the same state, standing
// in for a fresh read from storage.
func cloneListing(t *testing.T, l *domain.Listing) *domain.Listing {
	t.Helper()
	c, err := domain.RehydrateListing(l.Snapshot())
	require.NoError(t, err)
	return c
}

func newTestUsecase(repo domain.ListingRepository, cache ListingCache, pub EventPublisher) *ListingUsecase {
	return NewListingUsecase(repo, cache, pub, nil, logger.NewLogger())
}

func TestCreateListing_Success(t *testing.T) {
	repo := new(MockListingRepository)
	pub := new(MockEventPublisher)
	uc := newTestUsecase(repo, nil, pub)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil).Once()
	pub.On("Publish", mock.Anything, "listing.created", mock.Anything).Return(nil).Once()

	l, err := uc.CreateListing(context.Background(), testCreateParams(t))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, l.Status())

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateListing_InvalidInputNeverHitsStorage(t *testing.T) {
	repo := new(MockListingRepository)
	uc := newTestUsecase(repo, nil, nil)

	p := testCreateParams(t)
	p.Title = ""
	_, err := uc.CreateListing(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateListing_DuplicateItem(t *testing.T) {
	repo := new(MockListingRepository)
	pub := new(MockEventPublisher)
	uc := newTestUsecase(repo, nil, pub)

	repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrAlreadyExists).Once()

	_, err := uc.CreateListing(context.Background(), testCreateParams(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetListing_CacheHit(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	uc := newTestUsecase(repo, cache, nil)

	cached := testListing(t)
	cache.On("GetListing", mock.Anything, cached.ID()).Return(cached, nil).Once()

	got, err := uc.GetListing(context.Background(), cached.ID())
	require.NoError(t, err)
	assert.Same(t, cached, got)

	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestGetListing_CacheMissBackfills(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	uc := newTestUsecase(repo, cache, nil)

	stored := testListing(t)
	cache.On("GetListing", mock.Anything, stored.ID()).Return(nil, nil).Once()
	repo.On("GetByID", mock.Anything, stored.ID()).Return(stored, nil).Once()
	cache.On("SetListing", mock.Anything, stored).Return(nil).Once()

	got, err := uc.GetListing(context.Background(), stored.ID())
	require.NoError(t, err)
	assert.Same(t, stored, got)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestGetListing_NotFound(t *testing.T) {
	repo := new(MockListingRepository)
	uc := newTestUsecase(repo, nil, nil)

	id := domain.NewListingID()
	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound).Once()

	_, err := uc.GetListing(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdatePrice_PersistsInvalidatesAndPublishes(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	pub := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, pub)

	stored := testListing(t)
	repo.On("GetByID", mock.Anything, stored.ID()).Return(stored, nil).Once()
	repo.On("Update", mock.Anything, stored).Return(nil).Once()
	cache.On("DeleteListing", mock.Anything, stored.ID()).Return(nil).Once()
	pub.On("Publish", mock.Anything, "listing.price_updated", mock.Anything).Return(nil).Once()

	updated, err := uc.UpdatePrice(context.Background(), stored.ID(), testMoney(t, 199))
	require.NoError(t, err)
	assert.True(t, updated.CurrentPrice().Equals(testMoney(t, 199)))

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestUpdatePrice_RetriesOnVersionConflict(t *testing.T) {
	repo := new(MockListingRepository)
	pub := new(MockEventPublisher)
	uc := newTestUsecase(repo, nil, pub)

	stored := testListing(t)
	stale := cloneListing(t, stored)
	fresh := cloneListing(t, stored)

	repo.On("GetByID", mock.Anything, stored.ID()).Return(stale, nil).Once()
	repo.On("Update", mock.Anything, stale).Return(domain.ErrConcurrencyConflict).Once()
	repo.On("GetByID", mock.Anything, stored.ID()).Return(fresh, nil).Once()
	repo.On("Update", mock.Anything, fresh).Return(nil).Once()
	pub.On("Publish", mock.Anything, "listing.price_updated", mock.Anything).Return(nil).Once()

	_, err := uc.UpdatePrice(context.Background(), stored.ID(), testMoney(t, 180))
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "GetByID", 2)
	repo.AssertNumberOfCalls(t, "Update", 2)
	repo.AssertExpectations(t)
}

func TestUpdatePrice_GivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := new(MockListingRepository)
	pub := new(MockEventPublisher)
	uc := newTestUsecase(repo, nil, pub)

	stored := testListing(t)
	repo.On("GetByID", mock.Anything, stored.ID()).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(domain.ErrConcurrencyConflict)

	_, err := uc.UpdatePrice(context.Background(), stored.ID(), testMoney(t, 180))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	repo.AssertNumberOfCalls(t, "Update", 3)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteListing_InvalidStateDoesNotPersist(t *testing.T) {
	repo := new(MockListingRepository)
	uc := newTestUsecase(repo, nil, nil)

	stored := testListing(t)
	require.NoError(t, stored.Cancel())
	stored.PullEvents()

	repo.On("GetByID", mock.Anything, stored.ID()).Return(stored, nil).Once()

	_, err := uc.CompleteListing(context.Background(), stored.ID())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteListing_SoftDeletes(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	pub := new(MockEventPublisher)
	uc := newTestUsecase(repo, cache, pub)

	stored := testListing(t)
	repo.On("GetByID", mock.Anything, stored.ID()).Return(stored, nil).Once()
	repo.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		l := args.Get(1).(*domain.Listing)
		assert.True(t, l.IsDeleted())
	}).Return(nil).Once()
	cache.On("DeleteListing", mock.Anything, stored.ID()).Return(nil).Once()
	pub.On("Publish", mock.Anything, "listing.deleted", mock.Anything).Return(nil).Once()

	err := uc.DeleteListing(context.Background(), stored.ID())
	require.NoError(t, err)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRecordView(t *testing.T) {
	repo := new(MockListingRepository)
	uc := newTestUsecase(repo, nil, nil)

	id := domain.NewListingID()
	repo.On("IncrementViewCount", mock.Anything, id).Return(nil).Once()

	require.NoError(t, uc.RecordView(context.Background(), id))
	repo.AssertExpectations(t)
}

func TestNearbyListings_ComposesSpecifications(t *testing.T) {
	repo := new(MockListingRepository)
	uc := newTestUsecase(repo, nil, nil)

	center, err := domain.NewLocation(40.7128, -74.0060)
	require.NoError(t, err)
	page, err := domain.NewPage(1, 20)
	require.NoError(t, err)

	empty := &domain.PagedListings{Page: page}
	repo.On("FindBySpecification", mock.Anything, mock.AnythingOfType("domain.Specification"), page).
		Run(func(args mock.Arguments) {
			spec := args.Get(1).(domain.Specification)
			root, ok := spec.Predicate().(domain.AndPredicate)
			require.True(t, ok)
			geo, ok := root.Right.(domain.FieldPredicate)
			require.True(t, ok)
			assert.Equal(t, domain.FieldLocation, geo.Field)
			assert.Equal(t, domain.OpWithinRadius, geo.Op)
		}).
		Return(empty, nil).Once()

	got, err := uc.NearbyListings(context.Background(), center, 15, page)
	require.NoError(t, err)
	assert.Same(t, empty, got)
	repo.AssertExpectations(t)
}

func TestExpireDueListings(t *testing.T) {
	repo := new(MockListingRepository)
	pub := new(MockEventPublisher)
	uc := newTestUsecase(repo, nil, pub)

	due := testListing(t)
	alreadyExpired := testListing(t)
	require.NoError(t, alreadyExpired.MarkExpired())
	alreadyExpired.PullEvents()

	page, err := domain.NewPage(1, 100)
	require.NoError(t, err)
	repo.On("FindExpired", mock.Anything, page).Return(&domain.PagedListings{
		Items:      []*domain.Listing{due, alreadyExpired},
		TotalCount: 2,
		Page:       page,
	}, nil).Once()
	repo.On("GetByID", mock.Anything, due.ID()).Return(due, nil).Once()
	repo.On("Update", mock.Anything, due).Return(nil).Once()
	pub.On("Publish", mock.Anything, "listing.status_changed", mock.Anything).Return(nil).Once()

	n, err := uc.ExpireDueListings(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusExpired, due.Status())

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestAddListingPhoto(t *testing.T) {
	repo := new(MockListingRepository)
	pub := new(MockEventPublisher)
	listings := newTestUsecase(repo, nil, pub)

	storage := new(mockPhotoStorage)
	photos := NewPhotoUsecase(listings, storage, logger.NewLogger())

	stored := testListing(t)
	storage.On("Upload", mock.Anything, "bike.jpg", []byte("jpeg-bytes")).
		Return("https://cdn.example.com/photos/bike.jpg", nil).Once()
	repo.On("GetByID", mock.Anything, stored.ID()).Return(stored, nil).Once()
	repo.On("Update", mock.Anything, stored).Return(nil).Once()
	pub.On("Publish", mock.Anything, "listing.photo_added", mock.Anything).Return(nil).Once()

	got, err := photos.AddListingPhoto(context.Background(), stored.ID(), "bike.jpg", []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.Contains(t, got.PhotoURLs(), "https://cdn.example.com/photos/bike.jpg")

	storage.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestAddListingPhoto_RejectsEmptyAndOversized(t *testing.T) {
	storage := new(mockPhotoStorage)
	photos := NewPhotoUsecase(newTestUsecase(new(MockListingRepository), nil, nil), storage, logger.NewLogger())

	_, err := photos.AddListingPhoto(context.Background(), domain.NewListingID(), "a.jpg", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = photos.AddListingPhoto(context.Background(), domain.NewListingID(), "a.jpg", make([]byte, maxPhotoSizeBytes+1))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

type mockPhotoStorage struct {
	mock.Mock
}

func (m *mockPhotoStorage) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, data)
	return args.String(0), args.Error(1)
}
