package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jollyrancherman/frauc-app-sub001/internal/listing/domain"
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
)

// maxPhotoSizeBytes caps a single photo upload.
const maxPhotoSizeBytes = 10 << 20 // 10 MiB

// PhotoUsecase attaches uploaded photos to listings.
type PhotoUsecase struct {
	listings *ListingUsecase
	storage  PhotoStorage
	logger   *logger.Logger
}

func NewPhotoUsecase(listings *ListingUsecase, storage PhotoStorage, log *logger.Logger) *PhotoUsecase {
	return &PhotoUsecase{
		listings: listings,
		storage:  storage,
		logger:   log.Named("PhotoUsecase"),
	}
}

// AddListingPhoto uploads the photo bytes to object storage and attaches the
// resulting URL to the listing.
func (uc *PhotoUsecase) AddListingPhoto(ctx context.Context, id domain.ListingID, fileName string, data []byte) (*domain.Listing, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: photo data must not be empty", domain.ErrInvalidArgument)
	}
	if len(data) > maxPhotoSizeBytes {
		return nil, fmt.Errorf("%w: photo exceeds %d bytes", domain.ErrInvalidArgument, maxPhotoSizeBytes)
	}

	url, err := uc.storage.Upload(ctx, fileName, data)
	if err != nil {
		uc.logger.Error("Photo upload failed", zap.Error(err), zap.String("listing_id", id.String()))
		return nil, err
	}

	return uc.listings.mutate(ctx, id, "AddListingPhoto", func(l *domain.Listing) error {
		return l.AddPhoto(url)
	})
}
