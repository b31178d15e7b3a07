package application

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"rcs360-sync-layer/internal/domain"
	apperrors "rcs360-sync-layer/internal/errors"
	"rcs360-sync-layer/internal/ports"
)

// SaveShopDataInput is the full sync payload the companion app sends back.
// Callers must resupply every field on each save; omitted counts are stored
// as zero.
type SaveShopDataInput struct {
	ShopDomain         string `json:"shopDomain"`
	ShopName           string `json:"shopName"`
	Host               string `json:"host"`
	CustomerCount      int    `json:"customerCount"`
	ProductCount       int    `json:"productCount"`
	CollectionCount    int    `json:"collectionCount"`
	AbandonedCartCount int    `json:"abandonedCartCount"`
}

// ProfileService writes shop sync profiles to the document store.
type ProfileService struct {
	repository  ports.ProfileRepository
	logger      zerolog.Logger
	mergeWrites bool
	now         func() time.Time
}

// NewProfileService creates a profile writer. mergeWrites selects merge
// semantics with a set-once installedAt; the default false keeps the legacy
// full-overwrite behavior, which restamps installedAt on every sync.
func NewProfileService(repository ports.ProfileRepository, logger zerolog.Logger, mergeWrites bool) *ProfileService {
	return &ProfileService{
		repository:  repository,
		logger:      logger,
		mergeWrites: mergeWrites,
		now:         time.Now,
	}
}

// SaveShopData validates and persists one sync payload.
func (s *ProfileService) SaveShopData(ctx context.Context, input SaveShopDataInput) error {
	if input.ShopDomain == "" {
		return apperrors.New(apperrors.CodeValidation, "Missing shopDomain")
	}

	now := s.now()
	profile := &domain.ShopProfile{
		ShopDomain:         input.ShopDomain,
		ShopName:           input.ShopName,
		Host:               input.Host,
		CustomerCount:      input.CustomerCount,
		ProductCount:       input.ProductCount,
		CollectionCount:    input.CollectionCount,
		AbandonedCartCount: input.AbandonedCartCount,
		Source:             "shopify",
		LastSyncedAt:       now,
		InstalledAt:        now,
		LastDBUpdateAt:     now,
		LastResponse: domain.LastResponse{
			RawCounts: domain.RawCounts{
				CustomerCount:      input.CustomerCount,
				ProductCount:       input.ProductCount,
				CollectionCount:    input.CollectionCount,
				AbandonedCartCount: input.AbandonedCartCount,
			},
			FetchedAt: now,
		},
		ExportHistory:  []string{},
		ScheduledTasks: []string{},
	}

	var err error
	if s.mergeWrites {
		err = s.repository.MergeProfile(ctx, profile)
	} else {
		err = s.repository.SaveProfile(ctx, profile)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "saving shop profile")
	}

	s.logger.Info().Str("shop", input.ShopDomain).Bool("merge", s.mergeWrites).Msg("Shop data saved")
	return nil
}
