package application

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcs360-sync-layer/internal/domain"
	apperrors "rcs360-sync-layer/internal/errors"
)

type fakeProfileRepo struct {
	profiles   map[string]*domain.ShopProfile
	saveCalls  int
	mergeCalls int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*domain.ShopProfile{}}
}

func (f *fakeProfileRepo) SaveProfile(ctx context.Context, profile *domain.ShopProfile) error {
	f.saveCalls++
	copied := *profile
	f.profiles[profile.ShopDomain] = &copied
	return nil
}

func (f *fakeProfileRepo) MergeProfile(ctx context.Context, profile *domain.ShopProfile) error {
	f.mergeCalls++
	existing, ok := f.profiles[profile.ShopDomain]
	copied := *profile
	if ok {
		copied.InstalledAt = existing.InstalledAt
	}
	f.profiles[profile.ShopDomain] = &copied
	return nil
}

func (f *fakeProfileRepo) GetProfile(ctx context.Context, shopDomain string) (*domain.ShopProfile, error) {
	return f.profiles[shopDomain], nil
}

func (f *fakeProfileRepo) LogWebhook(ctx context.Context, event *domain.WebhookEvent) error {
	return nil
}

func syncInput(customers int) SaveShopDataInput {
	return SaveShopDataInput{
		ShopDomain:         "teststore.myshopify.com",
		ShopName:           "Test Store",
		Host:               "aG9zdA==",
		CustomerCount:      customers,
		ProductCount:       5,
		CollectionCount:    2,
		AbandonedCartCount: 1,
	}
}

func TestSaveShopDataRejectsMissingDomain(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo, zerolog.Nop(), false)

	err := svc.SaveShopData(context.Background(), SaveShopDataInput{ShopName: "No Domain"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Zero(t, repo.saveCalls, "validation failure must not write")
	assert.Zero(t, repo.mergeCalls)
}

func TestSaveShopDataOverwriteIsLastWriteWins(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo, zerolog.Nop(), false)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	require.NoError(t, svc.SaveShopData(context.Background(), syncInput(100)))
	firstInstalled := repo.profiles["teststore.myshopify.com"].InstalledAt

	svc.now = func() time.Time { return base.Add(24 * time.Hour) }
	require.NoError(t, svc.SaveShopData(context.Background(), syncInput(250)))

	stored := repo.profiles["teststore.myshopify.com"]
	assert.Equal(t, 250, stored.CustomerCount)
	assert.Equal(t, 250, stored.LastResponse.RawCounts.CustomerCount)
	assert.Equal(t, 2, repo.saveCalls)
	// Legacy overwrite restamps installedAt on every sync.
	assert.NotEqual(t, firstInstalled, stored.InstalledAt)
}

func TestSaveShopDataMergeModePreservesInstalledAt(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo, zerolog.Nop(), true)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	require.NoError(t, svc.SaveShopData(context.Background(), syncInput(100)))

	svc.now = func() time.Time { return base.Add(24 * time.Hour) }
	require.NoError(t, svc.SaveShopData(context.Background(), syncInput(250)))

	stored := repo.profiles["teststore.myshopify.com"]
	assert.Equal(t, 250, stored.CustomerCount)
	assert.True(t, stored.InstalledAt.Equal(base), "merge mode keeps first installedAt")
	assert.Equal(t, 2, repo.mergeCalls)
	assert.Zero(t, repo.saveCalls)
}

func TestSaveShopDataStampsAllTimestamps(t *testing.T) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(repo, zerolog.Nop(), false)
	now := time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.SaveShopData(context.Background(), syncInput(1)))

	stored := repo.profiles["teststore.myshopify.com"]
	assert.True(t, stored.LastSyncedAt.Equal(now))
	assert.True(t, stored.InstalledAt.Equal(now))
	assert.True(t, stored.LastDBUpdateAt.Equal(now))
	assert.True(t, stored.LastResponse.FetchedAt.Equal(now))
	assert.Equal(t, "shopify", stored.Source)
	assert.False(t, stored.Features.AbandonedCartExport)
	assert.False(t, stored.Features.SinchIntegration)
	assert.False(t, stored.Features.ScheduledSync)
	assert.NotNil(t, stored.ExportHistory)
	assert.NotNil(t, stored.ScheduledTasks)
}
