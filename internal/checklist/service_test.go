package checklist

import (
	"context"
	"testing"
	"time"

	assetsRepo "github.com/authenx/evidence-hub/database/repo/assets"
	documentsRepo "github.com/authenx/evidence-hub/database/repo/documents"

	"github.com/authenx/evidence-hub/database/models"
	"github.com/authenx/evidence-hub/internal/status"
	"github.com/authenx/evidence-hub/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// staticEvidence 固定数量的证据列表
type staticEvidence struct {
	count int
}

func (s *staticEvidence) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	objects := make([]storage.Object, s.count)
	for i := range objects {
		objects[i] = storage.Object{Path: prefix + "obj.jpg"}
	}
	return objects, nil
}

func setupService(t *testing.T, evidenceCount int) (*Service, *documentsRepo.Repository, *assetsRepo.Repository, *models.Asset) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Asset{}, &models.RequiredDocument{}))

	assets := assetsRepo.NewRepository(db)
	docs := documentsRepo.NewRepository(db)
	reconciler := status.NewReconciler(assets, docs, &staticEvidence{count: evidenceCount})

	asset := &models.Asset{Name: "antique vase", OwnerID: "user-1"}
	require.NoError(t, assets.CreateWithDocuments(context.Background(), asset, []string{"appraisal report"}))

	return NewService(docs, reconciler), docs, assets, asset
}

func TestToggleMarksUploadedAndAdvancesStatus(t *testing.T) {
	svc, docs, _, asset := setupService(t, 1)
	ctx := context.Background()

	list, err := docs.ListByAsset(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	result, err := svc.Toggle(ctx, list[0].ID, true)
	require.NoError(t, err)

	assert.True(t, result.Document.IsUploaded)
	require.NotNil(t, result.Document.UploadedAt)
	assert.Equal(t, models.StatusPending, result.Status)

	// 时间戳落库
	stored, err := docs.GetByID(ctx, list[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.IsUploaded)
	require.NotNil(t, stored.UploadedAt)
}

func TestToggleOffClearsTimestampAndReverts(t *testing.T) {
	svc, docs, assets, asset := setupService(t, 1)
	ctx := context.Background()

	list, err := docs.ListByAsset(ctx, asset.ID)
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, list[0].ID, true)
	require.NoError(t, err)

	result, err := svc.Toggle(ctx, list[0].ID, false)
	require.NoError(t, err)

	assert.False(t, result.Document.IsUploaded)
	assert.Nil(t, result.Document.UploadedAt)
	assert.Equal(t, models.StatusNonVerified, result.Status)

	stored, err := assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonVerified, stored.Status)
}

func TestToggleIsIdempotent(t *testing.T) {
	svc, docs, _, asset := setupService(t, 1)
	ctx := context.Background()

	list, err := docs.ListByAsset(ctx, asset.ID)
	require.NoError(t, err)

	first, err := svc.Toggle(ctx, list[0].ID, true)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	second, err := svc.Toggle(ctx, list[0].ID, true)
	require.NoError(t, err)

	// 同值重复切换只刷新时间戳，状态不变
	assert.Equal(t, first.Status, second.Status)
	assert.True(t, second.Document.IsUploaded)
	assert.True(t, second.Document.UploadedAt.After(*first.Document.UploadedAt) ||
		second.Document.UploadedAt.Equal(*first.Document.UploadedAt))
}

func TestToggleUnknownDocument(t *testing.T) {
	svc, _, _, _ := setupService(t, 1)

	_, err := svc.Toggle(context.Background(), "no-such-id", true)
	assert.Error(t, err)
}
