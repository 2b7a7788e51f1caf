package status

import (
	"context"
	"strings"
	"testing"
	"time"

	assetsRepo "github.com/authenx/evidence-hub/database/repo/assets"
	documentsRepo "github.com/authenx/evidence-hub/database/repo/documents"

	"github.com/authenx/evidence-hub/database/models"
	"github.com/authenx/evidence-hub/storage"
	"github.com/authenx/evidence-hub/utils/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeEvidence 内存证据列表
type fakeEvidence struct {
	objects []storage.Object
}

func (f *fakeEvidence) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	var out []storage.Object
	for _, obj := range f.objects {
		if strings.HasPrefix(obj.Path, prefix) {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeEvidence) add(assetID string) {
	f.objects = append(f.objects, storage.Object{
		Path:         generator.EvidencePath(assetID, time.Now().Add(time.Duration(len(f.objects))*time.Millisecond)),
		LastModified: time.Now(),
	})
}

// setupReconciler 创建测试数据库和协调器
func setupReconciler(t *testing.T, documentNames []string) (*Reconciler, *fakeEvidence, *assetsRepo.Repository, *documentsRepo.Repository, *models.Asset) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Asset{}, &models.RequiredDocument{}))

	assets := assetsRepo.NewRepository(db)
	docs := documentsRepo.NewRepository(db)
	evidence := &fakeEvidence{}

	asset := &models.Asset{Name: "vintage watch", OwnerID: "user-1"}
	require.NoError(t, assets.CreateWithDocuments(context.Background(), asset, documentNames))

	return NewReconciler(assets, docs, evidence), evidence, assets, docs, asset
}

// checkAll 把资产的全部清单项置为已上传
func checkAll(t *testing.T, docs *documentsRepo.Repository, assetID string) {
	t.Helper()
	list, err := docs.ListByAsset(context.Background(), assetID)
	require.NoError(t, err)
	now := time.Now()
	for _, doc := range list {
		require.NoError(t, docs.SetUploaded(context.Background(), doc.ID, true, &now))
	}
}

func TestEvaluateStaysNonVerifiedWhenImagesBelowDocuments(t *testing.T) {
	// 两份文档全勾选，只有一张证据
	r, evidence, _, docs, asset := setupReconciler(t, []string{"ownership deed", "purchase invoice"})
	ctx := context.Background()

	checkAll(t, docs, asset.ID)
	evidence.add(asset.ID)

	got, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonVerified, got)
}

func TestEvaluateAdvancesToPending(t *testing.T) {
	// 第二张证据到位后晋级
	r, evidence, assets, docs, asset := setupReconciler(t, []string{"ownership deed", "purchase invoice"})
	ctx := context.Background()

	checkAll(t, docs, asset.ID)
	evidence.add(asset.ID)
	evidence.add(asset.ID)

	got, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got)

	stored, err := assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestEvaluateRequiresAllDocuments(t *testing.T) {
	r, evidence, _, docs, asset := setupReconciler(t, []string{"ownership deed", "purchase invoice"})
	ctx := context.Background()

	// 只勾选一份文档
	list, err := docs.ListByAsset(ctx, asset.ID)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, docs.SetUploaded(ctx, list[0].ID, true, &now))

	evidence.add(asset.ID)
	evidence.add(asset.ID)

	got, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonVerified, got)
}

func TestEvaluateRevertsOnEvidenceDeletion(t *testing.T) {
	r, evidence, _, docs, asset := setupReconciler(t, []string{"ownership deed"})
	ctx := context.Background()

	checkAll(t, docs, asset.ID)
	evidence.add(asset.ID)

	got, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, got)

	// 删除最后一张证据后回退
	evidence.objects = nil
	got, err = r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonVerified, got)
}

func TestEvaluateEmptyChecklistStaysNonVerified(t *testing.T) {
	r, evidence, _, _, asset := setupReconciler(t, nil)
	ctx := context.Background()

	evidence.add(asset.ID)

	got, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonVerified, got)
}

func TestEvaluateIgnoresOtherAssetsEvidence(t *testing.T) {
	r, evidence, _, docs, asset := setupReconciler(t, []string{"ownership deed"})
	ctx := context.Background()

	checkAll(t, docs, asset.ID)
	evidence.add("some-other-asset")

	got, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonVerified, got)
}

func TestGrantAndReject(t *testing.T) {
	r, evidence, assets, docs, asset := setupReconciler(t, []string{"ownership deed"})
	ctx := context.Background()

	checkAll(t, docs, asset.ID)
	evidence.add(asset.ID)
	_, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)

	require.NoError(t, r.Grant(ctx, asset.ID))

	stored, err := assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAuthenticated, stored.Status)
	require.NotNil(t, stored.VerifiedAt)

	// 终态不受后续评估影响
	evidence.objects = nil
	got, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAuthenticated, got)
}

func TestRejectRevertsToNonVerified(t *testing.T) {
	r, evidence, assets, docs, asset := setupReconciler(t, []string{"ownership deed"})
	ctx := context.Background()

	checkAll(t, docs, asset.ID)
	evidence.add(asset.ID)
	_, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)

	require.NoError(t, r.Reject(ctx, asset.ID))

	stored, err := assets.GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonVerified, stored.Status)
	assert.Nil(t, stored.VerifiedAt)
}

func TestManualTransitionsRequirePending(t *testing.T) {
	r, _, _, _, asset := setupReconciler(t, []string{"ownership deed"})
	ctx := context.Background()

	// non-verified 状态下 grant/reject 均非法
	assert.ErrorIs(t, r.Grant(ctx, asset.ID), ErrInvalidTransition)
	assert.ErrorIs(t, r.Reject(ctx, asset.ID), ErrInvalidTransition)
}

func TestGrantIsTerminal(t *testing.T) {
	r, evidence, _, docs, asset := setupReconciler(t, []string{"ownership deed"})
	ctx := context.Background()

	checkAll(t, docs, asset.ID)
	evidence.add(asset.ID)
	_, err := r.Evaluate(ctx, asset.ID)
	require.NoError(t, err)
	require.NoError(t, r.Grant(ctx, asset.ID))

	// 已授予后再次 grant/reject 均非法
	assert.ErrorIs(t, r.Grant(ctx, asset.ID), ErrInvalidTransition)
	assert.ErrorIs(t, r.Reject(ctx, asset.ID), ErrInvalidTransition)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	r, evidence, _, docs, asset := setupReconciler(t, []string{"ownership deed"})
	ctx := context.Background()

	checkAll(t, docs, asset.ID)
	evidence.add(asset.ID)

	for i := 0; i < 3; i++ {
		got, err := r.Evaluate(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got)
	}
}
