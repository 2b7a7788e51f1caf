// Package status 从清单与证据状态推导资产生命周期状态。
//
// 状态机：
//
//	non-verified -> pending        自动：所有文档已上传且证据数 >= 文档数
//	pending      -> non-verified   自动（条件不再满足）或审核人 reject
//	pending      -> authenticated  审核人 grant，之后不再有自动转出
//
// 评估始终重新读库和重新列存储，不信任内存里的旧计数，这是并发
// 上传下唯一的正确性保证。
package status

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/authenx/evidence-hub/database/models"
	"github.com/authenx/evidence-hub/storage"
	"github.com/authenx/evidence-hub/utils/generator"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidTransition 非法状态转换
var ErrInvalidTransition = errors.New("status: invalid transition")

// AssetStore 状态评估需要的资产读写能力
type AssetStore interface {
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	UpdateStatusIf(ctx context.Context, id string, from, to models.AssetStatus) (bool, error)
	MarkAuthenticated(ctx context.Context, id string, verifiedAt time.Time) (bool, error)
}

// DocumentStore 清单读取能力
type DocumentStore interface {
	ListByAsset(ctx context.Context, assetID string) ([]models.RequiredDocument, error)
}

// EvidenceLister 证据存储的列举能力
type EvidenceLister interface {
	List(ctx context.Context, prefix string) ([]storage.Object, error)
}

// Reconciler 状态协调器
type Reconciler struct {
	assets    AssetStore
	documents DocumentStore
	evidence  EvidenceLister
}

// NewReconciler 创建状态协调器
func NewReconciler(assets AssetStore, documents DocumentStore, evidence EvidenceLister) *Reconciler {
	return &Reconciler{
		assets:    assets,
		documents: documents,
		evidence:  evidence,
	}
}

// Evaluate 重新评估并持久化资产状态，返回评估后的状态
//
// 幂等：推导结果与当前状态一致时不写库。每次清单变更、证据上传
// 或删除之后都应调用。
func (r *Reconciler) Evaluate(ctx context.Context, assetID string) (models.AssetStatus, error) {
	asset, err := r.assets.GetByID(ctx, assetID)
	if err != nil {
		return "", fmt.Errorf("failed to load asset %s: %w", assetID, err)
	}

	// authenticated 是终态
	if asset.Status.IsTerminal() {
		return asset.Status, nil
	}

	complete, err := r.checklistComplete(ctx, assetID)
	if err != nil {
		return "", err
	}

	derived := models.StatusNonVerified
	if complete {
		derived = models.StatusPending
	}

	if derived == asset.Status {
		return derived, nil
	}

	updated, err := r.assets.UpdateStatusIf(ctx, assetID, asset.Status, derived)
	if err != nil {
		return "", fmt.Errorf("failed to persist status for asset %s: %w", assetID, err)
	}
	if !updated {
		// 并发评估先行写入，以库内状态为准重新读取
		current, err := r.assets.GetByID(ctx, assetID)
		if err != nil {
			return "", fmt.Errorf("failed to reload asset %s: %w", assetID, err)
		}
		return current.Status, nil
	}

	log.Printf("[Status] Asset %s: %s -> %s", assetID, asset.Status, derived)
	return derived, nil
}

// checklistComplete 读取最新的清单与证据计数并判断完成条件
func (r *Reconciler) checklistComplete(ctx context.Context, assetID string) (bool, error) {
	var (
		docs    []models.RequiredDocument
		objects []storage.Object
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = r.documents.ListByAsset(gctx, assetID)
		if err != nil {
			return fmt.Errorf("failed to list documents for asset %s: %w", assetID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		objects, err = r.evidence.List(gctx, generator.AssetPrefix(assetID))
		if err != nil {
			return fmt.Errorf("failed to list evidence for asset %s: %w", assetID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return false, err
	}

	// 空清单不自动晋级：资产开通流程总会建清单，没有清单说明还没就绪
	if len(docs) == 0 {
		return false, nil
	}

	for _, doc := range docs {
		if !doc.IsUploaded {
			return false, nil
		}
	}

	return len(objects) >= len(docs), nil
}

// Grant 审核通过：pending -> authenticated
func (r *Reconciler) Grant(ctx context.Context, assetID string) error {
	updated, err := r.assets.MarkAuthenticated(ctx, assetID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to grant asset %s: %w", assetID, err)
	}
	if !updated {
		return ErrInvalidTransition
	}
	log.Printf("[Status] Asset %s granted: pending -> authenticated", assetID)
	return nil
}

// Reject 审核驳回：pending -> non-verified
func (r *Reconciler) Reject(ctx context.Context, assetID string) error {
	updated, err := r.assets.UpdateStatusIf(ctx, assetID, models.StatusPending, models.StatusNonVerified)
	if err != nil {
		return fmt.Errorf("failed to reject asset %s: %w", assetID, err)
	}
	if !updated {
		return ErrInvalidTransition
	}
	log.Printf("[Status] Asset %s rejected: pending -> non-verified", assetID)
	return nil
}
