// Package checklist 维护资产的必备文档清单。
package checklist

import (
	"context"
	"fmt"
	"time"

	"github.com/authenx/evidence-hub/database/models"
)

// DocumentStore 清单项读写能力
type DocumentStore interface {
	GetByID(ctx context.Context, id string) (*models.RequiredDocument, error)
	SetUploaded(ctx context.Context, id string, uploaded bool, at *time.Time) error
}

// Evaluator 清单变更后触发的状态评估
type Evaluator interface {
	Evaluate(ctx context.Context, assetID string) (models.AssetStatus, error)
}

// Service 清单服务
type Service struct {
	documents DocumentStore
	status    Evaluator
}

// NewService 创建清单服务
func NewService(documents DocumentStore, status Evaluator) *Service {
	return &Service{
		documents: documents,
		status:    status,
	}
}

// ToggleResult 切换结果
type ToggleResult struct {
	Document *models.RequiredDocument
	Status   models.AssetStatus
}

// Toggle 设置清单项的上传标记并触发状态评估
//
// is_uploaded 与 uploaded_at 在一次更新中写入：置真打时间戳，置假
// 清空。重复置同一值只刷新时间戳，无其他副作用。
func (s *Service) Toggle(ctx context.Context, documentID string, uploaded bool) (*ToggleResult, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	var at *time.Time
	if uploaded {
		now := time.Now()
		at = &now
	}

	if err := s.documents.SetUploaded(ctx, documentID, uploaded, at); err != nil {
		return nil, fmt.Errorf("failed to update document %s: %w", documentID, err)
	}

	doc.IsUploaded = uploaded
	doc.UploadedAt = at

	newStatus, err := s.status.Evaluate(ctx, doc.AssetID)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile status after toggle: %w", err)
	}

	return &ToggleResult{
		Document: doc,
		Status:   newStatus,
	}, nil
}
