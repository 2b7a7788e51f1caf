// Package evidence 实现证据上传流水线：嵌入地理标签、过验证闸、
// 入库证据存储、更新资产字段并触发状态评估。
//
// 流水线是严格的先验证后入库：被拒绝的证据不会写入任何持久存储，
// 也不会改动资产字段。
package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/authenx/evidence-hub/database/models"
	"github.com/authenx/evidence-hub/internal/geotag"
	"github.com/authenx/evidence-hub/internal/verify"
	"github.com/authenx/evidence-hub/storage"
	"github.com/authenx/evidence-hub/utils/generator"
	"gorm.io/gorm"
)

// ErrAssetNotFound 资产不存在
var ErrAssetNotFound = errors.New("evidence: asset not found")

// ErrInvalidObjectPath 对象路径不属于该资产
var ErrInvalidObjectPath = errors.New("evidence: invalid object path")

// AssetStore 流水线需要的资产读写能力
type AssetStore interface {
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	SetAcceptedEvidence(ctx context.Context, id string, imageURL string, lat, lon float64, address string) error
	SetAcceptedEvidenceNoLocation(ctx context.Context, id string, imageURL string) error
}

// Verifier 真伪验证闸
type Verifier interface {
	VerifyBytes(ctx context.Context, assetID string, imageData []byte) verify.Result
}

// Geocoder 逆地理编码
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

// Evaluator 证据变更后触发的状态评估
type Evaluator interface {
	Evaluate(ctx context.Context, assetID string) (models.AssetStatus, error)
}

// Service 证据上传服务
type Service struct {
	assets   AssetStore
	store    storage.Provider
	verifier Verifier
	geocoder Geocoder
	status   Evaluator

	previewMaxWidth  int
	previewMaxHeight int

	now func() time.Time
}

// NewService 创建证据上传服务
func NewService(
	assets AssetStore,
	store storage.Provider,
	verifier Verifier,
	geocoder Geocoder,
	status Evaluator,
	previewMaxWidth int,
	previewMaxHeight int,
) *Service {
	if previewMaxWidth <= 0 {
		previewMaxWidth = 800
	}
	if previewMaxHeight <= 0 {
		previewMaxHeight = 800
	}
	return &Service{
		assets:           assets,
		store:            store,
		verifier:         verifier,
		geocoder:         geocoder,
		status:           status,
		previewMaxWidth:  previewMaxWidth,
		previewMaxHeight: previewMaxHeight,
		now:              time.Now,
	}
}

// SubmitResult 一次上传的结果
type SubmitResult struct {
	Accepted     bool
	Verification verify.Result
	ObjectPath   string
	URL          string
	Address      string
	Status       models.AssetStatus
}

// Submit 执行证据上传流水线
//
// 顺序：校验输入 -> 解析坐标并嵌入地理标签 -> 验证闸 -> （通过时）
// 写入存储 -> 生成预览 -> 逆地理编码 -> 整体更新资产字段 -> 状态评估。
// 验证拒绝不是 error，结果里带回拒绝原因。
func (s *Service) Submit(ctx context.Context, assetID string, capture Capture) (*SubmitResult, error) {
	if err := capture.Validate(); err != nil {
		return nil, err
	}

	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, assetID)
		}
		return nil, fmt.Errorf("failed to load asset %s: %w", assetID, err)
	}

	coords := capture.ResolveCoordinates()

	data := capture.Data
	if coords != nil {
		embedded, err := geotag.Embed(data, *coords)
		if err != nil {
			// 不是合法 JPEG，在任何网络调用之前终止
			return nil, fmt.Errorf("failed to embed geotag: %w", err)
		}
		data = embedded
	}

	result := s.verifier.VerifyBytes(ctx, assetID, data)
	if !result.IsReal {
		log.Printf("[Evidence] Asset %s: upload rejected (%s)", assetID, result.Reason)
		return &SubmitResult{
			Accepted:     false,
			Verification: result,
			Status:       asset.Status,
		}, nil
	}

	objectPath, err := s.saveEvidence(ctx, assetID, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store evidence for asset %s: %w", assetID, err)
	}

	previewURL := s.storePreview(ctx, assetID, data)
	if previewURL == "" {
		previewURL = s.store.PublicURL(objectPath)
	}

	address := ""
	if coords != nil {
		address = s.geocoder.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)
		err = s.assets.SetAcceptedEvidence(ctx, assetID, previewURL, coords.Latitude, coords.Longitude, address)
	} else {
		err = s.assets.SetAcceptedEvidenceNoLocation(ctx, assetID, previewURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update asset %s after accept: %w", assetID, err)
	}

	newStatus, err := s.status.Evaluate(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile status after upload: %w", err)
	}

	return &SubmitResult{
		Accepted:     true,
		Verification: result,
		ObjectPath:   objectPath,
		URL:          s.store.PublicURL(objectPath),
		Address:      address,
		Status:       newStatus,
	}, nil
}

// saveEvidence 以时间戳命名写入存储，路径冲突时重试
func (s *Service) saveEvidence(ctx context.Context, assetID string, data []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		objectPath := generator.EvidencePath(assetID, s.now().Add(time.Duration(attempt)*time.Millisecond))
		err := s.store.Save(ctx, objectPath, bytes.NewReader(data), int64(len(data)), "image/jpeg", false)
		if err == nil {
			return objectPath, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// storePreview 生成并覆盖写预览图，失败只记日志
func (s *Service) storePreview(ctx context.Context, assetID string, data []byte) string {
	preview, err := buildPreview(data, s.previewMaxWidth, s.previewMaxHeight)
	if err != nil {
		log.Printf("[Evidence] Failed to build preview for asset %s: %v", assetID, err)
		return ""
	}

	previewPath := generator.PreviewPath(assetID)
	if err := s.store.Save(ctx, previewPath, bytes.NewReader(preview), int64(len(preview)), "image/jpeg", true); err != nil {
		log.Printf("[Evidence] Failed to store preview for asset %s: %v", assetID, err)
		return ""
	}
	return s.store.PublicURL(previewPath)
}

// Item 一条证据记录
type Item struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// List 列出资产的全部证据
func (s *Service) List(ctx context.Context, assetID string) ([]Item, error) {
	objects, err := s.store.List(ctx, generator.AssetPrefix(assetID))
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence for asset %s: %w", assetID, err)
	}

	items := make([]Item, 0, len(objects))
	for _, obj := range objects {
		_, name, ok := generator.ParseEvidencePath(obj.Path)
		if !ok {
			continue
		}
		items = append(items, Item{
			Name:       name,
			Path:       obj.Path,
			URL:        s.store.PublicURL(obj.Path),
			Size:       obj.Size,
			UploadedAt: obj.LastModified,
		})
	}
	return items, nil
}

// Remove 删除一条证据并重新评估状态
//
// 路径必须落在该资产的命名空间内，不一致视为数据异常，记日志并
// 在改动任何状态之前终止。
func (s *Service) Remove(ctx context.Context, assetID, name string) (models.AssetStatus, error) {
	objectPath := generator.AssetPrefix(assetID) + name
	owner, _, ok := generator.ParseEvidencePath(objectPath)
	if !ok || owner != assetID {
		log.Printf("[Evidence] Refusing to delete malformed path %q for asset %s", objectPath, assetID)
		return "", ErrInvalidObjectPath
	}

	if err := s.store.Delete(ctx, objectPath); err != nil {
		return "", fmt.Errorf("failed to delete evidence %s: %w", objectPath, err)
	}

	newStatus, err := s.status.Evaluate(ctx, assetID)
	if err != nil {
		return "", fmt.Errorf("failed to reconcile status after deletion: %w", err)
	}
	return newStatus, nil
}
