package assets

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/authenx/evidence-hub/api/common"
	"github.com/authenx/evidence-hub/config"
	"github.com/authenx/evidence-hub/internal/evidence"
	"github.com/authenx/evidence-hub/internal/geotag"
	"github.com/authenx/evidence-hub/storage"
	"github.com/gin-gonic/gin"
)

// UploadEvidence 处理证据上传
//
// multipart 字段：file（必填）、source（camera|gallery|drop）、
// latitude/longitude（可选，必须成对出现）。
func (h *Handler) UploadEvidence(c *gin.Context) {
	assetID := c.Param("id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "File is required under the 'file' key")
		return
	}

	maxSize := int64(config.Get().UploadMaxSizeMB) << 20
	if fileHeader.Size > maxSize {
		common.RespondError(c, http.StatusRequestEntityTooLarge, "File exceeds maximum allowed size")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to open uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	coords, err := parseCoordinates(c)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	capture := evidence.Capture{
		Source:      evidence.SourceKind(c.DefaultPostForm("source", string(evidence.SourceCamera))),
		FileName:    fileHeader.Filename,
		Data:        data,
		Coordinates: coords,
	}

	result, err := h.evidence.Submit(c.Request.Context(), assetID, capture)
	if err != nil {
		switch {
		case errors.Is(err, evidence.ErrAssetNotFound):
			common.RespondError(c, http.StatusNotFound, "Asset not found")
		case errors.Is(err, evidence.ErrEmptyCapture), errors.Is(err, geotag.ErrNotJPEG):
			common.RespondError(c, http.StatusBadRequest, err.Error())
		default:
			common.RespondError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if !result.Accepted {
		// 验证拒绝走 422，带回拒绝原因和分数
		common.RespondRejected(c, result.Verification.Reason, gin.H{
			"accepted": false,
			"score":    result.Verification.Score,
			"status":   result.Status,
		})
		return
	}

	common.RespondSuccess(c, gin.H{
		"accepted": true,
		"score":    result.Verification.Score,
		"path":     result.ObjectPath,
		"url":      result.URL,
		"address":  result.Address,
		"status":   result.Status,
	})
}

// ListEvidence 列出资产的全部证据
func (h *Handler) ListEvidence(c *gin.Context) {
	assetID := c.Param("id")

	items, err := h.evidence.List(c.Request.Context(), assetID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to list evidence")
		return
	}

	common.RespondSuccess(c, gin.H{"evidence": items})
}

// DeleteEvidence 删除一条证据并返回重新评估后的状态
func (h *Handler) DeleteEvidence(c *gin.Context) {
	assetID := c.Param("id")
	name := c.Param("name")

	newStatus, err := h.evidence.Remove(c.Request.Context(), assetID, name)
	if err != nil {
		switch {
		case errors.Is(err, evidence.ErrInvalidObjectPath):
			common.RespondError(c, http.StatusBadRequest, "Invalid evidence name")
		case errors.Is(err, storage.ErrNotFound):
			common.RespondError(c, http.StatusNotFound, "Evidence not found")
		default:
			common.RespondError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	common.RespondSuccess(c, gin.H{"status": newStatus})
}

// parseCoordinates 解析可选的 latitude/longitude 表单字段
func parseCoordinates(c *gin.Context) (*geotag.Coordinates, error) {
	latStr := c.PostForm("latitude")
	lonStr := c.PostForm("longitude")

	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, errors.New("latitude and longitude must be provided together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, errors.New("invalid latitude")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, errors.New("invalid longitude")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, errors.New("coordinates out of range")
	}

	return &geotag.Coordinates{Latitude: lat, Longitude: lon}, nil
}
