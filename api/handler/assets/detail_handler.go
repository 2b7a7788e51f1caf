package assets

import (
	"errors"
	"net/http"

	"github.com/authenx/evidence-hub/api/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetAsset 获取资产详情（含文档清单和证据列表）
func (h *Handler) GetAsset(c *gin.Context) {
	assetID := c.Param("id")

	asset, err := h.repo.GetWithDocuments(c.Request.Context(), assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.RespondError(c, http.StatusNotFound, "Asset not found")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, "Failed to load asset")
		return
	}

	items, err := h.evidence.List(c.Request.Context(), assetID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to list evidence")
		return
	}

	common.RespondSuccess(c, gin.H{
		"asset":    asset,
		"evidence": items,
	})
}
