package assets

import (
	"errors"
	"net/http"

	"github.com/authenx/evidence-hub/api/common"
	"github.com/authenx/evidence-hub/internal/status"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type reviewRequest struct {
	Decision string `json:"decision" binding:"required,oneof=grant reject"`
}

// ReviewAsset 人工审核：grant 将 pending 资产终局认证，reject 打回
func (h *Handler) ReviewAsset(c *gin.Context) {
	assetID := c.Param("id")

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.repo.GetByID(c.Request.Context(), assetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.RespondError(c, http.StatusNotFound, "Asset not found")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, "Failed to load asset")
		return
	}

	var err error
	if req.Decision == "grant" {
		err = h.reconciler.Grant(c.Request.Context(), assetID)
	} else {
		err = h.reconciler.Reject(c.Request.Context(), assetID)
	}
	if err != nil {
		if errors.Is(err, status.ErrInvalidTransition) {
			common.RespondError(c, http.StatusConflict, "Asset is not awaiting review")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	asset, err := h.repo.GetByID(c.Request.Context(), assetID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to load asset")
		return
	}

	common.RespondSuccess(c, gin.H{
		"status":      asset.Status,
		"verified_at": asset.VerifiedAt,
	})
}
