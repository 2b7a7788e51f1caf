package assets

import (
	"net/http"

	"github.com/authenx/evidence-hub/api/common"
	"github.com/authenx/evidence-hub/database/models"
	"github.com/gin-gonic/gin"
)

type createAssetRequest struct {
	Name              string   `json:"name" binding:"required,max=255"`
	OwnerID           string   `json:"owner_id" binding:"required,max=36"`
	RequiredDocuments []string `json:"required_documents" binding:"max=50,dive,required,max=255"`
}

// CreateAsset 创建资产和必备文档清单
func (h *Handler) CreateAsset(c *gin.Context) {
	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	asset := &models.Asset{
		Name:    req.Name,
		OwnerID: req.OwnerID,
	}
	if err := h.repo.CreateWithDocuments(c.Request.Context(), asset, req.RequiredDocuments); err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to create asset")
		return
	}

	created, err := h.repo.GetWithDocuments(c.Request.Context(), asset.ID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to load created asset")
		return
	}

	common.RespondSuccess(c, created)
}

// ListAssets 按所有者列出资产
func (h *Handler) ListAssets(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		common.RespondError(c, http.StatusBadRequest, "Query parameter 'owner_id' is required")
		return
	}

	list, err := h.repo.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to list assets")
		return
	}

	common.RespondSuccess(c, gin.H{"assets": list})
}
