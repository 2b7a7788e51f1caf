package assets

import (
	"errors"
	"net/http"

	"github.com/authenx/evidence-hub/api/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type toggleDocumentRequest struct {
	IsUploaded *bool `json:"is_uploaded" binding:"required"`
}

// ToggleDocument 切换清单项的上传标记
func (h *Handler) ToggleDocument(c *gin.Context) {
	documentID := c.Param("id")

	var req toggleDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.checklist.Toggle(c.Request.Context(), documentID, *req.IsUploaded)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.RespondError(c, http.StatusNotFound, "Document not found")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	common.RespondSuccess(c, gin.H{
		"document": result.Document,
		"status":   result.Status,
	})
}
