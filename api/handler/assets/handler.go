package assets

import (
	assetsRepo "github.com/authenx/evidence-hub/database/repo/assets"
	"github.com/authenx/evidence-hub/internal/checklist"
	"github.com/authenx/evidence-hub/internal/evidence"
	"github.com/authenx/evidence-hub/internal/status"
)

// Handler 资产处理器
type Handler struct {
	repo       *assetsRepo.Repository
	evidence   *evidence.Service
	checklist  *checklist.Service
	reconciler *status.Reconciler
}

// NewHandler 资产处理器
func NewHandler(repo *assetsRepo.Repository, evidenceSvc *evidence.Service, checklistSvc *checklist.Service, reconciler *status.Reconciler) *Handler {
	return &Handler{
		repo:       repo,
		evidence:   evidenceSvc,
		checklist:  checklistSvc,
		reconciler: reconciler,
	}
}
