package handlers

import (
	"dataset-hub-service/internal/adapters/primary/http/middleware"
	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

const defaultMaxUploadBytes = 2 << 30

type Handler struct {
	datasetSvc     *services.DatasetService
	promptSvc      *services.PromptService
	userSvc        *services.UserService
	maxUploadBytes int64
}

func New(
	datasetSvc *services.DatasetService,
	promptSvc *services.PromptService,
	userSvc *services.UserService,
	maxUploadBytes int64,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		datasetSvc:     datasetSvc,
		promptSvc:      promptSvc,
		userSvc:        userSvc,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes mounts every endpoint on r. guard runs in front of the
// endpoints that write on behalf of a user.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, guard ...gin.HandlerFunc) {
	write := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guard...), handler)
	}

	// Datasets
	r.POST("/upload", write(h.UploadDataset)...)
	r.POST("/upload/edit", write(h.EditDataset)...)
	r.DELETE("/datasets/:id", write(h.DeleteDataset)...)
	r.GET("/check-dataset-name/:uid/:name", h.CheckDatasetName)
	r.POST("/dataset-category", h.ListDatasetsByCategory)
	r.POST("/dataset-click", h.LogDatasetClick)

	// Prompts
	r.GET("/prompts", h.ListPrompts)
	r.POST("/prompts", write(h.SavePrompt)...)

	// Users
	r.POST("/register-uid", write(h.RegisterUID)...)
	r.GET("/user-avatar/:uid", h.GetAvatar)
	r.GET("/users/:username", h.GetProfile)
	r.GET("/user-profile/:uid", h.GetProfileByUID)
}

// authorize rejects requests whose token subject differs from uid. It is
// a no-op when the request was not authenticated.
func authorize(c *gin.Context, uid string) error {
	if sub, ok := middleware.Subject(c); ok && sub != uid {
		return domain.ErrForbidden
	}
	return nil
}
