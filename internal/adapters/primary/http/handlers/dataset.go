package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dataset-hub-service/internal/adapters/primary/http/dto"
	"dataset-hub-service/internal/adapters/primary/http/middleware"
	"dataset-hub-service/internal/core/domain"
	output "dataset-hub-service/internal/core/ports/output"
)

const (
	uploadSuccessMessage = "Dataset uploaded successfully"
	editSuccessMessage   = "Dataset updated successfully"
)

func (h *Handler) multipartForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload is too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return false
	}
	return true
}

func (h *Handler) UploadDataset(c *gin.Context) {
	if !h.multipartForm(c) {
		return
	}
	defer c.Request.MultipartForm.RemoveAll()

	cmd, err := parseUploadForm(c.Request.MultipartForm)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	if err := authorize(c, cmd.UID); err != nil {
		mapDomainError(c, err)
		return
	}

	ds, err := h.datasetSvc.Upload(c.Request.Context(), cmd)
	if err != nil {
		log.WithError(err).WithField("uid", cmd.UID).Error("upload dataset failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUploadResponse(ds, uploadSuccessMessage))
}

func (h *Handler) EditDataset(c *gin.Context) {
	if !h.multipartForm(c) {
		return
	}
	defer c.Request.MultipartForm.RemoveAll()

	cmd, err := parseEditForm(c.Request.MultipartForm)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	if err := authorize(c, cmd.UID); err != nil {
		mapDomainError(c, err)
		return
	}

	ds, err := h.datasetSvc.Edit(c.Request.Context(), cmd)
	if err != nil {
		log.WithError(err).WithField("dataset_id", cmd.DatasetID).Error("edit dataset failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUploadResponse(ds, editSuccessMessage))
}

// DeleteDataset takes the owner from the token, or from the uid query
// parameter when auth is disabled.
func (h *Handler) DeleteDataset(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("uid"))
	if sub, ok := middleware.Subject(c); ok {
		if uid != "" && uid != sub {
			mapDomainError(c, domain.ErrForbidden)
			return
		}
		uid = sub
	}
	if uid == "" {
		mapDomainError(c, domain.ErrMissingUID)
		return
	}

	if err := h.datasetSvc.Delete(c.Request.Context(), c.Param("id"), uid); err != nil {
		log.WithError(err).WithField("dataset_id", c.Param("id")).Error("delete dataset failed")
		mapDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CheckDatasetName(c *gin.Context) {
	available, message, err := h.datasetSvc.CheckName(c.Request.Context(), c.Param("uid"), c.Param("name"))
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NameCheckResponse{Available: available, Message: message})
}

func (h *Handler) ListDatasetsByCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	datasets, err := h.datasetSvc.ListByCategory(c.Request.Context(), req.Category)
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDatasetsResponse(datasets))
}

func (h *Handler) LogDatasetClick(c *gin.Context) {
	var req dto.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ds, err := h.datasetSvc.RecordClick(c.Request.Context(), output.DatasetOwner{
		UID:      req.UID,
		Username: req.Username,
		Name:     req.DatasetName,
	})
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}
