package dto

import (
	"dataset-hub-service/internal/core/domain"
)

// ============================================================================
// Request DTOs
// ============================================================================

// CategoryRequest selects datasets by file type, or "all".
type CategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// ClickRequest identifies the opened dataset by owner uid or username.
type ClickRequest struct {
	UID         string `json:"uid"`
	Username    string `json:"username"`
	DatasetName string `json:"datasetName" binding:"required"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// UploadResponse is returned by both upload and edit.
type UploadResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Files     []string `json:"files"`
	DatasetID string   `json:"datasetId,omitempty"`
}

type NameCheckResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

type DatasetsResponse struct {
	Datasets []*domain.Dataset `json:"datasets"`
}

func ToUploadResponse(ds *domain.Dataset, message string) UploadResponse {
	return UploadResponse{
		Success:   true,
		Message:   message,
		Files:     ds.Files.All(),
		DatasetID: ds.ID,
	}
}

func ToDatasetsResponse(datasets []*domain.Dataset) DatasetsResponse {
	if datasets == nil {
		datasets = []*domain.Dataset{}
	}
	return DatasetsResponse{Datasets: datasets}
}
