package catalog

import (
	"time"

	"dataset-hub-service/internal/core/domain"
)

const (
	ProfilePageSize = 6
	GridPageSize    = 12
	PreviewPageSize = 15
)

func datasetName(d *domain.Dataset) string        { return d.Name }
func datasetModified(d *domain.Dataset) time.Time { return d.LastModified() }
func promptName(p *domain.Prompt) string          { return p.Name }
func promptModified(p *domain.Prompt) time.Time   { return p.LastModified() }

// DatasetCatalog is the public dataset grid: search by name or domain,
// category is the file type.
var DatasetCatalog = Collection[*domain.Dataset]{
	PageSize:   GridPageSize,
	Name:       datasetName,
	Searchable: func(d *domain.Dataset) []string { return []string{d.Name, d.Domain} },
	Category:   func(d *domain.Dataset) string { return string(d.FileType) },
	Modified:   datasetModified,
}

// DatasetProfile lists one user's datasets.
var DatasetProfile = Collection[*domain.Dataset]{
	PageSize:   ProfilePageSize,
	Name:       datasetName,
	Searchable: func(d *domain.Dataset) []string { return []string{d.Name, d.Description} },
	Modified:   datasetModified,
}

var PromptCatalog = Collection[*domain.Prompt]{
	PageSize:   PreviewPageSize,
	Name:       promptName,
	Searchable: func(p *domain.Prompt) []string { return []string{p.Name, p.Domain} },
	Category:   func(p *domain.Prompt) string { return p.Domain },
	Modified:   promptModified,
}

var PromptProfile = Collection[*domain.Prompt]{
	PageSize:   ProfilePageSize,
	Name:       promptName,
	Searchable: func(p *domain.Prompt) []string { return []string{p.Name, p.Domain} },
	Modified:   promptModified,
}
