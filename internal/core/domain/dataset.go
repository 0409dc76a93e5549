package domain

import (
	"strings"
	"time"
)

// DatasetType is the kind of data a dataset form declares.
type DatasetType string

const (
	DatasetTypeRaw        DatasetType = "Raw"
	DatasetTypeVectorized DatasetType = "Vectorized"
	DatasetTypeBoth       DatasetType = "Both"
)

// ParseDatasetType accepts both the form spelling ("Raw") and the wire
// spelling ("raw").
func ParseDatasetType(s string) (DatasetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw":
		return DatasetTypeRaw, nil
	case "vectorized":
		return DatasetTypeVectorized, nil
	case "both":
		return DatasetTypeBoth, nil
	}
	return "", ErrInvalidDatasetType
}

// RequiresVectorization reports whether vectorized settings are mandatory.
func (t DatasetType) RequiresVectorization() bool {
	return t == DatasetTypeVectorized || t == DatasetTypeBoth
}

// UploadType maps the form type onto the wire/storage type.
func (t DatasetType) UploadType() UploadType {
	switch t {
	case DatasetTypeVectorized:
		return UploadTypeVectorized
	case DatasetTypeBoth:
		return UploadTypeBoth
	default:
		return UploadTypeRaw
	}
}

// Groups lists the file groups a dataset of this type must carry.
func (t DatasetType) Groups() []FileGroup {
	switch t {
	case DatasetTypeVectorized:
		return []FileGroup{GroupVectorized}
	case DatasetTypeBoth:
		return []FileGroup{GroupRaw, GroupVectorized}
	default:
		return []FileGroup{GroupRaw}
	}
}

// UploadType is the lower-case type sent in the `type` form field and
// stored with the record.
type UploadType string

const (
	UploadTypeRaw        UploadType = "raw"
	UploadTypeVectorized UploadType = "vectorized"
	UploadTypeBoth       UploadType = "both"
)

func ParseUploadType(s string) (UploadType, error) {
	t, err := ParseDatasetType(s)
	if err != nil {
		return "", err
	}
	return t.UploadType(), nil
}

// FileGroup identifies one of the two file collections of a dataset.
type FileGroup string

const (
	GroupRaw        FileGroup = "raw"
	GroupVectorized FileGroup = "vectorized"
)

type VectorizedSettings struct {
	Dimensions     int    `json:"dimensions"`
	VectorDatabase string `json:"vector_database"`
	ModelName      string `json:"model_name"`
}

// DatasetFiles holds the stored archive URLs per group.
type DatasetFiles struct {
	Raw        []string `json:"raw"`
	Vectorized []string `json:"vectorized"`
}

func (f DatasetFiles) Group(g FileGroup) []string {
	if g == GroupVectorized {
		return f.Vectorized
	}
	return f.Raw
}

func (f *DatasetFiles) SetGroup(g FileGroup, urls []string) {
	if g == GroupVectorized {
		f.Vectorized = urls
		return
	}
	f.Raw = urls
}

// All returns raw URLs followed by vectorized URLs.
func (f DatasetFiles) All() []string {
	out := make([]string, 0, len(f.Raw)+len(f.Vectorized))
	out = append(out, f.Raw...)
	return append(out, f.Vectorized...)
}

// EffectiveUploadType derives the type from the groups that actually
// hold files. Both is only reported when both groups are non-empty.
func (f DatasetFiles) EffectiveUploadType(fallback UploadType) UploadType {
	hasRaw, hasVec := len(f.Raw) > 0, len(f.Vectorized) > 0
	switch {
	case hasRaw && hasVec:
		return UploadTypeBoth
	case hasRaw:
		return UploadTypeRaw
	case hasVec:
		return UploadTypeVectorized
	default:
		return fallback
	}
}

type Dataset struct {
	ID          string              `json:"dataset_id"`
	UID         string              `json:"uid"`
	Username    string              `json:"username"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Domain      string              `json:"domain"`
	FileType    FileType            `json:"file_type"`
	License     string              `json:"license"`
	UploadType  UploadType          `json:"upload_type"`
	Vectorized  *VectorizedSettings `json:"vectorized_settings,omitempty"`
	Files       DatasetFiles        `json:"files"`
	IsFolder    bool                `json:"is_folder"`
	Clicks      int64               `json:"clicks"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// IsComplete reports whether every group required by the upload type
// holds at least one stored file.
func (d *Dataset) IsComplete() bool {
	switch d.UploadType {
	case UploadTypeBoth:
		return len(d.Files.Raw) > 0 && len(d.Files.Vectorized) > 0
	case UploadTypeVectorized:
		return len(d.Files.Vectorized) > 0
	default:
		return len(d.Files.Raw) > 0
	}
}

// LastModified is the timestamp used for "latest" ordering.
func (d *Dataset) LastModified() time.Time {
	if d.UpdatedAt.IsZero() {
		return d.CreatedAt
	}
	return d.UpdatedAt
}

// StorageName is the name used for blob keys: underscores for
// whitespace, lower case.
func StorageName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}
