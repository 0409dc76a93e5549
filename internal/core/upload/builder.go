package upload

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/form"
	"dataset-hub-service/internal/core/selection"
)

const FolderTimeout = 5 * time.Minute

// Metadata is the validated form plus its declared dataset type.
type Metadata struct {
	form.DatasetForm
	Type domain.DatasetType
}

// DatasetInfo is the nested dataset_info object of the datasetInfo field.
type DatasetInfo struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Domain         string `json:"domain"`
	License        string `json:"license"`
	FileType       string `json:"file_type"`
	ModelName      string `json:"model_name,omitempty"`
	Dimensions     *int   `json:"dimensions,omitempty"`
	VectorDatabase string `json:"vector_database,omitempty"`
	DatasetID      string `json:"datasetId"`
	IsEdit         bool   `json:"isEdit"`
}

// Envelope is the JSON carried in the datasetInfo form field.
type Envelope struct {
	UID            string      `json:"uid"`
	Dimensions     *int        `json:"dimensions,omitempty"`
	VectorDatabase string      `json:"vector_database,omitempty"`
	ModelName      string      `json:"model_name,omitempty"`
	DatasetInfo    DatasetInfo `json:"dataset_info"`
}

// FoldersMeta is the folders_meta form field.
type FoldersMeta struct {
	Raw        []string `json:"raw"`
	Vectorized []string `json:"vectorized"`
}

// Field is a plain form value.
type Field struct {
	Name  string
	Value string
}

// Part is one file attached under Field. FileName is the relative path for
// folder uploads and the base name otherwise.
type Part struct {
	Field    string
	FileName string
	File     selection.File
}

// Request is a transport-ready upload. Nothing is read from disk until
// Encode is called.
type Request struct {
	Path      string
	Type      domain.UploadType
	DatasetID string
	IsFolder  bool
	Fields    []Field
	Parts     []Part

	opener Opener
}

// DatasetID returns name + "_" + epoch milliseconds of now.
func DatasetID(name string, now time.Time) string {
	return name + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

func fileField(t domain.UploadType, g domain.FileGroup) string {
	if t == domain.UploadTypeBoth {
		return string(g) + "_files"
	}
	return "files"
}

func folderField(t domain.UploadType, g domain.FileGroup) string {
	if t == domain.UploadTypeBoth {
		return string(g) + "_folder_names"
	}
	return "folder_names"
}

// Build assembles the POST /upload request. Only the groups required by
// meta.Type are attached; groups with no files are skipped.
func Build(meta Metadata, uid string, groups map[domain.FileGroup][]selection.File, mode selection.Mode, now time.Time) (*Request, error) {
	uploadType := meta.Type.UploadType()

	var dims *int
	if raw := strings.TrimSpace(meta.Dimensions); raw != "" || meta.Type.RequiresVectorization() {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &domain.InvalidNumericFieldError{Field: "dimensions", Value: meta.Dimensions}
		}
		dims = &n
	}

	req := &Request{
		Path:      "/upload",
		Type:      uploadType,
		DatasetID: DatasetID(meta.Name, now),
		IsFolder:  mode == selection.ModeFolders,
	}

	foldersMeta := FoldersMeta{Raw: []string{}, Vectorized: []string{}}
	for _, g := range meta.Type.Groups() {
		files := groups[g]
		if len(files) == 0 {
			continue
		}
		field := fileField(uploadType, g)

		if !req.IsFolder {
			for _, f := range files {
				req.Parts = append(req.Parts, Part{Field: field, FileName: f.Name, File: f})
			}
			continue
		}

		grouped, err := selection.GroupByTopLevelFolder(files)
		if err != nil {
			return nil, err
		}
		for _, name := range grouped.Names() {
			req.Fields = append(req.Fields, Field{Name: folderField(uploadType, g), Value: name})
			for _, f := range grouped.Files(name) {
				req.Parts = append(req.Parts, Part{Field: field, FileName: f.RelativePath, File: f})
			}
		}
		if g == domain.GroupVectorized {
			foldersMeta.Vectorized = grouped.Names()
		} else {
			foldersMeta.Raw = grouped.Names()
		}
	}
	if len(req.Parts) == 0 {
		return nil, domain.ErrNoFilesSelected
	}

	info := DatasetInfo{
		Name:        meta.Name,
		Description: meta.Description,
		Domain:      meta.Domain,
		License:     meta.License,
		FileType:    string(meta.FileType),
		DatasetID:   req.DatasetID,
	}
	env := Envelope{UID: uid, DatasetInfo: info}
	if meta.Type.RequiresVectorization() {
		env.Dimensions = dims
		env.VectorDatabase = meta.VectorDatabase
		env.ModelName = meta.ModelName
		env.DatasetInfo.Dimensions = dims
		env.DatasetInfo.VectorDatabase = meta.VectorDatabase
		env.DatasetInfo.ModelName = meta.ModelName
	}
	envJSON, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal dataset info: %w", err)
	}

	if req.IsFolder {
		metaJSON, err := json.Marshal(foldersMeta)
		if err != nil {
			return nil, fmt.Errorf("marshal folders meta: %w", err)
		}
		req.Fields = append(req.Fields, Field{Name: "folders_meta", Value: string(metaJSON)})
	}
	req.Fields = append(req.Fields,
		Field{Name: "type", Value: string(uploadType)},
		Field{Name: "datasetInfo", Value: string(envJSON)},
		Field{Name: "uid", Value: uid},
	)
	if req.IsFolder {
		req.Fields = append(req.Fields, Field{Name: "isFolder", Value: "true"})
	}
	return req, nil
}

// EditInfo is the datasetInfo JSON of POST /upload/edit. The vectorized
// settings are only needed when the edit adds vectorized files to a
// dataset that has none.
type EditInfo struct {
	DatasetID      string `json:"datasetId"`
	Name           string `json:"name"`
	Dimensions     *int   `json:"dimensions,omitempty"`
	VectorDatabase string `json:"vector_database,omitempty"`
	ModelName      string `json:"model_name,omitempty"`
}

// Vectorized returns the settings carried by the edit, or nil without
// dimensions.
func (e EditInfo) Vectorized() *domain.VectorizedSettings {
	if e.Dimensions == nil {
		return nil
	}
	return &domain.VectorizedSettings{
		Dimensions:     *e.Dimensions,
		VectorDatabase: e.VectorDatabase,
		ModelName:      e.ModelName,
	}
}

// BuildEdit assembles the POST /upload/edit request that replaces one
// group of an existing dataset.
func BuildEdit(edit EditInfo, uid string, group domain.FileGroup, files []selection.File) (*Request, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFilesSelected
	}
	info, err := json.Marshal(edit)
	if err != nil {
		return nil, fmt.Errorf("marshal edit info: %w", err)
	}
	uploadType := domain.UploadTypeRaw
	if group == domain.GroupVectorized {
		uploadType = domain.UploadTypeVectorized
	}
	req := &Request{
		Path:      "/upload/edit",
		Type:      uploadType,
		DatasetID: edit.DatasetID,
		Fields: []Field{
			{Name: "type", Value: string(uploadType)},
			{Name: "datasetInfo", Value: string(info)},
			{Name: "uid", Value: uid},
		},
	}
	for _, f := range files {
		req.Parts = append(req.Parts, Part{Field: string(group) + "_files", FileName: f.Name, File: f})
	}
	return req, nil
}

// Values returns every value sent under a plain field.
func (r *Request) Values(name string) []string {
	var out []string
	for _, f := range r.Fields {
		if f.Name == name {
			out = append(out, f.Value)
		}
	}
	return out
}

// PartsFor returns the file parts sent under field.
func (r *Request) PartsFor(field string) []Part {
	var out []Part
	for _, p := range r.Parts {
		if p.Field == field {
			out = append(out, p)
		}
	}
	return out
}

// Timeout is the extended deadline for folder uploads; zero means the
// transport default.
func (r *Request) Timeout() time.Duration {
	if r.IsFolder {
		return FolderTimeout
	}
	return 0
}
