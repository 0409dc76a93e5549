package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/services"
	"dataset-hub-service/internal/core/upload"
)

func formValue(form *multipart.Form, name string) string {
	if v := form.Value[name]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// partFileName returns the file name exactly as the client sent it.
// FileHeader.Filename keeps only the base name, which would drop the
// relative paths of folder uploads.
func partFileName(fh *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(fh.Header.Get("Content-Disposition"))
	if err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return fh.Filename
}

func incomingFiles(headers []*multipart.FileHeader) []services.IncomingFile {
	files := make([]services.IncomingFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, services.IncomingFile{
			Name: partFileName(fh),
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return files
}

// parseUploadForm reads the POST /upload body. Single-type uploads carry
// their files under "files"; Both uploads use "raw_files" and
// "vectorized_files".
func parseUploadForm(form *multipart.Form) (services.UploadCommand, error) {
	var env upload.Envelope
	if err := json.Unmarshal([]byte(formValue(form, "datasetInfo")), &env); err != nil {
		return services.UploadCommand{}, fmt.Errorf("%w: %v", domain.ErrInvalidDatasetInfo, err)
	}
	info := env.DatasetInfo

	cmd := services.UploadCommand{
		UID:         formValue(form, "uid"),
		Type:        formValue(form, "type"),
		DatasetID:   info.DatasetID,
		Name:        info.Name,
		Description: info.Description,
		Domain:      info.Domain,
		License:     info.License,
		FileType:    info.FileType,
		IsFolder:    formValue(form, "isFolder") == "true",
		Files:       map[domain.FileGroup][]services.IncomingFile{},
	}
	if cmd.UID == "" {
		cmd.UID = env.UID
	}

	datasetType, err := domain.ParseDatasetType(cmd.Type)
	if err != nil {
		return cmd, err
	}
	if datasetType == domain.DatasetTypeBoth {
		cmd.Files[domain.GroupRaw] = incomingFiles(form.File["raw_files"])
		cmd.Files[domain.GroupVectorized] = incomingFiles(form.File["vectorized_files"])
	} else {
		cmd.Files[datasetType.Groups()[0]] = incomingFiles(form.File["files"])
	}

	if datasetType.RequiresVectorization() {
		cmd.Vectorized = vectorSettings(env)
		if cmd.Vectorized == nil {
			return cmd, &domain.MissingFieldError{Field: "dimensions", Label: "Dimensions"}
		}
	}
	return cmd, nil
}

func vectorSettings(env upload.Envelope) *domain.VectorizedSettings {
	dims := env.Dimensions
	if dims == nil {
		dims = env.DatasetInfo.Dimensions
	}
	if dims == nil {
		return nil
	}
	v := &domain.VectorizedSettings{
		Dimensions:     *dims,
		VectorDatabase: env.VectorDatabase,
		ModelName:      env.ModelName,
	}
	if v.VectorDatabase == "" {
		v.VectorDatabase = env.DatasetInfo.VectorDatabase
	}
	if v.ModelName == "" {
		v.ModelName = env.DatasetInfo.ModelName
	}
	return v
}

// parseEditForm reads the POST /upload/edit body.
func parseEditForm(form *multipart.Form) (services.EditCommand, error) {
	var info upload.EditInfo
	if err := json.Unmarshal([]byte(formValue(form, "datasetInfo")), &info); err != nil {
		return services.EditCommand{}, fmt.Errorf("%w: %v", domain.ErrInvalidDatasetInfo, err)
	}
	if info.DatasetID == "" {
		return services.EditCommand{}, &domain.MissingFieldError{Field: "datasetId", Label: "Dataset ID"}
	}

	uploadType, err := domain.ParseUploadType(formValue(form, "type"))
	if err != nil {
		return services.EditCommand{}, err
	}
	group := domain.GroupRaw
	switch uploadType {
	case domain.UploadTypeVectorized:
		group = domain.GroupVectorized
	case domain.UploadTypeBoth:
		return services.EditCommand{}, domain.ErrInvalidDatasetType
	}

	return services.EditCommand{
		UID:        formValue(form, "uid"),
		DatasetID:  info.DatasetID,
		Group:      group,
		Vectorized: info.Vectorized(),
		Files:      incomingFiles(form.File[string(group)+"_files"]),
	}, nil
}
