package submission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/form"
	"dataset-hub-service/internal/core/ports/output"
	"dataset-hub-service/internal/core/selection"
	"dataset-hub-service/internal/core/upload"
)

const (
	UploadFallback    = "Failed to upload dataset"
	PromptFallback    = "Failed to save prompt"
	UploadSuccess     = "Dataset uploaded successfully!"
	PromptSaveSuccess = "Prompt saved successfully!"
)

func profilePath(username string) string {
	return "/" + username
}

// DatasetUploadTask validates the dataset form and selection and uploads
// every required group in one request.
type DatasetUploadTask struct {
	API       ports.DatasetUploader
	Identity  ports.Identity
	Form      *form.DatasetForm
	Type      domain.DatasetType
	Selection *selection.Selection
	// Checker is optional; when set its last result is refreshed by the
	// submit-time check.
	Checker *form.NameChecker
	// Username is the signed-in user's handle, used for the destination.
	Username string
	Now      func() time.Time
}

func (t *DatasetUploadTask) Fallback() string       { return UploadFallback }
func (t *DatasetUploadTask) SuccessMessage() string { return UploadSuccess }

func (t *DatasetUploadTask) Prepare(ctx context.Context) (*Plan, error) {
	uid := t.Identity.CurrentUserID()
	if uid == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if err := form.ValidateRequiredFields(t.Form, t.Type); err != nil {
		return nil, err
	}

	groups := t.Type.Groups()
	mode, err := t.Selection.UploadMode(groups...)
	if err != nil {
		return nil, err
	}
	files := make(map[domain.FileGroup][]selection.File, len(groups))
	missing := 0
	for _, g := range groups {
		files[g] = t.Selection.Files(g)
		if len(files[g]) == 0 {
			missing++
		}
	}
	switch {
	case missing == len(groups):
		return nil, domain.ErrNoFilesSelected
	case missing > 0:
		return nil, domain.ErrIncompleteBoth
	}

	if err := t.recheckName(ctx, uid); err != nil {
		return nil, err
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	req, err := upload.Build(upload.Metadata{DatasetForm: *t.Form, Type: t.Type}, uid, files, mode, now())
	if err != nil {
		return nil, err
	}

	dest := "/datasets/" + req.DatasetID
	if t.Username != "" {
		dest = profilePath(t.Username)
	}
	return &Plan{
		Calls: []Call{func(ctx context.Context) error {
			if d := req.Timeout(); d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}
			res, err := t.API.Upload(ctx, req)
			if err != nil {
				return err
			}
			if !res.Success {
				return &domain.APIError{Op: "upload", Message: res.Message}
			}
			return nil
		}},
		Destination: dest,
	}, nil
}

// recheckName runs the authoritative submit-time check, whatever the
// debounced check last said.
func (t *DatasetUploadTask) recheckName(ctx context.Context, uid string) error {
	var (
		available bool
		err       error
	)
	if t.Checker != nil {
		res := t.Checker.CheckNow(ctx, t.Form.Name)
		available, err = res.Available, res.Err
	} else {
		available, _, err = t.API.CheckDatasetName(ctx, uid, t.Form.Name)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNameNotConfirmed, err)
	}
	if !available {
		return domain.ErrNameConflict
	}
	return nil
}

// PromptSaveTask saves one prompt.
type PromptSaveTask struct {
	API      ports.PromptSaver
	Identity ports.Identity
	Form     *form.PromptForm
	Username string
}

func (t *PromptSaveTask) Fallback() string       { return PromptFallback }
func (t *PromptSaveTask) SuccessMessage() string { return PromptSaveSuccess }

func (t *PromptSaveTask) Prepare(ctx context.Context) (*Plan, error) {
	uid := t.Identity.CurrentUserID()
	if uid == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if t.Username == "" {
		return nil, domain.ErrUsernameMissing
	}
	if err := form.ValidatePromptForm(t.Form); err != nil {
		return nil, err
	}

	req := ports.SavePromptRequest{
		UID:      uid,
		Username: t.Username,
		Name:     strings.TrimSpace(t.Form.Name),
		Prompt:   strings.TrimSpace(t.Form.Body),
		Domain:   t.Form.Domain,
	}
	return &Plan{
		Calls: []Call{func(ctx context.Context) error {
			_, err := t.API.SavePrompt(ctx, req)
			return err
		}},
		Destination: profilePath(t.Username),
	}, nil
}
