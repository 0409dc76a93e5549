package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/form"
	"dataset-hub-service/internal/core/ports/output"
)

// IncomingFile is one uploaded file part. Name is the client file name,
// which for folder uploads is the relative path.
type IncomingFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type UploadCommand struct {
	UID         string
	Type        string
	DatasetID   string
	Name        string
	Description string
	Domain      string
	License     string
	FileType    string
	Vectorized  *domain.VectorizedSettings
	Files       map[domain.FileGroup][]IncomingFile
	IsFolder    bool
}

type EditCommand struct {
	UID        string
	DatasetID  string
	Group      domain.FileGroup
	Vectorized *domain.VectorizedSettings
	Files      []IncomingFile
}

type DatasetService struct {
	repo     ports.DatasetRepository
	users    ports.UserRepository
	blobs    ports.BlobStore
	archiver ports.Archiver
	events   ports.EventPublisher
}

func NewDatasetService(repo ports.DatasetRepository, users ports.UserRepository, blobs ports.BlobStore, archiver ports.Archiver, events ports.EventPublisher) *DatasetService {
	return &DatasetService{repo: repo, users: users, blobs: blobs, archiver: archiver, events: events}
}

func (s *DatasetService) owner(ctx context.Context, uid string) (*domain.User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, domain.ErrMissingUID
	}
	user, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user.Username == "" {
		return nil, domain.ErrUsernameMissing
	}
	return user, nil
}

func blobPrefix(username, name string) string {
	return username + "/" + domain.StorageName(name)
}

func blobKey(username, name string, g domain.FileGroup) string {
	return blobPrefix(username, name) + "/" + string(g) + ".zip"
}

// Upload stores a new dataset. The record is created first with no files,
// then every required group is packed into its own archive. If storage
// fails the record and its blobs are removed again.
func (s *DatasetService) Upload(ctx context.Context, cmd UploadCommand) (*domain.Dataset, error) {
	user, err := s.owner(ctx, cmd.UID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.License) == "" {
		return nil, domain.ErrMissingLicense
	}
	datasetType, err := domain.ParseDatasetType(cmd.Type)
	if err != nil {
		return nil, err
	}
	fileType, err := domain.ParseFileType(cmd.FileType)
	if err != nil {
		return nil, err
	}
	name := form.FormatName(strings.TrimSpace(cmd.Name))
	if name == "" {
		return nil, &domain.MissingFieldError{Field: "name", Label: "Dataset name"}
	}
	if err := requireGroups(datasetType, cmd.Files); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByName(ctx, cmd.UID, name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrNameConflict
	}

	if err := sniffGroup(fileType, cmd.Files[domain.GroupRaw]); err != nil {
		return nil, err
	}

	now := time.Now()
	ds := &domain.Dataset{
		ID:          cmd.DatasetID,
		UID:         cmd.UID,
		Username:    user.Username,
		Name:        name,
		Description: cmd.Description,
		Domain:      cmd.Domain,
		FileType:    fileType,
		License:     cmd.License,
		UploadType:  datasetType.UploadType(),
		Files:       domain.DatasetFiles{Raw: []string{}, Vectorized: []string{}},
		IsFolder:    cmd.IsFolder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	if datasetType.RequiresVectorization() {
		ds.Vectorized = cmd.Vectorized
	}

	// The row reserves the name. A concurrent upload of the same name
	// fails here, before it writes any blob.
	if err := s.repo.Create(ctx, ds); err != nil {
		return nil, err
	}

	files, err := s.storeGroups(ctx, user.Username, name, datasetType.Groups(), cmd.Files, cmd.IsFolder)
	if err != nil {
		s.discard(ctx, ds)
		return nil, err
	}
	ds.Files = files
	if err := s.repo.UpdateFiles(ctx, ds); err != nil {
		s.discard(ctx, ds)
		return nil, err
	}

	log.WithFields(log.Fields{
		"dataset_id":  ds.ID,
		"username":    ds.Username,
		"upload_type": ds.UploadType,
		"is_folder":   ds.IsFolder,
	}).Info("dataset uploaded")
	s.publish(ctx, ports.Event{Type: ports.EventDatasetUploaded, DatasetID: ds.ID, Username: ds.Username, Name: ds.Name})

	return ds, nil
}

func requireGroups(t domain.DatasetType, files map[domain.FileGroup][]IncomingFile) error {
	groups := t.Groups()
	missing := 0
	for _, g := range groups {
		if len(files[g]) == 0 {
			missing++
		}
	}
	switch {
	case missing == len(groups):
		return domain.ErrNoFilesSelected
	case missing > 0:
		return domain.ErrIncompleteBoth
	}
	return nil
}

func (s *DatasetService) storeGroups(ctx context.Context, username, name string, groups []domain.FileGroup, files map[domain.FileGroup][]IncomingFile, keepPaths bool) (domain.DatasetFiles, error) {
	urls := make([]string, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() error {
			url, err := s.storeGroup(gctx, username, name, group, files[group], keepPaths)
			urls[i] = url
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return domain.DatasetFiles{}, err
	}

	out := domain.DatasetFiles{Raw: []string{}, Vectorized: []string{}}
	for i, group := range groups {
		out.SetGroup(group, []string{urls[i]})
	}
	return out, nil
}

func (s *DatasetService) storeGroup(ctx context.Context, username, name string, group domain.FileGroup, files []IncomingFile, keepPaths bool) (string, error) {
	entries := make([]ports.ArchiveEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, ports.ArchiveEntry{Name: archivePath(group, f.Name, keepPaths), Open: f.Open})
	}

	archive, size, cleanup, err := s.archiver.Pack(entries)
	if err != nil {
		return "", fmt.Errorf("pack %s files: %w", group, err)
	}
	defer cleanup()

	url, err := s.blobs.Put(ctx, blobKey(username, name, group), archive, size, "application/zip")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrBlobStorageFailed, err)
	}
	return url, nil
}

// archivePath keeps folder structure under "<group>/" for folder uploads
// and flattens plain uploads to their base name.
func archivePath(group domain.FileGroup, name string, keepPaths bool) string {
	clean := strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	if keepPaths && strings.Contains(clean, "/") {
		return string(group) + "/" + clean
	}
	return path.Base(clean)
}

// discard undoes a reserved upload. Only the reserving attempt may write
// under the dataset prefix, so removing it cannot touch another record.
func (s *DatasetService) discard(ctx context.Context, ds *domain.Dataset) {
	ctx = context.WithoutCancel(ctx)
	prefix := blobPrefix(ds.Username, ds.Name)
	if err := s.blobs.DeletePrefix(ctx, prefix); err != nil {
		log.WithError(err).WithField("prefix", prefix).Error("failed to remove dataset blobs")
	}
	if err := s.repo.Delete(ctx, ds.ID); err != nil {
		log.WithError(err).WithField("dataset_id", ds.ID).Error("failed to release dataset name")
	}
}

// sniffGroup checks the magic bytes of raw media files against the
// declared file type. Text datasets are not sniffed.
func sniffGroup(ft domain.FileType, files []IncomingFile) error {
	if ft == domain.FileTypeText {
		return nil
	}
	for _, f := range files {
		head, err := readHead(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		if !matchesFileType(ft, head) {
			return fmt.Errorf("%w: %s", domain.ErrContentTypeMismatch, path.Base(f.Name))
		}
	}
	return nil
}

func readHead(f IncomingFile) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := make([]byte, 262)
	n, err := io.ReadFull(rc, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

func matchesFileType(ft domain.FileType, head []byte) bool {
	switch ft {
	case domain.FileTypeImage:
		return filetype.IsImage(head)
	case domain.FileTypeAudio:
		return filetype.IsAudio(head)
	case domain.FileTypeVideo:
		// .ogg is a valid video extension but sniffs as audio
		return filetype.IsVideo(head) || filetype.Is(head, "ogg")
	}
	return true
}

// Edit replaces one group's archive and recomputes the upload type from
// the groups that hold files. An edit that makes the dataset vectorized
// must carry settings unless the dataset already has them.
func (s *DatasetService) Edit(ctx context.Context, cmd EditCommand) (*domain.Dataset, error) {
	user, err := s.owner(ctx, cmd.UID)
	if err != nil {
		return nil, err
	}
	if len(cmd.Files) == 0 {
		return nil, domain.ErrNoFilesSelected
	}
	ds, err := s.repo.GetByID(ctx, cmd.DatasetID)
	if err != nil {
		return nil, err
	}
	if ds.UID != cmd.UID {
		return nil, domain.ErrForbidden
	}

	files := ds.Files
	files.SetGroup(cmd.Group, []string{"pending"})
	uploadType := files.EffectiveUploadType(ds.UploadType)
	vectorized := ds.Vectorized
	if uploadType != domain.UploadTypeRaw {
		if cmd.Vectorized != nil {
			vectorized = cmd.Vectorized
		}
		if vectorized == nil {
			return nil, &domain.MissingFieldError{Field: "dimensions", Label: "Dimensions"}
		}
	}

	if cmd.Group == domain.GroupRaw {
		if err := sniffGroup(ds.FileType, cmd.Files); err != nil {
			return nil, err
		}
	}

	url, err := s.storeGroup(ctx, user.Username, ds.Name, cmd.Group, cmd.Files, false)
	if err != nil {
		return nil, err
	}

	ds.Files.SetGroup(cmd.Group, []string{url})
	ds.UploadType = uploadType
	ds.Vectorized = vectorized
	if err := s.repo.UpdateFiles(ctx, ds); err != nil {
		return nil, err
	}
	ds.UpdatedAt = time.Now()

	s.publish(ctx, ports.Event{
		Type:       ports.EventDatasetEdited,
		DatasetID:  ds.ID,
		Username:   ds.Username,
		Name:       ds.Name,
		Attributes: map[string]string{"group": string(cmd.Group), "upload_type": string(ds.UploadType)},
	})
	return ds, nil
}

// Delete removes a dataset and its blobs. A non-empty uid must own the
// dataset.
func (s *DatasetService) Delete(ctx context.Context, id, uid string) error {
	ds, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if uid != "" && ds.UID != uid {
		return domain.ErrForbidden
	}
	if err := s.blobs.DeletePrefix(ctx, blobPrefix(ds.Username, ds.Name)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBlobStorageFailed, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, ports.Event{Type: ports.EventDatasetDeleted, DatasetID: ds.ID, Username: ds.Username, Name: ds.Name})
	return nil
}

const (
	nameAvailableMessage = "Dataset name is available"
	nameTakenMessage     = "Dataset name already exists"
)

// CheckName reports whether uid can use name. The name is formatted the
// same way the upload form formats it.
func (s *DatasetService) CheckName(ctx context.Context, uid, name string) (bool, string, error) {
	if strings.TrimSpace(uid) == "" {
		return false, "", domain.ErrMissingUID
	}
	formatted := form.FormatName(strings.TrimSpace(name))
	if formatted == "" {
		return false, "", &domain.MissingFieldError{Field: "name", Label: "Dataset name"}
	}
	taken, err := s.repo.ExistsByName(ctx, uid, formatted)
	if err != nil {
		return false, "", err
	}
	if taken {
		return false, nameTakenMessage, nil
	}
	return true, nameAvailableMessage, nil
}

// ListByCategory returns datasets of one file type, or all of them for
// "all".
func (s *DatasetService) ListByCategory(ctx context.Context, category string) ([]*domain.Dataset, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, domain.ErrInvalidCategory
	}
	if strings.EqualFold(category, "all") {
		return s.repo.ListByFileType(ctx, "")
	}
	ft, err := domain.ParseFileType(category)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByFileType(ctx, ft)
}

// RecordClick resolves the dataset a visitor opened and counts the visit.
// Counting is best-effort; the dataset is returned either way.
func (s *DatasetService) RecordClick(ctx context.Context, owner ports.DatasetOwner) (*domain.Dataset, error) {
	if owner.UID == "" && owner.Username == "" {
		return nil, domain.ErrMissingUID
	}
	if owner.Name == "" {
		return nil, &domain.MissingFieldError{Field: "datasetName", Label: "Dataset name"}
	}
	ds, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementClicks(ctx, ds.ID); err != nil {
		log.WithError(err).WithField("dataset_id", ds.ID).Warn("failed to record dataset click")
	} else {
		ds.Clicks++
	}
	s.publish(ctx, ports.Event{Type: ports.EventDatasetClicked, DatasetID: ds.ID, Username: ds.Username, Name: ds.Name})
	return ds, nil
}

func (s *DatasetService) publish(ctx context.Context, e ports.Event) {
	if s.events == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	if err := s.events.Publish(ctx, e); err != nil {
		log.WithError(err).WithField("event", e.Type).Warn("failed to publish event")
	}
}
