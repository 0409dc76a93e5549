package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/ports/output"
	"dataset-hub-service/internal/testutil"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func memFile(name, content string) IncomingFile {
	return IncomingFile{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(content)), nil },
	}
}

type datasetDeps struct {
	repo     *testutil.MockDatasetRepo
	users    *testutil.MockUserRepo
	blobs    *testutil.MockBlobStore
	archiver *testutil.FakeArchiver
	events   *testutil.MockEventPublisher
	svc      *DatasetService
}

func newDatasetDeps() *datasetDeps {
	d := &datasetDeps{
		repo:     new(testutil.MockDatasetRepo),
		users:    new(testutil.MockUserRepo),
		blobs:    new(testutil.MockBlobStore),
		archiver: &testutil.FakeArchiver{},
		events:   new(testutil.MockEventPublisher),
	}
	d.svc = NewDatasetService(d.repo, d.users, d.blobs, d.archiver, d.events)
	d.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return d
}

func (d *datasetDeps) withUser() {
	d.users.On("GetByUID", mock.Anything, "uid-1").Return(&domain.User{UID: "uid-1", Username: "alice"}, nil)
}

func textUpload() UploadCommand {
	return UploadCommand{
		UID:         "uid-1",
		Type:        "raw",
		DatasetID:   "My_Study_1700000000000",
		Name:        "My Study",
		Description: "x",
		Domain:      "Health",
		License:     domain.Licenses[0],
		FileType:    "text",
		Files: map[domain.FileGroup][]IncomingFile{
			domain.GroupRaw: {memFile("data.csv", "a,b"), memFile("notes.txt", "hi")},
		},
	}
}

func TestDatasetService_Upload(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "My_Study").Return(false, nil)
	d.blobs.On("Put", mock.Anything, "alice/my_study/raw.zip", mock.Anything, "application/zip").
		Return("http://blob/alice/my_study/raw.zip", nil)
	d.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Dataset")).Return(nil)
	d.repo.On("UpdateFiles", mock.Anything, mock.MatchedBy(func(ds *domain.Dataset) bool {
		return ds.ID == "My_Study_1700000000000" && len(ds.Files.Raw) == 1
	})).Return(nil)

	ds, err := d.svc.Upload(context.Background(), textUpload())
	require.NoError(t, err)
	assert.Equal(t, "My_Study_1700000000000", ds.ID)
	assert.Equal(t, "My_Study", ds.Name)
	assert.Equal(t, "alice", ds.Username)
	assert.Equal(t, domain.UploadTypeRaw, ds.UploadType)
	assert.Equal(t, []string{"http://blob/alice/my_study/raw.zip"}, ds.Files.Raw)
	assert.Empty(t, ds.Files.Vectorized)
	assert.Nil(t, ds.Vectorized)
	assert.Equal(t, []string{"data.csv", "notes.txt"}, d.archiver.Entries())
	d.repo.AssertExpectations(t)
	d.blobs.AssertExpectations(t)
}

func TestDatasetService_Upload_FolderKeepsStructure(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "My_Study").Return(false, nil)
	d.blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("url", nil)
	d.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	d.repo.On("UpdateFiles", mock.Anything, mock.Anything).Return(nil)

	cmd := textUpload()
	cmd.IsFolder = true
	cmd.Files[domain.GroupRaw] = []IncomingFile{memFile("A/1.txt", "1"), memFile("B/x/2.txt", "2")}

	_, err := d.svc.Upload(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"raw/A/1.txt", "raw/B/x/2.txt"}, d.archiver.Entries())
}

func TestDatasetService_Upload_Both(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "My_Study").Return(false, nil)
	d.blobs.On("Put", mock.Anything, "alice/my_study/raw.zip", mock.Anything, mock.Anything).Return("raw-url", nil)
	d.blobs.On("Put", mock.Anything, "alice/my_study/vectorized.zip", mock.Anything, mock.Anything).Return("vec-url", nil)
	d.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	d.repo.On("UpdateFiles", mock.Anything, mock.Anything).Return(nil)

	cmd := textUpload()
	cmd.Type = "both"
	cmd.Vectorized = &domain.VectorizedSettings{Dimensions: 768, ModelName: "bert", VectorDatabase: "qdrant"}
	cmd.Files[domain.GroupVectorized] = []IncomingFile{memFile("v.npy", "\x93NUMPY")}

	ds, err := d.svc.Upload(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadTypeBoth, ds.UploadType)
	assert.True(t, ds.IsComplete())
	assert.Equal(t, []string{"raw-url"}, ds.Files.Raw)
	assert.Equal(t, []string{"vec-url"}, ds.Files.Vectorized)
	assert.Equal(t, 768, ds.Vectorized.Dimensions)
}

func TestDatasetService_Upload_BothMissingGroup(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	cmd := textUpload()
	cmd.Type = "both"

	_, err := d.svc.Upload(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrIncompleteBoth)
	d.blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDatasetService_Upload_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*UploadCommand)
		wantErr error
	}{
		{"missing uid", func(c *UploadCommand) { c.UID = "" }, domain.ErrMissingUID},
		{"missing license", func(c *UploadCommand) { c.License = "" }, domain.ErrMissingLicense},
		{"bad type", func(c *UploadCommand) { c.Type = "mixed" }, domain.ErrInvalidDatasetType},
		{"bad file type", func(c *UploadCommand) { c.FileType = "pdf" }, domain.ErrInvalidFileType},
		{"no files", func(c *UploadCommand) { c.Files = nil }, domain.ErrNoFilesSelected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDatasetDeps()
			d.withUser()
			cmd := textUpload()
			tt.mutate(&cmd)
			_, err := d.svc.Upload(context.Background(), cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDatasetService_Upload_UnknownUser(t *testing.T) {
	d := newDatasetDeps()
	d.users.On("GetByUID", mock.Anything, "uid-1").Return(nil, domain.ErrUserNotFound)

	_, err := d.svc.Upload(context.Background(), textUpload())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDatasetService_Upload_NameConflict(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "My_Study").Return(true, nil)

	_, err := d.svc.Upload(context.Background(), textUpload())
	assert.ErrorIs(t, err, domain.ErrNameConflict)
}

func TestDatasetService_Upload_ContentMismatch(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "My_Study").Return(false, nil)

	cmd := textUpload()
	cmd.FileType = "image"
	cmd.Files[domain.GroupRaw] = []IncomingFile{memFile("ok.png", pngHeader), memFile("fake.png", "not an image")}

	_, err := d.svc.Upload(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrContentTypeMismatch)
	assert.ErrorContains(t, err, "fake.png")
}

func TestDatasetService_Upload_StorageFailureReleasesName(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "My_Study").Return(false, nil)
	d.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	d.blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("503"))
	d.blobs.On("DeletePrefix", mock.Anything, "alice/my_study").Return(nil).Once()
	d.repo.On("Delete", mock.Anything, "My_Study_1700000000000").Return(nil).Once()

	_, err := d.svc.Upload(context.Background(), textUpload())
	assert.ErrorIs(t, err, domain.ErrBlobStorageFailed)
	d.blobs.AssertExpectations(t)
	d.repo.AssertExpectations(t)
	d.repo.AssertNotCalled(t, "UpdateFiles", mock.Anything, mock.Anything)
}

func TestDatasetService_Upload_LostNameRaceLeavesBlobsAlone(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "My_Study").Return(false, nil)
	d.repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrNameConflict)

	_, err := d.svc.Upload(context.Background(), textUpload())
	assert.ErrorIs(t, err, domain.ErrNameConflict)
	d.blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	d.blobs.AssertNotCalled(t, "DeletePrefix", mock.Anything, mock.Anything)
	d.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDatasetService_Upload_CreatesBeforeStoring(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	var order []string
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "My_Study").Return(false, nil)
	d.repo.On("Create", mock.Anything, mock.MatchedBy(func(ds *domain.Dataset) bool {
		return len(ds.Files.Raw) == 0
	})).Run(func(mock.Arguments) { order = append(order, "create") }).Return(nil)
	d.blobs.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "put") }).Return("url", nil)
	d.repo.On("UpdateFiles", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "update") }).Return(nil)

	_, err := d.svc.Upload(context.Background(), textUpload())
	require.NoError(t, err)
	assert.Equal(t, []string{"create", "put", "update"}, order)
}

func vectorEditFixture(d *datasetDeps, vectorized *domain.VectorizedSettings) {
	d.withUser()
	d.repo.On("GetByID", mock.Anything, "ds-1").Return(&domain.Dataset{
		ID: "ds-1", UID: "uid-1", Username: "alice", Name: "My_Study",
		FileType: domain.FileTypeText, UploadType: domain.UploadTypeRaw,
		Vectorized: vectorized,
		Files:      domain.DatasetFiles{Raw: []string{"raw-url"}, Vectorized: []string{}},
	}, nil)
}

func TestDatasetService_Edit_AddsVectorizedWithSettings(t *testing.T) {
	d := newDatasetDeps()
	vectorEditFixture(d, nil)
	settings := &domain.VectorizedSettings{Dimensions: 384, ModelName: "minilm", VectorDatabase: "qdrant"}
	d.blobs.On("Put", mock.Anything, "alice/my_study/vectorized.zip", mock.Anything, mock.Anything).Return("vec-url", nil)
	d.repo.On("UpdateFiles", mock.Anything, mock.MatchedBy(func(ds *domain.Dataset) bool {
		return ds.UploadType == domain.UploadTypeBoth &&
			ds.Vectorized != nil && ds.Vectorized.Dimensions == 384 &&
			assert.ObjectsAreEqual(domain.DatasetFiles{Raw: []string{"raw-url"}, Vectorized: []string{"vec-url"}}, ds.Files)
	})).Return(nil)

	ds, err := d.svc.Edit(context.Background(), EditCommand{
		UID: "uid-1", DatasetID: "ds-1", Group: domain.GroupVectorized,
		Vectorized: settings,
		Files:      []IncomingFile{memFile("v.npy", "x")},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UploadTypeBoth, ds.UploadType)
	assert.Equal(t, settings, ds.Vectorized)
	d.repo.AssertExpectations(t)
}

func TestDatasetService_Edit_VectorizedNeedsSettings(t *testing.T) {
	d := newDatasetDeps()
	vectorEditFixture(d, nil)

	_, err := d.svc.Edit(context.Background(), EditCommand{
		UID: "uid-1", DatasetID: "ds-1", Group: domain.GroupVectorized,
		Files: []IncomingFile{memFile("v.npy", "x")},
	})
	var missing *domain.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "dimensions", missing.Field)
	d.blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	d.repo.AssertNotCalled(t, "UpdateFiles", mock.Anything, mock.Anything)
}

func TestDatasetService_Edit_KeepsExistingSettings(t *testing.T) {
	d := newDatasetDeps()
	existing := &domain.VectorizedSettings{Dimensions: 768, ModelName: "bert", VectorDatabase: "pgvector"}
	vectorEditFixture(d, existing)
	d.blobs.On("Put", mock.Anything, "alice/my_study/vectorized.zip", mock.Anything, mock.Anything).Return("vec-url", nil)
	d.repo.On("UpdateFiles", mock.Anything, mock.Anything).Return(nil)

	ds, err := d.svc.Edit(context.Background(), EditCommand{
		UID: "uid-1", DatasetID: "ds-1", Group: domain.GroupVectorized,
		Files: []IncomingFile{memFile("v.npy", "x")},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UploadTypeBoth, ds.UploadType)
	assert.Equal(t, existing, ds.Vectorized)
}

func TestDatasetService_Edit_RawStaysRaw(t *testing.T) {
	d := newDatasetDeps()
	vectorEditFixture(d, nil)
	d.blobs.On("Put", mock.Anything, "alice/my_study/raw.zip", mock.Anything, mock.Anything).Return("raw-2", nil)
	d.repo.On("UpdateFiles", mock.Anything, mock.Anything).Return(nil)

	ds, err := d.svc.Edit(context.Background(), EditCommand{
		UID: "uid-1", DatasetID: "ds-1", Group: domain.GroupRaw,
		Files: []IncomingFile{memFile("a.txt", "a")},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.UploadTypeRaw, ds.UploadType)
	assert.Nil(t, ds.Vectorized)
	assert.Equal(t, []string{"raw-2"}, ds.Files.Raw)
}

func TestDatasetService_Edit_OtherOwner(t *testing.T) {
	d := newDatasetDeps()
	d.withUser()
	d.repo.On("GetByID", mock.Anything, "ds-1").Return(&domain.Dataset{ID: "ds-1", UID: "someone-else"}, nil)

	_, err := d.svc.Edit(context.Background(), EditCommand{
		UID: "uid-1", DatasetID: "ds-1", Group: domain.GroupRaw, Files: []IncomingFile{memFile("a.txt", "a")},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDatasetService_Delete(t *testing.T) {
	d := newDatasetDeps()
	d.repo.On("GetByID", mock.Anything, "ds-1").Return(&domain.Dataset{ID: "ds-1", Username: "alice", Name: "My_Study"}, nil)
	d.blobs.On("DeletePrefix", mock.Anything, "alice/my_study").Return(nil)
	d.repo.On("Delete", mock.Anything, "ds-1").Return(nil)

	require.NoError(t, d.svc.Delete(context.Background(), "ds-1", ""))
	d.repo.AssertExpectations(t)
}

func TestDatasetService_Delete_NotFound(t *testing.T) {
	d := newDatasetDeps()
	d.repo.On("GetByID", mock.Anything, "nope").Return(nil, domain.ErrDatasetNotFound)

	assert.ErrorIs(t, d.svc.Delete(context.Background(), "nope", ""), domain.ErrDatasetNotFound)
}

func TestDatasetService_Delete_OtherOwner(t *testing.T) {
	d := newDatasetDeps()
	d.repo.On("GetByID", mock.Anything, "ds-1").Return(&domain.Dataset{ID: "ds-1", UID: "uid-1", Username: "alice", Name: "x"}, nil)

	assert.ErrorIs(t, d.svc.Delete(context.Background(), "ds-1", "uid-2"), domain.ErrForbidden)
	d.blobs.AssertNotCalled(t, "DeletePrefix", mock.Anything, mock.Anything)
}

func TestDatasetService_CheckName(t *testing.T) {
	d := newDatasetDeps()
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "My_Study").Return(true, nil)
	d.repo.On("ExistsByName", mock.Anything, "uid-1", "Fresh").Return(false, nil)

	available, msg, err := d.svc.CheckName(context.Background(), "uid-1", " My  Study ")
	require.NoError(t, err)
	assert.False(t, available)
	assert.Equal(t, nameTakenMessage, msg)

	available, _, err = d.svc.CheckName(context.Background(), "uid-1", "Fresh")
	require.NoError(t, err)
	assert.True(t, available)
}

func TestDatasetService_ListByCategory(t *testing.T) {
	d := newDatasetDeps()
	d.repo.On("ListByFileType", mock.Anything, domain.FileTypeImage).Return([]*domain.Dataset{{ID: "1"}}, nil)
	d.repo.On("ListByFileType", mock.Anything, domain.FileType("")).Return([]*domain.Dataset{{ID: "1"}, {ID: "2"}}, nil)

	got, err := d.svc.ListByCategory(context.Background(), "Image")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = d.svc.ListByCategory(context.Background(), "all")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = d.svc.ListByCategory(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestDatasetService_RecordClick_CountFailureIsIgnored(t *testing.T) {
	d := newDatasetDeps()
	owner := ports.DatasetOwner{Username: "alice", Name: "My_Study"}
	d.repo.On("GetByOwner", mock.Anything, owner).Return(&domain.Dataset{ID: "ds-1", Clicks: 4}, nil)
	d.repo.On("IncrementClicks", mock.Anything, "ds-1").Return(errors.New("timeout"))

	ds, err := d.svc.RecordClick(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(4), ds.Clicks)
}

func TestArchivePath(t *testing.T) {
	assert.Equal(t, "raw/A/b/c.txt", archivePath(domain.GroupRaw, "A/b/c.txt", true))
	assert.Equal(t, "c.txt", archivePath(domain.GroupRaw, "A/b/c.txt", false))
	assert.Equal(t, "raw/etc/passwd", archivePath(domain.GroupRaw, "../../etc/passwd", true))
	assert.Equal(t, "c.txt", archivePath(domain.GroupRaw, "c.txt", true))
}
