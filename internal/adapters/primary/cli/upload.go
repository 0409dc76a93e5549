package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/form"
	"dataset-hub-service/internal/core/selection"
	"dataset-hub-service/internal/core/submission"
	"dataset-hub-service/internal/core/upload"
)

type uploadOptions struct {
	datasetType    string
	fileType       string
	description    string
	domain         string
	license        string
	modelName      string
	dimensions     string
	vectorDatabase string
	raw            []string
	vectorized     []string
	folders        bool
}

// NewUploadCmd creates the upload command.
func NewUploadCmd(s *session) *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload NAME",
		Short: "Upload a new dataset",
		Long: "Upload a new dataset. Whitespace in NAME becomes underscores. Raw files must match\n" +
			"--file-type; with --folders every path is a directory whose structure is kept.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.upload(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.datasetType, "type", string(domain.DatasetTypeRaw), "dataset type: raw, vectorized or both")
	f.StringVar(&opts.fileType, "file-type", string(domain.FileTypeText), "raw file type: image, audio, text or video")
	f.StringVar(&opts.description, "description", "", "dataset description")
	f.StringVar(&opts.domain, "domain", "", "dataset domain, e.g. Healthcare")
	f.StringVar(&opts.license, "license", domain.Licenses[0], "dataset license")
	f.StringVar(&opts.modelName, "model-name", "", "embedding model of vectorized data")
	f.StringVar(&opts.dimensions, "dimensions", "", "vector dimensions")
	f.StringVar(&opts.vectorDatabase, "vector-db", "", "vector database of vectorized data")
	f.StringSliceVar(&opts.raw, "raw", nil, "raw files, or folders with --folders")
	f.StringSliceVar(&opts.vectorized, "vectorized", nil, "vectorized files, or folders with --folders")
	f.BoolVar(&opts.folders, "folders", false, "treat --raw and --vectorized paths as folders")

	return cmd
}

func (s *session) upload(cmd *cobra.Command, name string, opts uploadOptions) error {
	datasetType, err := domain.ParseDatasetType(opts.datasetType)
	if err != nil {
		return err
	}
	fileType, err := domain.ParseFileType(opts.fileType)
	if err != nil {
		return err
	}

	sel := selection.New()
	if err := pick(sel, domain.GroupRaw, opts.raw, opts.folders, fileType.Extensions()); err != nil {
		return err
	}
	if err := pick(sel, domain.GroupVectorized, opts.vectorized, opts.folders, nil); err != nil {
		return err
	}
	for _, g := range datasetType.Groups() {
		if sel.Mode(g) != selection.ModeFolders {
			continue
		}
		sum := sel.Summary(g)
		for _, folder := range sum.Folders {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s/%s: %d files\n", g, folder, sum.Counts[folder])
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d files total\n", g, sum.Total)
	}

	df := &form.DatasetForm{
		Description:    opts.description,
		Domain:         opts.domain,
		License:        opts.license,
		FileType:       fileType,
		ModelName:      opts.modelName,
		Dimensions:     opts.dimensions,
		VectorDatabase: opts.vectorDatabase,
	}
	df.SetName(name)

	username, err := s.username(cmd.Context())
	if err != nil {
		return err
	}
	checker := form.NewNameChecker(s.api, s.identity.CurrentUserID(), 0, nil)
	defer checker.Close()

	dest, err := submit(cmd, &submission.DatasetUploadTask{
		API:       s.api,
		Identity:  s.identity,
		Form:      df,
		Type:      datasetType,
		Selection: sel,
		Checker:   checker,
		Username:  username,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dataset %s is listed at %s\n", df.Name, dest)
	return nil
}

// pick loads paths into one group of sel.
func pick(sel *selection.Selection, g domain.FileGroup, paths []string, folders bool, allowed []string) error {
	if len(paths) == 0 {
		return nil
	}
	if !folders {
		files, err := selection.FromPaths(paths)
		if err != nil {
			return err
		}
		return sel.SelectFiles(g, files, allowed)
	}
	for _, dir := range paths {
		files, err := selection.FromDirectory(dir)
		if err != nil {
			return err
		}
		if err := sel.AddFolder(g, files); err != nil {
			return err
		}
	}
	return nil
}

type editOptions struct {
	group          string
	dimensions     int
	modelName      string
	vectorDatabase string
}

// NewEditCmd creates the edit command.
func NewEditCmd(s *session) *cobra.Command {
	var opts editOptions

	cmd := &cobra.Command{
		Use:   "edit DATASET_ID NAME FILE...",
		Short: "Replace the raw or vectorized files of a dataset",
		Long:  "Replace the raw or vectorized files of a dataset. Adding vectorized files to a raw dataset needs --dimensions.",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.edit(cmd, args[0], args[1], opts, args[2:])
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.group, "group", string(domain.GroupRaw), "file group to replace: raw or vectorized")
	f.IntVar(&opts.dimensions, "dimensions", 0, "vector dimensions, when the dataset has none yet")
	f.StringVar(&opts.modelName, "model-name", "", "embedding model of vectorized data")
	f.StringVar(&opts.vectorDatabase, "vector-db", "", "vector database of vectorized data")

	return cmd
}

func (s *session) edit(cmd *cobra.Command, datasetID, name string, opts editOptions, paths []string) error {
	group := domain.FileGroup(strings.ToLower(opts.group))
	if group != domain.GroupRaw && group != domain.GroupVectorized {
		return fmt.Errorf("unknown group %q", group)
	}
	uid, err := s.uid()
	if err != nil {
		return err
	}
	files, err := selection.FromPaths(paths)
	if err != nil {
		return err
	}

	info := upload.EditInfo{DatasetID: datasetID, Name: form.FormatName(name)}
	if opts.dimensions > 0 {
		info.Dimensions = &opts.dimensions
		info.ModelName = strings.TrimSpace(opts.modelName)
		info.VectorDatabase = strings.TrimSpace(opts.vectorDatabase)
	}
	req, err := upload.BuildEdit(info, uid, group, files)
	if err != nil {
		return err
	}
	res, err := s.api.Upload(cmd.Context(), req)
	if err != nil {
		return err
	}
	if !res.Success {
		return &domain.APIError{Op: "edit dataset", Message: res.Message}
	}

	success(cmd.OutOrStdout(), res.Message)
	for _, u := range res.Files {
		fmt.Fprintln(cmd.OutOrStdout(), u)
	}
	return nil
}
