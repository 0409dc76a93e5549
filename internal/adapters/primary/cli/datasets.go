package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"dataset-hub-service/internal/core/catalog"
	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/form"
	output "dataset-hub-service/internal/core/ports/output"
)

const timeLayout = "2006-01-02 15:04"

type listOptions struct {
	query    string
	category string
	sort     string
	page     int
}

func (o *listOptions) register(cmd *cobra.Command, categoryUsage string) {
	f := cmd.Flags()
	f.StringVarP(&o.query, "query", "q", "", "case-insensitive search")
	f.StringVar(&o.category, "category", catalog.CategoryAll, categoryUsage)
	f.StringVar(&o.sort, "sort", string(catalog.SortLatest), "sort order: latest or name")
	f.IntVar(&o.page, "page", 1, "page number, starting at 1")
}

func (o listOptions) params() catalog.Params {
	return catalog.Params{
		Query:    o.query,
		Category: strings.ToLower(strings.TrimSpace(o.category)),
		Sort:     catalog.ParseSortKey(o.sort),
		Page:     o.page,
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	headerAny := make([]any, len(header))
	for i, h := range header {
		headerAny[i] = h
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header(headerAny...)
	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		if err := table.Append(rowAny...); err != nil {
			return err
		}
	}
	return table.Render()
}

func datasetRows(datasets []*domain.Dataset) [][]string {
	rows := make([][]string, 0, len(datasets))
	for _, d := range datasets {
		rows = append(rows, []string{
			d.ID,
			d.Name,
			d.Username,
			d.FileType.Label(),
			string(d.UploadType),
			strconv.FormatInt(d.Clicks, 10),
			d.LastModified().Format(timeLayout),
		})
	}
	return rows
}

var datasetHeader = []string{"ID", "Name", "Owner", "Type", "Upload", "Clicks", "Updated"}

func pageFooter(w io.Writer, page, pages, total int, noun string) {
	fmt.Fprintf(w, "page %d of %d (%d %s)\n", page, max(pages, 1), total, noun)
}

// NewDatasetsCmd creates the datasets command.
func NewDatasetsCmd(s *session) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Browse public datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := opts.params()
			records, err := s.api.DatasetsByCategory(cmd.Context(), p.Category)
			if err != nil {
				return err
			}
			view := catalog.DatasetCatalog.Query(records, p)
			if err := renderTable(cmd.OutOrStdout(), datasetHeader, datasetRows(view.Items)); err != nil {
				return err
			}
			pageFooter(cmd.OutOrStdout(), view.Page, view.TotalPages, view.Total, "datasets")
			return nil
		},
	}
	opts.register(cmd, "file type: all, image, audio, text or video")

	return cmd
}

// NewOpenCmd creates the open command.
func NewOpenCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "open USERNAME DATASET_NAME",
		Short: "Show a dataset and count the visit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := s.api.LogClick(cmd.Context(), output.ClickRequest{Username: args[0], DatasetName: args[1]})
			if err != nil {
				return err
			}
			printDataset(cmd.OutOrStdout(), ds)
			return nil
		},
	}
}

func printDataset(w io.Writer, ds *domain.Dataset) {
	fmt.Fprintf(w, "%s/%s (%s)\n", ds.Username, ds.Name, ds.ID)
	fmt.Fprintf(w, "  description: %s\n", ds.Description)
	fmt.Fprintf(w, "  domain:      %s\n", ds.Domain)
	fmt.Fprintf(w, "  license:     %s\n", ds.License)
	fmt.Fprintf(w, "  type:        %s, %s\n", ds.FileType.Label(), ds.UploadType)
	if v := ds.Vectorized; v != nil {
		fmt.Fprintf(w, "  vectors:     %d dims, %s, %s\n", v.Dimensions, v.ModelName, v.VectorDatabase)
	}
	fmt.Fprintf(w, "  clicks:      %d\n", ds.Clicks)
	for _, g := range []domain.FileGroup{domain.GroupRaw, domain.GroupVectorized} {
		for _, u := range ds.Files.Group(g) {
			fmt.Fprintf(w, "  %s: %s\n", g, u)
		}
	}
	if !ds.IsComplete() {
		fmt.Fprintln(w, "  (incomplete: some files are missing)")
	}
}

// NewDeleteCmd creates the delete command.
func NewDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete DATASET_ID",
		Short: "Delete a dataset and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := s.uid()
			if err != nil {
				return err
			}
			if err := s.api.DeleteDataset(cmd.Context(), args[0], uid); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Dataset deleted")
			return nil
		},
	}
}

// NewCheckNameCmd creates the check-name command.
func NewCheckNameCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "check-name NAME",
		Short: "Check whether a dataset name is still free for you",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := s.uid()
			if err != nil {
				return err
			}
			name := form.FormatName(args[0])
			available, message, err := s.api.CheckDatasetName(cmd.Context(), uid, name)
			if err != nil {
				return err
			}
			if !available {
				return fmt.Errorf("%s: %s", name, message)
			}
			success(cmd.OutOrStdout(), fmt.Sprintf("%s: %s", name, message))
			return nil
		},
	}
}
