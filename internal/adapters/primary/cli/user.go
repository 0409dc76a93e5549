package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dataset-hub-service/internal/core/catalog"
	"dataset-hub-service/internal/core/domain"
)

// NewRegisterCmd creates the register command.
func NewRegisterCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the signed-in uid and print its username",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := s.uid()
			if err != nil {
				return err
			}
			user, err := s.api.RegisterUID(cmd.Context(), uid, s.identity.Email(), s.identity.DisplayName())
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), fmt.Sprintf("registered %s as %s", uid, user.Username))
			return nil
		},
	}
}

// NewProfileCmd creates the profile command.
func NewProfileCmd(s *session) *cobra.Command {
	var (
		query string
		page  int
	)

	cmd := &cobra.Command{
		Use:   "profile [USERNAME]",
		Short: "Show a user's datasets and prompts; your own without USERNAME",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				profile *domain.Profile
				err     error
			)
			if len(args) == 1 {
				profile, err = s.api.Profile(cmd.Context(), args[0])
			} else {
				uid, uerr := s.uid()
				if uerr != nil {
					return uerr
				}
				profile, err = s.api.ProfileByUID(cmd.Context(), uid)
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s", profile.Username)
			if profile.Name != "" {
				fmt.Fprintf(w, " (%s)", profile.Name)
			}
			fmt.Fprintln(w)
			if profile.Avatar != "" {
				fmt.Fprintf(w, "avatar: %s\n", profile.Avatar)
			}

			params := catalog.Params{Query: query, Page: page}
			datasets := catalog.DatasetProfile.Query(profile.Datasets, params)
			fmt.Fprintln(w, "\nDatasets")
			if err := renderTable(w, datasetHeader, datasetRows(datasets.Items)); err != nil {
				return err
			}
			pageFooter(w, datasets.Page, datasets.TotalPages, datasets.Total, "datasets")

			prompts := catalog.PromptProfile.Query(profile.Prompts, params)
			fmt.Fprintln(w, "\nPrompts")
			if err := renderTable(w, promptHeader, promptRows(prompts.Items)); err != nil {
				return err
			}
			pageFooter(w, prompts.Page, prompts.TotalPages, prompts.Total, "prompts")
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive search")
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")

	return cmd
}
