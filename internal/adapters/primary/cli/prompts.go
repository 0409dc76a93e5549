package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dataset-hub-service/internal/core/catalog"
	"dataset-hub-service/internal/core/domain"
	"dataset-hub-service/internal/core/form"
	"dataset-hub-service/internal/core/submission"
)

// NewPromptsCmd creates the prompts command group.
func NewPromptsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "List and save prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newPromptsListCmd(s))
	cmd.AddCommand(newPromptsSaveCmd(s))

	return cmd
}

func promptRows(prompts []*domain.Prompt) [][]string {
	rows := make([][]string, 0, len(prompts))
	for _, p := range prompts {
		rows = append(rows, []string{p.Name, p.Username, p.Domain, p.LastModified().Format(timeLayout)})
	}
	return rows
}

var promptHeader = []string{"Name", "Owner", "Domain", "Updated"}

func newPromptsListCmd(s *session) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse public prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := s.api.ListPrompts(cmd.Context())
			if err != nil {
				return err
			}
			view := catalog.PromptCatalog.Query(records, opts.params())
			if err := renderTable(cmd.OutOrStdout(), promptHeader, promptRows(view.Items)); err != nil {
				return err
			}
			pageFooter(cmd.OutOrStdout(), view.Page, view.TotalPages, view.Total, "prompts")
			return nil
		},
	}
	opts.register(cmd, "prompt domain, or all")

	return cmd
}

func newPromptsSaveCmd(s *session) *cobra.Command {
	var (
		promptDomain string
		body         string
		file         string
	)

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Save a prompt under your username",
		Long:  "Save a prompt. Whitespace in NAME becomes underscores; the result may only hold letters, digits and underscores.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read prompt: %w", err)
				}
				body = string(data)
			}
			pf := &form.PromptForm{Domain: strings.TrimSpace(promptDomain), Body: body}
			pf.SetName(args[0])

			username, err := s.username(cmd.Context())
			if err != nil {
				return err
			}
			dest, err := submit(cmd, &submission.PromptSaveTask{
				API:      s.api,
				Identity: s.identity,
				Form:     pf,
				Username: username,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "prompt %s is listed at %s\n", pf.Name, dest)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&promptDomain, "domain", "", "prompt domain")
	f.StringVar(&body, "body", "", "prompt text")
	f.StringVar(&file, "file", "", "read the prompt text from a file")
	cmd.MarkFlagsMutuallyExclusive("body", "file")

	return cmd
}
