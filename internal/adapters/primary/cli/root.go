package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	fcolor "github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dataset-hub-service/internal/adapters/secondary/hubapi"
	"dataset-hub-service/internal/config"
	"dataset-hub-service/internal/core/domain"
	output "dataset-hub-service/internal/core/ports/output"
	"dataset-hub-service/internal/core/submission"
)

// session is the per-invocation state shared by every command. It is
// filled in by the root command's PersistentPreRunE.
type session struct {
	v        *viper.Viper
	cfg      *config.ClientConfig
	api      output.HubAPI
	identity output.Identity
}

var persistentFlags = []struct {
	name, key, usage string
}{
	{"api-url", "HUB_API_URL", "REST API base URL"},
	{"uid", "HUB_UID", "signed-in user id"},
	{"email", "HUB_EMAIL", "signed-in user email"},
	{"name", "HUB_NAME", "signed-in user display name"},
	{"username", "HUB_USERNAME", "signed-in user handle; resolved from --uid when empty"},
	{"token", "HUB_TOKEN", "bearer token for write endpoints"},
	{"timeout", "HUB_TIMEOUT", "default request timeout, e.g. 30s"},
	{"log-level", "LOGGER_LEVEL", "log level"},
}

// NewRootCmd builds the hubctl command tree.
func NewRootCmd() *cobra.Command {
	s := &session{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "hubctl",
		Short: "Upload and browse datasets and prompts on a dataset hub",
		Long: "hubctl talks to the dataset hub REST API. Every flag of the root command can also be\n" +
			"set through the environment variable named in its description, or a .env file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return s.init()
		},
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	for _, f := range persistentFlags {
		flags.String(f.name, "", fmt.Sprintf("%s (%s)", f.usage, f.key))
		_ = s.v.BindPFlag(f.key, flags.Lookup(f.name))
	}

	cmd.AddCommand(NewUploadCmd(s))
	cmd.AddCommand(NewEditCmd(s))
	cmd.AddCommand(NewDeleteCmd(s))
	cmd.AddCommand(NewCheckNameCmd(s))
	cmd.AddCommand(NewDatasetsCmd(s))
	cmd.AddCommand(NewOpenCmd(s))
	cmd.AddCommand(NewPromptsCmd(s))
	cmd.AddCommand(NewRegisterCmd(s))
	cmd.AddCommand(NewProfileCmd(s))

	return cmd
}

func (s *session) init() error {
	s.cfg = config.LoadClient(s.v)
	initLogger(s.cfg.Logger)
	if s.cfg.APIURL == "" {
		return errors.New("api url is not set, use --api-url or HUB_API_URL")
	}
	s.api = hubapi.NewClient(s.cfg)
	s.identity = hubapi.NewConfigIdentity(s.cfg)
	return nil
}

func initLogger(cfg config.LoggerConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.WarnLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func (s *session) uid() (string, error) {
	uid := s.identity.CurrentUserID()
	if uid == "" {
		return "", domain.ErrNotAuthenticated
	}
	return uid, nil
}

// username returns the signed-in user's handle, registering the uid when
// no handle was configured.
func (s *session) username(ctx context.Context) (string, error) {
	if s.cfg.Username != "" {
		return s.cfg.Username, nil
	}
	uid, err := s.uid()
	if err != nil {
		return "", err
	}
	user, err := s.api.RegisterUID(ctx, uid, s.identity.Email(), s.identity.DisplayName())
	if err != nil {
		return "", err
	}
	s.cfg.Username = user.Username
	log.WithFields(log.Fields{"uid": uid, "username": user.Username}).Debug("resolved username")
	return user.Username, nil
}

// submit runs task through an orchestrator, printing its progress, and
// returns the destination it navigated to.
func submit(cmd *cobra.Command, task submission.Task) (string, error) {
	ctx := cmd.Context()
	navigated := make(chan string, 1)
	o := submission.New(func(dest string) { navigated <- dest }, submission.WithDisplayDurations(0, 0))
	defer o.Close()

	o.Subscribe(func(st submission.State) {
		switch st.Status {
		case submission.StatusSubmitting:
			fmt.Fprintln(cmd.ErrOrStderr(), "submitting...")
		case submission.StatusSucceeded:
			success(cmd.OutOrStdout(), st.Message)
		}
	})

	if err := o.Submit(ctx, task); err != nil {
		return "", err
	}
	select {
	case dest := <-navigated:
		return dest, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func success(w io.Writer, msg string) {
	_, _ = fcolor.New(fcolor.FgGreen).Fprintln(w, msg)
}
