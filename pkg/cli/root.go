// Package cli wires the pixndrive command tree: cobra commands over a
// session client whose settings come from flags, PIXNDRIVE_* environment
// variables and settings.yaml, in that order of precedence.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NicolasHaas/pixndrive/pkg/client"
	"github.com/NicolasHaas/pixndrive/pkg/datastore"
	"github.com/NicolasHaas/pixndrive/pkg/logging"
	"github.com/NicolasHaas/pixndrive/pkg/session"
	"github.com/NicolasHaas/pixndrive/pkg/version"
)

// EnvPrefix prefixes every environment override, e.g. PIXNDRIVE_API_URL.
const EnvPrefix = "PIXNDRIVE"

// degradedNote marks output built from mock data.
const degradedNote = "(mock data: backend unreachable)"

// Flag names, shared by cobra and viper.
const (
	flagConfig       = "config"
	flagAPIURL       = "api-url"
	flagDB           = "db"
	flagMockFallback = "mock-fallback"
	flagTimeout      = "timeout"
	flagLogLevel     = "log-level"
	flagLogFormat    = "log-format"
)

// app is the state shared by subcommands for one invocation.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer

	store  datastore.KeyValueStore
	client *client.Client
}

// Run executes the command tree with args. Command output goes to out; logs
// and warnings go to errOut.
func Run(ctx context.Context, args []string, out, errOut io.Writer) error {
	root, a := newRootCommand(out, errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCommand(out, errOut io.Writer) (*cobra.Command, *app) {
	a := &app{v: viper.New(), out: out, errOut: errOut}
	defaults := client.DefaultSettings()
	logDefaults := logging.FromEnv()

	root := &cobra.Command{
		Use:           "pixndrive",
		Short:         "Upload and browse files on a PixNDrive backend",
		Long:          "pixndrive talks to the PixNDrive webhook backend. When the backend is unreachable it can serve demo data instead; such output is marked " + degradedNote + ".",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String(flagConfig, client.DefaultSettingsPath(), "Path to settings.yaml")
	pf.String(flagAPIURL, defaults.APIURL, "Webhook backend base URL")
	pf.String(flagDB, defaults.DBPath, "SQLite file holding the session")
	pf.Bool(flagMockFallback, defaults.MockFallback, "Serve demo data when the backend is unreachable")
	pf.Duration(flagTimeout, defaults.Timeout, "Per-request timeout")
	pf.String(flagLogLevel, logDefaults.Level, "Log level: "+logging.LevelNames())
	pf.String(flagLogFormat, logDefaults.Format, "Log format: text or json")

	_ = a.v.BindPFlags(pf)
	a.v.SetEnvPrefix(EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		a.loginCommand(),
		a.filesCommand(),
		a.uploadCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
	)
	return root, a
}

// setup layers settings.yaml under flags and env, then opens the store and
// builds the client.
func (a *app) setup(ctx context.Context) error {
	if err := logging.Setup(logging.Options{
		Level:  a.v.GetString(flagLogLevel),
		Format: a.v.GetString(flagLogFormat),
		Output: a.errOut,
	}); err != nil {
		return err
	}

	settings := client.LoadSettings(a.v.GetString(flagConfig))
	a.v.SetDefault(flagAPIURL, settings.APIURL)
	a.v.SetDefault(flagDB, settings.DBPath)
	a.v.SetDefault(flagMockFallback, settings.MockFallback)
	a.v.SetDefault(flagTimeout, settings.Timeout)

	cfg := client.Settings{
		APIURL:       a.v.GetString(flagAPIURL),
		MockFallback: a.v.GetBool(flagMockFallback),
		DBPath:       a.v.GetString(flagDB),
		Timeout:      a.v.GetDuration(flagTimeout),
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("--%s must not be negative", flagTimeout)
	}

	st, err := datastore.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	sess, err := session.New(ctx, st)
	if err != nil {
		_ = st.Close()
		return err
	}
	a.store = st
	a.client = client.New(cfg.Config(), sess)
	slog.Debug("client ready", "api_url", cfg.APIURL, "db", cfg.DBPath, "mock_fallback", cfg.MockFallback)
	return nil
}

func (a *app) close() error {
	if a.client != nil {
		slog.Debug("client stats", "stats", a.client.Stats())
	}
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// note prints the degraded marker when a result came from mock data.
func (a *app) note(degraded bool) {
	if degraded {
		fmt.Fprintln(a.out, degradedNote)
	}
}
