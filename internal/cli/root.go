// Package cli contains the portalctl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"portal-client/config"
	"portal-client/internal/app"
	"portal-client/internal/domain"
	"portal-client/internal/infrastructure/cookiestore"
	"portal-client/internal/output"
	"portal-client/utils/logger"
)

type globalFlags struct {
	cfgFile    string
	apiURL     string
	locale     string
	colorMode  string
	cookieFile string
	timeout    time.Duration
	verbose    bool
	quiet      bool
	jsonOut    bool
}

// runner holds the state shared by one portalctl invocation.
type runner struct {
	version string
	flags   globalFlags
	v       *viper.Viper

	cfg        *config.Config
	cookiePath string
	printer    *output.Printer
	logger     *slog.Logger
	jar        *cookiestore.FileJar
	client     *app.App
	reported   atomic.Bool
}

// reportingNotifier remembers that an error was already shown to the user.
type reportingNotifier struct {
	*output.Printer
	reported *atomic.Bool
}

func (n reportingNotifier) Error(msg string) {
	n.reported.Store(true)
	n.Printer.Error(msg)
}

// Execute runs portalctl with the process arguments and returns the exit code.
func Execute(ctx context.Context, version string) int {
	root, r := newRoot(version)
	err := root.ExecuteContext(ctx)
	return r.finish(err, root.ErrOrStderr())
}

func newRoot(version string) (*cobra.Command, *runner) {
	r := &runner{version: version, v: viper.New()}

	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Command-line client for the portal backend",
		Long: `portalctl talks to the portal REST backend with the same session, CSRF and
caching rules as the web client. Cookies persist between invocations.

Example usage:
  portalctl login --email you@example.com --password-stdin
  portalctl whoami
  portalctl products --search router --ordering price
  portalctl downloads get 3 -o .
  portalctl logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.init(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &output.CLIError{Summary: err.Error(), Suggestion: "see portalctl --help", ExitCode: output.ExitUsageError}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&r.flags.cfgFile, "config", "", "config file (default is .portalctl.yaml)")
	pf.StringVar(&r.flags.apiURL, "api-url", "", "backend URL, with or without /api/v1")
	pf.StringVar(&r.flags.locale, "locale", "", "message language (en, zh)")
	pf.StringVar(&r.flags.colorMode, "color", "auto", "color output: auto, always or never")
	pf.StringVar(&r.flags.cookieFile, "cookie-file", "", "cookie jar file (default ~/.config/portalctl/cookies.json)")
	pf.DurationVar(&r.flags.timeout, "timeout", 0, "per-request timeout")
	pf.BoolVarP(&r.flags.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&r.flags.quiet, "quiet", "q", false, "print errors and results only")
	pf.BoolVar(&r.flags.jsonOut, "json", false, "output as JSON")

	_ = r.v.BindPFlag("api_url", pf.Lookup("api-url"))
	_ = r.v.BindPFlag("locale", pf.Lookup("locale"))
	_ = r.v.BindPFlag("color", pf.Lookup("color"))
	_ = r.v.BindPFlag("cookie_file", pf.Lookup("cookie-file"))
	_ = r.v.BindPFlag("timeout", pf.Lookup("timeout"))
	_ = r.v.BindPFlag("verbose", pf.Lookup("verbose"))

	root.AddCommand(
		newLoginCmd(r),
		newLogoutCmd(r),
		newRegisterCmd(r),
		newWhoamiCmd(r),
		newCheckCmd(r),
		newWatchCmd(r),
		newConfigCmd(r),
		newPasswordCmd(r),
		newAccountCmd(r),
		newProductsCmd(r),
		newDownloadsCmd(r),
		newDashboardCmd(r),
		newVersionCmd(r),
	)
	return root, r
}

// init loads configuration and builds the printer and logger.
func (r *runner) init(cmd *cobra.Command) error {
	level := "warn"
	if r.flags.verbose {
		level = "debug"
	}
	r.logger = logger.Init(logger.Options{Level: level, Text: true, Output: cmd.ErrOrStderr()})

	cfg, err := r.loadConfig()
	if err != nil {
		return &output.CLIError{Summary: "loading config", Detail: err.Error(), ExitCode: output.ExitConfigError}
	}
	r.cfg = cfg

	mode, err := output.ParseColorMode(r.v.GetString("color"))
	if err != nil {
		return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitUsageError}
	}
	r.printer = output.NewPrinterWithOptions(output.PrinterOptions{
		Out:       cmd.OutOrStdout(),
		Err:       cmd.ErrOrStderr(),
		ColorMode: mode,
		Quiet:     r.flags.quiet || r.flags.jsonOut,
	})

	r.logger.Debug("configuration loaded",
		"api_url", cfg.APIURL,
		"locale", cfg.Locale,
		"cookie_file", r.cookiePath,
		"config_file", r.v.ConfigFileUsed(),
	)
	return nil
}

// loadConfig layers the config file and flags over the environment.
func (r *runner) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if r.flags.cfgFile != "" {
		r.v.SetConfigFile(r.flags.cfgFile)
	} else {
		r.v.SetConfigName(".portalctl")
		r.v.SetConfigType("yaml")
		r.v.AddConfigPath(".")
		r.v.AddConfigPath("$HOME/.config/portalctl")
	}
	r.v.SetEnvPrefix("PORTALCTL")
	r.v.AutomaticEnv()
	r.v.SetDefault("color", "auto")

	if err := r.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if r.v.IsSet("api_url") {
		derivedMedia := cfg.APIURL + "/media/"
		derivedStatic := cfg.APIURL + "/static/"
		cfg.APIURL = r.v.GetString("api_url")
		if cfg.MediaURL == derivedMedia {
			cfg.MediaURL = ""
		}
		if cfg.StaticURL == derivedStatic {
			cfg.StaticURL = ""
		}
	}
	if r.v.IsSet("locale") {
		cfg.Locale = r.v.GetString("locale")
	}
	if r.v.IsSet("timeout") {
		cfg.RequestTimeout = r.v.GetDuration("timeout")
	}
	if r.v.IsSet("rate_limit") {
		cfg.RateLimit = r.v.GetFloat64("rate_limit")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r.cookiePath = r.v.GetString("cookie_file")
	if r.cookiePath == "" {
		if r.cookiePath, err = cookiestore.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// app builds the client on first use.
func (r *runner) app() (*app.App, error) {
	if r.client != nil {
		return r.client, nil
	}
	jar, err := cookiestore.Open(r.cookiePath)
	if err != nil {
		return nil, &output.CLIError{
			Summary:    "opening cookie file",
			Detail:     err.Error(),
			Suggestion: "remove " + r.cookiePath + " and sign in again",
			ExitCode:   output.ExitConfigError,
		}
	}
	notifier := reportingNotifier{Printer: r.printer, reported: &r.reported}

	client, err := app.New(r.cfg,
		app.WithCookieJar(jar),
		app.WithNotifier(notifier),
		app.WithNavigator(r.printer),
		app.WithLogger(r.logger),
		app.WithEmailErrorHandler(func(msg string) {
			notifier.Error(msg)
			r.printer.Navigate(domain.RouteLogin)
		}),
	)
	if err != nil {
		return nil, err
	}
	r.jar = jar
	r.client = client
	return client, nil
}

// finish saves cookies, prints a final error and maps it to an exit code.
func (r *runner) finish(err error, errOut io.Writer) int {
	if r.jar != nil {
		if saveErr := r.jar.Save(); saveErr != nil {
			r.logger.Warn("saving cookies failed", "path", r.cookiePath, "error", saveErr)
		}
	}
	if err == nil {
		return output.ExitSuccess
	}

	printer := r.printer
	if printer == nil {
		printer = output.NewPrinterWithOptions(output.PrinterOptions{Out: errOut, Err: errOut, ColorMode: output.ColorNever})
	}
	cliErr := output.FromError(err, r.reported.Load())
	if !cliErr.Reported {
		printer.FormatError(cliErr)
	}
	return cliErr.ExitCode
}

func usageError(format string, args ...any) *output.CLIError {
	return &output.CLIError{Summary: fmt.Sprintf(format, args...), ExitCode: output.ExitUsageError}
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}
