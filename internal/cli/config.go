package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"portal-client/internal/domain"
)

type configView struct {
	APIURL            string            `json:"api_url"`
	APIPrefix         string            `json:"api_prefix"`
	Locale            string            `json:"locale"`
	RequestTimeout    string            `json:"request_timeout"`
	StaleTime         string            `json:"stale_time"`
	AuthCheckInterval string            `json:"auth_check_interval"`
	CSRFHeader        string            `json:"csrf_header"`
	CSRFCookies       []string          `json:"csrf_cookies"`
	MediaURL          string            `json:"media_url"`
	StaticURL         string            `json:"static_url"`
	CookieFile        string            `json:"cookie_file"`
	ConfigFile        string            `json:"config_file,omitempty"`
	Remote            *domain.AppConfig `json:"remote,omitempty"`
}

func newConfigCmd(r *runner) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Display the configuration portalctl runs with, after the environment, the
config file and flags are applied.

Examples:
  portalctl config             # Local settings
  portalctl config --remote    # Also fetch the backend's public settings
  portalctl config --json      # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := r.cfg
			view := configView{
				APIURL:            cfg.APIURL,
				APIPrefix:         cfg.APIPrefix,
				Locale:            cfg.Locale,
				RequestTimeout:    cfg.RequestTimeout.String(),
				StaleTime:         cfg.StaleTime.String(),
				AuthCheckInterval: cfg.AuthCheckInterval.String(),
				CSRFHeader:        cfg.CSRFHeader,
				CSRFCookies:       cfg.CSRFCookieNames(),
				MediaURL:          cfg.MediaURL,
				StaticURL:         cfg.StaticURL,
				CookieFile:        r.cookiePath,
				ConfigFile:        r.v.ConfigFileUsed(),
			}

			var backend *domain.AppConfig
			if remote {
				a, err := r.app()
				if err != nil {
					return err
				}
				appCfg, err := a.AppConfig.Execute(cmd.Context())
				if err != nil {
					return err
				}
				backend = &appCfg
				view.Remote = backend
			}

			if r.flags.jsonOut {
				return printJSON(r.printer.Out(), view)
			}
			r.printer.Header("Current Configuration")
			err := r.printer.KeyValues([][2]string{
				{"api_url", view.APIURL},
				{"api_prefix", view.APIPrefix},
				{"locale", view.Locale},
				{"request_timeout", view.RequestTimeout},
				{"stale_time", view.StaleTime},
				{"auth_check_interval", view.AuthCheckInterval},
				{"csrf_header", view.CSRFHeader},
				{"csrf_cookies", joinList(view.CSRFCookies)},
				{"media_url", view.MediaURL},
				{"static_url", view.StaticURL},
				{"cookie_file", view.CookieFile},
				{"config_file", view.ConfigFile},
			})
			if err != nil || backend == nil {
				return err
			}
			r.printer.Header("Backend")
			return r.printer.KeyValues([][2]string{
				{"debug", strconv.FormatBool(backend.Debug)},
				{"media_url", backend.MediaURL},
				{"static_url", backend.StaticURL},
				{"app_version", backend.AppVersion},
			})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "also fetch GET /app/config/ from the backend")
	return cmd
}
