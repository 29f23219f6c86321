package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"portal-client/internal/domain"
)

type dashboard struct {
	Session  string              `json:"session"`
	User     *domain.Self        `json:"user,omitempty"`
	Featured []domain.Product    `json:"featured"`
	Stats    domain.ProductStats `json:"stats"`
	Popular  []domain.Download   `json:"popular"`
	Recent   []domain.Download   `json:"recent"`

	status domain.SessionStatus
}

func newDashboardCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the session and catalog highlights in one view",
		Long: `Fetch the session, featured products, catalog stats and the popular and
recent downloads concurrently and print them together.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}

			var d dashboard
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				state := a.Session.Resolve(ctx)
				d.status = state.Status
				d.Session = state.Status.String()
				d.User = state.User
				return nil
			})
			g.Go(func() (err error) {
				d.Featured, err = a.Catalog.FeaturedProducts(ctx)
				return err
			})
			g.Go(func() (err error) {
				d.Stats, err = a.Catalog.ProductStats(ctx)
				return err
			})
			g.Go(func() (err error) {
				d.Popular, err = a.Catalog.PopularDownloads(ctx)
				return err
			})
			g.Go(func() (err error) {
				d.Recent, err = a.Catalog.RecentDownloads(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			if r.flags.jsonOut {
				return printJSON(r.printer.Out(), d)
			}
			return r.printDashboard(d)
		},
	}
}

func (r *runner) printDashboard(d dashboard) error {
	p := r.printer
	who := "not signed in"
	if d.User != nil {
		who = d.User.Email
	}
	p.Print("%s %s", p.StatusBadge(d.status), who)

	p.Header("Featured products")
	if err := r.printProducts(d.Featured); err != nil {
		return err
	}
	p.Header("Catalog")
	if err := p.KeyValues(statsRows(d.Stats)); err != nil {
		return err
	}
	p.Header("Popular downloads")
	if err := r.printDownloads(d.Popular); err != nil {
		return err
	}
	p.Header("Recent downloads")
	return r.printDownloads(d.Recent)
}
