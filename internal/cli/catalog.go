package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"portal-client/internal/app"
	"portal-client/internal/domain"
)

func newProductsCmd(r *runner) *cobra.Command {
	var (
		search   string
		minPrice float64
		maxPrice float64
		ordering string
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		Long: `List products, optionally filtered by name and price.

Examples:
  portalctl products
  portalctl products --search router --max 200 --ordering -price
  portalctl products get 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.ProductFilter{Search: search, Ordering: ordering}
			if ordering != "" && !domain.ValidOrdering(ordering) {
				return usageError("invalid ordering %q: use one of %s", ordering, joinList(domain.ProductOrderings))
			}
			if cmd.Flags().Changed("min") {
				filter.MinPrice = &minPrice
			}
			if cmd.Flags().Changed("max") {
				filter.MaxPrice = &maxPrice
			}
			a, err := r.app()
			if err != nil {
				return err
			}
			products, err := a.Catalog.Products(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return r.printProducts(products)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match name or description")
	cmd.Flags().Float64Var(&minPrice, "min", 0, "minimum price")
	cmd.Flags().Float64Var(&maxPrice, "max", 0, "maximum price")
	cmd.Flags().StringVar(&ordering, "ordering", "", "sort order: "+joinList(domain.ProductOrderings))

	featured := &cobra.Command{
		Use:   "featured",
		Short: "List featured products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			products, err := a.Catalog.FeaturedProducts(cmd.Context())
			if err != nil {
				return err
			}
			return r.printProducts(products)
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			s, err := a.Catalog.ProductStats(cmd.Context())
			if err != nil {
				return err
			}
			if r.flags.jsonOut {
				return printJSON(r.printer.Out(), s)
			}
			return r.printer.KeyValues(statsRows(s))
		},
	}

	priceRange := &cobra.Command{
		Use:   "price-range",
		Short: "Show the lowest and highest price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			pr, err := a.Catalog.PriceRange(cmd.Context())
			if err != nil {
				return err
			}
			if r.flags.jsonOut {
				return printJSON(r.printer.Out(), pr)
			}
			return r.printer.KeyValues([][2]string{
				{"min_price", string(pr.MinPrice)},
				{"max_price", string(pr.MaxPrice)},
				{"count", strconv.Itoa(pr.Count)},
			})
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := r.app()
			if err != nil {
				return err
			}
			p, err := a.Catalog.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			return r.printProducts([]domain.Product{p})
		},
	}

	cmd.AddCommand(featured, stats, priceRange, get)
	return cmd
}

func newDownloadsCmd(r *runner) *cobra.Command {
	list := func(fetch func(a *app.App, cmd *cobra.Command) ([]domain.Download, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := r.app()
			if err != nil {
				return err
			}
			downloads, err := fetch(a, cmd)
			if err != nil {
				return err
			}
			return r.printDownloads(downloads)
		}
	}

	cmd := &cobra.Command{
		Use:   "downloads",
		Short: "List downloadable files",
		Args:  cobra.NoArgs,
		RunE: list(func(a *app.App, cmd *cobra.Command) ([]domain.Download, error) {
			return a.Catalog.Downloads(cmd.Context())
		}),
	}

	popular := &cobra.Command{
		Use:   "popular",
		Short: "List the most downloaded files",
		Args:  cobra.NoArgs,
		RunE: list(func(a *app.App, cmd *cobra.Command) ([]domain.Download, error) {
			return a.Catalog.PopularDownloads(cmd.Context())
		}),
	}

	recent := &cobra.Command{
		Use:   "recent",
		Short: "List the newest files",
		Args:  cobra.NoArgs,
		RunE: list(func(a *app.App, cmd *cobra.Command) ([]domain.Download, error) {
			return a.Catalog.RecentDownloads(cmd.Context())
		}),
	}

	var dest string
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a download, or save its file with -o",
		Long: `Show a download's details. With -o the file itself is fetched: "-" writes
it to stdout, a directory keeps the server's filename, anything else is the
target path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := r.app()
			if err != nil {
				return err
			}
			if dest == "" {
				d, err := a.Catalog.Download(cmd.Context(), id)
				if err != nil {
					return err
				}
				return r.printDownloads([]domain.Download{d})
			}
			if dest == "-" {
				_, err := a.Catalog.DownloadFile(cmd.Context(), id, cmd.OutOrStdout())
				return err
			}
			path, err := saveDownload(cmd, a, id, dest)
			if err != nil {
				return err
			}
			r.printer.Success(fmt.Sprintf("Saved %s", path))
			return nil
		},
	}
	get.Flags().StringVarP(&dest, "output", "o", "", `save the file to a path, a directory, or "-" for stdout`)

	cmd.AddCommand(popular, recent, get)
	return cmd
}

// saveDownload streams the file to a temp file next to the target and renames it into place.
func saveDownload(cmd *cobra.Command, a *app.App, id int, dest string) (string, error) {
	dir, target := dest, ""
	if info, err := os.Stat(dest); err != nil || !info.IsDir() {
		dir, target = filepath.Dir(dest), dest
	}

	tmp, err := os.CreateTemp(dir, ".portalctl-download-*")
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	name, err := a.Catalog.DownloadFile(cmd.Context(), id, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("write download file: %w", closeErr)
	}
	if err != nil {
		return "", err
	}

	if target == "" {
		base := filepath.Base(name)
		if base == "." || base == string(filepath.Separator) || base == "" {
			base = fmt.Sprintf("download-%d", id)
		}
		target = filepath.Join(dir, base)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}
	return target, nil
}

func (r *runner) printProducts(products []domain.Product) error {
	if r.flags.jsonOut {
		return printJSON(r.printer.Out(), products)
	}
	if len(products) == 0 {
		r.printer.Info("No products found.")
		return nil
	}
	return r.printer.Products(products)
}

func (r *runner) printDownloads(downloads []domain.Download) error {
	if r.flags.jsonOut {
		return printJSON(r.printer.Out(), downloads)
	}
	if len(downloads) == 0 {
		r.printer.Info("No downloads found.")
		return nil
	}
	return r.printer.Downloads(downloads)
}

func statsRows(s domain.ProductStats) [][2]string {
	return [][2]string{
		{"total_products", strconv.Itoa(s.TotalProducts)},
		{"average_price", string(s.AveragePrice)},
		{"min_price", string(s.MinPrice)},
		{"max_price", string(s.MaxPrice)},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, usageError("invalid id %q", s)
	}
	return id, nil
}
