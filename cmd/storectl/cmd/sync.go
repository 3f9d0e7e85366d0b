package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/catalinamedinaleal/store/pkg/api"
	"github.com/catalinamedinaleal/store/pkg/observability"
	"github.com/catalinamedinaleal/store/pkg/store"
)

var (
	syncSalesLimit int
	syncSkipCache  bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local snapshot from the backend",
	Long: `Fetch the catalog, stock levels, dashboard summary and pending orders,
update the local durable snapshot and report what changed.

The snapshot is hydrated from the cache first, so a sync that fails
halfway still leaves the last known-good data in place.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().IntVar(&syncSalesLimit, "sales-limit", 50, "Maximum number of pending orders to fetch")
	syncCmd.Flags().BoolVar(&syncSkipCache, "no-cache", false, "Skip cache hydration before syncing")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, client, err := buildClient()
	if err != nil {
		return err
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Failed to close cache backend")
		}
	}()

	if cfg.Observability.MetricsEnabled {
		obsSvc := observability.NewService(log, cfg.Observability)
		if err := obsSvc.Start(ctx); err != nil {
			return fmt.Errorf("starting observability: %w", err)
		}

		defer func() {
			if stopErr := obsSvc.Stop(); stopErr != nil {
				log.WithError(stopErr).Warn("Failed to stop observability service")
			}
		}()
	}

	st := store.New(log, backend, cfg.Cache.GetTTL())

	if !syncSkipCache && st.HydrateFromCache(ctx) {
		log.WithField("last_sync", st.Get().LastSync).Info("Hydrated snapshot from cache")
	}

	st.SetBusy(true)
	defer st.SetBusy(false)

	if err := fetchAll(ctx, client, st); err != nil {
		return err
	}

	st.SetLastSync("")

	record := st.Get()
	fmt.Printf("synced: products=%d inventory=%d orders=%d\n",
		len(record.Products), len(record.Inventory), len(record.Orders))

	if record.Dashboard != nil {
		fmt.Printf("dashboard: low_stock=%d sales_today=%d revenue_cop=%d\n",
			record.Dashboard.LowStock, record.Dashboard.SalesToday, record.Dashboard.RevenueCOP)
	}

	return nil
}

// fetchAll pulls every dataset the snapshot tracks. The individual fetches
// run sequentially on purpose: the client coalesces identical requests, and
// the backend is a single-threaded spreadsheet script anyway.
func fetchAll(ctx context.Context, client api.Client, st *store.Store) error {
	res, err := client.ListProducts(ctx, "")
	if err != nil {
		return fmt.Errorf("fetching products: %w", err)
	}

	var products []store.Product
	if err := decodeField(res.Data, "products", &products); err != nil {
		return fmt.Errorf("decoding products: %w", err)
	}

	st.SetProducts(products)

	res, err = client.ListInventory(ctx)
	if err != nil {
		return fmt.Errorf("fetching inventory: %w", err)
	}

	var inventory []store.InventoryRow
	if err := decodeField(res.Data, "inventory", &inventory); err != nil {
		return fmt.Errorf("decoding inventory: %w", err)
	}

	st.SetInventory(inventory)

	res, err = client.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("fetching dashboard: %w", err)
	}

	var dashboard store.Dashboard
	if err := decodeField(res.Data, "summary", &dashboard); err != nil {
		return fmt.Errorf("decoding dashboard: %w", err)
	}

	st.SetDashboard(&dashboard)

	res, err = client.ListSales(ctx, "pending", false, syncSalesLimit)
	if err != nil {
		return fmt.Errorf("fetching pending orders: %w", err)
	}

	var orders []store.Order
	if err := decodeField(res.Data, "sales", &orders); err != nil {
		return fmt.Errorf("decoding pending orders: %w", err)
	}

	st.SetOrders(orders)

	return nil
}

// decodeField re-marshals one field of a response document into a typed
// destination. A missing field leaves the destination untouched.
func decodeField(doc map[string]any, key string, out any) error {
	value, ok := doc[key]
	if !ok || value == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, out)
}
