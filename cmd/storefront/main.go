// storefront is the command-line front of the bakery storefront core:
// it signs in through the identity provider, reads the catalog through the
// REST-then-store fallback, and manages inventory and reports like the app's
// screens do.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/config"
	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/apiclient"
	"github.com/doceencanto/storefront-go/internal/infra/cache"
	"github.com/doceencanto/storefront-go/internal/infra/firestore"
	"github.com/doceencanto/storefront-go/internal/infra/identity"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
	"github.com/doceencanto/storefront-go/internal/infra/resilience"
	"github.com/doceencanto/storefront-go/internal/service"
	"github.com/doceencanto/storefront-go/internal/session"
)

const usage = `usage: storefront <command> [flags]

commands:
  login      sign in and show the resolved session
  products   list the catalog (flags: -category, -search)
  inventory  manage products (subcommands: add, quantity)
  reports    show the vendor sales dashboard
  status     backend health and data-path counters
`

// app bundles the wired clients and services for the subcommands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *observability.Metrics
	auth      *identity.Client
	api       *apiclient.Client
	session   *session.Manager
	catalog   *service.CatalogService
	inventory *service.InventoryService
	reports   *service.ReportsService
}

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	a := wire(cfg, logger)
	a.session.Start()
	defer a.session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+cfg.SessionLoadingTimeout)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "login":
		err = a.runLogin(ctx, os.Args[2:])
	case "products":
		err = a.runProducts(ctx, os.Args[2:])
	case "inventory":
		err = a.runInventory(ctx, os.Args[2:])
	case "reports":
		err = a.runReports(ctx, os.Args[2:])
	case "status":
		err = a.runStatus(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func wire(cfg *config.Config, logger *zap.Logger) *app {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	metrics := observability.NewMetrics()

	resCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	auth := identity.NewClient(httpClient, cfg.IdentityBaseURL, "", resilience.NewCircuitBreaker("identity"), logger)
	store := firestore.NewClient(httpClient, cfg.FirestoreBaseURL, cfg.FirestoreProject, auth, resilience.NewCircuitBreaker("firestore"), resCfg, logger)
	api := apiclient.NewClient(httpClient, cfg.APIBaseURL, auth, logger)

	catalog := service.NewCatalogService(api, store, cache.New[[]string](cfg.CacheTTL), metrics, logger)
	inventory := service.NewInventoryService(api, store, metrics, logger)
	reports := service.NewReportsService(api, store, catalog, metrics, logger)
	mgr := session.NewManager(auth, store, cfg.SessionLoadingTimeout, logger, metrics)

	return &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		auth:      auth,
		api:       api,
		session:   mgr,
		catalog:   catalog,
		inventory: inventory,
		reports:   reports,
	}
}

// signIn authenticates and waits for the session to settle, so role-gated
// output reflects the resolved state.
func (a *app) signIn(ctx context.Context, email, password string) (domain.SessionSnapshot, error) {
	if err := a.session.Login(ctx, email, password); err != nil {
		return domain.SessionSnapshot{}, err
	}

	deadline := time.After(a.cfg.SessionLoadingTimeout)
	for {
		snap := a.session.Snapshot()
		if snap.SignedIn() && !snap.Loading {
			return snap, nil
		}
		select {
		case <-a.session.Changes():
		case <-deadline:
			return a.session.Snapshot(), nil
		case <-ctx.Done():
			return a.session.Snapshot(), ctx.Err()
		}
	}
}

func (a *app) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return fmt.Errorf("-email and -password are required")
	}

	snap, err := a.signIn(ctx, *email, *password)
	if err != nil {
		return err
	}

	fmt.Printf("signed in as %s (uid %s)\n", snap.Principal.Email, snap.Principal.UID)
	if snap.Role == domain.RoleUnresolved {
		fmt.Println("role: unresolved")
	} else {
		fmt.Printf("role: %s\n", snap.Role)
	}
	return nil
}

func (a *app) runProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	category := fs.String("category", domain.CategoryAll, "category filter")
	search := fs.String("search", "", "name search")
	fs.Parse(args)

	products, err := a.catalog.ListProducts(ctx, *category, *search)
	if err != nil {
		return err
	}

	if len(products) == 0 {
		fmt.Println("no products match")
		return nil
	}
	for _, p := range products {
		marker := ""
		if p.LowStock() {
			marker = "  [low stock]"
		}
		fmt.Printf("%-36s  %-22s %-10s R$ %8.2f  x%d%s\n", p.ID, p.Name, p.Category, p.Price, p.Quantity, marker)
	}
	return nil
}

func (a *app) runInventory(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: storefront inventory <add|quantity> [flags]")
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("inventory add", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		name := fs.String("name", "", "product name")
		category := fs.String("category", "", "product category")
		price := fs.Float64("price", 0, "product price")
		description := fs.String("description", "", "product description")
		quantity := fs.Int("quantity", 0, "initial stock")
		fs.Parse(args[1:])

		if *email != "" {
			if _, err := a.signIn(ctx, *email, *password); err != nil {
				return err
			}
		}

		created, err := a.inventory.CreateProduct(ctx, &domain.NewProductInput{
			Name:        *name,
			Category:    *category,
			Price:       *price,
			Description: *description,
			Quantity:    *quantity,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", created.Name, created.ID)
		return nil

	case "quantity":
		fs := flag.NewFlagSet("inventory quantity", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		id := fs.String("id", "", "product id")
		quantity := fs.Int("quantity", -1, "new stock level")
		fs.Parse(args[1:])

		if *id == "" {
			return fmt.Errorf("-id is required")
		}
		if *email != "" {
			if _, err := a.signIn(ctx, *email, *password); err != nil {
				return err
			}
		}

		if err := a.inventory.UpdateQuantity(ctx, *id, *quantity); err != nil {
			return err
		}
		fmt.Printf("quantity of %s set to %d\n", *id, *quantity)
		return nil

	default:
		return fmt.Errorf("unknown inventory subcommand %q", args[0])
	}
}

func (a *app) runReports(ctx context.Context, args []string) error {
	report, err := a.reports.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("total sales:    R$ %.2f\n", report.Summary.TotalSales)
	fmt.Printf("orders:         %d\n", report.Summary.TotalOrders)
	fmt.Printf("average ticket: R$ %.2f\n", report.Summary.AverageTicket)
	fmt.Printf("top product:    %s\n", report.Summary.TopProduct)

	if len(report.LowStock) > 0 {
		fmt.Println("\nlow stock:")
		for _, p := range report.LowStock {
			fmt.Printf("  %-22s x%d\n", p.Name, p.Quantity)
		}
	}
	return nil
}

func (a *app) runStatus(ctx context.Context) error {
	env := a.api.Health(ctx)
	if env.Success {
		fmt.Printf("rest backend: %s (%s)\n", env.Data.Status, env.Data.Timestamp)
	} else {
		fmt.Printf("rest backend: unreachable (%s)\n", env.Error)
	}

	snap := a.metrics.GetDataSnapshot()
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
