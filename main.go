package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	bidding "bidding-engine/internal/biddingService"
	"bidding-engine/internal/config"
	"bidding-engine/internal/events"
	model "bidding-engine/internal/models"
	"bidding-engine/internal/orders"
	"bidding-engine/internal/participation"
	"bidding-engine/internal/payments"
	"bidding-engine/internal/payments/mpesa"
	"bidding-engine/internal/repository"
	"bidding-engine/internal/rounds"
	"bidding-engine/internal/server"
	"bidding-engine/utils"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "bidding-engine",
		Short:        "round-based auction and settlement engine",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "bidding-engine: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API and the payment sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-up",
		Short: "migrate the MySQL ledger all the way up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return repository.MigrateUp(cfg.MigrationsDir, cfg.DatabaseDSN)
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	utils.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var sink events.Sink
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		sink = events.NewKafkaSink(brokers, cfg.KafkaTopic)
		utils.Info("kafka event sink enabled", map[string]any{"brokers": brokers, "topic": cfg.KafkaTopic})
	}
	bus := events.NewBus(sink)
	defer func() {
		if err := bus.Close(); err != nil {
			utils.Warn("closing event bus", map[string]any{"error": err.Error()})
		}
	}()

	roundManager := rounds.NewManager(store, bus)
	biddingSvc := bidding.NewBiddingService(store)
	participationSvc := participation.NewService(store)
	orderSvc := orders.NewService(store, bus)

	if cfg.RoundsAutoReopen {
		bus.Subscribe(events.RoundExhausted, roundManager.ReopenOnExhausted)
	}

	retry := utils.DefaultRetryPolicy
	retry.MaxAttempts = cfg.Mpesa.MaxAttempts
	reconciler := payments.NewReconciler(store, newGateway(cfg), bus, payments.Options{
		PendingTimeout:  cfg.Payments.PendingTimeout,
		RequestTimeout:  cfg.Mpesa.RequestTimeout,
		ParkedRetention: cfg.Payments.ParkedRetention,
		Retry:           retry,
	})

	if cfg.StoreDriver == "memory" {
		prepopulateAuctions(ctx, roundManager)
	}

	router := server.SetupRouter(server.Services{
		Rounds:               roundManager,
		Bidding:              biddingSvc,
		Participation:        participationSvc,
		Orders:               orderSvc,
		Payments:             reconciler,
		CallbackSecret:       cfg.Payments.CallbackSecret,
		PaymentRatePerMinute: cfg.Payments.RatePerMinute,
		PaidParticipation:    !cfg.Payments.DirectJoin,
	})

	srv := &http.Server{
		Addr:    getPort(cfg),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("starting bidding engine", map[string]any{
			"addr":  srv.Addr,
			"store": cfg.StoreDriver,
			"mpesa": cfg.Mpesa.Environment,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return reconciler.RunSweeper(gctx, cfg.Payments.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		utils.Info("shutting down", map[string]any{"timeout": cfg.ShutdownTimeout.String()})
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore returns the configured ledger and its cleanup
func openStore(ctx context.Context, cfg *config.Config) (repository.LedgerDB, func(), error) {
	if cfg.StoreDriver == "mysql" {
		repo, err := repository.OpenSQLRepo(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {
			if err := repo.Close(); err != nil {
				utils.Warn("closing mysql store", map[string]any{"error": err.Error()})
			}
		}, nil
	}
	return repository.NewMemoryRepo(), func() {}, nil
}

func newGateway(cfg *config.Config) payments.Gateway {
	if cfg.Mpesa.Environment == "stub" {
		utils.Warn("using stub mpesa gateway, no real charges are made", nil)
		return mpesa.NewStubGateway()
	}
	return mpesa.NewClient(mpesa.Config{
		Environment:    cfg.Mpesa.Environment,
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		ShortCode:      cfg.Mpesa.Shortcode,
		Passkey:        cfg.Mpesa.Passkey,
		CallbackURL:    cfg.Mpesa.CallbackURL,
		Timeout:        cfg.Mpesa.RequestTimeout,
	})
}

// prepopulateAuctions adds sample draft listings to the in-memory store
func prepopulateAuctions(ctx context.Context, m *rounds.Manager) []model.Auction {
	listings := []model.Auction{
		{
			Title:            "Vintage watch",
			ProductType:      model.ProductAuction,
			BasePrice:        decimal.NewFromInt(5000),
			ParticipationFee: decimal.NewFromInt(100),
			MinPledge:        decimal.NewFromInt(5000),
			MaxPledge:        decimal.NewNullDecimal(decimal.NewFromInt(50000)),
			StockQuantity:    1,
		},
		{
			Title:            "Espresso machine",
			ProductType:      model.ProductBoth,
			BasePrice:        decimal.NewFromInt(12000),
			BuyNowPrice:      decimal.NewNullDecimal(decimal.NewFromInt(15000)),
			ParticipationFee: decimal.NewFromInt(200),
			MinPledge:        decimal.NewFromInt(12000),
			StockQuantity:    3,
		},
		{
			Title:         "Kettle",
			ProductType:   model.ProductBuyNow,
			BasePrice:     decimal.NewFromInt(2500),
			BuyNowPrice:   decimal.NewNullDecimal(decimal.NewFromInt(2500)),
			StockQuantity: 10,
		},
	}

	seeded := make([]model.Auction, 0, len(listings))
	for _, a := range listings {
		created, err := m.CreateAuction(ctx, a)
		if err != nil {
			utils.Warn("seeding listing failed", map[string]any{"title": a.Title, "error": err.Error()})
			continue
		}
		utils.Debug("seeded listing", map[string]any{"auction_id": created.ID, "title": created.Title})
		seeded = append(seeded, created)
	}
	return seeded
}

// getPort returns the listen address from config
func getPort(cfg *config.Config) string {
	return fmt.Sprintf(":%s", cfg.Port)
}
