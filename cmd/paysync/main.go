package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paysynclabs/paysync/internal/config"
	"github.com/paysynclabs/paysync/internal/importer"
	importerdomain "github.com/paysynclabs/paysync/internal/importer/domain"
	"github.com/paysynclabs/paysync/internal/migration"
	"github.com/paysynclabs/paysync/internal/observability"
	"github.com/paysynclabs/paysync/internal/payment"
	"github.com/paysynclabs/paysync/internal/provider/registry"
	"github.com/paysynclabs/paysync/internal/ratelimit"
	"github.com/paysynclabs/paysync/internal/redis"
	"github.com/paysynclabs/paysync/internal/server"
	"github.com/paysynclabs/paysync/internal/user"
	"github.com/paysynclabs/paysync/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "paysync",
		Short:   "PaySync payment reconciliation engine",
		Version: readVersionFromEnv(),
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newImportCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reconciliation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [provider|all]",
		Short: "Run a one-shot import of payment provider orders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "all"
			if len(args) == 1 {
				target = strings.ToLower(strings.TrimSpace(args[0]))
			}
			return runImport(target)
		},
	}
}

func runMigrate() error {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runServe() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		redis.Module,
		ratelimit.Module,
		user.Module,
		payment.Module,
		registry.Module,
		importer.Module,
		server.Module,
	)
	app.Run()
}

func runImport(target string) error {
	var svc importerdomain.Service

	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		user.Module,
		payment.Module,
		registry.Module,
		importer.Module,
		fx.Populate(&svc),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("import failed to start: %w", err)
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	var result any
	var err error
	if target == "all" {
		result, err = svc.ImportAll(ctx)
	} else {
		result, err = svc.ImportProvider(ctx, target)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
