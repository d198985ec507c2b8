package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"PosTerminal/app/config"
	"PosTerminal/app/database"
	"PosTerminal/app/services"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// env holds the services a command runs against
type env struct {
	cfg        *config.AppConfig
	conn       *gorm.DB
	store      *database.Store
	categories *services.CategoryService
	products   *services.ProductService
	staff      *services.StaffService
	kitchen    *services.KitchenService
}

func (e *env) close() {
	if sqlDB, err := e.conn.DB(); err == nil {
		sqlDB.Close()
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "posctl",
		Short:         "Administers the POS Terminal record store",
		Long:          `posctl seeds and inspects the catalog, staff and kitchen data used by the POS Terminal desktop app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if v.GetString("config") != "" {
				v.SetConfigFile(v.GetString("config"))
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("could not read %s: %w", v.GetString("config"), err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", v.ConfigFileUsed())
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML file with flag defaults")
	flags.String("data-dir", config.DataDir(), "directory holding config.json and the local database")
	flags.String("db-driver", "", "record store driver (sqlite or postgres), overrides config.json")
	flags.String("db-path", "", "sqlite database file, overrides config.json")
	flags.String("database-url", "", "postgres connection URL, overrides config.json")
	v.BindPFlags(flags)

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	open := func(ctx context.Context) (*env, error) {
		return openEnv(ctx, v)
	}

	rootCmd.AddCommand(
		newSeedCmd(open),
		newCategoriesCmd(open),
		newProductsCmd(open),
		newStaffCmd(open),
		newOrdersCmd(open),
	)
	return rootCmd
}

// openEnv loads config.json from the data directory, applies flag overrides and connects
func openEnv(ctx context.Context, v *viper.Viper) (*env, error) {
	dir := v.GetString("data-dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if d := v.GetString("db-driver"); d != "" {
		cfg.Database.Driver = d
	}
	if p := v.GetString("db-path"); p != "" {
		cfg.Database.Path = p
	}
	if u := v.GetString("database-url"); u != "" {
		cfg.Database.URL = u
		if v.GetString("db-driver") == "" {
			cfg.Database.Driver = config.DriverPostgres
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	store := database.NewStore(conn)
	base := services.NewBaseService(nil, nil)
	categories := services.NewCategoryService(store, base)

	e := &env{
		cfg:        cfg,
		conn:       conn,
		store:      store,
		categories: categories,
		products:   services.NewProductService(store, categories, base, cfg.System.LowStockThreshold),
		staff:      services.NewStaffService(store, base),
		kitchen:    services.NewKitchenService(store, base),
	}
	// Most commands validate against the loaded category list
	if _, err := categories.ListCategories(ctx); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func newSeedCmd(open func(context.Context) (*env, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog and staff accounts into empty tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if err := database.SeedInitialData(e.conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Seed data loaded")
			return nil
		},
	}
}
