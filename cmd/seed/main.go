package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/common/cnst"
	"github.com/opensurvey/monitor/internal/common/config"
	"github.com/opensurvey/monitor/pkg/logger"
	"github.com/opensurvey/monitor/pkg/version"
)

var (
	configPath string
	username   string
	password   string

	rootCmd = &cobra.Command{
		Use:   "seed",
		Short: "Seed the director account",
		Long:  `Creates the director account if it does not exist yet. Safe to run repeatedly`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of seed",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("seed version %s\n", version.Get())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", cnst.ApiServerYaml, "path to the configuration file")
	rootCmd.Flags().StringVar(&username, "username", "", "director username (defaults to the configured super admin)")
	rootCmd.Flags().StringVar(&password, "password", "", "director password (defaults to the configured super admin)")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	if username == "" {
		username = cfg.SuperAdmin.Username
	}
	if password == "" {
		password = cfg.SuperAdmin.Password
	}
	if username == "" || password == "" {
		lg.Fatal("no director credentials given; set --username/--password or the super_admin configuration")
	}

	lg.Info("seeding director account",
		zap.String("config", cfgPath),
		zap.String("username", username))

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		lg.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		lg.Fatal("failed to hash password", zap.Error(err))
	}

	created, err := database.EnsureDirector(context.Background(), db, username, string(hash))
	if err != nil {
		lg.Fatal("failed to seed director account", zap.Error(err))
	}
	if created {
		lg.Info("director account created", zap.String("username", username))
	} else {
		lg.Info("director account already exists", zap.String("username", username))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
