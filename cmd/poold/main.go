// Poold is the operator daemon for a privpool instance: it connects to the
// account ledger and pool-state store, initializes the pool on first run if
// asked to, and otherwise idles, mirroring the thin-driver shape this
// lineage's node daemon uses. It is not a prover and does not run the
// circuit compiler or trusted-setup ceremony — those are external
// collaborators per spec.md §1.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/veilmix/privpool/internal/pool"
	"github.com/veilmix/privpool/internal/runtime"
	"github.com/veilmix/privpool/pkg/types"
)

const (
	version = "0.1.0"
	banner  = `
  ____       _       ____             _
 |  _ \ _ __(_)_   _|  _ \ ___   ___ | |
 | |_) | '__| \ \ / / |_) / _ \ / _ \| |
 |  __/| |  | |\ V /|  __/ (_) | (_) | |
 |_|   |_|  |_| \_/ |_|   \___/ \___/|_|

  Privacy Pool Daemon v%s
`
)

// Config holds node configuration, mirroring cmd/ccoind's Config shape.
type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// Pool parameters, consulted only on first run.
	Denomination uint64
	VKFile       string
	Authority    string
	RentMinimum  uint64

	// Data
	DataDir string
}

func main() {
	cfg := parseFlags()

	fmt.Printf(banner, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.DBHost, "db-host", "localhost", "PostgreSQL host")
	flag.IntVar(&cfg.DBPort, "db-port", 5432, "PostgreSQL port")
	flag.StringVar(&cfg.DBUser, "db-user", "privpool", "PostgreSQL user")
	flag.StringVar(&cfg.DBPassword, "db-password", "", "PostgreSQL password")
	flag.StringVar(&cfg.DBName, "db-name", "privpool", "PostgreSQL database name")

	flag.Uint64Var(&cfg.Denomination, "denomination", 0, "fixed deposit/withdraw amount in lamports (first run only)")
	flag.StringVar(&cfg.VKFile, "vk-file", "", "path to the raw Groth16 verifying-key bytes (first run only)")
	flag.StringVar(&cfg.Authority, "authority", "", "hex-encoded 32-byte pool authority address (first run only)")
	flag.Uint64Var(&cfg.RentMinimum, "rent-minimum", 890_880, "rent-exemption minimum lamports for program-owned accounts")

	flag.StringVar(&cfg.DataDir, "data-dir", "./data", "local data directory")

	flag.Parse()

	return cfg
}

func run(ctx context.Context, cfg *Config) error {
	fmt.Println("Starting privpool daemon...")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	fmt.Println("Connecting to database...")
	dbConfig := &runtime.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  "disable",
		MaxConns: 20,
	}

	accounts, err := runtime.NewPostgresStore(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer accounts.Close()
	fmt.Println("Database connected.")

	stateStore := pool.NewPostgresStateStore(accounts.Pool())
	ctrl := pool.NewController(stateStore, accounts, cfg.RentMinimum)

	fmt.Printf("Pool state address: %s\n", ctrl.PoolStateAddress())
	fmt.Printf("Vault address:      %s\n", ctrl.VaultAddress())

	exists, err := stateStore.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check pool state: %w", err)
	}

	if !exists {
		if err := initializeFromFlags(ctx, ctrl, accounts, cfg); err != nil {
			return err
		}
	} else {
		fmt.Println("Pool already initialized.")
	}

	fmt.Println("Privpool daemon started successfully!")
	fmt.Println("Press Ctrl+C to stop.")

	<-ctx.Done()

	fmt.Println("Daemon stopped.")
	return nil
}

// initializeFromFlags runs Initialize using the operator-supplied
// denomination, verifying-key file, and authority address. It is a no-op
// (with a warning) if those flags were not supplied — the operator is
// expected to invoke the daemon once with them set and thereafter run it
// bare.
func initializeFromFlags(ctx context.Context, ctrl *pool.Controller, accounts runtime.Store, cfg *Config) error {
	if cfg.Denomination == 0 || cfg.VKFile == "" || cfg.Authority == "" {
		fmt.Println("Pool is not yet initialized. Re-run with -denomination, -vk-file, and -authority to initialize it.")
		return nil
	}

	vkBytes, err := os.ReadFile(cfg.VKFile)
	if err != nil {
		return fmt.Errorf("failed to read verifying-key file: %w", err)
	}

	authorityBytes, err := hex.DecodeString(strings.TrimPrefix(cfg.Authority, "0x"))
	if err != nil || len(authorityBytes) != types.AddressSize {
		return fmt.Errorf("invalid -authority: expected %d hex-encoded bytes", types.AddressSize)
	}
	authority := types.AddressFromBytes(authorityBytes)

	if err := accounts.CreateAccount(ctx, authority, cfg.RentMinimum*2, runtime.SystemOwner); err != nil && err != runtime.ErrAccountExists {
		return fmt.Errorf("failed to fund authority account: %w", err)
	}

	fmt.Printf("Initializing pool with denomination %d...\n", cfg.Denomination)
	if err := ctrl.Initialize(ctx, cfg.Denomination, vkBytes, authority); err != nil {
		return fmt.Errorf("failed to initialize pool: %w", err)
	}
	fmt.Println("Pool initialized.")
	return nil
}
