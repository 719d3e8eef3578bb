package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"callcenter-platform/internal/accounts"
	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/config"
	"callcenter-platform/internal/store"
	"callcenter-platform/migrations"
	"callcenter-platform/pkg/utils"

	"github.com/spf13/cobra"
)

const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitNotFound   = 2
	ExitInternal   = 4
)

type migrator interface {
	Up(ctx context.Context) ([]string, error)
	Status(ctx context.Context) ([]store.MigrationStatus, error)
}

type userSwitch interface {
	SetActive(ctx context.Context, email string, active bool) (accounts.User, error)
}

type callReader interface {
	Get(ctx context.Context, sc store.Scope, id string) (calls.Call, error)
}

// backend is what the commands need from the database.
type backend struct {
	migrations migrator
	users      userSwitch
	calls      callReader
	close      func()
}

// CLI holds the command tree and the lazily opened backend.
type CLI struct {
	rootCmd *cobra.Command
	db      config.DBConfig
	be      *backend

	// open builds the backend once config is loaded; tests replace it.
	open func(ctx context.Context, db config.DBConfig) (*backend, error)

	out        io.Writer
	errOut     io.Writer
	jsonOutput bool
}

func New() *CLI {
	c := &CLI{open: openPostgres, out: os.Stdout, errOut: os.Stderr}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the CLI and returns a process exit code.
func (c *CLI) Execute() int {
	return c.run(context.Background())
}

func (c *CLI) run(ctx context.Context) int {
	defer c.shutdown()
	if err := c.rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(c.errOut, "callctl: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callctl",
		Short: "Operator tooling for the call center platform",
		Long: `callctl applies database migrations, toggles user accounts and
inspects calls. It reads DATABASE_URL from the environment or a local .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")

	cmd.AddCommand(c.newMigrateCmd())
	cmd.AddCommand(c.newUserCmd())
	cmd.AddCommand(c.newCallCmd())
	return cmd
}

// connect loads config and opens the backend on first use so --help works offline.
func (c *CLI) connect(ctx context.Context) (*backend, error) {
	if c.be != nil {
		return c.be, nil
	}
	db, err := config.LoadDB()
	if err != nil {
		return nil, err
	}
	c.db = db
	be, err := c.open(ctx, db)
	if err != nil {
		return nil, err
	}
	c.be = be
	return be, nil
}

func (c *CLI) shutdown() {
	if c.be != nil && c.be.close != nil {
		c.be.close()
	}
	c.be = nil
}

func openPostgres(ctx context.Context, db config.DBConfig) (*backend, error) {
	pool, err := utils.OpenPostgres(ctx, db.URL, utils.PostgresPoolConfig{MaxConns: db.MaxConns})
	if err != nil {
		return nil, err
	}
	auditSvc := audit.NewService(audit.NewPostgresRepo(pool))
	return &backend{
		migrations: store.NewMigrator(pool, migrations.FS),
		// account toggles never hash, mint or revoke tokens
		users: accounts.NewService(accounts.NewPostgresRepo(pool), nil, nil, nil, auditSvc),
		calls: calls.NewService(calls.NewPostgresRepo(pool), nil, nil, auditSvc),
		close: pool.Close,
	}, nil
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *CLI) outputJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, apperr.ErrValidation):
		return ExitValidation
	default:
		return ExitInternal
	}
}
