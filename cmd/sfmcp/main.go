// sfmcp - Salesforce MCP server
// Exposes schema discovery and read-only SOQL over the Model Context
// Protocol, on stdio by default or streamable HTTP with --http.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/matiasleandrokruk/sfmcp/internal/domain/audit"
	"github.com/matiasleandrokruk/sfmcp/internal/domain/org"
	"github.com/matiasleandrokruk/sfmcp/internal/infra/config"
	"github.com/matiasleandrokruk/sfmcp/internal/infra/salesforce"
	"github.com/matiasleandrokruk/sfmcp/internal/infra/sqlite"
	"github.com/matiasleandrokruk/sfmcp/internal/server"
	"github.com/matiasleandrokruk/sfmcp/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("sfmcp", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	httpAddr := fs.String("http", "", "Serve MCP over HTTP on this address instead of stdio")
	auditDB := fs.String("audit-db", "", "SQLite path for the tool invocation audit trail")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, "sfmcp:", err) //nolint:errcheck
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(errOut, "sfmcp:", err) //nolint:errcheck
		return 1
	}
	// Flags win over environment and config file.
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *auditDB != "" {
		cfg.AuditDB = *auditDB
	}

	if err := serve(cfg); err != nil {
		fmt.Fprintln(errOut, "sfmcp:", err) //nolint:errcheck
		return 1
	}
	return 0
}

// serve wires the provider, services, and transport, and blocks until the
// process is signalled or the client disconnects. Nothing is written to
// stdout here: in stdio mode that stream belongs to the MCP session.
func serve(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := salesforce.NewProvider(loginFunc(cfg))
	orgSvc := org.NewService(org.ProviderFunc(func(ctx context.Context) (org.API, error) {
		client, err := provider.Get(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	}))

	var auditSvc *audit.Service
	if cfg.AuditDB != "" {
		db, err := sqlite.NewDB(cfg.AuditDB)
		if err != nil {
			return fmt.Errorf("open audit db: %w", err)
		}
		defer db.Close() //nolint:errcheck
		if err := sqlite.MigrateUp(db); err != nil {
			return fmt.Errorf("migrate audit db: %w", err)
		}
		auditSvc = audit.NewService(db)
	}

	srv := server.New(orgSvc, auditSvc)

	var err error
	if cfg.HTTPAddr != "" {
		err = srv.RunHTTP(ctx, server.DefaultHTTPConfig(cfg.HTTPAddr))
	} else {
		err = srv.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loginFunc binds the configured auth method to a login closure. Credential
// validation happens inside the closure, on first tool use, so commands
// that never touch Salesforce work without any credentials set.
func loginFunc(cfg config.Config) salesforce.LoginFunc {
	opts := salesforce.Options{
		Domain:     cfg.Domain,
		APIVersion: cfg.APIVersion,
	}

	if cfg.AuthMethod == config.AuthMethodJWT {
		return func(ctx context.Context) (*salesforce.Client, error) {
			if cfg.Username == "" || cfg.ClientID == "" || cfg.PrivateKeyPath == "" {
				return nil, errors.New("jwt auth requires SALESFORCE_USERNAME, SALESFORCE_CLIENT_ID, and SALESFORCE_PRIVATE_KEY environment variables")
			}
			pem, err := os.ReadFile(cfg.PrivateKeyPath)
			if err != nil {
				return nil, fmt.Errorf("read private key: %w", err)
			}
			return salesforce.LoginJWT(ctx, salesforce.JWTCredentials{
				Username:      cfg.Username,
				ClientID:      cfg.ClientID,
				PrivateKeyPEM: pem,
			}, opts)
		}
	}

	return func(ctx context.Context) (*salesforce.Client, error) {
		if err := cfg.ValidateCredentials(); err != nil {
			return nil, err
		}
		return salesforce.Login(ctx, salesforce.Credentials{
			Username:      cfg.Username,
			Password:      cfg.Password,
			SecurityToken: cfg.SecurityToken,
		}, opts)
	}
}

func printHelp(out io.Writer) {
	helpText := `sfmcp - Salesforce MCP server

Exposes four tools over the Model Context Protocol:
  list_objects        List all objects in the connected org
  describe_object     Field-level metadata for one object
  execute_soql_query  Run a read-only SOQL query
  get_soql_help       SOQL syntax reference

Usage:
  sfmcp [options]

Options:
  --version          Show version information
  --help             Show this help message
  --http ADDR        Serve MCP over streamable HTTP instead of stdio
  --audit-db PATH    Record tool invocations to a SQLite audit trail

Environment:
  SALESFORCE_USERNAME, SALESFORCE_PASSWORD, SALESFORCE_SECURITY_TOKEN
                     Credentials for the password auth method (required)
  SALESFORCE_AUTH_METHOD
                     "password" (default) or "jwt"
  SALESFORCE_CLIENT_ID, SALESFORCE_PRIVATE_KEY
                     Connected-app consumer key and key path for jwt auth
  SALESFORCE_DOMAIN  "login" (default) or "test" for sandboxes
  SALESFORCE_API_VERSION
                     REST API version, default 62.0
  SFMCP_CONFIG       Optional YAML config file for non-secret settings

Examples:
  sfmcp
  sfmcp --http :8080
  sfmcp --audit-db /var/lib/sfmcp/audit.db`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
