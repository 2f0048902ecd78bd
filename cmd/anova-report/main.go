// Command anova-report runs two-way ANOVA with outlier filtering over
// three-attribute datasets, either as an HTTP service or from the command
// line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/anova.report/internal/db"
	"github.com/banshee-data/anova.report/internal/fsutil"
	"github.com/banshee-data/anova.report/internal/monitoring"
	"github.com/banshee-data/anova.report/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode (debug logging)")
	listen     = flag.String("listen", ":8080", "Listen address")
	dbPath     = flag.String("db", "anova.db", "Path to the dataset database")
	configFile = flag.String("config", "", "Path to a JSON config file (optional)")
	grpcListen = flag.String("grpc-listen", "", "Address for the gRPC health service (disabled when empty)")
)

// errUsage is returned for malformed command lines; main exits with status 2.
var errUsage = errors.New("usage error")

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()
	monitoring.SetDebug(*devMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, flag.Args(), os.Stdin, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, db.ErrMigrateUsage), errors.Is(err, flag.ErrHelp):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		log.Fatalf("%v", err)
	}
}

// run dispatches a sub-command. With no arguments the server is started.
func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		return runServe(ctx, serveOptions{
			Listen:     *listen,
			GRPCListen: *grpcListen,
			DBPath:     *dbPath,
			ConfigPath: *configFile,
		})
	case "analyze":
		return runAnalyze(args, *dbPath, fsutil.OSFileSystem{}, out)
	case "submit":
		return runSubmit(ctx, args, fsutil.OSFileSystem{}, http.DefaultClient, out)
	case "migrate":
		return db.RunMigrateCommand(args, *dbPath, in, out)
	case "version":
		fmt.Fprintln(out, version.Current())
		return nil
	case "help":
		printUsage(out)
		return nil
	default:
		fmt.Fprintf(out, "Unknown command: %s\n\n", command)
		printUsage(out)
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `anova-report - two-way ANOVA with outlier filtering

Usage: anova-report [flags] <command> [options]

Commands:
  serve       Run the HTTP API (default)
  analyze     Analyze a dataset file and print the result as JSON
  submit      Send a dataset file to a running server
  migrate     Manage database migrations (see 'anova-report migrate help')
  version     Show build information
  help        Show this help message

Flags:
  -listen <addr>        HTTP listen address (default :8080)
  -db <path>            Dataset database (default anova.db)
  -config <file>        JSON config file
  -grpc-listen <addr>   gRPC health service address
  -dev                  Debug logging

Examples:
  anova-report -config config/anova.defaults.json serve
  anova-report analyze -plot /tmp/trial.png trial.json
  anova-report submit -server http://localhost:8080 -dataset trial trial.json
  anova-report migrate status
`)
}
