package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

var rootCmd = &cobra.Command{
	Use:   "nutriload",
	Short: "Load the USDA SR Legacy food database into PostgreSQL",
	Long: `nutriload reads the SR Legacy CSV release (food categories, nutrients,
foods and per-100g nutrient amounts), filters it down to a curated nutrient
set and loads it into PostgreSQL, then seeds the daily facts table.

Every stage commits before the next one starts and facts are committed in
chunks, so an interrupted run keeps its progress. Inserts skip rows that
already exist: rerunning against the same files changes nothing.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  13 - A stage failed while writing
  14 - An input file is missing or unreadable
  15 - Fact count below --min-records (with --strict)`,
	SilenceUsage: true,
}

// commonFlagValues holds the persistent flags shared by every command.
type commonFlagValues struct {
	connection, host, username, database, sslMode string
	port                                          int
	configPath                                    string
	timeout                                       time.Duration
	verbose                                       bool
	logFormat                                     string
}

var commonFlags commonFlagValues

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()

	// -h is the host shorthand, as in psql.
	pf.Bool("help", false, "Help for nutriload")

	pf.StringVar(&commonFlags.connection, "connection", "",
		"PostgreSQL connection string (URI or key=value format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username, --sslmode).\n"+
			"Alternative: DATABASE_URL environment variable.\n"+
			"Example: postgresql://etl@localhost:5432/nutrition")
	pf.StringVarP(&commonFlags.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > $DB_HOST > nutriload.yaml > localhost")
	pf.IntVarP(&commonFlags.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > $DB_PORT > nutriload.yaml > 5432")
	pf.StringVarP(&commonFlags.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER, $DB_USER or current OS user)")
	pf.StringVarP(&commonFlags.database, "database", "d", "",
		"Target database name (or $PGDATABASE, $DB_NAME, or the connection string's database)")
	pf.StringVar(&commonFlags.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")

	pf.StringVar(&commonFlags.configPath, "config", "",
		"Path to a config file (default: ./nutriload.yaml when present)")
	pf.DurationVar(&commonFlags.timeout, "timeout", nutriload.DefaultTimeout,
		"Catastrophic failure protection timeout\n"+
			"Prevents indefinite hangs from network issues or lock waits\n"+
			"Examples: 90s, 10m, 1h")
	pf.BoolVarP(&commonFlags.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	pf.StringVar(&commonFlags.logFormat, "log-format", logFormatText, "Log output format: text|json")

	_ = rootCmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", completeLogFormats)
}
