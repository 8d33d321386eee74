package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nutriguide/nutriload/internal/config"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// GranularConnFlags holds the -h/-p/-U/-d/--sslmode flags.
// There is deliberately no password flag: use $PGPASSWORD, $DB_PASSWORD,
// ~/.pgpass or a connection string.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty ignores Database, which may be combined with a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// EnvVars are the connection-related environment variables. The DB_* names
// are accepted as fallbacks for the libpq PG* names.
type EnvVars struct {
	PGHOST       string
	PGPORT       string
	PGUSER       string
	PGPASSWORD   string
	PGDATABASE   string
	PGSSLMODE    string
	DATABASE_URL string

	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
}

// LoadFromEnvironment snapshots the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:       os.Getenv("PGHOST"),
		PGPORT:       os.Getenv("PGPORT"),
		PGUSER:       os.Getenv("PGUSER"),
		PGPASSWORD:   os.Getenv("PGPASSWORD"),
		PGDATABASE:   os.Getenv("PGDATABASE"),
		PGSSLMODE:    os.Getenv("PGSSLMODE"),
		DATABASE_URL: os.Getenv("DATABASE_URL"),
		DB_HOST:      os.Getenv("DB_HOST"),
		DB_PORT:      os.Getenv("DB_PORT"),
		DB_USER:      os.Getenv("DB_USER"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
	}
}

// ResolveConnectionParams builds the connection for the target database and
// names the maintenance database used for CREATE DATABASE.
//
// Precedence:
//  1. --connection, parsed as-is (exclusive with granular flags)
//  2. $DATABASE_URL when no granular flag is set
//  3. per parameter: flag > PG* env > DB_* env > nutriload.yaml > default
//
// With a connection string, -d still selects the target database and the
// string's own database becomes the maintenance database.
func ResolveConnectionParams(
	connStringFlag string,
	flags *GranularConnFlags,
	env *EnvVars,
	project *config.ProjectConfig,
) (*nutriload.ConnectionConfig, string, error) {
	if flags == nil {
		flags = &GranularConnFlags{}
	}
	if env == nil {
		env = &EnvVars{}
	}

	if connStringFlag != "" && !flags.IsEmpty() {
		return nil, "", fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://etl@localhost:5432/nutrition\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U etl -d nutrition\n"+
				"  3. Environment variables: PGHOST, PGPORT, PGUSER, PGDATABASE: %w",
			nutriload.ErrInvalidConfig,
		)
	}

	var pc config.ConnectionConfig
	if project != nil {
		pc = project.Connection
	}

	switch {
	case connStringFlag != "":
		return resolveFromConnectionString(connStringFlag, flags.Database, env)
	case flags.IsEmpty() && env.DATABASE_URL != "":
		return resolveFromConnectionString(env.DATABASE_URL, flags.Database, env)
	default:
		return resolveFromGranularParams(flags, env, pc)
	}
}

func resolveFromConnectionString(connStr, database string, env *EnvVars) (*nutriload.ConnectionConfig, string, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid connection string: %w", asConfigError(err))
	}

	if cfg.SSLMode == "" {
		cfg.SSLMode = firstNonEmpty(env.PGSSLMODE, "prefer")
	}

	maintenanceDB := firstNonEmpty(cfg.Database, nutriload.DefaultManagementDB)
	if database != "" {
		cfg.Database = database
	}
	return cfg, maintenanceDB, nil
}

func resolveFromGranularParams(
	flags *GranularConnFlags,
	env *EnvVars,
	pc config.ConnectionConfig,
) (*nutriload.ConnectionConfig, string, error) {
	cfg := &nutriload.ConnectionConfig{
		Host:             firstNonEmpty(flags.Host, env.PGHOST, env.DB_HOST, pc.Host, "localhost"),
		Username:         firstNonEmpty(flags.Username, env.PGUSER, env.DB_USER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME")),
		Password:         firstNonEmpty(env.PGPASSWORD, env.DB_PASSWORD),
		Database:         firstNonEmpty(flags.Database, env.PGDATABASE, env.DB_NAME, pc.Database),
		SSLMode:          firstNonEmpty(flags.SSLMode, env.PGSSLMODE, pc.SSLMode, "prefer"),
		AdditionalParams: make(map[string]string),
	}

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case env.PGPORT != "":
		port, err := parseEnvPort("PGPORT", env.PGPORT)
		if err != nil {
			return nil, "", err
		}
		cfg.Port = port
	case env.DB_PORT != "":
		port, err := parseEnvPort("DB_PORT", env.DB_PORT)
		if err != nil {
			return nil, "", err
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	maintenanceDB := firstNonEmpty(pc.ManagementDatabase, nutriload.DefaultManagementDB)
	return cfg, maintenanceDB, nil
}

func parseEnvPort(name, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid $%s value '%s': must be an integer: %w", name, value, nutriload.ErrInvalidConfig)
	}
	return port, nil
}

func asConfigError(err error) error {
	return fmt.Errorf("%w: %w", err, nutriload.ErrInvalidConfig)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
