package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/scorekeeper/internal/flagx"
)

// serverFlags lists the flags parsed here; everything else on the command
// line is left for other components.
var serverFlags = []string{"-a", "-s", "-t", "-b", "-r", "-d", "-p", "-l", "-log-format", "-log-level"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string         HTTP bind address (e.g. ":5000")
//	-s string         JWT HMAC secret key
//	-t duration       access token validity (e.g. "72h")
//	-b string         store backend: redis or postgres
//	-r string         redis address (host:port or redis:// URL)
//	-d string         PostgreSQL DSN
//	-p string         redis key prefix
//	-l int            leaderboard size
//	-log-format str   json, text or zap
//	-log-level str    debug, info, warn or error
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.StringVar(&config.StoreBackend, "b", config.StoreBackend, "store backend (redis|postgres)")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisKeyPrefix, "p", config.RedisKeyPrefix, "redis key prefix")
	fs.IntVar(&config.LeaderboardSize, "l", config.LeaderboardSize, "leaderboard size")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format (json|text|zap)")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	return fs.Parse(args)
}
