package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/urbannest/internal/flagx"
)

var knownFlags = []string{
	"-b", "-d", "-l", "-log-level", "-jwt-secret", "-session-ttl",
	"-s3-region", "-s3-user", "-s3-password", "-s3-bucket", "-s3-endpoint", "-s3-public-base",
	"-genai-key", "-genai-model", "-assistant-rate", "-breaker-failures", "-breaker-timeout",
}

// parseFlags populates Config fields from command-line flags.
//
// Short forms:
//
//	-b string   backend kind: postgres or memory
//	-d string   postgres DSN
//	-l string   path of the local SQLite store
//
// The remaining flags use long names matching the JSON keys. args are
// filtered with flagx.FilterArgs so flags owned by other components do not
// break parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("urbannest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "backend kind (postgres|memory)")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "postgres DSN")
	fs.StringVar(&cfg.LocalDBPath, "l", cfg.LocalDBPath, "local store path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "session token signing secret")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "session lifetime")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "s3 region")
	fs.StringVar(&cfg.S3User, "s3-user", cfg.S3User, "s3 access key")
	fs.StringVar(&cfg.S3Password, "s3-password", cfg.S3Password, "s3 secret key")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "s3 bucket for listing images")
	fs.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "custom s3 endpoint")
	fs.StringVar(&cfg.S3PublicBase, "s3-public-base", cfg.S3PublicBase, "public base url of stored images")
	fs.StringVar(&cfg.GenAIKey, "genai-key", cfg.GenAIKey, "gemini api key")
	fs.StringVar(&cfg.GenAIModel, "genai-model", cfg.GenAIModel, "gemini model")
	fs.IntVar(&cfg.AssistantPerMinute, "assistant-rate", cfg.AssistantPerMinute, "assistant calls per minute, 0 for unlimited")
	failures := fs.Uint("breaker-failures", uint(cfg.BreakerMaxFailures), "consecutive failures that open the breaker")
	fs.DurationVar(&cfg.BreakerOpenTimeout, "breaker-timeout", cfg.BreakerOpenTimeout, "how long the breaker stays open")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	cfg.BreakerMaxFailures = uint32(*failures)
	return nil
}
