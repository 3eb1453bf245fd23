package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/urbannest/internal/flagx"
	"github.com/dmitrijs2005/urbannest/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero values mean "not set" and leave the current Config value alone.
type JsonConfig struct {
	Backend     string `json:"backend"`
	DatabaseDSN string `json:"database_dsn"`
	LocalDBPath string `json:"local_db_path"`
	LogLevel    string `json:"log_level"`

	JWTSecret  string          `json:"jwt_secret"`
	SessionTTL *timex.Duration `json:"session_ttl"`

	S3Region     string `json:"s3_region"`
	S3User       string `json:"s3_user"`
	S3Password   string `json:"s3_password"`
	S3Bucket     string `json:"s3_bucket"`
	S3Endpoint   string `json:"s3_endpoint"`
	S3PublicBase string `json:"s3_public_base"`

	GenAIKey   string `json:"genai_key"`
	GenAIModel string `json:"genai_model"`

	AssistantPerMinute *int            `json:"assistant_per_minute"`
	BreakerMaxFailures *uint32         `json:"breaker_max_failures"`
	BreakerOpenTimeout *timex.Duration `json:"breaker_open_timeout"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJSON overlays cfg with the file named by -c or -config. Without
// either flag it does nothing.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.LocalDBPath, jc.LocalDBPath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.JWTSecret, jc.JWTSecret)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3User, jc.S3User)
	setString(&cfg.S3Password, jc.S3Password)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3PublicBase, jc.S3PublicBase)
	setString(&cfg.GenAIKey, jc.GenAIKey)
	setString(&cfg.GenAIModel, jc.GenAIModel)

	if jc.SessionTTL != nil {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	if jc.AssistantPerMinute != nil {
		cfg.AssistantPerMinute = *jc.AssistantPerMinute
	}
	if jc.BreakerMaxFailures != nil {
		cfg.BreakerMaxFailures = *jc.BreakerMaxFailures
	}
	if jc.BreakerOpenTimeout != nil {
		cfg.BreakerOpenTimeout = jc.BreakerOpenTimeout.Duration
	}
	return nil
}
