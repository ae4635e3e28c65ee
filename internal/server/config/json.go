package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/arkadym/sealbox/internal/flagx"
	"github.com/arkadym/sealbox/internal/timex"
)

// JsonConfig is the intermediate DTO for JSON configuration files. Interval
// fields use timex.Duration so both "15m" strings and integer nanosecond
// values parse. After unmarshalling, its fields are copied into Config.
type JsonConfig struct {
	EndpointAddr                string         `json:"endpoint_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	VaultBaseURL                string         `json:"vault_base_url"`
	VaultToken                  string         `json:"vault_token"`
	VaultTimeout                timex.Duration `json:"vault_timeout"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	RecoveryAttemptLimit        int            `json:"recovery_attempt_limit"`
	RecoveryAttemptWindow       timex.Duration `json:"recovery_attempt_window"`
	ResetPINValidityDuration    timex.Duration `json:"reset_pin_validity_duration"`
}

// parseJson loads configuration from the JSON file given via -c/-config.
// When neither flag is present, nothing is loaded. An unreadable or invalid
// file panics: a half-applied config is worse than a refusal to start.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.VaultBaseURL = c.VaultBaseURL
	config.VaultToken = c.VaultToken
	config.VaultTimeout = time.Duration(c.VaultTimeout.Duration)
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.RecoveryAttemptLimit = c.RecoveryAttemptLimit
	config.RecoveryAttemptWindow = time.Duration(c.RecoveryAttemptWindow.Duration)
	config.ResetPINValidityDuration = time.Duration(c.ResetPINValidityDuration.Duration)
}
