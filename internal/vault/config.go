package vault

import (
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"github.com/arkadym/sealbox/internal/common"
	"github.com/arkadym/sealbox/internal/envelope"
	"github.com/arkadym/sealbox/internal/flagx"
)

// Config holds runtime settings for the vault daemon.
type Config struct {
	// Addr is the bind address for the custody HTTP boundary.
	Addr string
	// DataDir is the Badger database directory.
	DataDir string
	// Token is the bearer token the API server authenticates with.
	Token string
	// MasterKey seals every stored bundle at rest (base64, 32 bytes raw).
	MasterKey []byte
}

func loadDefaults(c *Config) {
	c.Addr = ":7600"
	c.DataDir = "./vault-data"
	c.Token = "vault-dev-token"
}

// LoadConfig builds the daemon config from defaults, environment and
// flags. The master key has no default: a vault that seals nothing is not
// a vault.
//
// Supported flags:
//
//	-a string   bind address (e.g., ":7600")
//	-d string   Badger data directory
//	-t string   bearer token
//	-m string   master key, base64 of 32 raw bytes (or SEALBOX_VAULT_MASTER_KEY)
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	loadDefaults(cfg)

	if v, ok := os.LookupEnv("SEALBOX_VAULT_ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := os.LookupEnv("SEALBOX_VAULT_DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := os.LookupEnv("SEALBOX_VAULT_TOKEN"); ok {
		cfg.Token = v
	}
	masterKey := os.Getenv("SEALBOX_VAULT_MASTER_KEY")

	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t", "-m"})
	fs := flag.NewFlagSet("vaultd", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to run the vault daemon")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "bearer token")
	fs.StringVar(&masterKey, "m", masterKey, "master key (base64)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(masterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: master key is not valid base64", common.ErrValidation)
	}
	if len(raw) != envelope.KeySize {
		return nil, fmt.Errorf("%w: master key must decode to %d bytes", common.ErrValidation, envelope.KeySize)
	}
	cfg.MasterKey = raw
	return cfg, nil
}
