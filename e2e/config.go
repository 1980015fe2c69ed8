package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_IT_BUCKET_URL points at a real bucket (s3://, gs://, file://). The suite is skipped without it.
	BucketURL string `envconfig:"RELAY_IT_BUCKET_URL"`
	// RELAY_IT_CHANNEL isolates the blobs of the suite from other users of the bucket
	Channel   string `envconfig:"RELAY_IT_CHANNEL" default:"relay-it"`
	ChunkSize uint64 `envconfig:"RELAY_IT_CHUNK_SIZE" default:"1048576"`
	FileSize  int    `envconfig:"RELAY_IT_FILE_SIZE" default:"3500000"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
