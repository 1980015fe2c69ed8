package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	MaxSessions      int           `env:"MAX_SESSIONS,default=4" validate:"min=1,max=64"`
	ChunkSize        string        `env:"CHUNK_SIZE,default=2000MiB" validate:"required"`
	BufferSize       string        `env:"BUFFER_SIZE,default=2000KiB" validate:"required"`
	MinFreeSpace     string        `env:"MIN_FREE_SPACE,default=0B"`
	DataPath         string        `env:"DATA_PATH,default=./data" validate:"required"`
	TmpPath          string        `env:"TMP_PATH"`
	BucketURL        string        `env:"BUCKET_URL,required=true" validate:"required"`
	Channel          string        `env:"CHANNEL,default=me" validate:"required,excludesall=/"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	DownloadFullPath bool          `env:"DOWNLOAD_FULL_PATH,default=false"`
	ProgressBuffer   int           `env:"PROGRESS_BUFFER,default=64" validate:"min=1"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}

// Sizes are the byte counts of the human readable size settings.
type Sizes struct {
	Chunk        uint64
	Buffer       uint64
	MinFreeSpace uint64
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := config.Sizes(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Sizes() (Sizes, error) {
	chunk, err := humanize.ParseBytes(c.ChunkSize)
	if err != nil {
		return Sizes{}, fmt.Errorf("CHUNK_SIZE: %w", err)
	}
	buffer, err := humanize.ParseBytes(c.BufferSize)
	if err != nil {
		return Sizes{}, fmt.Errorf("BUFFER_SIZE: %w", err)
	}
	minFree, err := humanize.ParseBytes(c.MinFreeSpace)
	if err != nil {
		return Sizes{}, fmt.Errorf("MIN_FREE_SPACE: %w", err)
	}
	if chunk == 0 || buffer == 0 {
		return Sizes{}, fmt.Errorf("CHUNK_SIZE and BUFFER_SIZE must be positive")
	}
	if buffer > chunk {
		return Sizes{}, fmt.Errorf("BUFFER_SIZE (%s) larger than CHUNK_SIZE (%s)", c.BufferSize, c.ChunkSize)
	}
	return Sizes{Chunk: chunk, Buffer: buffer, MinFreeSpace: minFree}, nil
}

func (c Config) BadgerPath() string {
	return filepath.Join(c.DataPath, "badger")
}

func (c Config) IndexPath() string {
	return filepath.Join(c.DataPath, "index")
}

func (c Config) DownloadDir() string {
	return filepath.Join(c.DataPath, "downloads")
}

func (c Config) TmpDir() string {
	if c.TmpPath != "" {
		return c.TmpPath
	}
	return filepath.Join(c.DataPath, "tmp")
}

// EnsureDirs creates every local directory the relay writes to.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.BadgerPath(), c.IndexPath(), c.DownloadDir(), c.TmpDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
