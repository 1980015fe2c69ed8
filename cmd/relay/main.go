package main

import (
	"chunk-relay/contract"
	"chunk-relay/domain"
	"chunk-relay/infrastructure/blobstore"
	"chunk-relay/infrastructure/chunk"
	"chunk-relay/infrastructure/search"
	"chunk-relay/infrastructure/storage"
	"chunk-relay/internal"
	"chunk-relay/runtime"
	"chunk-relay/runtime/workers"
	"chunk-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Exit codes reported to the shell.
const (
	exitOK         = 0
	exitRuntime    = 1
	exitConfig     = 2
	exitIncomplete = 3
)

var errUsage = errors.New("usage")

func main() {
	code, err := run(os.Args[1:])
	if err != nil && !errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
	}
	os.Exit(code)
}

// run wires the stores and the coordinator, then dispatches one command.
// Every deferred close runs before the exit code reaches main.
func run(args []string) (int, error) {
	if len(args) == 0 {
		printUsage()
		return exitConfig, errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage()
		return exitConfig, fmt.Errorf("unknown command %q", args[0])
	}
	if len(args)-1 < cmd.minArgs || len(args)-1 > cmd.maxArgs {
		fmt.Fprintf(os.Stderr, "usage: relay %s %s\n", args[0], cmd.usage)
		return exitConfig, errUsage
	}

	// 1. Configuration & Logger
	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}
	sizes, err := config.Sizes()
	if err != nil {
		return exitConfig, err
	}
	if err := config.EnsureDirs(); err != nil {
		return exitRuntime, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Local state
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Debug("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.IndexPath()))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Debug("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Remote store
	bucket, err := blob.OpenBucket(ctx, config.BucketURL)
	if err != nil {
		return exitRuntime, fmt.Errorf("open bucket %s: %w", config.BucketURL, err)
	}
	defer bucket.Close()

	// 4. Catalog & Coordinator
	maintenance := blobstore.NewClient(bucket, logger)
	catalog := services.NewCatalogService(
		storage.NewCatalogRepository(db, logger),
		search.NewCatalogIndex(blugeWriter, logger),
		maintenance, config.Channel, logger,
	)
	coordinator, err := runtime.NewCoordinator(logger, runtime.Options{
		MaxSessions: config.MaxSessions,
		Transfer: workers.TransferConfig{
			Channel:          config.Channel,
			TmpDir:           config.TmpDir(),
			ChunkSize:        sizes.Chunk,
			BufferSize:       sizes.Buffer,
			DownloadFullPath: config.DownloadFullPath,
		},
		DownloadDir:    config.DownloadDir(),
		ProgressBuffer: config.ProgressBuffer,
		RestartDelay:   config.RestartInterval,
	}, runtime.Dependencies{
		Resume:  storage.NewResumeRepository(db, logger),
		Indexes: storage.NewUploadIndexRepository(db),
		Catalog: catalog,
		Codec:   chunk.NewFileCodec(logger, sizes.MinFreeSpace),
		NewBlobStore: func(domain.SlotID) contract.BlobStore {
			return blobstore.NewClient(bucket, logger)
		},
		Maintenance: maintenance,
	})
	if err != nil {
		return exitRuntime, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	coordinator.Start(runCtx)
	defer coordinator.Stop()

	a := &app{coordinator: coordinator, out: os.Stdout, log: logger}
	if !cmd.recovery {
		a.warnPending()
	}
	return cmd.run(a, runCtx, args[1:])
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerPath())

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: relay <command> [arguments]\n\ncommands:")
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", name, commands[name].usage)
	}
}
