package e2e

import (
	"chunk-relay/contract"
	"chunk-relay/domain"
	"chunk-relay/infrastructure/blobstore"
	"chunk-relay/infrastructure/chunk"
	"chunk-relay/infrastructure/search"
	"chunk-relay/infrastructure/storage"
	"chunk-relay/runtime"
	"chunk-relay/runtime/workers"
	"chunk-relay/services"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// BaseRelaySuite runs a coordinator against the bucket named by RELAY_IT_BUCKET_URL.
// Local state lives in a temp dir, so a second coordinator on the same dir plays a restart.
type BaseRelaySuite struct {
	suite.Suite
	Config Config

	dir    string
	bucket *blob.Bucket
	db     *badger.DB
	writer *bluge.Writer
	log    *slog.Logger
}

// SetupSuite loads the environment configuration and opens the bucket
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.BucketURL == "" {
		s.T().Skip("RELAY_IT_BUCKET_URL not set")
	}

	s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.dir = s.T().TempDir()
	s.Require().NoError(os.MkdirAll(filepath.Join(s.dir, "tmp"), 0o755))

	s.bucket, err = blob.OpenBucket(context.Background(), s.Config.BucketURL)
	s.Require().NoError(err)
	s.db, err = badger.Open(badger.DefaultOptions(filepath.Join(s.dir, "badger")).WithLogger(nil))
	s.Require().NoError(err)
	s.writer, err = bluge.OpenWriter(bluge.DefaultConfig(filepath.Join(s.dir, "index")))
	s.Require().NoError(err)
}

func (s *BaseRelaySuite) TearDownSuite() {
	if s.writer != nil {
		_ = s.writer.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.bucket != nil {
		_ = s.bucket.Close()
	}
}

// Step prints a header for a scenario step
func (s *BaseRelaySuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// WithCoordinator runs fn against a fresh coordinator over the suite state.
func (s *BaseRelaySuite) WithCoordinator(maxSessions int, fn func(ctx context.Context, c *runtime.Coordinator)) {
	maintenance := blobstore.NewClient(s.bucket, s.log)
	catalog := services.NewCatalogService(
		storage.NewCatalogRepository(s.db, s.log),
		search.NewCatalogIndex(s.writer, s.log),
		maintenance, s.Config.Channel, s.log,
	)
	c, err := runtime.NewCoordinator(s.log, runtime.Options{
		MaxSessions: maxSessions,
		Transfer: workers.TransferConfig{
			Channel:    s.Config.Channel,
			TmpDir:     filepath.Join(s.dir, "tmp"),
			ChunkSize:  s.Config.ChunkSize,
			BufferSize: 64 * domain.KB,
		},
		DownloadDir:    filepath.Join(s.dir, "downloads"),
		ProgressBuffer: 256,
		RestartDelay:   100 * time.Millisecond,
	}, runtime.Dependencies{
		Resume:  storage.NewResumeRepository(s.db, s.log),
		Indexes: storage.NewUploadIndexRepository(s.db),
		Catalog: catalog,
		Codec:   chunk.NewFileCodec(s.log, 0),
		NewBlobStore: func(domain.SlotID) contract.BlobStore {
			return blobstore.NewClient(s.bucket, s.log)
		},
		Maintenance: maintenance,
	})
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	c.Start(ctx)
	defer c.Stop()

	fn(ctx, c)
}
