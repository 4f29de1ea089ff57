package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/beanbocchi/tubeup/config"
	"github.com/beanbocchi/tubeup/internal/client/objectstore"
	"github.com/beanbocchi/tubeup/internal/client/objectstore/local"
	"github.com/beanbocchi/tubeup/internal/client/objectstore/storj"
	objsync "github.com/beanbocchi/tubeup/internal/client/objectstore/sync"
)

// maxPartSize is the largest part multipart storage accepts.
const maxPartSize int64 = 5 * 1024 * 1024 * 1024

type Service struct {
	objectStore objectstore.Client
	publicURL   string
	upload      config.Upload
	logger      *slog.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	assets   map[string]asset
}

// session is one open multipart upload. Guarded by Service.mu.
type session struct {
	id          string
	objectKey   string
	fileName    string
	contentType string
	fileSize    int64
	partSize    int64
	numParts    int
	createdAt   time.Time
	tags        map[int]string
	uploading   int // part bodies currently streaming
	completing  bool
}

type asset struct {
	contentType string
	size        int64
	checksum    string
}

func NewService(cfg *config.Config) (*Service, error) {
	var (
		store objectstore.Client
		err   error
	)
	switch cfg.Objectstore.Type {
	case "storj":
		store, err = storj.NewClient(context.Background(), storj.StorjConfig{
			AccessGrant: cfg.Objectstore.Storj.AccessGrant,
			Bucket:      cfg.Objectstore.Storj.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("create storj store: %w", err)
		}
	default:
		store, err = local.NewClient(local.LocalConfig{Root: cfg.Objectstore.Local.Root})
		if err != nil {
			return nil, fmt.Errorf("create local store: %w", err)
		}
	}

	return New(store, cfg.App.PublicURL, cfg.Upload, slog.Default())
}

// New builds a service on top of store. Every key is guarded by a per-key lock.
func New(store objectstore.Client, publicURL string, upload config.Upload, logger *slog.Logger) (*Service, error) {
	synced, err := objsync.NewSyncClient(objsync.SyncConfig{Client: store})
	if err != nil {
		return nil, fmt.Errorf("create sync store: %w", err)
	}
	if upload.PartSize <= 0 || upload.MaxParts <= 0 {
		return nil, fmt.Errorf("part size and part limit must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		objectStore: synced,
		publicURL:   strings.TrimRight(publicURL, "/"),
		upload:      upload,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*session),
		assets:      make(map[string]asset),
	}, nil
}

func partKey(sessionID string, partNumber int) string {
	return fmt.Sprintf("uploads/%s/part_%05d", sessionID, partNumber)
}

func (s *Service) partURL(sessionID string, partNumber int) string {
	return fmt.Sprintf("%s/api/v1/parts/%s/%d", s.publicURL, sessionID, partNumber)
}

func (s *Service) fileURL(objectKey string) string {
	return s.publicURL + "/files/" + objectKey
}

// partLength is the planned size of partNumber within the session.
func (sess *session) partLength(partNumber int) int64 {
	start := int64(partNumber-1) * sess.partSize
	return min(sess.partSize, sess.fileSize-start)
}
