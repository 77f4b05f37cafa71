package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solderlabs/cortex/internal/domain"
)

// FrameArchiver persists raw stream frames to object storage for replay and
// debugging. Archival is best effort: failures are logged and never surfaced
// to the stream path.
type FrameArchiver struct {
	writer domain.BlobWriter
	prefix string
	logger *slog.Logger
}

// NewFrameArchiver creates a FrameArchiver writing under the given key
// prefix, e.g. "raw". An empty prefix defaults to "raw".
func NewFrameArchiver(writer domain.BlobWriter, prefix string, logger *slog.Logger) *FrameArchiver {
	if prefix == "" {
		prefix = "raw"
	}
	return &FrameArchiver{
		writer: writer,
		prefix: prefix,
		logger: logger.With("component", "frame_archiver"),
	}
}

// ArchiveFrame uploads one raw frame. Keys are partitioned by wallet and day
// so replays of a single wallet stay cheap to list:
//
//	raw/{wallet}/2026-01-15/1736938800123456789.json
func (a *FrameArchiver) ArchiveFrame(ctx context.Context, wallet string, frame []byte) {
	now := time.Now().UTC()
	key := fmt.Sprintf("%s/%s/%s/%d.json",
		a.prefix, wallet, now.Format("2006-01-02"), now.UnixNano())

	if err := a.writer.Put(ctx, key, bytes.NewReader(frame), "application/json"); err != nil {
		a.logger.Warn("frame archive failed", "wallet", wallet, "key", key, "error", err)
	}
}
