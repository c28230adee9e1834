package ingest

import (
	"context"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/mailroom/internal/domain"
)

const defaultAttachmentExt = ".bin"
const defaultContentType = "application/octet-stream"

// AttachmentIngestor persists attachment parts to object storage under a
// ticket-scoped path. Per-attachment failures are logged and skipped; they
// never abort the batch or the reply.
type AttachmentIngestor struct {
	store  ObjectStore
	logger *zap.Logger
}

// NewAttachmentIngestor constructs the ingestor.
func NewAttachmentIngestor(store ObjectStore, logger *zap.Logger) *AttachmentIngestor {
	return &AttachmentIngestor{store: store, logger: logger}
}

// Ingest writes each part and returns metadata for the ones that succeeded.
// A result shorter than parts means some writes failed; each failure has
// been logged individually.
func (ai *AttachmentIngestor) Ingest(ctx context.Context, ticketID string, parts []AttachmentPart) []domain.StoredAttachment {
	stored := make([]domain.StoredAttachment, 0, len(parts))
	for _, part := range parts {
		id := uuid.NewString()

		ext := filepath.Ext(part.Filename)
		if ext == "" {
			ext = defaultAttachmentExt
		}
		contentType := part.ContentType
		if contentType == "" {
			contentType = defaultContentType
		}

		objectPath := path.Join("tickets", ticketID, id+ext)
		url, err := ai.store.Put(ctx, objectPath, part.Content, contentType)
		if err != nil {
			ai.logger.Warn("attachment persist failed",
				zap.String("ticket_id", ticketID),
				zap.String("filename", part.Filename),
				zap.Error(err))
			continue
		}

		stored = append(stored, domain.StoredAttachment{
			ID:          id,
			Filename:    part.Filename,
			StorageURL:  url,
			ContentType: contentType,
			SizeBytes:   int64(len(part.Content)),
			UploadedAt:  time.Now().UTC(),
		})
	}
	return stored
}
