package service

import (
	"context"

	"headwear_backend/internal/quotes/transport"
	"headwear_backend/internal/storage"
	"headwear_backend/platform/apperr"

	"github.com/google/uuid"
)

// FileStore keeps quote PDFs and customer artwork outside the database.
type FileStore interface {
	UploadQuotePDF(ctx context.Context, quoteID uuid.UUID, fileName string, body []byte) (string, error)
	QuotePDFDownloadURL(ctx context.Context, key string) (*storage.PresignedURL, error)
	AttachmentUploadURL(ctx context.Context, conversationID uuid.UUID, fileName, contentType string, size int64) (*storage.PresignedURL, error)
}

// SetFileStore injects object storage. Without it the link endpoints report
// an unavailable dependency.
func (s *Service) SetFileStore(fs FileStore) {
	s.files = fs
}

// QuotePDFLink renders the quote, stores the document and returns a
// short-lived download link to it.
func (s *Service) QuotePDFLink(ctx context.Context, userID *uuid.UUID, id uuid.UUID) (*storage.PresignedURL, error) {
	if s.files == nil {
		return nil, apperr.Dependency("file storage is not configured", nil)
	}
	body, name, err := s.QuotePDF(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	key, err := s.files.UploadQuotePDF(ctx, id, name, body)
	if err != nil {
		return nil, passOrDependency("store quote pdf", err)
	}
	link, err := s.files.QuotePDFDownloadURL(ctx, key)
	if err != nil {
		return nil, passOrDependency("presign quote pdf", err)
	}
	return link, nil
}

// AttachmentUploadURL presigns an artwork upload into the conversation. The
// same ownership rule as saving applies.
func (s *Service) AttachmentUploadURL(ctx context.Context, userID *uuid.UUID, req transport.AttachmentUploadRequest) (*storage.PresignedURL, error) {
	if s.files == nil {
		return nil, apperr.Dependency("file storage is not configured", nil)
	}
	if err := s.checkSaveOwnership(ctx, req.ConversationID, userID); err != nil {
		return nil, err
	}
	return s.files.AttachmentUploadURL(ctx, req.ConversationID, req.FileName, req.ContentType, req.Size)
}
