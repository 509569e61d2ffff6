package service

import (
	"context"
	"testing"
	"time"

	"headwear_backend/internal/quotes/transport"
	"headwear_backend/internal/storage"
	"headwear_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeFileStore struct {
	uploaded map[string][]byte
}

func (f *fakeFileStore) UploadQuotePDF(_ context.Context, id uuid.UUID, name string, body []byte) (string, error) {
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	key := storage.QuotePDFKey(id, name)
	f.uploaded[key] = body
	return key, nil
}

func (f *fakeFileStore) QuotePDFDownloadURL(_ context.Context, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.example.com/" + key, ObjectKey: key, ExpiresAt: time.Now().Add(storage.PresignedURLTTL)}, nil
}

func (f *fakeFileStore) AttachmentUploadURL(_ context.Context, convID uuid.UUID, name, contentType string, size int64) (*storage.PresignedURL, error) {
	if err := storage.ValidateAttachment(contentType, size, storage.DefaultMaxFileSize); err != nil {
		return nil, err
	}
	return &storage.PresignedURL{URL: "https://files.example.com/put", ObjectKey: convID.String() + "/" + name}, nil
}

func TestQuotePDFLinkStoresDocument(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	quoteID := uuid.New()
	if _, err := svc.Save(ctx, nil, saveRequest(uuid.New(), quoteID)); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := svc.QuotePDFLink(ctx, nil, quoteID); !apperr.Is(err, apperr.KindDependency) {
		t.Fatalf("expected dependency error without storage, got %v", err)
	}

	files := &fakeFileStore{}
	svc.SetFileStore(files)
	svc.SetPDFRenderer(fakeRenderer{body: []byte("%PDF-1.3")})
	link, err := svc.QuotePDFLink(ctx, nil, quoteID)
	if err != nil {
		t.Fatalf("pdf link: %v", err)
	}
	if string(files.uploaded[link.ObjectKey]) != "%PDF-1.3" {
		t.Fatalf("expected rendered pdf under %q, got %v", link.ObjectKey, files.uploaded)
	}
}

func TestAttachmentUploadRespectsOwnership(t *testing.T) {
	svc, _, _ := newTestService()
	svc.SetFileStore(&fakeFileStore{})
	ctx := context.Background()
	owner := uuid.New()
	convID := uuid.New()
	if _, err := svc.Save(ctx, &owner, saveRequest(convID, uuid.New())); err != nil {
		t.Fatalf("save: %v", err)
	}

	req := transport.AttachmentUploadRequest{ConversationID: convID, FileName: "logo.svg", ContentType: "image/svg+xml", Size: 4096}
	if _, err := svc.AttachmentUploadURL(ctx, nil, req); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for guest, got %v", err)
	}
	if _, err := svc.AttachmentUploadURL(ctx, &owner, req); err != nil {
		t.Fatalf("owner upload url: %v", err)
	}

	req.ContentType = "application/x-msdownload"
	if _, err := svc.AttachmentUploadURL(ctx, &owner, req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for executable, got %v", err)
	}
}
