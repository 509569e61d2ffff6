package storage

import (
	"fmt"
	"strings"

	"headwear_backend/platform/apperr"
)

// DefaultMaxFileSize caps artwork uploads at 25 MB.
const DefaultMaxFileSize int64 = 25 << 20

// allowedAttachmentTypes lists what customers can send as logo artwork.
var allowedAttachmentTypes = map[string]bool{
	"image/jpeg":                true,
	"image/png":                 true,
	"image/gif":                 true,
	"image/webp":                true,
	"image/svg+xml":             true,
	"application/pdf":           true,
	"application/postscript":    true,
	"application/illustrator":   true,
	"image/vnd.adobe.photoshop": true,
}

// ValidateAttachment checks the MIME type and size of an artwork upload.
func ValidateAttachment(contentType string, size, maxSize int64) error {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	var fields []apperr.FieldError
	if !allowedAttachmentTypes[normalized] {
		fields = append(fields, apperr.FieldError{Field: "contentType", Message: fmt.Sprintf("content type %q is not allowed", contentType)})
	}
	switch {
	case size <= 0:
		fields = append(fields, apperr.FieldError{Field: "size", Message: "file size must be greater than 0"})
	case size > maxSize:
		fields = append(fields, apperr.FieldError{Field: "size", Message: fmt.Sprintf("file size %d bytes exceeds maximum allowed size of %d bytes", size, maxSize)})
	}
	if len(fields) > 0 {
		return apperr.ValidationFields("invalid attachment", fields)
	}
	return nil
}

// IsImageContentType reports whether an attachment can be previewed inline.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}
