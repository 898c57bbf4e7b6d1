package services

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/upb/thesis-workflow/internal/upload"
)

// documentTypes are the MIME types accepted for proposal and guidance files
var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// documentType sniffs the file content and returns its MIME type when it is
// an accepted document. The client declared type is not trusted.
func documentType(file *upload.File) (string, error) {
	detected := mimetype.Detect(file.Content)
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range documentTypes {
			if m.Is(allowed) {
				return allowed, nil
			}
		}
	}

	return "", NewDomainError(ErrorTypeValidation, ErrInvalidFileType.Message, nil).
		WithDetail("detected", detected.String())
}

// normalizePage clamps list pagination
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
