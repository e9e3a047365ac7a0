// Package upload parses multipart attachment uploads and enforces the
// per-surface upload policy before the file reaches the storage layer.
package upload

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// FieldName is the multipart form field carrying the attachment.
const FieldName = "attachment"

// Policy bounds an upload. A nil AllowedExts slice accepts any extension.
type Policy struct {
	MaxBytes    int64
	AllowedExts []string
}

// ParseAttachment reads the attachment field from a multipart request, if
// present. Returns a nil Upload when the request carries no file. The
// returned close func must be called after the upload is consumed.
func ParseAttachment(c *fiber.Ctx, policy Policy) (*service.Upload, func(), error) {
	noop := func() {}

	header, err := c.FormFile(FieldName)
	if err != nil {
		// Non-multipart bodies and multipart bodies without the field
		// both surface as an error from FormFile.
		return nil, noop, nil
	}
	if err := check(header, policy); err != nil {
		return nil, noop, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, apperrors.NewValidationError("could not read uploaded file", nil)
	}
	upload := &service.Upload{
		Filename: header.Filename,
		Content:  file,
	}
	return upload, func() { file.Close() }, nil
}

func check(header *multipart.FileHeader, policy Policy) error {
	if policy.MaxBytes > 0 && header.Size > policy.MaxBytes {
		return apperrors.NewValidationError(
			fmt.Sprintf("attachment may not be larger than %d bytes", policy.MaxBytes),
			map[string]any{FieldName: "file too large"},
		)
	}
	if len(policy.AllowedExts) == 0 {
		return nil
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	for _, allowed := range policy.AllowedExts {
		if ext == allowed {
			return nil
		}
	}
	return apperrors.NewValidationError(
		"attachment must be a file of type: "+strings.Join(policy.AllowedExts, ", "),
		map[string]any{FieldName: "unsupported file type"},
	)
}
