package web

import (
	"errors"
	"io/fs"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AttachmentsHandler streams stored ticket attachments. Paths are the
// relative values recorded on ticket rows; stored names are random, so
// possession of a path implies it came from a ticket the caller could see.
type AttachmentsHandler struct {
	store storage.AttachmentStore
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(store storage.AttachmentStore) *AttachmentsHandler {
	return &AttachmentsHandler{store: store}
}

// Download GET /attachments/*. The route sits behind RequireAuthenticated,
// so a principal is always present here.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	relPath := c.Params("*")
	if relPath == "" || strings.Contains(relPath, "..") {
		return apperrors.NewNotFound("attachment", nil)
	}

	file, err := h.store.Open(c.UserContext(), relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NewNotFound("attachment", map[string]any{"path": relPath})
		}
		return apperrors.MapError(err)
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+path.Base(relPath)+`"`)
	return c.SendStream(file)
}
