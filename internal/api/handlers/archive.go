package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printdesk/internal/archive"
)

type ArchiveHandler struct {
	archiver HistoryArchiver
}

func NewArchiveHandler(archiver HistoryArchiver) *ArchiveHandler {
	return &ArchiveHandler{archiver: archiver}
}

type ArchiveListResponse struct {
	Archives []*archive.ArchiveFile `json:"archives"`
	Count    int                    `json:"count"`
}

func (h *ArchiveHandler) ListArchives(c *gin.Context) {
	archives, err := h.archiver.ListArchives(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ArchiveListResponse{
		Archives: archives,
		Count:    len(archives),
	})
}

// RunArchive archives finished print history now instead of waiting for
// the next scheduled run.
func (h *ArchiveHandler) RunArchive(c *gin.Context) {
	result, err := h.archiver.RunArchive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ArchiveHandler) DeleteArchive(c *gin.Context) {
	if err := h.archiver.DeleteArchive(c.Request.Context(), c.Param("filename")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
