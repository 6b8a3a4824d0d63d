package handler

import (
	"log/slog"
	"net/http"

	"github.com/0xfern/dexarb/internal/domain"
)

// ArchiveHandler lists cold-storage archive objects.
type ArchiveHandler struct {
	reader domain.BlobReader
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler backed by the given blob reader.
func NewArchiveHandler(reader domain.BlobReader, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{reader: reader, logger: logHandler(logger, "archives")}
}

// listArchivesResponse wraps the list archives response.
type listArchivesResponse struct {
	Archives []domain.BlobInfo `json:"archives"`
}

// List returns archive objects, optionally filtered by kind
// ("decisions" or "tweets").
// GET /api/archives?kind=decisions
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	prefix := "archive/"
	switch kind := r.URL.Query().Get("kind"); kind {
	case "":
	case "decisions", "tweets":
		prefix += kind + "/"
	default:
		writeError(w, http.StatusBadRequest, "unknown archive kind: "+kind)
		return
	}

	infos, err := h.reader.List(r.Context(), prefix)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archives failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}

	if infos == nil {
		infos = []domain.BlobInfo{}
	}

	writeJSON(w, http.StatusOK, listArchivesResponse{Archives: infos})
}
