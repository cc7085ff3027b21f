package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"github.com/orrn/printdesk/internal/api/handlers/mocks"
	"github.com/orrn/printdesk/internal/archive"
)

func newArchiveRouter(t *testing.T) (*gin.Engine, *mocks.MockHistoryArchiver) {
	t.Helper()
	archiver := mocks.NewMockHistoryArchiver(gomock.NewController(t))
	h := NewArchiveHandler(archiver)

	r := gin.New()
	r.GET("/admin/archives", h.ListArchives)
	r.POST("/admin/archives/run", h.RunArchive)
	r.DELETE("/admin/archives/:filename", h.DeleteArchive)
	return r, archiver
}

func TestArchiveHandler_ListArchives(t *testing.T) {
	r, archiver := newArchiveRouter(t)
	archiver.EXPECT().ListArchives(gomock.Any()).Return([]*archive.ArchiveFile{
		{Filename: "print_history_2024_05.db", Month: "2024_05", JobsArchived: 3},
	}, nil)

	w := perform(r, http.MethodGet, "/admin/archives", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp ArchiveListResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 || resp.Archives[0].JobsArchived != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestArchiveHandler_RunArchive(t *testing.T) {
	t.Run("archived", func(t *testing.T) {
		r, archiver := newArchiveRouter(t)
		archiver.EXPECT().RunArchive(gomock.Any()).Return(&archive.RunResult{ArchiveFile: "print_history_2024_05.db", JobsArchived: 2}, nil)

		w := perform(r, http.MethodPost, "/admin/archives/run", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var result archive.RunResult
		json.Unmarshal(w.Body.Bytes(), &result)
		if result.JobsArchived != 2 {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("failure", func(t *testing.T) {
		r, archiver := newArchiveRouter(t)
		archiver.EXPECT().RunArchive(gomock.Any()).Return(nil, errors.New("disk full"))

		if w := perform(r, http.MethodPost, "/admin/archives/run", ""); w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}

func TestArchiveHandler_DeleteArchive(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		r, archiver := newArchiveRouter(t)
		archiver.EXPECT().DeleteArchive(gomock.Any(), "print_history_2023_01.db").Return(archive.ErrArchiveNotFound)

		w := perform(r, http.MethodDelete, "/admin/archives/print_history_2023_01.db", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
		if resp := decodeError(t, w); resp.Error != "archive_not_found" {
			t.Errorf("unexpected error %+v", resp)
		}
	})

	t.Run("deleted", func(t *testing.T) {
		r, archiver := newArchiveRouter(t)
		archiver.EXPECT().DeleteArchive(gomock.Any(), "print_history_2024_05.db").Return(nil)

		if w := perform(r, http.MethodDelete, "/admin/archives/print_history_2024_05.db", ""); w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	})
}
