package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeForge/internal/render"
	"resumeForge/internal/resume"
)

func newTestExportHandler(t *testing.T, db *gorm.DB) *ExportHandler {
	t.Helper()
	preview, err := render.NewPreview()
	if err != nil {
		t.Fatalf("init preview: %v", err)
	}
	return &ExportHandler{
		db:      db,
		ats:     render.NewATS(),
		preview: preview,
	}
}

func TestExportResume_TXTInline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	svc := resume.NewService(db)
	if _, err := svc.AddSection(context.Background(), resumeID, "SUMMARY", "",
		json.RawMessage(`{"text":"Curious engineer."}`), nil); err != nil {
		t.Fatalf("seed section: %v", err)
	}

	h := newTestExportHandler(t, db)

	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/1/export?format=txt", nil)
	c, w := testContext(t, req, userID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.ExportResume(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Fatalf("content type = %q", got)
	}
	if !strings.Contains(w.Body.String(), "Curious engineer.") {
		t.Fatalf("body missing section text: %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "My_Resume.txt") {
		t.Fatalf("content disposition = %q", cd)
	}
}

func TestExportResume_UnsupportedFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	h := newTestExportHandler(t, db)

	req := httptest.NewRequest(http.MethodPost, "/v1/resumes/1/export?format=odt", nil)
	c, w := testContext(t, req, userID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.ExportResume(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestPreviewResume_ReturnsHTML(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	svc := resume.NewService(db)
	if _, err := svc.AddSection(context.Background(), resumeID, "SKILLS", "",
		json.RawMessage(`{"categories":[{"name":"Languages","skills":["Go","SQL"]}]}`), nil); err != nil {
		t.Fatalf("seed section: %v", err)
	}

	h := newTestExportHandler(t, db)

	req := httptest.NewRequest(http.MethodGet, "/v1/resumes/1/preview", nil)
	c, w := testContext(t, req, userID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.PreviewResume(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "<html") {
		t.Fatalf("body is not html: %q", body[:minInt(len(body), 80)])
	}
	if !strings.Contains(body, "Go") || !strings.Contains(body, "SQL") {
		t.Fatalf("skills missing from preview")
	}
}

func TestGetDownloadLink_NotReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	h := newTestExportHandler(t, db)

	req := httptest.NewRequest(http.MethodGet, "/v1/resumes/1/export/download-link", nil)
	c, w := testContext(t, req, userID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.GetDownloadLink(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
