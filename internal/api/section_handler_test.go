package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumeForge/internal/database"
	"resumeForge/internal/resume"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&database.User{},
		&database.Resume{},
		&database.Section{},
		&database.Template{},
		&database.AIGenerationRecord{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUserAndResume(t *testing.T, db *gorm.DB) (uint, uint) {
	t.Helper()
	user := database.User{Username: "tester", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	r := database.Resume{Title: "My Resume", UserID: user.ID}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return user.ID, r.ID
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func testContext(t *testing.T, req *http.Request, userID uint, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", userID)
	c.Params = params
	return c, w
}

func TestAddSection_ValidContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	h := NewSectionHandler(db, resume.NewService(db))

	payload := map[string]any{
		"variant": "SUMMARY",
		"content": map[string]any{"text": "Seasoned backend engineer."},
	}
	req := jsonRequest(t, http.MethodPost, "/v1/resumes/1/sections", payload)
	c, w := testContext(t, req, userID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.AddSection(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var resp sectionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Variant != "SUMMARY" {
		t.Fatalf("variant = %q", resp.Variant)
	}
	if resp.Title != "Professional Summary" {
		t.Fatalf("default title = %q", resp.Title)
	}
}

func TestAddSection_InvalidContentRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	h := NewSectionHandler(db, resume.NewService(db))

	payload := map[string]any{
		"variant": "LANGUAGES",
		"content": map[string]any{
			"items": []map[string]any{{"language": "Spanish", "proficiency": "Expert"}},
		},
	}
	req := jsonRequest(t, http.MethodPost, "/v1/resumes/1/sections", payload)
	c, w := testContext(t, req, userID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.AddSection(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}

	var count int64
	if err := db.Model(&database.Section{}).Count(&count).Error; err != nil {
		t.Fatalf("count sections: %v", err)
	}
	if count != 0 {
		t.Fatalf("invalid section was stored, count=%d", count)
	}
}

func TestAddSection_UnknownVariantRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	h := NewSectionHandler(db, resume.NewService(db))

	payload := map[string]any{"variant": "HOBBIES"}
	req := jsonRequest(t, http.MethodPost, "/v1/resumes/1/sections", payload)
	c, w := testContext(t, req, userID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.AddSection(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateSection_VariantImmutable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	svc := resume.NewService(db)
	h := NewSectionHandler(db, svc)

	created, err := svc.AddSection(context.Background(), resumeID, "SUMMARY", "", nil, nil)
	if err != nil {
		t.Fatalf("seed section: %v", err)
	}

	payload := map[string]any{"variant": "EXPERIENCE"}
	req := jsonRequest(t, http.MethodPatch, "/v1/resumes/1/sections/1", payload)
	c, w := testContext(t, req, userID,
		gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))},
		gin.Param{Key: "sectionID", Value: strconv.Itoa(int(created.ID))},
	)

	h.UpdateSection(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.Section
	if err := db.First(&stored, created.ID).Error; err != nil {
		t.Fatalf("reload section: %v", err)
	}
	if stored.Variant != "SUMMARY" {
		t.Fatalf("variant changed to %q", stored.Variant)
	}
}

func TestReorderSections_MismatchRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	svc := resume.NewService(db)
	h := NewSectionHandler(db, svc)

	first, err := svc.AddSection(context.Background(), resumeID, "SUMMARY", "", nil, nil)
	if err != nil {
		t.Fatalf("seed section: %v", err)
	}
	if _, err := svc.AddSection(context.Background(), resumeID, "SKILLS", "", nil, nil); err != nil {
		t.Fatalf("seed section: %v", err)
	}

	payload := map[string]any{"order": []uint{first.ID}}
	req := jsonRequest(t, http.MethodPut, "/v1/resumes/1/sections/order", payload)
	c, w := testContext(t, req, userID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.ReorderSections(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestReplaceSections_AtomicRejection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	svc := resume.NewService(db)
	h := NewSectionHandler(db, svc)

	if _, err := svc.AddSection(context.Background(), resumeID, "SUMMARY", "Keep Me", nil, nil); err != nil {
		t.Fatalf("seed section: %v", err)
	}

	payload := map[string]any{
		"sections": []map[string]any{
			{"variant": "SKILLS"},
			{"variant": "LANGUAGES", "content": map[string]any{
				"items": []map[string]any{{"language": "French", "proficiency": "Okay-ish"}},
			}},
		},
	}
	req := jsonRequest(t, http.MethodPut, "/v1/resumes/1/sections", payload)
	c, w := testContext(t, req, userID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.ReplaceSections(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}

	var sections []database.Section
	if err := db.Find(&sections).Error; err != nil {
		t.Fatalf("list sections: %v", err)
	}
	if len(sections) != 1 || sections[0].Title != "Keep Me" {
		t.Fatalf("existing sections were modified: %+v", sections)
	}
}

func TestListSections_OwnershipEnforced(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	_, resumeID := seedUserAndResume(t, db)

	other := database.User{Username: "intruder", PasswordHash: "x"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	h := NewSectionHandler(db, resume.NewService(db))

	req := httptest.NewRequest(http.MethodGet, "/v1/resumes/1/sections", nil)
	c, w := testContext(t, req, other.ID, gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))})

	h.ListSections(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
