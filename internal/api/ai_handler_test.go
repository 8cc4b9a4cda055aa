package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"resumeForge/internal/ai"
	"resumeForge/internal/database"
	"resumeForge/internal/resume"
	"resumeForge/internal/section"
)

type fakeEnhancer struct {
	output json.RawMessage
	err    error
}

func (f *fakeEnhancer) Enhance(_ context.Context, _ section.Variant, _ section.Content, _ string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func seedSummarySection(t *testing.T, svc *resume.Service, resumeID uint) uint {
	t.Helper()
	created, err := svc.AddSection(context.Background(), resumeID, "SUMMARY", "",
		json.RawMessage(`{"text":"I do backend stuff."}`), nil)
	if err != nil {
		t.Fatalf("seed section: %v", err)
	}
	return created.ID
}

func TestEnhanceSection_AppliesValidatedOutput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	svc := resume.NewService(db)
	sectionID := seedSummarySection(t, svc, resumeID)

	enhancer := &fakeEnhancer{output: json.RawMessage(`{"text":"Results-driven backend engineer with 6 years of experience."}`)}
	h := NewAIHandler(db, enhancer, ai.NewRecorder(db, "test-model"), svc)

	payload := map[string]any{"guidance": "more impactful", "apply": true}
	req := jsonRequest(t, http.MethodPost, "/v1/resumes/1/sections/1/enhance", payload)
	c, w := testContext(t, req, userID,
		gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))},
		gin.Param{Key: "sectionID", Value: strconv.Itoa(int(sectionID))},
	)

	h.EnhanceSection(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.Section
	if err := db.First(&stored, sectionID).Error; err != nil {
		t.Fatalf("reload section: %v", err)
	}
	var content struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(stored.Content, &content); err != nil {
		t.Fatalf("decode stored content: %v", err)
	}
	if content.Text != "Results-driven backend engineer with 6 years of experience." {
		t.Fatalf("content not applied: %q", content.Text)
	}

	var record database.AIGenerationRecord
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("load generation record: %v", err)
	}
	if record.Status != database.AIGenerationSuccess {
		t.Fatalf("record status = %q", record.Status)
	}
	if record.UserID != userID {
		t.Fatalf("record user = %d", record.UserID)
	}
}

func TestEnhanceSection_InvalidModelOutputRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	svc := resume.NewService(db)
	sectionID := seedSummarySection(t, svc, resumeID)

	// 模型返回了错误类型的结构。
	enhancer := &fakeEnhancer{output: json.RawMessage(`{"items":[{"company":"ACME"}]}`)}
	h := NewAIHandler(db, enhancer, ai.NewRecorder(db, "test-model"), svc)

	payload := map[string]any{"apply": true}
	req := jsonRequest(t, http.MethodPost, "/v1/resumes/1/sections/1/enhance", payload)
	c, w := testContext(t, req, userID,
		gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))},
		gin.Param{Key: "sectionID", Value: strconv.Itoa(int(sectionID))},
	)

	h.EnhanceSection(c)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d body=%s", w.Code, w.Body.String())
	}

	var stored database.Section
	if err := db.First(&stored, sectionID).Error; err != nil {
		t.Fatalf("reload section: %v", err)
	}
	var content struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(stored.Content, &content); err != nil {
		t.Fatalf("decode stored content: %v", err)
	}
	if content.Text != "I do backend stuff." {
		t.Fatalf("section was modified: %q", content.Text)
	}

	var record database.AIGenerationRecord
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("load generation record: %v", err)
	}
	if record.Status != database.AIGenerationFailed {
		t.Fatalf("record status = %q", record.Status)
	}
}

func TestEnhanceSection_GenerationFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	userID, resumeID := seedUserAndResume(t, db)

	svc := resume.NewService(db)
	sectionID := seedSummarySection(t, svc, resumeID)

	enhancer := &fakeEnhancer{err: ai.ErrGenerationFailed}
	h := NewAIHandler(db, enhancer, ai.NewRecorder(db, "test-model"), svc)

	payload := map[string]any{}
	req := jsonRequest(t, http.MethodPost, "/v1/resumes/1/sections/1/enhance", payload)
	c, w := testContext(t, req, userID,
		gin.Param{Key: "id", Value: strconv.Itoa(int(resumeID))},
		gin.Param{Key: "sectionID", Value: strconv.Itoa(int(sectionID))},
	)

	h.EnhanceSection(c)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d body=%s", w.Code, w.Body.String())
	}
}
