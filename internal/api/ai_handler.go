package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeForge/internal/ai"
	"resumeForge/internal/database"
	"resumeForge/internal/resume"
	"resumeForge/internal/section"
)

// AIHandler 负责 AI 内容增强请求。
// 模型产出在写入前必须重新通过内容校验，失败时不落库。
type AIHandler struct {
	db       *gorm.DB
	enhancer ai.Enhancer
	recorder *ai.Recorder
	sections *resume.Service
}

// NewAIHandler 构造 AIHandler。
func NewAIHandler(db *gorm.DB, enhancer ai.Enhancer, recorder *ai.Recorder, sectionService *resume.Service) *AIHandler {
	return &AIHandler{
		db:       db,
		enhancer: enhancer,
		recorder: recorder,
		sections: sectionService,
	}
}

type enhanceSectionRequest struct {
	Guidance string `json:"guidance"`
	Apply    bool   `json:"apply"`
}

// EnhanceSection 用 AI 改写一个分区的内容。
// apply=false 时仅返回建议内容；apply=true 时校验通过后直接写入分区。
func (h *AIHandler) EnhanceSection(c *gin.Context) {
	var req enhanceSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	stored, err := lookupResumeForUser(ctx, h.db, c.Param("id"), userID)
	if err != nil {
		respondResumeLookupError(c, err)
		return
	}

	sectionID, err := parseSectionID(c)
	if err != nil {
		BadRequest(c, "invalid section id")
		return
	}

	var current database.Section
	if err := h.db.WithContext(ctx).
		Where("id = ? AND resume_id = ?", sectionID, stored.ID).
		First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "section not found")
			return
		}
		Internal(c, "failed to query section")
		return
	}

	variant := section.Variant(current.Variant)
	currentContent, err := section.Validate(variant, current.Content)
	if err != nil {
		Internal(c, "stored section content is invalid")
		return
	}

	prompt := ai.BuildPrompt(variant, currentContent, req.Guidance)

	generated, err := h.enhancer.Enhance(ctx, variant, currentContent, req.Guidance)
	if err != nil {
		_ = h.recorder.Record(ctx, userID, &stored.ID, prompt, err.Error(), false)
		if errors.Is(err, ai.ErrGenerationFailed) {
			BadGateway(c, "ai generation failed")
			return
		}
		Internal(c, "failed to enhance section")
		return
	}

	// 模型输出不可信：与用户提交内容走同一套校验。
	enhanced, err := section.Validate(variant, generated)
	if err != nil {
		_ = h.recorder.Record(ctx, userID, &stored.ID, prompt, string(generated), false)
		BadGateway(c, "ai generation produced invalid content")
		return
	}
	normalized, err := section.Marshal(enhanced)
	if err != nil {
		Internal(c, "failed to encode enhanced content")
		return
	}

	if err := h.recorder.Record(ctx, userID, &stored.ID, prompt, string(normalized), true); err != nil {
		Internal(c, "failed to record generation")
		return
	}

	if !req.Apply {
		c.JSON(http.StatusOK, gin.H{
			"variant": string(variant),
			"content": json.RawMessage(normalized),
		})
		return
	}

	updated, err := h.sections.UpdateSection(ctx, stored.ID, sectionID, nil, normalized, nil)
	if err != nil {
		respondSectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSectionResponse(*updated))
}
