package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeForge/internal/database"
	"resumeForge/internal/resume"
	"resumeForge/internal/section"
)

// SectionHandler 负责处理分区级别的 API 请求。
// 所有写入都经过 resume.Service，内容校验与顺序不变量在那里保证。
type SectionHandler struct {
	db       *gorm.DB
	sections *resume.Service
}

// NewSectionHandler 构造 SectionHandler。
func NewSectionHandler(db *gorm.DB, sectionService *resume.Service) *SectionHandler {
	return &SectionHandler{db: db, sections: sectionService}
}

type addSectionRequest struct {
	Variant string          `json:"variant" binding:"required"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
	Order   *int            `json:"order"`
}

type updateSectionRequest struct {
	Variant *string         `json:"variant"`
	Title   *string         `json:"title"`
	Content json.RawMessage `json:"content"`
	Order   *int            `json:"order"`
}

type reorderSectionsRequest struct {
	Order []uint `json:"order" binding:"required"`
}

type replaceSectionsRequest struct {
	Sections []resume.SectionSpec `json:"sections"`
}

// ListSections 按渲染顺序返回简历的全部分区。
func (h *SectionHandler) ListSections(c *gin.Context) {
	stored, ok := h.resolveResume(c)
	if !ok {
		return
	}

	sections, err := h.sections.Sections(c.Request.Context(), stored.ID)
	if err != nil {
		Internal(c, "failed to list sections")
		return
	}

	items := make([]sectionResponse, 0, len(sections))
	for _, s := range sections {
		items = append(items, newSectionResponse(s))
	}
	c.JSON(http.StatusOK, items)
}

// AddSection 向简历追加一个分区。
// 内容缺省时使用类型默认内容，标题缺省时使用类型默认标题。
func (h *SectionHandler) AddSection(c *gin.Context) {
	var req addSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	stored, ok := h.resolveResume(c)
	if !ok {
		return
	}

	variant, err := section.ParseVariant(req.Variant)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	created, err := h.sections.AddSection(c.Request.Context(), stored.ID, variant, req.Title, req.Content, req.Order)
	if err != nil {
		respondSectionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newSectionResponse(*created))
}

// UpdateSection 修改单个分区的标题、内容或序号。分区类型创建后不可变更。
func (h *SectionHandler) UpdateSection(c *gin.Context) {
	var req updateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	stored, ok := h.resolveResume(c)
	if !ok {
		return
	}

	sectionID, err := parseSectionID(c)
	if err != nil {
		BadRequest(c, "invalid section id")
		return
	}

	if req.Variant != nil {
		var current database.Section
		if err := h.db.WithContext(c.Request.Context()).
			Where("id = ? AND resume_id = ?", sectionID, stored.ID).
			First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, "section not found")
				return
			}
			Internal(c, "failed to query section")
			return
		}
		if *req.Variant != current.Variant {
			BadRequest(c, resume.ErrVariantImmutable.Error())
			return
		}
	}

	updated, err := h.sections.UpdateSection(c.Request.Context(), stored.ID, sectionID, req.Title, req.Content, req.Order)
	if err != nil {
		respondSectionError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSectionResponse(*updated))
}

// RemoveSection 删除一个分区，剩余分区序号保持不变。
func (h *SectionHandler) RemoveSection(c *gin.Context) {
	stored, ok := h.resolveResume(c)
	if !ok {
		return
	}

	sectionID, err := parseSectionID(c)
	if err != nil {
		BadRequest(c, "invalid section id")
		return
	}

	if err := h.sections.RemoveSection(c.Request.Context(), stored.ID, sectionID); err != nil {
		respondSectionError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ReorderSections 按给定的 ID 序列全量重排分区。
// ID 列表必须恰好是当前分区集合的一个置换。
func (h *SectionHandler) ReorderSections(c *gin.Context) {
	var req reorderSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	stored, ok := h.resolveResume(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.sections.ReorderSections(ctx, stored.ID, req.Order); err != nil {
		respondSectionError(c, err)
		return
	}

	sections, err := h.sections.Sections(ctx, stored.ID)
	if err != nil {
		Internal(c, "failed to list sections")
		return
	}

	items := make([]sectionResponse, 0, len(sections))
	for _, s := range sections {
		items = append(items, newSectionResponse(s))
	}
	c.JSON(http.StatusOK, items)
}

// ReplaceSections 原子地用新的分区序列替换全部现有分区（编辑向导的批量保存）。
// 任何一个分区校验失败时整体拒绝，原有内容保持不变。
func (h *SectionHandler) ReplaceSections(c *gin.Context) {
	var req replaceSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	stored, ok := h.resolveResume(c)
	if !ok {
		return
	}

	replaced, err := h.sections.ReplaceSections(c.Request.Context(), stored.ID, req.Sections)
	if err != nil {
		respondSectionError(c, err)
		return
	}

	items := make([]sectionResponse, 0, len(replaced))
	for _, s := range replaced {
		items = append(items, newSectionResponse(s))
	}
	c.JSON(http.StatusOK, items)
}

// resolveResume 解析路径中的简历 ID 并做属主校验；失败时已写好响应。
func (h *SectionHandler) resolveResume(c *gin.Context) (*database.Resume, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	resumeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid resume id")
		return nil, false
	}

	var stored database.Resume
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", uint(resumeID), userID).
		First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
			return nil, false
		}
		Internal(c, "failed to query resume")
		return nil, false
	}
	return &stored, true
}

func parseSectionID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("sectionID"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func respondSectionError(c *gin.Context, err error) {
	var invalid *section.InvalidContentError
	switch {
	case errors.As(err, &invalid):
		BadRequest(c, invalid.Error())
	case errors.Is(err, section.ErrUnknownVariant):
		BadRequest(c, err.Error())
	case errors.Is(err, resume.ErrOrderMismatch):
		BadRequest(c, err.Error())
	case errors.Is(err, resume.ErrVariantImmutable):
		BadRequest(c, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "section not found")
	default:
		Internal(c, "section operation failed")
	}
}
