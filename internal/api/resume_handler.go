package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumeForge/internal/database"
	"resumeForge/internal/resume"
	"resumeForge/internal/section"
)

// ResumeHandler 负责处理简历聚合相关的 API 请求。
type ResumeHandler struct {
	db         *gorm.DB
	sections   *resume.Service
	maxResumes int
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, sectionService *resume.Service, maxResumes int) *ResumeHandler {
	return &ResumeHandler{
		db:         db,
		sections:   sectionService,
		maxResumes: maxResumes,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type createResumeRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	TemplateID  *uint  `json:"template_id"`
}

type updateResumeRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	TemplateID  *uint   `json:"template_id"`
}

type resumeListItem struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ExportStatus string    `json:"export_status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type sectionResponse struct {
	ID        uint            `json:"id"`
	Variant   string          `json:"variant"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	SortOrder int             `json:"sort_order"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type resumeResponse struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description,omitempty"`
	TemplateID   *uint             `json:"template_id,omitempty"`
	ExportStatus string            `json:"export_status,omitempty"`
	Sections     []sectionResponse `json:"sections"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// CreateResume 保存一份新的简历，超过限额则提示升级。
// 指定 template_id 时按模板结构实例化默认分区。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req createResumeRequest
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

	var count int64
	if err := h.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		Internal(c, "failed to count resumes")
		return
	}

	if h.maxResumes > 0 && count >= int64(h.maxResumes) {
		Forbidden(c, "resume limit reached")
		return
	}

	var specs []resume.SectionSpec
	if req.TemplateID != nil {
		var err error
		specs, err = h.templateSectionSpecs(ctx, *req.TemplateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				BadRequest(c, "template not found")
				return
			}
			Internal(c, "failed to load template")
			return
		}
	}

	newResume := database.Resume{
		Title:       req.Title,
		Description: req.Description,
		TemplateID:  req.TemplateID,
		UserID:      userID,
	}
	if err := h.db.WithContext(ctx).Create(&newResume).Error; err != nil {
		Internal(c, "failed to create resume")
		return
	}

	if len(specs) > 0 {
		if _, err := h.sections.ReplaceSections(ctx, newResume.ID, specs); err != nil {
			Internal(c, "failed to instantiate template sections")
			return
		}
	}

	if err := h.setActiveResumeID(ctx, userID, &newResume.ID); err != nil {
		Internal(c, "failed to mark active resume")
		return
	}

	sections, err := h.sections.Sections(ctx, newResume.ID)
	if err != nil {
		Internal(c, "failed to load sections")
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(newResume, sections))
}

// ListResumes 按最近编辑顺序列出用户全部简历。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	var resumes []database.Resume
	if err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&resumes).Error; err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, resumeListItem{
			ID:           r.ID,
			Title:        r.Title,
			Description:  r.Description,
			ExportStatus: r.ExportStatus,
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, items)
}

// GetResume 返回指定 ID 的简历（含有序分区）并标记为当前正在编辑。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	stored, err := h.getResumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		respondResumeLookupError(c, err)
		return
	}

	if err := h.setActiveResumeID(ctx, userID, &stored.ID); err != nil {
		Internal(c, "failed to mark active resume")
		return
	}

	sections, err := h.sections.Sections(ctx, stored.ID)
	if err != nil {
		Internal(c, "failed to load sections")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*stored, sections))
}

// UpdateResume 修改简历的标题、描述或模板。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	var req updateResumeRequest
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
	stored, err := h.getResumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		respondResumeLookupError(c, err)
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		if *req.Title == "" {
			BadRequest(c, "title must not be empty")
			return
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.TemplateID != nil {
		updates["template_id"] = *req.TemplateID
	}

	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(stored).Updates(updates).Error; err != nil {
			Internal(c, "failed to update resume")
			return
		}
		if err := h.db.WithContext(ctx).First(stored, stored.ID).Error; err != nil {
			Internal(c, "failed to reload resume")
			return
		}
	}

	sections, err := h.sections.Sections(ctx, stored.ID)
	if err != nil {
		Internal(c, "failed to load sections")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*stored, sections))
}

// DeleteResume 删除指定简历（分区级联删除），并尝试回落到最近一份。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	stored, err := h.getResumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		respondResumeLookupError(c, err)
		return
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resume_id = ?", stored.ID).Delete(&database.Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(&database.Resume{}, stored.ID).Error
	})
	if err != nil {
		Internal(c, "failed to delete resume")
		return
	}

	if err := h.assignLatestResumeAsActive(ctx, userID); err != nil {
		Internal(c, "failed to update active resume")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetLatestResume 返回用户当前正在编辑的简历，或最近编辑的一份。
func (h *ResumeHandler) GetLatestResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	stored, err := h.findActiveOrLatestResume(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "no resumes yet")
			return
		}
		Internal(c, "failed to query latest resume")
		return
	}

	sections, err := h.sections.Sections(ctx, stored.ID)
	if err != nil {
		Internal(c, "failed to load sections")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(*stored, sections))
}

// templateSectionSpecs 把模板的分区结构转换成批量创建请求。
// 模板里未知的类型会被直接跳过，不阻塞创建。
func (h *ResumeHandler) templateSectionSpecs(ctx context.Context, templateID uint) ([]resume.SectionSpec, error) {
	var template database.Template
	if err := h.db.WithContext(ctx).First(&template, templateID).Error; err != nil {
		return nil, err
	}

	var structure struct {
		Sections []string `json:"sections"`
	}
	if err := json.Unmarshal(template.Structure, &structure); err != nil {
		return nil, err
	}

	specs := make([]resume.SectionSpec, 0, len(structure.Sections))
	for _, name := range structure.Sections {
		variant, err := section.ParseVariant(name)
		if err != nil {
			continue
		}
		specs = append(specs, resume.SectionSpec{Variant: variant})
	}
	return specs, nil
}

func (h *ResumeHandler) setActiveResumeID(ctx context.Context, userID uint, resumeID *uint) error {
	var value any
	if resumeID != nil {
		value = *resumeID
	} else {
		value = nil
	}
	return h.db.WithContext(ctx).Model(&database.User{}).
		Where("id = ?", userID).
		Update("active_resume_id", value).Error
}

func (h *ResumeHandler) assignLatestResumeAsActive(ctx context.Context, userID uint) error {
	var latest database.Resume
	err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		First(&latest).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return h.setActiveResumeID(ctx, userID, nil)
	case err != nil:
		return err
	default:
		return h.setActiveResumeID(ctx, userID, &latest.ID)
	}
}

func (h *ResumeHandler) findActiveOrLatestResume(ctx context.Context, userID uint) (*database.Resume, error) {
	var user database.User
	if err := h.db.WithContext(ctx).
		Select("id", "active_resume_id").
		First(&user, userID).Error; err != nil {
		return nil, err
	}

	if user.ActiveResumeID != nil {
		var stored database.Resume
		err := h.db.WithContext(ctx).
			Where("id = ? AND user_id = ?", *user.ActiveResumeID, userID).
			First(&stored).Error
		if err == nil {
			return &stored, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var latest database.Resume
	err := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		First(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = h.setActiveResumeID(ctx, userID, nil)
		}
		return nil, err
	}

	if err := h.setActiveResumeID(ctx, userID, &latest.ID); err != nil {
		return nil, err
	}
	return &latest, nil
}

func (h *ResumeHandler) getResumeForUser(ctx context.Context, idParam string, userID uint) (*database.Resume, error) {
	return lookupResumeForUser(ctx, h.db, idParam, userID)
}

// lookupResumeForUser 解析路径参数并做属主校验，供各 handler 复用。
func lookupResumeForUser(ctx context.Context, db *gorm.DB, idParam string, userID uint) (*database.Resume, error) {
	resumeID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errInvalidResumeID
	}

	var stored database.Resume
	if err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", uint(resumeID), userID).
		First(&stored).Error; err != nil {
		return nil, err
	}

	return &stored, nil
}

func respondResumeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidResumeID):
		BadRequest(c, "invalid resume id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "resume not found")
	default:
		Internal(c, "failed to query resume")
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

func newSectionResponse(s database.Section) sectionResponse {
	return sectionResponse{
		ID:        s.ID,
		Variant:   s.Variant,
		Title:     s.Title,
		Content:   json.RawMessage(s.Content),
		SortOrder: s.SortOrder,
		UpdatedAt: s.UpdatedAt,
	}
}

func newResumeResponse(r database.Resume, sections []database.Section) resumeResponse {
	items := make([]sectionResponse, 0, len(sections))
	for _, s := range sections {
		items = append(items, newSectionResponse(s))
	}
	return resumeResponse{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		TemplateID:   r.TemplateID,
		ExportStatus: r.ExportStatus,
		Sections:     items,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
