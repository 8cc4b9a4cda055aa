package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeForge/internal/database"
)

// TemplateHandler 负责模板目录相关的 API。模板由系统预置，只读。
type TemplateHandler struct {
	db *gorm.DB
}

func NewTemplateHandler(db *gorm.DB) *TemplateHandler {
	return &TemplateHandler{db: db}
}

type templateListItem struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPremium   bool   `json:"is_premium"`
}

type templateDetailResponse struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Structure   datatypes.JSON `json:"structure"`
	Styling     datatypes.JSON `json:"styling"`
	IsPremium   bool           `json:"is_premium"`
}

// GET /v1/templates
// 列出全部可用模板。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var templates []database.Template
	if err := h.db.WithContext(c.Request.Context()).
		Order("id ASC").
		Find(&templates).Error; err != nil {
		Internal(c, "failed to list templates")
		return
	}

	items := make([]templateListItem, 0, len(templates))
	for _, t := range templates {
		items = append(items, templateListItem{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			IsPremium:   t.IsPremium,
		})
	}
	c.JSON(http.StatusOK, items)
}

// GET /v1/templates/:id
// 返回单个模板的结构与样式配置。
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid template id")
		return
	}

	var model database.Template
	if err := h.db.WithContext(c.Request.Context()).
		First(&model, uint(id)).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "template not found")
		default:
			Internal(c, "failed to query template")
		}
		return
	}

	c.JSON(http.StatusOK, templateDetailResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Structure:   model.Structure,
		Styling:     model.Styling,
		IsPremium:   model.IsPremium,
	})
}
