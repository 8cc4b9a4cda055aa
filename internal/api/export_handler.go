package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumeForge/internal/api/middleware"
	"resumeForge/internal/database"
	"resumeForge/internal/render"
	"resumeForge/internal/storage"
	"resumeForge/internal/tasks"
)

// ExportHandler 负责简历导出请求。
// 纯文本同步返回；PDF/DOCX 入队异步生成，完成后通过 WebSocket 通知。
type ExportHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     *storage.Client
	ats         *render.ATS
	preview     *render.Preview
}

// NewExportHandler 构造 ExportHandler。
func NewExportHandler(db *gorm.DB, asynqClient *asynq.Client, storageClient *storage.Client) (*ExportHandler, error) {
	preview, err := render.NewPreview()
	if err != nil {
		return nil, err
	}
	return &ExportHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     storageClient,
		ats:         render.NewATS(),
		preview:     preview,
	}, nil
}

// PreviewResume 返回简历的实时 HTML 预览。
func (h *ExportHandler) PreviewResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	stored, err := h.resumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		respondResumeLookupError(c, err)
		return
	}

	var sections []database.Section
	if err := h.db.WithContext(ctx).
		Where("resume_id = ?", stored.ID).
		Order("sort_order ASC, id ASC").
		Find(&sections).Error; err != nil {
		Internal(c, "failed to load sections")
		return
	}

	html, warnings, err := h.preview.Render(*stored, sections)
	if err != nil {
		Internal(c, "failed to render preview")
		return
	}
	if len(warnings) > 0 {
		c.Header("X-Skipped-Sections", fmt.Sprintf("%d", len(warnings)))
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// ExportResume 发起一次导出。
// format=txt 时直接返回 ATS 纯文本；pdf/docx 时入队并返回 202。
func (h *ExportHandler) ExportResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	format := c.DefaultQuery("format", render.FormatPDF)
	if !render.ValidFormat(format) {
		BadRequest(c, fmt.Sprintf("unsupported export format %q", format))
		return
	}

	ctx := c.Request.Context()
	stored, err := h.resumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		respondResumeLookupError(c, err)
		return
	}

	if format == render.FormatTXT {
		var sections []database.Section
		if err := h.db.WithContext(ctx).
			Where("resume_id = ?", stored.ID).
			Order("sort_order ASC, id ASC").
			Find(&sections).Error; err != nil {
			Internal(c, "failed to load sections")
			return
		}

		data, warnings, err := h.ats.Render(*stored, sections)
		if err != nil {
			Internal(c, "failed to render plain text")
			return
		}
		if len(warnings) > 0 {
			c.Header("X-Skipped-Sections", fmt.Sprintf("%d", len(warnings)))
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.Filename(stored.Title, render.FormatTXT)))
		c.Data(http.StatusOK, render.ContentType(render.FormatTXT), data)
		return
	}

	if err := h.db.WithContext(ctx).Model(stored).
		Update("export_status", database.ExportStatusPending).Error; err != nil {
		Internal(c, "failed to mark export pending")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewExportGenerateTask(stored.ID, format, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue export generation")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "export request accepted",
		"format":  format,
		"task_id": info.ID,
	})
}

// GetDownloadLink 生成最近一次导出产物的预签名下载链接。
func (h *ExportHandler) GetDownloadLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	ctx := c.Request.Context()
	stored, err := h.resumeForUser(ctx, c.Param("id"), userID)
	if err != nil {
		respondResumeLookupError(c, err)
		return
	}

	if stored.ExportObjectKey == "" || stored.ExportStatus != database.ExportStatusCompleted {
		Conflict(c, "export not ready")
		return
	}

	filename := render.Filename(stored.Title, stored.ExportFormat)
	signedURL, err := h.storage.GenerateDownloadURL(ctx, stored.ExportObjectKey, filename, 5*time.Minute)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      signedURL,
		"format":   stored.ExportFormat,
		"filename": filename,
	})
}

func (h *ExportHandler) resumeForUser(ctx context.Context, idParam string, userID uint) (*database.Resume, error) {
	return lookupResumeForUser(ctx, h.db, idParam, userID)
}
