package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeForge/internal/database"
	"resumeForge/internal/errcode"
	"resumeForge/internal/metrics"
	"resumeForge/internal/render"
	"resumeForge/internal/storage"
	"resumeForge/internal/tasks"
)

// ExportTaskHandler 负责消费简历导出任务。
type ExportTaskHandler struct {
	db            *gorm.DB
	storage       *storage.Client
	redisClient   *redis.Client
	exporter      *render.Exporter
	logger        *slog.Logger
	renderTimeout time.Duration
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	exporter *render.Exporter,
	logger *slog.Logger,
	renderTimeout time.Duration,
) *ExportTaskHandler {
	if renderTimeout <= 0 {
		renderTimeout = 90 * time.Second
	}
	return &ExportTaskHandler{
		db:            db,
		storage:       storageClient,
		redisClient:   redisClient,
		exporter:      exporter,
		logger:        logger,
		renderTimeout: renderTimeout,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ExportGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("resume_id", int(payload.ResumeID)),
		slog.String("format", payload.Format),
	)
	log.Info("Starting resume export task...")

	format := payload.Format
	if !render.ValidFormat(format) {
		err := fmt.Errorf("unsupported export format %q", format)
		log.Error("invalid export format in payload", slog.Any("error", err))
		return err
	}

	var resume database.Resume
	if err := h.db.WithContext(ctx).First(&resume, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(resume.UserID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		if err := h.db.WithContext(ctx).Model(&resume).
			Update("export_status", database.ExportStatusFailed).Error; err != nil {
			log.Error("mark export failed", slog.Any("error", err))
		}

		notify := ExportNotifyMessage{
			Status:        "error",
			ResumeID:      resume.ID,
			Format:        format,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishExportNotify(ctx, resume.UserID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	var sections []database.Section
	if err := h.db.WithContext(ctx).
		Where("resume_id = ?", resume.ID).
		Order("sort_order ASC").Order("id ASC").
		Find(&sections).Error; err != nil {
		log.Error("query sections failed", slog.Any("error", err))
		return err
	}

	renderCtx, cancel := context.WithTimeout(ctx, h.renderTimeout)
	defer cancel()

	renderStart := time.Now()
	data, warnings, err := h.exporter.Export(renderCtx, format, resume, sections)
	if err != nil {
		log.Error("render export failed", slog.Any("error", err))
		return err
	}
	metrics.ObserveExportDuration(format, time.Since(renderStart))

	objectName := fmt.Sprintf("generated-exports/%d/%s.%s", resume.UserID, uuid.NewString(), format)
	reader := bytes.NewReader(data)
	if _, err := h.storage.UploadFile(ctx, objectName, reader, int64(len(data)), render.ContentType(format)); err != nil {
		log.Error("upload export to minio failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"export_object_key": objectName,
		"export_format":     format,
		"export_status":     database.ExportStatusCompleted,
	}
	if err := h.db.WithContext(ctx).Model(&resume).Updates(update).Error; err != nil {
		log.Error("update resume export state failed", slog.Any("error", err))
		return err
	}

	notify := ExportNotifyMessage{
		Status:        "completed",
		ResumeID:      resume.ID,
		Format:        format,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if skipped := len(warnings); skipped > 0 {
		notify.ErrorCode = errcode.SectionSkipped
		notify.ErrorMessage = "部分分区内容无法解析，已自动跳过并继续生成"
		notify.SkippedSections = skipped
		log.Warn("export generated with skipped sections",
			slog.Int("skipped_count", skipped),
		)
	}
	if err := h.publishExportNotify(ctx, resume.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Resume export task completed successfully.")
	return nil
}

func (h *ExportTaskHandler) publishExportNotify(ctx context.Context, userID uint, notify ExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.UserNotifyChannel(userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
