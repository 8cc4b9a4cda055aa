package ai

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"resumeForge/internal/database"
)

// Recorder 写入 AI 生成审计记录。核心管线只写不读。
type Recorder struct {
	db        *gorm.DB
	modelName string
}

// NewRecorder 构造审计记录器。
func NewRecorder(db *gorm.DB, modelName string) *Recorder {
	return &Recorder{db: db, modelName: modelName}
}

// Record 记录一次生成调用的提示词、响应与结果状态。
func (r *Recorder) Record(ctx context.Context, userID uint, resumeID *uint, prompt, response string, success bool) error {
	status := database.AIGenerationSuccess
	if !success {
		status = database.AIGenerationFailed
	}
	record := database.AIGenerationRecord{
		UserID:    userID,
		ResumeID:  resumeID,
		Prompt:    prompt,
		Response:  response,
		ModelName: r.modelName,
		Status:    status,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("record ai generation: %w", err)
	}
	return nil
}
