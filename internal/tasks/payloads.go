package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportGenerate = "export:generate"
)

// ExportGeneratePayload 描述生成一次导出所需的最小信息。
type ExportGeneratePayload struct {
	ResumeID      uint   `json:"resume_id"`
	Format        string `json:"format"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportGenerateTask 构造一个新的简历导出任务。
func NewExportGenerateTask(id uint, format, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ExportGeneratePayload{
		ResumeID:      id,
		Format:        format,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExportGenerate, payload), nil
}

// UserNotifyChannel 返回某用户导出通知所用的 redis 频道名。
// worker 发布、WebSocket 网关订阅，两端必须一致。
func UserNotifyChannel(userID uint) string {
	return fmt.Sprintf("user_notify:%d", userID)
}
