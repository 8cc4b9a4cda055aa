package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
// 所有属主判断只使用内部自增 ID，不使用任何外部身份标识。
type User struct {
	gorm.Model
	Username       string `gorm:"uniqueIndex;size:64"`
	PasswordHash   string `gorm:"size:255"`
	ActiveResumeID *uint
	Resumes        []Resume `gorm:"constraint:OnDelete:CASCADE"`
}

// Resume 是分区的聚合根：独占拥有一组有序分区，删除时级联删除。
type Resume struct {
	gorm.Model
	Title       string    `gorm:"size:255"`
	Description string    `gorm:"size:1024"`
	TemplateID  *uint     `gorm:"index"`
	UserID      uint      `gorm:"index"`
	User        User      `gorm:"constraint:OnDelete:CASCADE"`
	Sections    []Section `gorm:"constraint:OnDelete:CASCADE"`

	// 最近一次导出产物（对象存储 Key 与状态），由 Worker 回写。
	ExportObjectKey string `gorm:"size:512"`
	ExportFormat    string `gorm:"size:16"`
	ExportStatus    string `gorm:"size:32"`
}

// Section 是简历中的一个类型化分区。
// Variant 创建后不可修改；SortOrder 稠密但允许空洞，渲染始终按其排序。
type Section struct {
	gorm.Model
	ResumeID  uint           `gorm:"index"`
	Variant   string         `gorm:"size:32"`
	Title     string         `gorm:"size:255"`
	Content   datatypes.JSON `gorm:"type:jsonb"`
	SortOrder int            `gorm:"index"`
}

// Template 提供默认分区结构与样式提示，只被渲染器读取。
type Template struct {
	gorm.Model
	Name        string         `gorm:"size:255"`
	Description string         `gorm:"size:1024"`
	Structure   datatypes.JSON `gorm:"type:jsonb"` // sections 顺序与 layout
	Styling     datatypes.JSON `gorm:"type:jsonb"` // 字体、颜色、间距
	IsPremium   bool           `gorm:"default:false"`
}

// AIGenerationRecord 是 AI 生成调用的审计日志，核心管线只写不读。
type AIGenerationRecord struct {
	gorm.Model
	UserID    uint   `gorm:"index"`
	ResumeID  *uint  `gorm:"index"`
	Prompt    string `gorm:"type:text"`
	Response  string `gorm:"type:text"`
	ModelName string `gorm:"column:model;size:64"`
	Status    string `gorm:"size:16"` // SUCCESS | FAILED
}

// AI 生成记录的状态取值。
const (
	AIGenerationSuccess = "SUCCESS"
	AIGenerationFailed  = "FAILED"
)

// 导出任务状态，Worker 回写到 Resume。
const (
	ExportStatusPending   = "pending"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)
