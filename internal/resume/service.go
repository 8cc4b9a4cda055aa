package resume

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumeForge/internal/database"
	"resumeForge/internal/section"
)

// ErrOrderMismatch 表示重排序列表不是当前分区 ID 的一个置换。
var ErrOrderMismatch = errors.New("order list is not a permutation of section ids")

// ErrVariantImmutable 表示尝试修改分区的类型。类型在创建后固定。
var ErrVariantImmutable = errors.New("section variant is immutable")

// Service 是简历聚合的唯一权威实现：
// 所有分区写入都经过内容校验，所有变更都推进简历的 updated_at。
type Service struct {
	db *gorm.DB
}

// NewService 构造聚合服务。
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SectionSpec 描述批量替换时的一个分区。
type SectionSpec struct {
	Variant section.Variant `json:"variant"`
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

// Sections 按渲染顺序返回简历的全部分区（sort_order 升序，插入顺序破平）。
func (s *Service) Sections(ctx context.Context, resumeID uint) ([]database.Section, error) {
	var sections []database.Section
	if err := s.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		Order("sort_order ASC, id ASC").
		Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// AddSection 校验内容后追加一个分区。
// desiredOrder 为 nil 时使用 max(现有序号)+1；标题为空时使用类型默认标题。
func (s *Service) AddSection(ctx context.Context, resumeID uint, variant section.Variant, title string, content json.RawMessage, desiredOrder *int) (*database.Section, error) {
	if len(content) == 0 {
		defaultContent, err := section.DefaultContent(variant)
		if err != nil {
			return nil, err
		}
		data, err := section.Marshal(defaultContent)
		if err != nil {
			return nil, err
		}
		content = data
	}

	validated, err := section.Validate(variant, content)
	if err != nil {
		return nil, err
	}
	normalized, err := section.Marshal(validated)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title, err = section.DefaultTitle(variant)
		if err != nil {
			return nil, err
		}
	}

	var created database.Section
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&database.Resume{}, resumeID).Error; err != nil {
			return err
		}

		order := 0
		if desiredOrder != nil {
			order = *desiredOrder
		} else {
			var maxOrder sql.NullInt64
			if err := tx.Model(&database.Section{}).
				Where("resume_id = ?", resumeID).
				Select("MAX(sort_order)").
				Scan(&maxOrder).Error; err != nil {
				return fmt.Errorf("max order: %w", err)
			}
			if maxOrder.Valid {
				order = int(maxOrder.Int64) + 1
			}
		}

		created = database.Section{
			ResumeID:  resumeID,
			Variant:   string(variant),
			Title:     title,
			Content:   datatypes.JSON(normalized),
			SortOrder: order,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create section: %w", err)
		}
		return touchResume(tx, resumeID)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSection 修改单个分区的内容、标题或序号。类型不可变更。
func (s *Service) UpdateSection(ctx context.Context, resumeID, sectionID uint, title *string, content json.RawMessage, order *int) (*database.Section, error) {
	var stored database.Section
	if err := s.db.WithContext(ctx).
		Where("id = ? AND resume_id = ?", sectionID, resumeID).
		First(&stored).Error; err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if content != nil {
		validated, err := section.Validate(section.Variant(stored.Variant), content)
		if err != nil {
			return nil, err
		}
		normalized, err := section.Marshal(validated)
		if err != nil {
			return nil, err
		}
		updates["content"] = datatypes.JSON(normalized)
	}
	if title != nil {
		updates["title"] = *title
	}
	if order != nil {
		updates["sort_order"] = *order
	}
	if len(updates) == 0 {
		return &stored, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&stored).Updates(updates).Error; err != nil {
			return fmt.Errorf("update section: %w", err)
		}
		if err := tx.First(&stored, stored.ID).Error; err != nil {
			return fmt.Errorf("reload section: %w", err)
		}
		return touchResume(tx, resumeID)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ReorderSections 按给定的 ID 序列重排分区，序号即列表下标。
// 列表缺失、重复或包含外部 ID 时返回 ErrOrderMismatch，不做任何修改。
func (s *Service) ReorderSections(ctx context.Context, resumeID uint, orderedIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existingIDs []uint
		if err := tx.Model(&database.Section{}).
			Where("resume_id = ?", resumeID).
			Pluck("id", &existingIDs).Error; err != nil {
			return fmt.Errorf("list section ids: %w", err)
		}

		if len(orderedIDs) != len(existingIDs) {
			return ErrOrderMismatch
		}
		existing := make(map[uint]bool, len(existingIDs))
		for _, id := range existingIDs {
			existing[id] = true
		}
		seen := make(map[uint]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			if !existing[id] || seen[id] {
				return ErrOrderMismatch
			}
			seen[id] = true
		}

		for index, id := range orderedIDs {
			if err := tx.Model(&database.Section{}).
				Where("id = ?", id).
				Update("sort_order", index).Error; err != nil {
				return fmt.Errorf("reorder section %d: %w", id, err)
			}
		}
		return touchResume(tx, resumeID)
	})
}

// ReplaceSections 原子地用新的分区序列替换全部现有分区（向导页的批量保存）。
// 任何一个 spec 校验失败则整体不生效，原有分区保持不变。
func (s *Service) ReplaceSections(ctx context.Context, resumeID uint, specs []SectionSpec) ([]database.Section, error) {
	// 先整批校验，后进事务：失败不触碰存储。
	replacements := make([]database.Section, 0, len(specs))
	for i, spec := range specs {
		content := spec.Content
		if len(content) == 0 {
			defaultContent, err := section.DefaultContent(spec.Variant)
			if err != nil {
				return nil, fmt.Errorf("sections[%d]: %w", i, err)
			}
			data, err := section.Marshal(defaultContent)
			if err != nil {
				return nil, err
			}
			content = data
		}
		validated, err := section.Validate(spec.Variant, content)
		if err != nil {
			return nil, fmt.Errorf("sections[%d]: %w", i, err)
		}
		normalized, err := section.Marshal(validated)
		if err != nil {
			return nil, err
		}

		title := spec.Title
		if title == "" {
			title, err = section.DefaultTitle(spec.Variant)
			if err != nil {
				return nil, fmt.Errorf("sections[%d]: %w", i, err)
			}
		}

		replacements = append(replacements, database.Section{
			ResumeID:  resumeID,
			Variant:   string(spec.Variant),
			Title:     title,
			Content:   datatypes.JSON(normalized),
			SortOrder: i,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&database.Resume{}, resumeID).Error; err != nil {
			return err
		}
		if err := tx.Where("resume_id = ?", resumeID).Delete(&database.Section{}).Error; err != nil {
			return fmt.Errorf("discard sections: %w", err)
		}
		if len(replacements) > 0 {
			if err := tx.Create(&replacements).Error; err != nil {
				return fmt.Errorf("create sections: %w", err)
			}
		}
		return touchResume(tx, resumeID)
	})
	if err != nil {
		return nil, err
	}
	return replacements, nil
}

// RemoveSection 删除一个分区，不重排剩余序号（允许出现空洞）。
func (s *Service) RemoveSection(ctx context.Context, resumeID, sectionID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored database.Section
		if err := tx.Where("id = ? AND resume_id = ?", sectionID, resumeID).First(&stored).Error; err != nil {
			return err
		}
		if err := tx.Delete(&stored).Error; err != nil {
			return fmt.Errorf("delete section: %w", err)
		}
		return touchResume(tx, resumeID)
	})
}

// touchResume 推进简历的 updated_at，供“最近编辑”排序使用。
func touchResume(tx *gorm.DB, resumeID uint) error {
	if err := tx.Model(&database.Resume{}).
		Where("id = ?", resumeID).
		Update("updated_at", time.Now()).Error; err != nil {
		return fmt.Errorf("touch resume: %w", err)
	}
	return nil
}
