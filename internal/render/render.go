package render

import (
	"fmt"
	"sort"

	"resumeForge/internal/database"
	"resumeForge/internal/section"
)

// Warning 记录渲染中被跳过或降级处理的分区。
// 单个分区损坏不会中断整体渲染（分区内容存在历史不一致，必须容错）。
type Warning struct {
	SectionID uint   `json:"section_id"`
	Reason    string `json:"reason"`
}

// Section 是完成解码、可直接分派渲染的分区。
type Section struct {
	ID      uint
	Variant section.Variant
	Title   string
	Content section.Content
}

// Document 是三个渲染器共享的遍历输入：按序号排好的分区序列。
type Document struct {
	Title       string
	Description string
	Sections    []Section
	Warnings    []Warning
}

// BuildDocument 按 sort_order 升序（插入顺序破平）遍历分区并解码内容。
// 无法解码的分区转为 Warning 并跳过，渲染继续。
func BuildDocument(resume database.Resume, sections []database.Section) Document {
	ordered := make([]database.Section, len(sections))
	copy(ordered, sections)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SortOrder != ordered[j].SortOrder {
			return ordered[i].SortOrder < ordered[j].SortOrder
		}
		return ordered[i].ID < ordered[j].ID
	})

	doc := Document{
		Title:       resume.Title,
		Description: resume.Description,
		Sections:    make([]Section, 0, len(ordered)),
	}

	for _, row := range ordered {
		variant, err := section.ParseVariant(row.Variant)
		if err != nil {
			doc.Warnings = append(doc.Warnings, Warning{
				SectionID: row.ID,
				Reason:    fmt.Sprintf("unknown variant %q", row.Variant),
			})
			continue
		}
		content, err := section.Decode(variant, row.Content)
		if err != nil {
			doc.Warnings = append(doc.Warnings, Warning{
				SectionID: row.ID,
				Reason:    err.Error(),
			})
			continue
		}
		doc.Sections = append(doc.Sections, Section{
			ID:      row.ID,
			Variant: variant,
			Title:   row.Title,
			Content: content,
		})
	}

	return doc
}
