package section

import (
	"encoding/json"
	"fmt"
)

// entry 描述注册表中一种分区类型的全部元信息。
type entry struct {
	defaultTitle string
	newContent   func() Content
	check        func(fields map[string]json.RawMessage, data []byte) (Content, error)
}

// registry 是纯查找表，无可变状态。
var registry = map[Variant]entry{
	VariantPersonalInfo: {
		defaultTitle: "Personal Information",
		newContent:   func() Content { return &PersonalInfoContent{} },
		check:        checkPersonalInfo,
	},
	VariantSummary: {
		defaultTitle: "Professional Summary",
		newContent:   func() Content { return &SummaryContent{} },
		check:        checkSummary,
	},
	VariantExperience: {
		defaultTitle: "Work Experience",
		newContent:   func() Content { return &ExperienceContent{Items: []ExperienceItem{}} },
		check:        checkExperience,
	},
	VariantEducation: {
		defaultTitle: "Education",
		newContent:   func() Content { return &EducationContent{Items: []EducationItem{}} },
		check:        checkEducation,
	},
	VariantSkills: {
		defaultTitle: "Skills",
		newContent:   func() Content { return &SkillsContent{Categories: []SkillCategory{}} },
		check:        checkSkills,
	},
	VariantProjects: {
		defaultTitle: "Projects",
		newContent:   func() Content { return &ProjectsContent{Items: []ProjectItem{}} },
		check:        checkProjects,
	},
	VariantCertifications: {
		defaultTitle: "Certifications",
		newContent:   func() Content { return &CertificationsContent{Items: []CertificationItem{}} },
		check:        checkCertifications,
	},
	VariantLanguages: {
		defaultTitle: "Languages",
		newContent:   func() Content { return &LanguagesContent{Items: []LanguageItem{}} },
		check:        checkLanguages,
	},
}

// DefaultTitle 返回分区类型的默认展示标题。
func DefaultTitle(v Variant) (string, error) {
	e, ok := registry[v]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return e.defaultTitle, nil
}

// DefaultContent 返回新建分区时的零值内容。
func DefaultContent(v Variant) (Content, error) {
	e, ok := registry[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return e.newContent(), nil
}

// Decode 将已存储的内容解码为类型化结构，供渲染器使用。
// 不做必填校验：渲染器要容忍历史上不完整的内容。
func Decode(v Variant, data []byte) (Content, error) {
	e, ok := registry[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	content := e.newContent()
	if len(data) == 0 {
		return content, nil
	}
	if err := json.Unmarshal(data, content); err != nil {
		return nil, fmt.Errorf("decode %s content: %w", v, err)
	}
	return content, nil
}

// Marshal 将类型化内容序列化为持久化使用的 JSON。
func Marshal(c Content) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal %s content: %w", c.Variant(), err)
	}
	return data, nil
}
