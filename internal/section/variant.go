package section

import (
	"errors"
	"fmt"
)

// Variant 表示简历分区的固定类型，决定 Content 的结构。
type Variant string

// 闭合的分区类型枚举，新增类型必须同步更新 registry 与各渲染器。
const (
	VariantPersonalInfo   Variant = "PERSONAL_INFO"
	VariantSummary        Variant = "SUMMARY"
	VariantExperience     Variant = "EXPERIENCE"
	VariantEducation      Variant = "EDUCATION"
	VariantSkills         Variant = "SKILLS"
	VariantProjects       Variant = "PROJECTS"
	VariantCertifications Variant = "CERTIFICATIONS"
	VariantLanguages      Variant = "LANGUAGES"
)

// ErrUnknownVariant 表示查询了注册表之外的分区类型。
var ErrUnknownVariant = errors.New("unknown section variant")

// ParseVariant 将字符串解析为合法的 Variant。
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if _, ok := registry[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
	return v, nil
}

// Variants 返回全部分区类型，顺序与默认模板一致。
func Variants() []Variant {
	return []Variant{
		VariantPersonalInfo,
		VariantSummary,
		VariantExperience,
		VariantEducation,
		VariantSkills,
		VariantProjects,
		VariantCertifications,
		VariantLanguages,
	}
}

// InvalidContentError 表示分区内容不符合其类型声明的结构。
// 属于调用方错误，直接返回 400，不做重试。
type InvalidContentError struct {
	Reason string
}

func (e *InvalidContentError) Error() string {
	return "invalid content: " + e.Reason
}

func invalidf(format string, args ...any) error {
	return &InvalidContentError{Reason: fmt.Sprintf(format, args...)}
}
