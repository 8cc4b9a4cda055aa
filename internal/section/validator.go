package section

import (
	"encoding/json"
	"fmt"
)

// Validate 校验 content 是否符合 variant 声明的结构。
// 通过后返回去除首尾空白的规范化内容；失败返回 *InvalidContentError。
// 校验不修改输入本身，规范化只发生在这里（每次写入恰好一次）。
func Validate(v Variant, data []byte) (Content, error) {
	e, ok := registry[v]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}

	fields, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	content, err := e.check(fields, data)
	if err != nil {
		return nil, err
	}

	content.normalize()
	return content, nil
}

// decodeObject 确认负载是单个 JSON 对象（而非列表或标量）。
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	if len(data) == 0 {
		return nil, invalidf("payload is empty")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, invalidf("payload must be a single JSON object")
	}
	return fields, nil
}

func checkPersonalInfo(_ map[string]json.RawMessage, data []byte) (Content, error) {
	var content PersonalInfoContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, invalidf("personal info fields must be strings")
	}
	return &content, nil
}

func checkSummary(_ map[string]json.RawMessage, data []byte) (Content, error) {
	var content SummaryContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, invalidf("summary text must be a string")
	}
	return &content, nil
}

func checkExperience(fields map[string]json.RawMessage, data []byte) (Content, error) {
	items, err := decodeItems(fields)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		// 日期是自由文本（"Present"、"Jan 2020" 都合法），只要求键存在且为字符串。
		if err := requireStringKeys(item, i, "company", "title", "startDate", "endDate", "description"); err != nil {
			return nil, err
		}
	}
	var content ExperienceContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, invalidf("experience items malformed: %v", err)
	}
	return &content, nil
}

func checkEducation(fields map[string]json.RawMessage, data []byte) (Content, error) {
	items, err := decodeItems(fields)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		if err := requireStringKeys(item, i, "institution", "degree", "graduationYear"); err != nil {
			return nil, err
		}
	}
	var content EducationContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, invalidf("education items malformed: %v", err)
	}
	return &content, nil
}

func checkSkills(fields map[string]json.RawMessage, _ []byte) (Content, error) {
	raw, ok := fields["categories"]
	if !ok {
		return nil, invalidf("categories is required")
	}
	var categories []struct {
		Name   *string   `json:"name"`
		Skills *[]string `json:"skills"`
	}
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, invalidf("categories must be an array of {name, skills}")
	}

	content := SkillsContent{Categories: make([]SkillCategory, 0, len(categories))}
	for i, cat := range categories {
		if cat.Name == nil {
			return nil, invalidf("categories[%d]: name is required", i)
		}
		if cat.Skills == nil {
			return nil, invalidf("categories[%d]: skills must be an array of strings", i)
		}
		content.Categories = append(content.Categories, SkillCategory{
			Name:   *cat.Name,
			Skills: *cat.Skills,
		})
	}
	return &content, nil
}

func checkProjects(fields map[string]json.RawMessage, data []byte) (Content, error) {
	items, err := decodeItems(fields)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		if err := requireStringKeys(item, i, "name", "description"); err != nil {
			return nil, err
		}
	}
	var content ProjectsContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, invalidf("project items malformed: %v", err)
	}
	return &content, nil
}

func checkCertifications(fields map[string]json.RawMessage, data []byte) (Content, error) {
	items, err := decodeItems(fields)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		if err := requireStringKeys(item, i, "name", "issuer", "date"); err != nil {
			return nil, err
		}
	}
	var content CertificationsContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, invalidf("certification items malformed: %v", err)
	}
	return &content, nil
}

func checkLanguages(fields map[string]json.RawMessage, data []byte) (Content, error) {
	items, err := decodeItems(fields)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		if err := requireStringKeys(item, i, "language", "proficiency"); err != nil {
			return nil, err
		}
		var proficiency string
		_ = json.Unmarshal(item["proficiency"], &proficiency)
		if !validProficiency(proficiency) {
			return nil, invalidf("items[%d]: proficiency %q is not one of %v", i, proficiency, Proficiencies())
		}
	}
	var content LanguagesContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, invalidf("language items malformed: %v", err)
	}
	return &content, nil
}

func validProficiency(p string) bool {
	switch p {
	case ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyNative:
		return true
	}
	return false
}

// decodeItems 解出列表型分区的 items 数组，逐项保留原始键值以便必填检查。
func decodeItems(fields map[string]json.RawMessage) ([]map[string]json.RawMessage, error) {
	raw, ok := fields["items"]
	if !ok {
		return nil, invalidf("items is required")
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, invalidf("items must be an array of objects")
	}
	return items, nil
}

func requireStringKeys(item map[string]json.RawMessage, index int, keys ...string) error {
	for _, key := range keys {
		raw, ok := item[key]
		if !ok {
			return invalidf("items[%d]: %s is required", index, key)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return invalidf("items[%d]: %s must be a string", index, key)
		}
	}
	return nil
}
