package section

import "strings"

// Content 是分区内容的和类型：每种 Variant 对应一个具体结构体。
// 渲染器通过类型分派处理各自的格式化逻辑。
type Content interface {
	Variant() Variant
	// normalize 去除字符串字段的首尾空白。
	// 只允许在 Validate 中调用一次，保证存储值与渲染值一致。
	normalize()
}

// PersonalInfoContent 对应 PERSONAL_INFO，单对象而非列表。
type PersonalInfoContent struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	Website   string `json:"website,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
}

func (*PersonalInfoContent) Variant() Variant { return VariantPersonalInfo }

func (c *PersonalInfoContent) normalize() {
	trimAll(&c.FirstName, &c.LastName, &c.Title, &c.Email, &c.Phone, &c.Location, &c.Website, &c.LinkedIn)
}

// SummaryContent 对应 SUMMARY。空字符串是合法内容。
type SummaryContent struct {
	Text string `json:"text"`
}

func (*SummaryContent) Variant() Variant { return VariantSummary }

func (c *SummaryContent) normalize() { trimAll(&c.Text) }

// ExperienceItem 是一段工作经历。日期为自由文本（允许 "Present"）。
type ExperienceItem struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description"`
}

// ExperienceContent 对应 EXPERIENCE，有序列表。
type ExperienceContent struct {
	Items []ExperienceItem `json:"items"`
}

func (*ExperienceContent) Variant() Variant { return VariantExperience }

func (c *ExperienceContent) normalize() {
	for i := range c.Items {
		item := &c.Items[i]
		trimAll(&item.Company, &item.Title, &item.StartDate, &item.EndDate, &item.Description)
	}
}

// EducationItem 是一段教育经历。
type EducationItem struct {
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	Field          string `json:"field,omitempty"`
	GraduationYear string `json:"graduationYear"`
	GPA            string `json:"gpa,omitempty"`
}

// EducationContent 对应 EDUCATION，有序列表。
type EducationContent struct {
	Items []EducationItem `json:"items"`
}

func (*EducationContent) Variant() Variant { return VariantEducation }

func (c *EducationContent) normalize() {
	for i := range c.Items {
		item := &c.Items[i]
		trimAll(&item.Institution, &item.Degree, &item.Field, &item.GraduationYear, &item.GPA)
	}
}

// SkillCategory 是一组技能标签。skills 允许为空数组（渲染为空标签组）。
type SkillCategory struct {
	Name   string   `json:"name"`
	Skills []string `json:"skills"`
}

// SkillsContent 对应 SKILLS，嵌套的列表之列表。
type SkillsContent struct {
	Categories []SkillCategory `json:"categories"`
}

func (*SkillsContent) Variant() Variant { return VariantSkills }

func (c *SkillsContent) normalize() {
	for i := range c.Categories {
		cat := &c.Categories[i]
		trimAll(&cat.Name)
		for j := range cat.Skills {
			cat.Skills[j] = strings.TrimSpace(cat.Skills[j])
		}
	}
}

// ProjectItem 是一个项目条目。
type ProjectItem struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
	URL          string   `json:"url,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
}

// ProjectsContent 对应 PROJECTS，有序列表。
type ProjectsContent struct {
	Items []ProjectItem `json:"items"`
}

func (*ProjectsContent) Variant() Variant { return VariantProjects }

func (c *ProjectsContent) normalize() {
	for i := range c.Items {
		item := &c.Items[i]
		trimAll(&item.Name, &item.Description, &item.URL, &item.StartDate, &item.EndDate)
		for j := range item.Technologies {
			item.Technologies[j] = strings.TrimSpace(item.Technologies[j])
		}
	}
}

// CertificationItem 是一条证书记录。
type CertificationItem struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
	URL    string `json:"url,omitempty"`
}

// CertificationsContent 对应 CERTIFICATIONS，有序列表。
type CertificationsContent struct {
	Items []CertificationItem `json:"items"`
}

func (*CertificationsContent) Variant() Variant { return VariantCertifications }

func (c *CertificationsContent) normalize() {
	for i := range c.Items {
		item := &c.Items[i]
		trimAll(&item.Name, &item.Issuer, &item.Date, &item.URL)
	}
}

// 语言熟练度的闭合枚举，校验器据此拒绝其他取值。
const (
	ProficiencyBeginner     = "Beginner"
	ProficiencyIntermediate = "Intermediate"
	ProficiencyAdvanced     = "Advanced"
	ProficiencyNative       = "Native"
)

// Proficiencies 返回全部合法的熟练度等级。
func Proficiencies() []string {
	return []string{ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyNative}
}

// LanguageItem 是一条语言能力记录。
type LanguageItem struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

// LanguagesContent 对应 LANGUAGES，有序列表。
type LanguagesContent struct {
	Items []LanguageItem `json:"items"`
}

func (*LanguagesContent) Variant() Variant { return VariantLanguages }

func (c *LanguagesContent) normalize() {
	for i := range c.Items {
		item := &c.Items[i]
		trimAll(&item.Language, &item.Proficiency)
	}
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
