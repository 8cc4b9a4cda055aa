package render

import (
	"strings"

	"resumeForge/internal/database"
	"resumeForge/internal/section"
)

// ATS 渲染器：输出面向机器关键词扫描的纯文本。
// 除用作分隔的空白与换行外，不引入任何源字段中不存在的字符；
// 不截断任何文本内容。
type ATS struct{}

// NewATS 构造 ATS 渲染器。
func NewATS() *ATS {
	return &ATS{}
}

// Render 按序号遍历分区并输出纯文本；损坏的分区以 Warning 返回。
func (a *ATS) Render(resume database.Resume, sections []database.Section) ([]byte, []Warning, error) {
	doc := BuildDocument(resume, sections)
	return a.RenderDocument(doc)
}

// RenderDocument 渲染已构建的 Document。
func (a *ATS) RenderDocument(doc Document) ([]byte, []Warning, error) {
	var b lineBuilder
	b.line(doc.Title)
	b.blank()

	for _, s := range doc.Sections {
		b.line(s.Title)
		switch content := s.Content.(type) {
		case *section.PersonalInfoContent:
			b.words(content.FirstName, content.LastName)
			b.line(content.Title)
			b.words(content.Email, content.Phone, content.Location)
			b.line(content.LinkedIn)
			b.line(content.Website)
		case *section.SummaryContent:
			b.line(content.Text)
		case *section.ExperienceContent:
			for _, item := range content.Items {
				b.words(item.Title, item.Company)
				b.words(item.StartDate, item.EndDate)
				b.line(item.Description)
			}
		case *section.EducationContent:
			for _, item := range content.Items {
				b.words(item.Degree, item.Field)
				b.words(item.Institution, item.GraduationYear)
				b.line(item.GPA)
			}
		case *section.SkillsContent:
			for _, cat := range content.Categories {
				b.words(append([]string{cat.Name}, cat.Skills...)...)
			}
		case *section.ProjectsContent:
			for _, item := range content.Items {
				b.words(append([]string{item.Name}, item.Technologies...)...)
				b.words(item.StartDate, item.EndDate)
				b.line(item.Description)
				b.line(item.URL)
			}
		case *section.CertificationsContent:
			for _, item := range content.Items {
				b.words(item.Name, item.Issuer, item.Date)
				b.line(item.URL)
			}
		case *section.LanguagesContent:
			for _, item := range content.Items {
				b.words(item.Language, item.Proficiency)
			}
		}
		b.blank()
	}

	return []byte(b.String()), doc.Warnings, nil
}

// lineBuilder 逐行累积文本，空字段整行省略。
type lineBuilder struct {
	sb strings.Builder
}

func (b *lineBuilder) line(text string) {
	if text == "" {
		return
	}
	b.sb.WriteString(text)
	b.sb.WriteByte('\n')
}

// words 把非空片段用单个空格连接成一行。
func (b *lineBuilder) words(parts ...string) {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	b.line(strings.Join(nonEmpty, " "))
}

func (b *lineBuilder) blank() {
	b.sb.WriteByte('\n')
}

func (b *lineBuilder) String() string {
	return b.sb.String()
}
