package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"resumeForge/internal/database"
	"resumeForge/internal/section"
)

// 字号使用 OOXML 半磅值：姓名 20pt、分区标题 16pt、正文默认。
const (
	docxNameSize    = "40"
	docxHeadingSize = "32"
)

// DOCX 渲染器：聚合 -> Word 文档包。
// 段落分组与预览渲染保持同一阅读顺序。
type DOCX struct{}

// NewDOCX 构造 DOCX 渲染器。
func NewDOCX() *DOCX {
	return &DOCX{}
}

// Render 按序号遍历分区并输出 .docx 字节；损坏的分区以 Warning 返回。
func (d *DOCX) Render(resume database.Resume, sections []database.Section) ([]byte, []Warning, error) {
	doc := BuildDocument(resume, sections)
	return d.RenderDocument(doc)
}

// RenderDocument 渲染已构建的 Document。
func (d *DOCX) RenderDocument(doc Document) ([]byte, []Warning, error) {
	w := docx.New().WithDefaultTheme()

	for _, s := range doc.Sections {
		heading := w.AddParagraph()
		heading.AddText(s.Title).Size(docxHeadingSize).Bold()

		switch content := s.Content.(type) {
		case *section.PersonalInfoContent:
			writePersonalInfoDOCX(w, content)
		case *section.SummaryContent:
			w.AddParagraph().AddText(content.Text)
		case *section.ExperienceContent:
			for _, item := range content.Items {
				w.AddParagraph().AddText(item.Title).Bold()
				end := item.EndDate
				if item.Current && end == "" {
					end = "Present"
				}
				w.AddParagraph().AddText(fmt.Sprintf("%s | %s - %s", item.Company, item.StartDate, end)).Italic()
				if item.Description != "" {
					w.AddParagraph().AddText(item.Description)
				}
			}
		case *section.EducationContent:
			for _, item := range content.Items {
				title := item.Degree
				if item.Field != "" {
					title = item.Degree + " in " + item.Field
				}
				w.AddParagraph().AddText(title).Bold()
				w.AddParagraph().AddText(fmt.Sprintf("%s | %s", item.Institution, item.GraduationYear)).Italic()
				if item.GPA != "" {
					w.AddParagraph().AddText("GPA: " + item.GPA)
				}
			}
		case *section.SkillsContent:
			for _, cat := range content.Categories {
				para := w.AddParagraph()
				para.AddText(cat.Name + ": ").Bold()
				para.AddText(strings.Join(cat.Skills, ", "))
			}
		case *section.ProjectsContent:
			for _, item := range content.Items {
				w.AddParagraph().AddText(item.Name).Bold()
				if len(item.Technologies) > 0 {
					w.AddParagraph().AddText(strings.Join(item.Technologies, ", ")).Italic()
				}
				if item.Description != "" {
					w.AddParagraph().AddText(item.Description)
				}
				if item.URL != "" {
					w.AddParagraph().AddText(item.URL)
				}
			}
		case *section.CertificationsContent:
			for _, item := range content.Items {
				w.AddParagraph().AddText(item.Name).Bold()
				w.AddParagraph().AddText(fmt.Sprintf("%s | %s", item.Issuer, item.Date)).Italic()
			}
		case *section.LanguagesContent:
			for _, item := range content.Items {
				para := w.AddParagraph()
				para.AddText(item.Language).Bold()
				para.AddText(" " + item.Proficiency)
			}
		}

		w.AddParagraph() // 分区间空行
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, doc.Warnings, fmt.Errorf("write docx package: %w", err)
	}
	return buf.Bytes(), doc.Warnings, nil
}

func writePersonalInfoDOCX(w *docx.Docx, content *section.PersonalInfoContent) {
	name := strings.TrimSpace(content.FirstName + " " + content.LastName)
	if name != "" {
		para := w.AddParagraph().Justification("center")
		para.AddText(name).Size(docxNameSize).Bold()
	}
	if content.Title != "" {
		w.AddParagraph().Justification("center").AddText(content.Title)
	}

	contact := make([]string, 0, 3)
	for _, field := range []string{content.Email, content.Phone, content.Location} {
		if field != "" {
			contact = append(contact, field)
		}
	}
	if len(contact) > 0 {
		w.AddParagraph().Justification("center").AddText(strings.Join(contact, " | "))
	}
	for _, link := range []string{content.LinkedIn, content.Website} {
		if link != "" {
			w.AddParagraph().Justification("center").AddText(link)
		}
	}
}
