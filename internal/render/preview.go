package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"resumeForge/internal/database"
	"resumeForge/internal/section"
)

// previewTemplateString 是预览渲染的 Go HTML 模板。
// 样式与导出保持同一套语义分组，阅读顺序必须一致。
const previewTemplateString = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body {
    font-family: Arial, sans-serif;
    line-height: 1.6;
    color: #000000;
    margin: 0;
    padding: 20px;
  }
  .section { margin-bottom: 25px; }
  .section-title {
    font-size: 18px;
    font-weight: bold;
    border-bottom: 1px solid #666666;
    margin-bottom: 15px;
    padding-bottom: 5px;
  }
  .personal-info { text-align: center; font-size: 16px; }
  .entry { margin-bottom: 15px; }
  .entry-title { font-weight: bold; }
  .entry-subtitle { color: #666666; font-style: italic; }
  .date { color: #666666; font-size: 14px; }
  .description { margin-top: 8px; white-space: pre-wrap; }
  .skills-category { margin-bottom: 10px; }
  .skill-tag {
    display: inline-block;
    background: #f3f4f6;
    border-radius: 4px;
    padding: 2px 8px;
    margin: 0 4px 4px 0;
    font-size: 13px;
  }
</style>
</head>
<body>
{{range .Sections}}
<div class="section">
  <div class="section-title">{{.Title}}</div>
  {{with .PersonalInfo}}
  <div class="personal-info">
    {{if .FirstName}}<h1>{{.FirstName}} {{.LastName}}</h1>{{else if .LastName}}<h1>{{.LastName}}</h1>{{end}}
    {{if .Title}}<div>{{.Title}}</div>{{end}}
    {{if .Email}}<div>{{.Email}}</div>{{end}}
    {{if .Phone}}<div>{{.Phone}}</div>{{end}}
    {{if .Location}}<div>{{.Location}}</div>{{end}}
    {{if .LinkedIn}}<div>{{.LinkedIn}}</div>{{end}}
    {{if .Website}}<div>{{.Website}}</div>{{end}}
  </div>
  {{end}}
  {{with .Summary}}
  <div class="description">{{.Text}}</div>
  {{end}}
  {{with .Experience}}
  {{range .Items}}
  <div class="entry">
    <div class="entry-title">{{.Title}}</div>
    <div class="entry-subtitle">{{.Company}}</div>
    <div class="date">{{.StartDate}} - {{if .Current}}Present{{else}}{{.EndDate}}{{end}}</div>
    {{if .Description}}<div class="description">{{.Description}}</div>{{end}}
  </div>
  {{end}}
  {{end}}
  {{with .Education}}
  {{range .Items}}
  <div class="entry">
    <div class="entry-title">{{.Degree}}{{if .Field}} in {{.Field}}{{end}}</div>
    <div class="entry-subtitle">{{.Institution}}</div>
    <div class="date">{{.GraduationYear}}</div>
    {{if .GPA}}<div>GPA: {{.GPA}}</div>{{end}}
  </div>
  {{end}}
  {{end}}
  {{with .Skills}}
  {{range .Categories}}
  <div class="skills-category">
    <strong>{{.Name}}</strong>
    <div>{{range .Skills}}<span class="skill-tag">{{.}}</span>{{end}}</div>
  </div>
  {{end}}
  {{end}}
  {{with .Projects}}
  {{range .Items}}
  <div class="entry">
    <div class="entry-title">{{.Name}}</div>
    {{if .Technologies}}<div class="entry-subtitle">{{join .Technologies ", "}}</div>{{end}}
    {{if or .StartDate .EndDate}}<div class="date">{{.StartDate}}{{if .EndDate}} - {{.EndDate}}{{end}}</div>{{end}}
    {{if .Description}}<div class="description">{{.Description}}</div>{{end}}
    {{if .URL}}<div>{{.URL}}</div>{{end}}
  </div>
  {{end}}
  {{end}}
  {{with .Certifications}}
  {{range .Items}}
  <div class="entry">
    <div class="entry-title">{{.Name}}</div>
    <div class="entry-subtitle">{{.Issuer}}</div>
    <div class="date">{{.Date}}</div>
    {{if .URL}}<div>{{.URL}}</div>{{end}}
  </div>
  {{end}}
  {{end}}
  {{with .Languages}}
  {{range .Items}}
  <div class="entry">{{.Language}} <span class="date">{{.Proficiency}}</span></div>
  {{end}}
  {{end}}
</div>
{{end}}
</body>
</html>
`

// previewSection 把和类型展开成模板可分派的形式：恰好一个指针非空。
type previewSection struct {
	Title          string
	PersonalInfo   *section.PersonalInfoContent
	Summary        *section.SummaryContent
	Experience     *section.ExperienceContent
	Education      *section.EducationContent
	Skills         *section.SkillsContent
	Projects       *section.ProjectsContent
	Certifications *section.CertificationsContent
	Languages      *section.LanguagesContent
}

type previewData struct {
	Title    string
	Sections []previewSection
}

// Preview 渲染器：聚合 -> 可交互编辑的可视化 HTML。
// 缺失字段渲染为空白占位，绝不报错。
type Preview struct {
	tmpl *template.Template
}

// NewPreview 解析预览模板并构造渲染器。
func NewPreview() (*Preview, error) {
	tmpl, err := template.New("preview").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(previewTemplateString)
	if err != nil {
		return nil, fmt.Errorf("parse preview template: %w", err)
	}
	return &Preview{tmpl: tmpl}, nil
}

// Render 按序号遍历分区并输出 HTML；损坏的分区以 Warning 返回。
func (p *Preview) Render(resume database.Resume, sections []database.Section) ([]byte, []Warning, error) {
	doc := BuildDocument(resume, sections)
	return p.RenderDocument(doc)
}

// RenderDocument 渲染已构建的 Document。
func (p *Preview) RenderDocument(doc Document) ([]byte, []Warning, error) {
	data := previewData{
		Title:    doc.Title,
		Sections: make([]previewSection, 0, len(doc.Sections)),
	}
	warnings := append([]Warning(nil), doc.Warnings...)

	for _, s := range doc.Sections {
		ps := previewSection{Title: s.Title}
		switch content := s.Content.(type) {
		case *section.PersonalInfoContent:
			ps.PersonalInfo = content
		case *section.SummaryContent:
			ps.Summary = content
		case *section.ExperienceContent:
			ps.Experience = content
		case *section.EducationContent:
			ps.Education = content
		case *section.SkillsContent:
			ps.Skills = content
		case *section.ProjectsContent:
			ps.Projects = content
		case *section.CertificationsContent:
			ps.Certifications = content
		case *section.LanguagesContent:
			ps.Languages = content
		default:
			warnings = append(warnings, Warning{
				SectionID: s.ID,
				Reason:    fmt.Sprintf("no preview formatter for %T", content),
			})
			continue
		}
		data.Sections = append(data.Sections, ps)
	}

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return nil, warnings, fmt.Errorf("execute preview template: %w", err)
	}
	return buf.Bytes(), warnings, nil
}
