package render

import (
	"bytes"
	"strings"
	"testing"

	"gorm.io/datatypes"

	"resumeForge/internal/database"
	"resumeForge/internal/section"
)

func testResume() database.Resume {
	return database.Resume{Title: "Staff Engineer Resume"}
}

func sectionRow(id uint, variant section.Variant, title, content string, order int) database.Section {
	s := database.Section{
		ResumeID:  1,
		Variant:   string(variant),
		Title:     title,
		Content:   datatypes.JSON(content),
		SortOrder: order,
	}
	s.ID = id
	return s
}

func TestBuildDocument_SortsByOrderNotCreation(t *testing.T) {
	// 创建顺序与序号相反：遍历必须按序号。
	rows := []database.Section{
		sectionRow(1, section.VariantExperience, "Experience", `{"items":[{"company":"Acme","title":"Dev","startDate":"2020","endDate":"2024","description":"built stuff"}]}`, 2),
		sectionRow(2, section.VariantPersonalInfo, "Contact", `{"firstName":"Ada","lastName":"Lovelace"}`, 1),
	}

	doc := BuildDocument(testResume(), rows)
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[0].Variant != section.VariantPersonalInfo {
		t.Fatalf("expected PERSONAL_INFO first, got %s", doc.Sections[0].Variant)
	}
	if doc.Sections[1].Variant != section.VariantExperience {
		t.Fatalf("expected EXPERIENCE second, got %s", doc.Sections[1].Variant)
	}
}

func TestBuildDocument_TiesBrokenByInsertion(t *testing.T) {
	rows := []database.Section{
		sectionRow(7, section.VariantSummary, "B", `{"text":"b"}`, 3),
		sectionRow(4, section.VariantSummary, "A", `{"text":"a"}`, 3),
	}
	doc := BuildDocument(testResume(), rows)
	if doc.Sections[0].ID != 4 || doc.Sections[1].ID != 7 {
		t.Fatalf("tie not broken by insertion order: %d, %d", doc.Sections[0].ID, doc.Sections[1].ID)
	}
}

func TestBuildDocument_SkipsMalformedSection(t *testing.T) {
	rows := []database.Section{
		sectionRow(1, section.VariantSummary, "Summary", `{"text":"fine"}`, 0),
		sectionRow(2, section.VariantExperience, "Experience", `{"items":"not an array"}`, 1),
		sectionRow(3, section.Variant("UNKNOWN"), "Mystery", `{}`, 2),
	}
	doc := BuildDocument(testResume(), rows)
	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 renderable section, got %d", len(doc.Sections))
	}
	if len(doc.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %d: %+v", len(doc.Warnings), doc.Warnings)
	}
	for _, w := range doc.Warnings {
		if w.SectionID != 2 && w.SectionID != 3 {
			t.Fatalf("unexpected warning target: %+v", w)
		}
	}
}

func TestATS_OutOfOrderSections(t *testing.T) {
	rows := []database.Section{
		sectionRow(1, section.VariantExperience, "Experience", `{"items":[{"company":"Acme","title":"Dev","startDate":"2020","endDate":"2024","description":"shipped"}]}`, 2),
		sectionRow(2, section.VariantPersonalInfo, "Contact", `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com"}`, 1),
	}

	out, warnings, err := NewATS().Render(testResume(), rows)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}

	text := string(out)
	nameIdx := strings.Index(text, "Ada Lovelace")
	companyIdx := strings.Index(text, "Acme")
	if nameIdx == -1 || companyIdx == -1 {
		t.Fatalf("missing content in output:\n%s", text)
	}
	if nameIdx > companyIdx {
		t.Fatalf("PERSONAL_INFO must precede EXPERIENCE:\n%s", text)
	}
}

func TestATS_IntroducesOnlyWhitespace(t *testing.T) {
	rows := []database.Section{
		sectionRow(1, section.VariantSkills, "Skills", `{"categories":[{"name":"Backend","skills":["Go","Postgres"]}]}`, 0),
	}
	resume := testResume()
	out, _, err := NewATS().Render(resume, rows)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	source := resume.Title + "Skills" + "Backend" + "Go" + "Postgres"
	for _, r := range string(out) {
		if r == ' ' || r == '\n' {
			continue
		}
		if !strings.ContainsRune(source, r) {
			t.Fatalf("output contains character %q not present in source fields", r)
		}
	}
}

func TestPreview_EmptySkillCategory(t *testing.T) {
	rows := []database.Section{
		sectionRow(1, section.VariantSkills, "Skills", `{"categories":[{"name":"Languages","skills":[]}]}`, 0),
	}
	preview, err := NewPreview()
	if err != nil {
		t.Fatalf("NewPreview: %v", err)
	}
	out, warnings, err := preview.Render(testResume(), rows)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if !strings.Contains(string(out), "Languages") {
		t.Fatalf("category heading missing:\n%s", out)
	}
	if strings.Contains(string(out), "skill-tag") {
		t.Fatalf("empty category rendered tags:\n%s", out)
	}
}

func TestPreview_ToleratesPartialContent(t *testing.T) {
	rows := []database.Section{
		sectionRow(1, section.VariantPersonalInfo, "Contact", `{"email":"ada@example.com"}`, 0),
		sectionRow(2, section.VariantSummary, "Summary", `{"text":""}`, 1),
	}
	preview, err := NewPreview()
	if err != nil {
		t.Fatalf("NewPreview: %v", err)
	}
	out, warnings, err := preview.Render(testResume(), rows)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if !strings.Contains(string(out), "ada@example.com") {
		t.Fatalf("email missing:\n%s", out)
	}
}

func TestPreview_Idempotent(t *testing.T) {
	rows := []database.Section{
		sectionRow(1, section.VariantSummary, "Summary", `{"text":"steady"}`, 0),
		sectionRow(2, section.VariantLanguages, "Languages", `{"items":[{"language":"French","proficiency":"Native"}]}`, 1),
	}
	preview, err := NewPreview()
	if err != nil {
		t.Fatalf("NewPreview: %v", err)
	}
	first, _, err := preview.Render(testResume(), rows)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, _, err := preview.Render(testResume(), rows)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("rendering the same resume twice produced different output")
	}
}

func TestDOCX_ReadingOrderMatchesPreview(t *testing.T) {
	rows := []database.Section{
		sectionRow(1, section.VariantEducation, "Education", `{"items":[{"institution":"MIT","degree":"BSc","graduationYear":"2019"}]}`, 1),
		sectionRow(2, section.VariantSummary, "Summary", `{"text":"An empty summary is still a block"}`, 0),
	}
	out, warnings, err := NewDOCX().Render(testResume(), rows)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(out) == 0 {
		t.Fatal("empty docx output")
	}
	// OOXML 包以 zip 魔数开头。
	if !bytes.HasPrefix(out, []byte("PK")) {
		t.Fatalf("docx output is not a zip package: % x", out[:4])
	}
}

func TestFilename(t *testing.T) {
	cases := []struct {
		title  string
		format string
		want   string
	}{
		{"My Resume", "pdf", "My_Resume.pdf"},
		{"CV (2024)!", "docx", "CV__2024__.docx"},
		{"", "txt", "resume.txt"},
	}
	for _, tc := range cases {
		if got := Filename(tc.title, tc.format); got != tc.want {
			t.Fatalf("Filename(%q, %q) = %q, want %q", tc.title, tc.format, got, tc.want)
		}
	}
}
