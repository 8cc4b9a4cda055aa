package resume

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumeForge/internal/database"
	"resumeForge/internal/section"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedResume(t *testing.T, db *gorm.DB) database.Resume {
	t.Helper()
	user := database.User{Username: "tester", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	r := database.Resume{Title: "My Resume", UserID: user.ID}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return r
}

func TestAddSection_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedResume(t, db)
	ctx := context.Background()

	payload := json.RawMessage(`{"text":"  Experienced gopher.  "}`)
	created, err := svc.AddSection(ctx, r.ID, section.VariantSummary, "", payload, nil)
	if err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	if created.Variant != string(section.VariantSummary) {
		t.Fatalf("variant = %q", created.Variant)
	}
	if created.Title != "Professional Summary" {
		t.Fatalf("expected default title, got %q", created.Title)
	}

	sections, err := svc.Sections(ctx, r.ID)
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	content, err := section.Decode(section.VariantSummary, sections[0].Content)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := content.(*section.SummaryContent).Text; got != "Experienced gopher." {
		t.Fatalf("stored text = %q, want normalized copy", got)
	}
}

func TestAddSection_RejectsInvalidContent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedResume(t, db)

	payload := json.RawMessage(`{"items":[{"language":"German","proficiency":"Expert"}]}`)
	_, err := svc.AddSection(context.Background(), r.ID, section.VariantLanguages, "", payload, nil)
	var invalid *section.InvalidContentError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidContentError, got %v", err)
	}

	sections, _ := svc.Sections(context.Background(), r.ID)
	if len(sections) != 0 {
		t.Fatalf("invalid add must not persist, got %d sections", len(sections))
	}
}

func TestAddSection_OrderAssignment(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedResume(t, db)
	ctx := context.Background()

	five := 5
	if _, err := svc.AddSection(ctx, r.ID, section.VariantSummary, "", nil, &five); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	appended, err := svc.AddSection(ctx, r.ID, section.VariantSkills, "", nil, nil)
	if err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	if appended.SortOrder != 6 {
		t.Fatalf("expected max+1 = 6, got %d", appended.SortOrder)
	}
}

func TestReorderSections(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedResume(t, db)
	ctx := context.Background()

	var ids []uint
	for _, v := range []section.Variant{section.VariantPersonalInfo, section.VariantSummary, section.VariantSkills} {
		s, err := svc.AddSection(ctx, r.ID, v, "", nil, nil)
		if err != nil {
			t.Fatalf("AddSection(%s): %v", v, err)
		}
		ids = append(ids, s.ID)
	}

	permutation := []uint{ids[2], ids[0], ids[1]}
	if err := svc.ReorderSections(ctx, r.ID, permutation); err != nil {
		t.Fatalf("ReorderSections: %v", err)
	}

	sections, err := svc.Sections(ctx, r.ID)
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	for i, want := range permutation {
		if sections[i].ID != want {
			t.Fatalf("position %d: got section %d want %d", i, sections[i].ID, want)
		}
		if sections[i].SortOrder != i {
			t.Fatalf("position %d: sort order %d", i, sections[i].SortOrder)
		}
	}
}

func TestReorderSections_Mismatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedResume(t, db)
	ctx := context.Background()

	a, _ := svc.AddSection(ctx, r.ID, section.VariantSummary, "", nil, nil)
	b, _ := svc.AddSection(ctx, r.ID, section.VariantSkills, "", nil, nil)

	cases := [][]uint{
		{a.ID},            // 缺失
		{a.ID, a.ID},      // 重复
		{a.ID, b.ID, 999}, // 长度不符
		{a.ID, 999},       // 外部 ID
	}
	for _, ids := range cases {
		if err := svc.ReorderSections(ctx, r.ID, ids); !errors.Is(err, ErrOrderMismatch) {
			t.Fatalf("ReorderSections(%v) = %v, want ErrOrderMismatch", ids, err)
		}
	}
}

func TestReplaceSections_Atomic(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedResume(t, db)
	ctx := context.Background()

	if _, err := svc.AddSection(ctx, r.ID, section.VariantSummary, "Old Summary", json.RawMessage(`{"text":"before"}`), nil); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	before, _ := svc.Sections(ctx, r.ID)

	// 批次中注入一个非法 spec：整体必须不生效。
	_, err := svc.ReplaceSections(ctx, r.ID, []SectionSpec{
		{Variant: section.VariantPersonalInfo, Content: json.RawMessage(`{"firstName":"Ada"}`)},
		{Variant: section.VariantLanguages, Content: json.RawMessage(`{"items":[{"language":"German","proficiency":"Expert"}]}`)},
	})
	var invalid *section.InvalidContentError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidContentError, got %v", err)
	}

	after, _ := svc.Sections(ctx, r.ID)
	if len(after) != len(before) || after[0].ID != before[0].ID || after[0].Title != "Old Summary" {
		t.Fatalf("failed replace must leave sections untouched: before=%+v after=%+v", before, after)
	}

	// 合法批次：全量替换，顺序即下标。
	created, err := svc.ReplaceSections(ctx, r.ID, []SectionSpec{
		{Variant: section.VariantPersonalInfo, Content: json.RawMessage(`{"firstName":"Ada"}`)},
		{Variant: section.VariantSummary, Content: json.RawMessage(`{"text":"after"}`)},
	})
	if err != nil {
		t.Fatalf("ReplaceSections: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(created))
	}

	replaced, _ := svc.Sections(ctx, r.ID)
	if len(replaced) != 2 {
		t.Fatalf("expected 2 stored sections, got %d", len(replaced))
	}
	if replaced[0].Variant != string(section.VariantPersonalInfo) || replaced[0].SortOrder != 0 {
		t.Fatalf("unexpected first section: %+v", replaced[0])
	}
	if replaced[1].Variant != string(section.VariantSummary) || replaced[1].SortOrder != 1 {
		t.Fatalf("unexpected second section: %+v", replaced[1])
	}
}

func TestRemoveSection_KeepsGaps(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedResume(t, db)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		s, err := svc.AddSection(ctx, r.ID, section.VariantSummary, "", nil, nil)
		if err != nil {
			t.Fatalf("AddSection: %v", err)
		}
		ids = append(ids, s.ID)
	}

	if err := svc.RemoveSection(ctx, r.ID, ids[1]); err != nil {
		t.Fatalf("RemoveSection: %v", err)
	}

	sections, _ := svc.Sections(ctx, r.ID)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	// 序号不重排：0 与 2 之间保留空洞。
	if sections[0].SortOrder != 0 || sections[1].SortOrder != 2 {
		t.Fatalf("orders renumbered: %d, %d", sections[0].SortOrder, sections[1].SortOrder)
	}

	if err := svc.RemoveSection(ctx, r.ID, 9999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestMutationsAdvanceUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	r := seedResume(t, db)
	ctx := context.Background()

	var before database.Resume
	if err := db.First(&before, r.ID).Error; err != nil {
		t.Fatalf("load resume: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := svc.AddSection(ctx, r.ID, section.VariantSummary, "", nil, nil); err != nil {
		t.Fatalf("AddSection: %v", err)
	}

	var after database.Resume
	if err := db.First(&after, r.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("updated_at did not advance: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}
