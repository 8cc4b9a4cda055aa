package section

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidate_AcceptsValidContent(t *testing.T) {
	cases := []struct {
		name    string
		variant Variant
		payload string
	}{
		{"personal info full", VariantPersonalInfo, `{"firstName":"Ada","lastName":"Lovelace","title":"Engineer","email":"ada@example.com","phone":"123","location":"London"}`},
		{"personal info empty object", VariantPersonalInfo, `{}`},
		{"summary", VariantSummary, `{"text":"Seasoned engineer."}`},
		{"summary empty text", VariantSummary, `{"text":""}`},
		{"experience with free-form dates", VariantExperience, `{"items":[{"company":"Acme","title":"Dev","startDate":"Jan 2020","endDate":"Present","current":true,"description":"Built things"}]}`},
		{"experience empty items", VariantExperience, `{"items":[]}`},
		{"education optional fields omitted", VariantEducation, `{"items":[{"institution":"MIT","degree":"BSc","graduationYear":"2019"}]}`},
		{"skills with empty tag group", VariantSkills, `{"categories":[{"name":"Languages","skills":[]}]}`},
		{"projects minimal", VariantProjects, `{"items":[{"name":"CLI","description":"A tool"}]}`},
		{"certifications", VariantCertifications, `{"items":[{"name":"CKA","issuer":"CNCF","date":"2023"}]}`},
		{"languages", VariantLanguages, `{"items":[{"language":"French","proficiency":"Advanced"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content, err := Validate(tc.variant, []byte(tc.payload))
			if err != nil {
				t.Fatalf("Validate(%s): %v", tc.variant, err)
			}
			if content.Variant() != tc.variant {
				t.Fatalf("variant mismatch: got %s want %s", content.Variant(), tc.variant)
			}
		})
	}
}

func TestValidate_RejectsInvalidContent(t *testing.T) {
	cases := []struct {
		name    string
		variant Variant
		payload string
	}{
		{"personal info as list", VariantPersonalInfo, `[{"firstName":"Ada"}]`},
		{"summary as list", VariantSummary, `[]`},
		{"summary non-string text", VariantSummary, `{"text":42}`},
		{"experience missing items", VariantExperience, `{}`},
		{"experience items not array", VariantExperience, `{"items":{"company":"Acme"}}`},
		{"experience missing company", VariantExperience, `{"items":[{"title":"Dev","startDate":"2020","endDate":"2021","description":"x"}]}`},
		{"education missing degree", VariantEducation, `{"items":[{"institution":"MIT","graduationYear":"2019"}]}`},
		{"skills missing categories", VariantSkills, `{}`},
		{"skills category without skills array", VariantSkills, `{"categories":[{"name":"Tools"}]}`},
		{"skills non-string entries", VariantSkills, `{"categories":[{"name":"Tools","skills":[1,2]}]}`},
		{"languages unknown proficiency", VariantLanguages, `{"items":[{"language":"German","proficiency":"Expert"}]}`},
		{"empty payload", VariantSummary, ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.variant, []byte(tc.payload))
			if err == nil {
				t.Fatalf("Validate(%s) accepted %s", tc.variant, tc.payload)
			}
			var invalid *InvalidContentError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidContentError, got %T: %v", err, err)
			}
		})
	}
}

func TestValidate_UnknownVariant(t *testing.T) {
	if _, err := Validate(Variant("HOBBIES"), []byte(`{}`)); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant, got %v", err)
	}
	if _, err := ParseVariant("HOBBIES"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("expected ErrUnknownVariant from ParseVariant, got %v", err)
	}
}

func TestValidate_NormalizesWhitespaceOnce(t *testing.T) {
	content, err := Validate(VariantSummary, []byte(`{"text":"  spaced out  "}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	summary, ok := content.(*SummaryContent)
	if !ok {
		t.Fatalf("expected *SummaryContent, got %T", content)
	}
	if summary.Text != "spaced out" {
		t.Fatalf("expected trimmed text, got %q", summary.Text)
	}

	// 存储后的内容再次校验应保持不变（幂等）。
	data, err := Marshal(summary)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := Validate(VariantSummary, data)
	if err != nil {
		t.Fatalf("revalidate: %v", err)
	}
	if again.(*SummaryContent).Text != summary.Text {
		t.Fatalf("normalization is not idempotent")
	}
}

func TestDefaultContent_ValidatesAgainstOwnVariant(t *testing.T) {
	for _, v := range Variants() {
		content, err := DefaultContent(v)
		if err != nil {
			t.Fatalf("DefaultContent(%s): %v", v, err)
		}
		data, err := Marshal(content)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", v, err)
		}
		if _, err := Validate(v, data); err != nil {
			t.Fatalf("default content for %s fails validation: %v", v, err)
		}
		title, err := DefaultTitle(v)
		if err != nil || title == "" {
			t.Fatalf("DefaultTitle(%s) = %q, %v", v, title, err)
		}
	}
}

func TestDecode_ToleratesPartialContent(t *testing.T) {
	content, err := Decode(VariantExperience, []byte(`{"items":[{"company":"Acme"}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	exp := content.(*ExperienceContent)
	if len(exp.Items) != 1 || exp.Items[0].Company != "Acme" {
		t.Fatalf("unexpected decode result: %+v", exp)
	}

	if _, err := Decode(VariantExperience, []byte(`{"items":"oops"}`)); err == nil {
		t.Fatal("expected decode error for malformed items")
	}
}

func TestContentJSONRoundTrip(t *testing.T) {
	original := &SkillsContent{Categories: []SkillCategory{{Name: "Backend", Skills: []string{"Go", "Postgres"}}}}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := Decode(VariantSkills, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got, _ := json.Marshal(decoded)
	want, _ := json.Marshal(original)
	if string(got) != string(want) {
		t.Fatalf("round trip mismatch: got %s want %s", got, want)
	}
}
