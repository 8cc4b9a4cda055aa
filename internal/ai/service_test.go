package ai

import (
	"strings"
	"testing"

	"resumeForge/internal/section"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"text":"ok"}`, `{"text":"ok"}`},
		{"json fence", "```json\n{\"text\":\"ok\"}\n```", `{"text":"ok"}`},
		{"plain fence", "```\n{\"text\":\"ok\"}\n```", `{"text":"ok"}`},
		{"leading whitespace", "  \n```json\n{}\n```  ", "{}"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFence(tc.in); got != tc.want {
				t.Fatalf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBuildPrompt_IncludesCurrentContentAndGuidance(t *testing.T) {
	content := &section.SummaryContent{Text: "I write Go services."}

	prompt := BuildPrompt(section.VariantSummary, content, "senior platform engineer role")

	if !strings.Contains(prompt, "I write Go services.") {
		t.Fatalf("prompt missing current content: %q", prompt)
	}
	if !strings.Contains(prompt, "senior platform engineer role") {
		t.Fatalf("prompt missing guidance: %q", prompt)
	}
	if !strings.Contains(prompt, "JSON") {
		t.Fatalf("prompt missing output format instruction")
	}
}

func TestBuildPrompt_VariantSpecificInstructions(t *testing.T) {
	summary := BuildPrompt(section.VariantSummary, &section.SummaryContent{}, "")
	experience := BuildPrompt(section.VariantExperience, &section.ExperienceContent{}, "")

	if summary == experience {
		t.Fatal("prompts for distinct variants should differ")
	}
}
