package ai

import "resumeForge/internal/section"

// 各分区类型的提示词。模型必须返回与分区结构完全匹配的 JSON，
// 返回值在持久化前仍会经过内容校验器（AI 输出按不可信输入处理）。
var sectionPrompts = map[section.Variant]string{
	section.VariantPersonalInfo: `Polish the personal information for a resume header.
Keep every factual field (name, email, phone, location, links) unchanged; only improve the professional title wording.
Return a JSON object with keys: firstName, lastName, title, email, phone, location, website, linkedin. All values are strings.`,

	section.VariantSummary: `Generate a professional summary for a resume.
Make it compelling, concise (2-3 sentences), and tailored to the target role.
Focus on key strengths, years of experience, and value proposition.
Return a JSON object: {"text": "<summary>"}.`,

	section.VariantExperience: `Rewrite the work experience entries with action-oriented, quantified descriptions.
Use strong action verbs and highlight achievements and impact. Keep companies, titles and dates unchanged.
Return a JSON object: {"items": [{"company", "title", "startDate", "endDate", "description"}]} with string values.`,

	section.VariantEducation: `Polish the education entries.
Keep institutions, degrees and years unchanged; improve field-of-study wording where helpful.
Return a JSON object: {"items": [{"institution", "degree", "field", "graduationYear", "gpa"}]} with string values.`,

	section.VariantSkills: `Suggest relevant skills grouped into categories for the target role.
Include 5-8 skills per category that are most relevant.
Return a JSON object: {"categories": [{"name": "<category>", "skills": ["<skill>", ...]}]}.`,

	section.VariantProjects: `Rewrite the project descriptions to be concise but impactful.
Include the project overview, key technologies and measurable outcomes, 2-3 sentences each.
Return a JSON object: {"items": [{"name", "description", "technologies", "url"}]} where technologies is an array of strings.`,

	section.VariantCertifications: `Suggest industry-recognized certifications relevant to the target role, merged with the current list.
Return a JSON object: {"items": [{"name", "issuer", "date"}]} with string values.`,

	section.VariantLanguages: `Normalize the language list.
proficiency must be exactly one of: Beginner, Intermediate, Advanced, Native.
Return a JSON object: {"items": [{"language", "proficiency"}]}.`,
}
