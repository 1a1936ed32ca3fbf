package analysis

import (
	"fmt"
	"strings"
)

// Промпты для Gemini. Текст промптов на английском: модель стабильнее
// держит формат JSON, чем на русском.

func checkResumePrompt(resumeText, jobDescription string) string {
	var b strings.Builder
	b.WriteString(`You are an expert ATS (Applicant Tracking System) and resume reviewer.
Analyze the resume below`)
	if jobDescription != "" {
		b.WriteString(" against the provided job description")
	}
	b.WriteString(`.

Respond with JSON only, no markdown, matching exactly this shape:
{
  "overall_score": <int 0-100>,
  "sections": [{"name": "...", "score": <int 0-100>, "feedback": "...", "suggestions": ["..."]}],
  "keyword_matches": [{"keyword": "...", "found": <bool>, "importance": "high|medium|low"}],
  "improvement_suggestions": ["..."]
}

RESUME:
`)
	b.WriteString(resumeText)
	if jobDescription != "" {
		b.WriteString("\n\nJOB DESCRIPTION:\n")
		b.WriteString(jobDescription)
	}
	return b.String()
}

func roadmapPrompt(req RoadmapRequest) string {
	return fmt.Sprintf(`You are an experienced career coach.
Build a career roadmap from "%s" to "%s" over %s.
Current skills: %s. Years of experience: %d.

Respond with JSON only, no markdown, matching exactly this shape:
{
  "title": "...",
  "milestones": [{"title": "...", "description": "...", "timeframe": "...", "skills": ["..."], "completed": false}],
  "skills": [{"name": "...", "category": "technical|soft", "priority": "high|medium|low",
              "resources": [{"title": "...", "url": "...", "type": "course|book|article"}]}]
}`,
		req.CurrentPosition, req.TargetPosition, req.Timeframe,
		strings.Join(req.Skills, ", "), req.ExperienceYears)
}

func fakeDetectionPrompt(resumeText string) string {
	return `You are a recruiter specialized in detecting fabricated resumes.
Inspect the resume below for inconsistent dates, implausible achievements,
buzzword stuffing and contradictions.

Respond with JSON only, no markdown, matching exactly this shape:
{
  "authenticity": {"score": <int 0-100, 100 = fully authentic>,
                   "flags": [{"section": "...", "issue": "...", "confidence": <int 0-100>}]},
  "verification_suggestions": ["..."]
}

RESUME:
` + resumeText
}

func improveSectionPrompt(sectionType, sectionText string) string {
	return fmt.Sprintf(`You are a professional resume writer.
Rewrite the "%s" section below: stronger action verbs, quantified results,
concise wording. Keep the facts, do not invent new ones.
Respond with the improved section text only, no commentary, no markdown.

SECTION:
%s`, sectionType, sectionText)
}
