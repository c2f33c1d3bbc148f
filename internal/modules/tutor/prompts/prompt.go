package prompts

import (
	"fmt"
	"strings"
)

const DefaultCourseTitle = "Ottolearn Course"

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Input struct {
	CourseTitle   string
	Question      string
	Contexts      []string
	Summary       string
	Conversation  []Turn
	PersonaPrompt string
}

// Build renders the mentor instruction block. Output depends only on in.
func Build(in Input) string {
	title := strings.TrimSpace(in.CourseTitle)
	if title == "" {
		title = DefaultCourseTitle
	}

	lines := []string{
		`You are a warm, encouraging mentor assisting a learner in the course "`+title+`".`,
		"Use conversation history only to understand the learner's intent.",
		"Answer using only the provided contexts from the official course material.",
		"If the answer is not contained in the contexts, politely say you don't have that information.",
		"Respond in 3-6 sentences total and keep the tone human and supportive.",
		"",
	}
	if persona := strings.TrimSpace(in.PersonaPrompt); persona != "" {
		lines = append(lines, "Learner personalization:", persona)
	}
	if summary := strings.TrimSpace(in.Summary); summary != "" {
		lines = append(lines, "Conversation summary:", summary)
	}
	if history := renderHistory(in.Conversation); history != "" {
		lines = append(lines, "Recent conversation:", history)
	}
	lines = append(lines,
		"Course contexts:",
		renderContexts(in.Contexts),
		"",
		"Learner question: "+in.Question,
		"Answer:",
	)
	return strings.Join(lines, "\n")
}

func renderHistory(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := "Assistant"
		if t.Role == "user" {
			speaker = "User"
		}
		out = append(out, speaker+": "+t.Content)
	}
	return strings.Join(out, "\n")
}

func renderContexts(contexts []string) string {
	out := make([]string, 0, len(contexts))
	for i, c := range contexts {
		out = append(out, fmt.Sprintf("Context %d:\n%s", i+1, c))
	}
	return strings.Join(out, "\n\n")
}
