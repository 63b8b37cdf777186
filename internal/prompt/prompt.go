// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt renders the instructions sent to the text generation
// service at each step of a brainstorming session. Every function is a pure
// template substitution: identical inputs always produce identical output.
package prompt

import (
	"strings"
	"text/template"
)

// EssayPrompt is the essay question the final outline is written for.
const EssayPrompt = "How has your life experience contributed to your personal story—your character, values, perspectives, or skills—and what you want to pursue at this college?"

// notSpecified stands in for an empty optional field.
const notSpecified = "Not specified"

// snapshotTmpl asks for the first question: a specific past moment,
// project, or challenge.
var snapshotTmpl = template.Must(template.New("snapshot").Parse(`You are an expert and creative college essay coach. Your task is to generate one single, inspiring brainstorming question for a student named {{.Name}}.

**Student's Profile:**
- **Name:** {{.Name}}
- **Educational Stream:** {{.Stream}}
- **Major:** {{.Major}}

**Your Goal:**
Generate a question that asks the student about a specific past moment, project, or challenge they faced. The question's tone and vocabulary should be tailored to their educational stream. For a STEM student, use words like 'problem,' 'experiment,' or 'build.' For a Humanities student, use words like 'idea,' 'story,' or 'perspective.'

**Instructions:**
- The output must be ONLY the question itself.
- Do not add any introductory text like "Here is your question:".
- The question should be encouraging and open-ended.

**Generated Question:**
`))

// lessonTmpl asks for the second question: the lesson behind the story.
var lessonTmpl = template.Must(template.New("lesson").Parse(`You are an expert and insightful college essay coach. You are in a conversation with a student named {{.Name}} from the {{.Stream}} stream.

**The student just told you this story:**
"{{.Answer}}"

**Your Task:**
Generate one single, thoughtful follow-up question. The question must ask the student to reflect on the deeper lesson, value, or skill they learned from that specific experience. Tailor the language to their stream.

**Instructions:**
- The output must be ONLY the question itself.
- Do not add any introductory text.
- The question should logically follow their story and prompt introspection.

**Generated Question:**
`))

// blueprintTmpl asks for the third question: a concrete action at the college.
var blueprintTmpl = template.Must(template.New("blueprint").Parse(`You are an expert and forward-thinking college essay coach talking to {{.Name}}.

**The student just shared this core lesson/value they learned:**
"{{.Answer}}"

**Your Task:**
Generate one single, final question that asks the student to connect this specific lesson to their future at **{{.College}}**. The question should prompt them to describe a tangible contribution or action they want to take on campus.

**Instructions:**
- The output must be ONLY the question itself.
- Do not add any introductory text.
- The question must be action-oriented and specific to the college.

**Generated Question:**
`))

// outlineTmpl synthesizes the three answers into a four-part outline.
var outlineTmpl = template.Must(template.New("outline").Parse(`You are an expert college essay coach. Your task is to analyze a student's answers to three brainstorming questions and generate a compelling 350-word essay structure for the following essay prompt: "{{.EssayPrompt}}"

**Student's Brainstorming Answers:**

1.  **Story/Snapshot Moment:**
    "{{.Answer1}}"

2.  **Core Lesson Learned:**
    "{{.Answer2}}"

3.  **Future Blueprint/Goal at College:**
    "{{.Answer3}}"

**Your Task:**
Based ONLY on the answers provided, create a strategic, 4-part essay outline. The outline should guide the student on how to write a powerful and coherent essay.

**Output Instructions:**
- The total word count of the structure should be exactly 350 words.
- Structure the output into four distinct sections:
  1. **The Hook:** An engaging opening based on their story.
  2. **The Action:** The main narrative of their experience.
  3. **The Reflection:** A section focusing on the lesson they learned.
  4. **The Bridge to the Future:** A conclusion connecting their lesson to their college goal.
- Assign an approximate word count to each section (e.g., *Approx. 50 words*).
- For each section, provide 1-2 bullet points of clear, actionable advice on what to write.
- The tone should be strategic, encouraging, and clear.
- Do not include any introductory text. Begin directly with the title of the outline.
`))

// Snapshot renders the instruction for the first question. An empty major
// is rendered as "Not specified".
func Snapshot(name, stream, major string) string {
	if strings.TrimSpace(major) == "" {
		major = notSpecified
	}
	return render(snapshotTmpl, struct{ Name, Stream, Major string }{name, stream, major})
}

// Lesson renders the instruction for the second question from the
// student's first answer.
func Lesson(name, stream, firstAnswer string) string {
	return render(lessonTmpl, struct{ Name, Stream, Answer string }{name, stream, firstAnswer})
}

// Blueprint renders the instruction for the third question from the
// student's second answer.
func Blueprint(name, college, secondAnswer string) string {
	return render(blueprintTmpl, struct{ Name, College, Answer string }{name, college, secondAnswer})
}

// Outline renders the instruction for the final essay outline.
func Outline(essayPrompt, answer1, answer2, answer3 string) string {
	return render(outlineTmpl, struct{ EssayPrompt, Answer1, Answer2, Answer3 string }{essayPrompt, answer1, answer2, answer3})
}

// render executes t against data. The templates only reference string
// fields that every caller supplies, so Execute cannot fail at runtime.
func render(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		panic("prompt: executing " + t.Name() + ": " + err.Error())
	}
	return b.String()
}
