package llm

import (
	"fmt"
	"strings"

	"interviewer/services/interview"

	"github.com/samber/lo"
)

const (
	decisionSystemPrompt = `You are the controller of a live mock interview. You do not write questions yourself.
Given the previous question, the candidate's answer and their resume, decide the strategy for the next question.

ACTIONS:
- deepen: the answer was promising but shallow, ask a follow-up on the same subject
- pivot: the subject is exhausted or the candidate is stuck, move to a new subject
- probe_resume: ask about a specific project or skill from the resume that has not been covered
- wrap_up: enough signal has been gathered, ask a closing question

RULES:
1. Never pick a subject listed under recently covered topics unless the action is deepen.
2. If the answer is empty or off-topic, prefer pivot.
3. Put the concrete subject of the next question in target (a project, technology or theme).

Always respond by calling decide_next_step.`

	generationSystemPrompt = `You are a professional interviewer speaking to the candidate.
Write exactly ONE next question that follows the given strategy.

RULES:
1. Output only the question text. No labels, numbering, quotes or explanation of your strategy.
2. Keep it to one or two sentences; it will be read aloud.
3. Never repeat the previous question and avoid the recently covered topics unless told to deepen.`

	evaluationSystemPrompt = `You are an expert mock interview evaluator.
Based on the candidate's full interview responses, score them across the categories below, each out of 100 where 0 is extremely poor and 100 is exceptional.
Questions the candidate did not answer count against relevance and depth.
Finish with a short summary addressed to the candidate: what went well and what to improve.

Always respond by calling submit_feedback.`

	explanationSystemPrompt = `You are a friendly technical recruiter conducting a live coding interview.
The candidate is explaining their solution out loud. You can see the problem, their code and the conversation so far.
Reply in two or three spoken sentences: react to what they said, and ask at most one follow-up about correctness, complexity or edge cases.
Do not rewrite their code.`
)

var kindFocus = map[interview.Kind]string{
	interview.KindTechnical:  "a technical interview: dig into the candidate's projects, design decisions and core engineering knowledge",
	interview.KindCoding:     "a live coding round: ask for one small self-contained programming problem, or a follow-up about the complexity, edge cases or testing of the candidate's last solution",
	interview.KindBehavioral: "a behavioral (HR) interview: teamwork, conflict, ownership, motivation and career goals; follow up in STAR style (situation, task, action, result)",
}

var actionGuidance = map[interview.Action]string{
	interview.ActionDeepen:      "Ask a follow-up that goes one level deeper into the same subject.",
	interview.ActionPivot:       "Move to a clearly different subject that has not been covered yet.",
	interview.ActionProbeResume: "Ask about the named project or skill from the resume.",
	interview.ActionWrapUp:      "Ask a closing question that lets the candidate summarise or reflect.",
}

func focusFor(kind interview.Kind) string {
	if f, ok := kindFocus[kind]; ok {
		return f
	}
	return kindFocus[interview.KindTechnical]
}

func buildDecisionPrompt(in interview.DecisionInput) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("This is %s.\n", focusFor(in.Kind)))
	if in.Role != "" {
		prompt.WriteString(fmt.Sprintf("Target role: %s\n", in.Role))
	}
	prompt.WriteString("\n")

	writeContext(&prompt, in)

	prompt.WriteString("Decide the strategy for the next question.")
	return prompt.String()
}

func buildGenerationPrompt(in interview.GenerationInput) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("This is %s.\n", focusFor(in.Kind)))
	if in.Role != "" {
		prompt.WriteString(fmt.Sprintf("Target role: %s\n", in.Role))
	}
	prompt.WriteString("\n")

	writeContext(&prompt, in.DecisionInput)

	prompt.WriteString(fmt.Sprintf("Strategy: %s\n", in.Directive.Action))
	if guidance, ok := actionGuidance[in.Directive.Action]; ok {
		prompt.WriteString(guidance)
		prompt.WriteString("\n")
	}
	if in.Directive.Target != "" {
		prompt.WriteString(fmt.Sprintf("Subject: %s\n", in.Directive.Target))
	}
	if in.Directive.Reason != "" {
		prompt.WriteString(fmt.Sprintf("Why: %s\n", in.Directive.Reason))
	}

	if len(in.References) > 0 {
		prompt.WriteString("\nExample questions from the question bank (adapt, do not copy):\n")
		for _, ref := range in.References {
			prompt.WriteString("- ")
			prompt.WriteString(ref)
			prompt.WriteString("\n")
		}
	}

	if in.PivotHint != "" {
		prompt.WriteString("\nIMPORTANT: ")
		prompt.WriteString(in.PivotHint)
		prompt.WriteString("\n")
	}

	prompt.WriteString("\nNext question:")
	return prompt.String()
}

func writeContext(prompt *strings.Builder, in interview.DecisionInput) {
	if in.ResumeExcerpt != "" {
		prompt.WriteString("Resume:\n")
		prompt.WriteString(in.ResumeExcerpt)
		prompt.WriteString("\n\n")
	}

	prompt.WriteString(fmt.Sprintf("Previous question: %s\n", in.PrevQuestion))
	answer := in.PrevAnswer
	if strings.TrimSpace(answer) == "" {
		answer = "(no answer)"
	}
	prompt.WriteString(fmt.Sprintf("Candidate answer: %s\n", answer))

	if len(in.RecentTopics) > 0 {
		prompt.WriteString(fmt.Sprintf("Recently covered topics: %s\n", strings.Join(in.RecentTopics, ", ")))
	}
	prompt.WriteString("\n")
}

func buildEvaluationSystemPrompt(rubric interview.Rubric) string {
	var prompt strings.Builder
	prompt.WriteString(evaluationSystemPrompt)
	prompt.WriteString("\n\nCATEGORIES:\n")
	for _, dim := range rubric {
		prompt.WriteString(fmt.Sprintf("- %s: %s\n", dim.Name, dim.Description))
	}
	return prompt.String()
}

func buildExplanationSystemPrompt(in interview.ExplanationInput) string {
	var prompt strings.Builder
	prompt.WriteString(explanationSystemPrompt)
	prompt.WriteString("\n\n")
	if in.Role != "" {
		prompt.WriteString(fmt.Sprintf("Target role: %s\n\n", in.Role))
	}
	prompt.WriteString("Problem:\n")
	prompt.WriteString(in.Problem)
	prompt.WriteString("\n\nCode:\n")
	if strings.TrimSpace(in.Code) == "" {
		prompt.WriteString("(nothing submitted yet)")
	} else {
		prompt.WriteString(in.Code)
	}
	prompt.WriteString("\n")
	return prompt.String()
}

func actionNames() []string {
	return lo.Map(interview.Actions, func(a interview.Action, _ int) string { return string(a) })
}
