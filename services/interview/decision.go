package interview

import (
	"context"
	"fmt"
	"strings"

	"interviewer/logger"
)

type Action string

const (
	ActionDeepen      Action = "deepen"
	ActionPivot       Action = "pivot"
	ActionProbeResume Action = "probe_resume"
	ActionWrapUp      Action = "wrap_up"
)

// Actions lists every directive action in a stable order, for prompts and schemas.
var Actions = []Action{ActionDeepen, ActionPivot, ActionProbeResume, ActionWrapUp}

var actionSynonyms = map[string]Action{
	"deepen":        ActionDeepen,
	"go deeper":     ActionDeepen,
	"deeper":        ActionDeepen,
	"follow up":     ActionDeepen,
	"followup":      ActionDeepen,
	"probe deeper":  ActionDeepen,
	"pivot":         ActionPivot,
	"change topic":  ActionPivot,
	"switch topic":  ActionPivot,
	"new topic":     ActionPivot,
	"probe resume":  ActionProbeResume,
	"probe project": ActionProbeResume,
	"resume":        ActionProbeResume,
	"wrap up":       ActionWrapUp,
	"wrapup":        ActionWrapUp,
	"conclude":      ActionWrapUp,
	"closing":       ActionWrapUp,
}

// ParseAction maps free-text capability output onto the fixed action set.
func ParseAction(raw string) (Action, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	key = strings.Join(strings.Fields(key), " ")

	if a, ok := actionSynonyms[key]; ok {
		return a, nil
	}

	// these verb phrases carry the target after them
	for phrase, a := range map[string]Action{
		"probe resume":  ActionProbeResume,
		"probe project": ActionProbeResume,
		"go deeper":     ActionDeepen,
		"change topic":  ActionPivot,
		"wrap up":       ActionWrapUp,
	} {
		if strings.HasPrefix(key, phrase) {
			return a, nil
		}
	}

	return "", fmt.Errorf("%w: unknown directive action %q", ErrGenerationUnavailable, raw)
}

type Directive struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (d Directive) String() string {
	if d.Target == "" {
		return string(d.Action)
	}
	return fmt.Sprintf("%s (%s)", d.Action, d.Target)
}

// DecisionStage asks the Decider for a strategy and normalises it. It never
// invents a directive of its own.
type DecisionStage struct {
	decider Decider
	deps    Deps
}

func NewDecisionStage(deps Deps) *DecisionStage {
	return &DecisionStage{decider: deps.Decider, deps: deps}
}

func (s *DecisionStage) Decide(ctx context.Context, in DecisionInput) (Directive, error) {
	ctx, cancel := context.WithTimeout(ctx, s.deps.timeout())
	defer cancel()

	logger.Debugf("Requesting %s decision for role %q with %d recent topics", in.Kind, in.Role, len(in.RecentTopics))

	raw, err := s.decider.Decide(ctx, in)
	if err != nil {
		logger.Errorf("Failed to get interview decision: %v", err)
		return Directive{}, fmt.Errorf("%w: decide: %v", ErrGenerationUnavailable, err)
	}

	action, err := ParseAction(string(raw.Action))
	if err != nil {
		logger.Errorf("Failed to parse interview decision: %v", err)
		return Directive{}, err
	}

	directive := Directive{
		Action: action,
		Target: strings.TrimSpace(raw.Target),
		Reason: strings.TrimSpace(raw.Reason),
	}
	logger.Debugf("Decision for next %s question: %s", in.Kind, directive)
	return directive, nil
}
