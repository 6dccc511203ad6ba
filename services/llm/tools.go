package llm

import (
	"encoding/json"
	"fmt"

	"interviewer/services/interview"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
	"github.com/tmc/langchaingo/llms"
)

const (
	decideToolName   = "decide_next_step"
	feedbackToolName = "submit_feedback"
)

type DecideNextStepParams struct {
	Action string `json:"action" jsonschema:"required,enum=deepen,enum=pivot,enum=probe_resume,enum=wrap_up,description=Strategy for the next question"`
	Target string `json:"target,omitempty" jsonschema:"description=Concrete subject of the next question such as a project or technology"`
	Reason string `json:"reason,omitempty" jsonschema:"description=One sentence explaining the choice"`
}

func (p DecideNextStepParams) directive() interview.Directive {
	return interview.Directive{
		Action: interview.Action(p.Action),
		Target: p.Target,
		Reason: p.Reason,
	}
}

type SubmitFeedbackParams struct {
	Relevance     int    `json:"relevance" jsonschema:"required,minimum=0,maximum=100,description=Relevance to the questions"`
	Clarity       int    `json:"clarity" jsonschema:"required,minimum=0,maximum=100,description=Clarity of explanation"`
	Depth         int    `json:"depth" jsonschema:"required,minimum=0,maximum=100,description=Depth of knowledge"`
	Examples      int    `json:"examples" jsonschema:"required,minimum=0,maximum=100,description=Use of real-world examples"`
	Communication int    `json:"communication" jsonschema:"required,minimum=0,maximum=100,description=Communication and confidence"`
	Overall       int    `json:"overall" jsonschema:"required,minimum=0,maximum=100,description=Overall score"`
	Summary       string `json:"summary" jsonschema:"required,description=Short feedback addressed to the candidate"`
}

var decideTool = llms.Tool{
	Type: "function",
	Function: &llms.FunctionDefinition{
		Name:        decideToolName,
		Description: "Choose the strategy for the next interview question",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"action": map[string]any{
					"type":        "string",
					"enum":        actionNames(),
					"description": "Strategy for the next question",
				},
				"target": map[string]any{
					"type":        "string",
					"description": "Concrete subject of the next question, such as a project or technology",
				},
				"reason": map[string]any{
					"type":        "string",
					"description": "One sentence explaining the choice",
				},
			},
			"required": []string{"action"},
		},
	},
}

// feedbackTool builds the scoring tool from the rubric so every dimension is
// a required integer field.
func feedbackTool(rubric interview.Rubric) llms.Tool {
	properties := map[string]any{
		"summary": map[string]any{
			"type":        "string",
			"description": "Short feedback addressed to the candidate",
		},
	}
	required := []string{"summary"}

	for _, dim := range rubric {
		properties[dim.Name] = map[string]any{
			"type":        "integer",
			"minimum":     0,
			"maximum":     100,
			"description": dim.Description,
		}
		required = append(required, dim.Name)
	}

	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        feedbackToolName,
			Description: "Submit the scored interview feedback",
			Parameters: map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

func generateSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
	}
}

func parseDecision(arguments string) (interview.Directive, error) {
	var params DecideNextStepParams
	if err := json.Unmarshal([]byte(arguments), &params); err != nil {
		return interview.Directive{}, fmt.Errorf("failed to parse %s arguments: %w", decideToolName, err)
	}
	return params.directive(), nil
}
