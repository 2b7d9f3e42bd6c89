// Package validator provides the built-in input validators: a
// json_schema validator checking requests against a JSON Schema carried in
// the input contract, and an oracle-backed requirements_check validator
// judging requests against natural-language requirements and objectives.
//
// Validators never fail a run: an invalid value yields (false, message)
// and the builder returns the message as the run's ordinary result text.
package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/internal/prompt"
)

// NewJSONSchema constructs a validator that checks the request against the
// JSON Schema given as the first requirement of the input contract. The
// schema is compiled once at resolution time; an invalid schema is a
// configuration error.
func NewJSONSchema(requirements []string) (core.Validator, error) {
	if len(requirements) == 0 {
		return nil, core.NewConfigurationError("validator `json_schema` requires the schema source as the first input requirement")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requirements[0]))
	if err != nil {
		return nil, core.NewConfigurationError("validator `json_schema`: invalid schema: %v", err)
	}

	return func(ctx context.Context, value string) (bool, string, error) {
		if err := ctx.Err(); err != nil {
			return false, "", err
		}
		result, err := schema.Validate(gojsonschema.NewStringLoader(value))
		if err != nil {
			// Not machine-parseable input is an invalid value, not a fault.
			return false, fmt.Sprintf("Input must be valid JSON matching the required schema: %v", err), nil
		}
		if result.Valid() {
			return true, "", nil
		}

		issues := make([]string, 0, len(result.Errors()))
		for _, issue := range result.Errors() {
			issues = append(issues, issue.String())
		}
		return false, "Input does not satisfy the required schema:\n- " + strings.Join(issues, "\n- "), nil
	}, nil
}

const requirementsCheckTmpl = `You are validating the input sent to an agent.

The agent's input requirements:
{{bullet "- " .Requirements}}
{{if .Objectives}}
The agent's objectives:
{{bullet "- " .Objectives}}
{{end}}
Input to validate:
` + "```\n{{.Value}}\n```" + `

If the input satisfies every requirement, output exactly VALID. Otherwise output INVALID followed by a colon and a one-sentence explanation that tells the requester how to fix the input.`

// NewRequirementsCheck constructs an oracle-backed validator judging the
// request against the input contract's requirements and objectives.
func NewRequirementsCheck(oracle core.Oracle, requirements, objectives []string) (core.Validator, error) {
	if oracle == nil {
		return nil, core.NewConfigurationError("validator `requirements_check` requires an oracle")
	}
	if len(requirements) == 0 {
		return nil, core.NewConfigurationError("validator `requirements_check` requires a non-empty input requirements list")
	}

	return func(ctx context.Context, value string) (bool, string, error) {
		p, err := prompt.Render("requirements_check", requirementsCheckTmpl, map[string]any{
			"Requirements": requirements,
			"Objectives":   objectives,
			"Value":        value,
		})
		if err != nil {
			return false, "", err
		}

		out, err := oracle.Complete(ctx, p, nil)
		if err != nil {
			return false, "", fmt.Errorf("requirements_check oracle call: %w", err)
		}
		verdict := strings.TrimSpace(out)
		if strings.HasPrefix(verdict, "VALID") {
			return true, "", nil
		}
		message := strings.TrimSpace(strings.TrimPrefix(verdict, "INVALID"))
		message = strings.TrimSpace(strings.TrimPrefix(message, ":"))
		if message == "" {
			message = "Input did not satisfy the requirements."
		}
		return false, message, nil
	}, nil
}
