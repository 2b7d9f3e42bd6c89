package registry

import (
	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	sdkopenai "github.com/openai/openai-go"

	"github.com/solarapparition/agent-automata/core"
	"github.com/solarapparition/agent-automata/knowledge"
	"github.com/solarapparition/agent-automata/oracle/anthropic"
	"github.com/solarapparition/agent-automata/oracle/openai"
	"github.com/solarapparition/agent-automata/planner"
	"github.com/solarapparition/agent-automata/reflector"
	"github.com/solarapparition/agent-automata/validator"
)

// WithBuiltins installs the built-in capability set:
//
//	oracles:    gpt-4o, gpt-4o-mini, claude-sonnet, claude-haiku
//	planners:   thoughtcycle
//	reflectors: history_digest
//	validators: json_schema, requirements_check
//	knowledge:  workspace_notes, oracle_digest
//
// Provider-backed oracles read their credentials from the environment and
// are constructed lazily, on first resolution.
func WithBuiltins() Option {
	return func(r *Registry) {
		r.RegisterOracle("gpt-4o", func() (core.Oracle, error) {
			return openai.New(func(o *openai.Options) { o.Model = sdkopenai.ChatModelGPT4o }), nil
		})
		r.RegisterOracle("gpt-4o-mini", func() (core.Oracle, error) {
			return openai.New(func(o *openai.Options) { o.Model = sdkopenai.ChatModelGPT4oMini }), nil
		})
		r.RegisterOracle("claude-sonnet", func() (core.Oracle, error) {
			return anthropic.New(func(o *anthropic.Options) { o.Model = sdkanthropic.ModelClaude3_5Sonnet20241022 }), nil
		})
		r.RegisterOracle("claude-haiku", func() (core.Oracle, error) {
			return anthropic.New(func(o *anthropic.Options) { o.Model = sdkanthropic.ModelClaude3_5Haiku20241022 }), nil
		})

		r.RegisterPlanner(core.DefaultPlannerName, func(rc Context) (core.Planner, error) {
			return planner.NewThoughtcycle(rc.Oracle)
		})

		r.RegisterReflector("history_digest", func(rc Context) (core.Reflector, error) {
			return reflector.NewHistoryDigest(rc.Oracle)
		})

		r.RegisterValidator("json_schema", func(rc Context) (core.Validator, error) {
			return validator.NewJSONSchema(rc.Requirements)
		})
		r.RegisterValidator("requirements_check", func(rc Context) (core.Validator, error) {
			return validator.NewRequirementsCheck(rc.Oracle, rc.Requirements, rc.Objectives)
		})

		r.RegisterKnowledge("workspace_notes", func(rc Context) (core.Knowledge, error) {
			return knowledge.NewWorkspaceNotes(rc.Path)
		})
		r.RegisterKnowledge("oracle_digest", func(rc Context) (core.Knowledge, error) {
			return knowledge.NewOracleDigest(rc.Oracle)
		})
	}
}
