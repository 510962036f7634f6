// Copyright 2025 Verdant Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/tools"
	"github.com/verdantlabs/dossier/ai"
)

// DefaultMaxIterations caps the reasoning loop per turn.
const DefaultMaxIterations = 3

// finalAnswerAction is the reserved action name that ends a turn.
const finalAnswerAction = "Final Answer"

// forcedStopFallback is returned when the post-cap generation comes back
// empty. A turn must always yield a non-empty answer.
const forcedStopFallback = "Agent stopped due to iteration limit."

// State is the executor's position in the reasoning loop.
type State int

const (
	// StateThinking means the executor is waiting for the model to pick
	// an action.
	StateThinking State = iota
	// StateAwaitingToolResult means a tool call is in flight.
	StateAwaitingToolResult
	// StateDone means the model produced a final answer.
	StateDone
	// StateForcedStop means the iteration cap was hit and the answer came
	// from one last unconstrained generation.
	StateForcedStop
)

// Step is one completed Thought/Action/Observation cycle.
type Step struct {
	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	Input       string `json:"input,omitempty"`
	Observation string `json:"observation,omitempty"`
}

// Result is the outcome of a single turn.
type Result struct {
	Answer string
	Steps  []Step
	State  State
}

// Executor drives the tool-calling reasoning loop. Model output is parsed
// as a fenced JSON action blob; unparseable output and unknown tools are
// fed back as observations rather than failing the turn. Only transport
// and auth errors from the model itself abort a turn.
type Executor struct {
	completer     ai.Completer
	tools         map[string]tools.Tool
	toolNames     []string
	maxIterations int
	monitor       TurnMonitor
	logger        *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor) error

// WithMaxIterations overrides the reasoning-loop cap.
func WithMaxIterations(n int) ExecutorOption {
	return func(e *Executor) error {
		if n < 1 {
			return ErrInvalidIterations
		}
		e.maxIterations = n
		return nil
	}
}

// WithMonitor attaches a hook for observing intermediate steps.
func WithMonitor(monitor TurnMonitor) ExecutorOption {
	return func(e *Executor) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		e.monitor = monitor
		return nil
	}
}

// WithExecutorLogger sets a custom logger.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewExecutor creates an executor over a closed tool set.
func NewExecutor(completer ai.Completer, toolList []tools.Tool, opts ...ExecutorOption) (*Executor, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}
	if len(toolList) == 0 {
		return nil, ErrNoTools
	}

	byName := make(map[string]tools.Tool, len(toolList))
	names := make([]string, len(toolList))
	for i, tool := range toolList {
		byName[tool.Name()] = tool
		names[i] = tool.Name()
	}

	e := &Executor{
		completer:     completer,
		tools:         byName,
		toolNames:     names,
		maxIterations: DefaultMaxIterations,
		monitor:       &noopMonitor{},
		logger:        slog.Default().With("component", "agent-executor"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Run executes one turn: it loops Thinking -> AwaitingToolResult until the
// model emits a Final Answer or the iteration cap is reached. Hitting the
// cap triggers one last generation so the turn always yields an answer.
func (e *Executor) Run(ctx context.Context, system, input string) (*Result, error) {
	e.monitor.Start(input)

	var (
		steps      []Step
		scratchpad strings.Builder
	)

	for iteration := 1; iteration <= e.maxIterations; iteration++ {
		output, err := e.completer.Complete(ctx, system, e.humanMessage(input, scratchpad.String()))
		if err != nil {
			return nil, fmt.Errorf("model generation: %w", err)
		}

		action, parseErr := parseAction(output)
		if parseErr != nil {
			e.monitor.ParseFailure(output)
			observation := "Invalid or incomplete response. Respond with a single valid json action blob."
			steps = append(steps, Step{Thought: strings.TrimSpace(output), Observation: observation})
			writeCycle(&scratchpad, output, observation)
			continue
		}

		e.monitor.Thought(iteration, action.thought)

		if action.name == finalAnswerAction {
			result := &Result{Answer: action.input, Steps: steps, State: StateDone}
			e.monitor.Finish(result)
			return result, nil
		}

		e.monitor.ActionSelected(action.name, action.input)
		observation := e.callTool(ctx, action)
		e.monitor.Observation(action.name, observation)

		steps = append(steps, Step{
			Thought:     action.thought,
			Action:      action.name,
			Input:       action.input,
			Observation: observation,
		})
		writeCycle(&scratchpad, action.raw, observation)
	}

	// Cap reached: one final generation, early stopping by generation.
	e.monitor.ForcedStop(e.maxIterations)
	scratchpad.WriteString("I now need to return a final answer based on the previous steps. Respond to the human directly.\n")

	output, err := e.completer.Complete(ctx, system, e.humanMessage(input, scratchpad.String()))
	if err != nil {
		return nil, fmt.Errorf("model generation: %w", err)
	}

	answer := strings.TrimSpace(output)
	if action, parseErr := parseAction(output); parseErr == nil && action.name == finalAnswerAction {
		answer = action.input
	}
	if answer == "" {
		answer = forcedStopFallback
	}

	result := &Result{Answer: answer, Steps: steps, State: StateForcedStop}
	e.monitor.Finish(result)
	return result, nil
}

// callTool resolves and invokes a tool. Unknown tools and tool failures
// come back as observations so the model can self-correct.
func (e *Executor) callTool(ctx context.Context, action parsedAction) string {
	tool, ok := e.tools[action.name]
	if !ok {
		return fmt.Sprintf("%s is not a valid tool. Choose one of: %s", action.name, strings.Join(e.toolNames, ", "))
	}

	observation, err := tool.Call(ctx, action.input)
	if err != nil {
		e.logger.Error("tool call failed", "tool", action.name, "err", err)
		return fmt.Sprintf("Tool %s failed: %v", action.name, err)
	}
	return observation
}

func (e *Executor) humanMessage(input, scratchpad string) string {
	if scratchpad == "" {
		return input
	}
	return input + "\n\n" + scratchpad
}

func writeCycle(scratchpad *strings.Builder, modelOutput, observation string) {
	scratchpad.WriteString(strings.TrimSpace(modelOutput))
	scratchpad.WriteString("\nObservation: ")
	scratchpad.WriteString(observation)
	scratchpad.WriteString("\nThought: ")
}

// parsedAction is one decoded JSON action blob.
type parsedAction struct {
	thought string
	name    string
	input   string
	raw     string
}

type actionBlob struct {
	Action      string          `json:"action"`
	ActionInput json.RawMessage `json:"action_input"`
}

// parseAction extracts the fenced JSON action blob from model output.
// The text preceding the blob is kept as the model's thought.
func parseAction(output string) (parsedAction, error) {
	blob, before, err := extractBlob(output)
	if err != nil {
		return parsedAction{}, err
	}

	var decoded actionBlob
	if err := json.Unmarshal([]byte(blob), &decoded); err != nil {
		return parsedAction{}, fmt.Errorf("decoding action blob: %w", err)
	}
	if decoded.Action == "" {
		return parsedAction{}, fmt.Errorf("action blob missing action key")
	}

	input := ""
	if len(decoded.ActionInput) > 0 {
		var s string
		if err := json.Unmarshal(decoded.ActionInput, &s); err == nil {
			input = s
		} else {
			input = string(decoded.ActionInput)
		}
	}

	thought := strings.TrimSpace(before)
	thought = strings.TrimPrefix(thought, "Thought:")
	thought = strings.TrimSuffix(strings.TrimSpace(thought), "Action:")

	return parsedAction{
		thought: strings.TrimSpace(thought),
		name:    decoded.Action,
		input:   input,
		raw:     output,
	}, nil
}

// extractBlob returns the contents of the first fenced code block, or the
// whole output when the model emits a bare JSON object.
func extractBlob(output string) (blob, before string, err error) {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(output, fence)
		if start < 0 {
			continue
		}
		rest := output[start+len(fence):]
		end := strings.Index(rest, "```")
		if end < 0 {
			return "", "", fmt.Errorf("unterminated code fence")
		}
		return strings.TrimSpace(rest[:end]), output[:start], nil
	}

	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "{") {
		return trimmed, "", nil
	}
	return "", "", fmt.Errorf("no action blob found")
}
