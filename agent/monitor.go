package agent

import "log/slog"

// TurnMonitor provides hooks to observe a single reasoning turn.
// Implement this interface to track intermediate steps as the executor
// moves through its states.
type TurnMonitor interface {
	Start(input string)
	Thought(iteration int, text string)
	ActionSelected(action, input string)
	Observation(action, observation string)
	ParseFailure(output string)
	ForcedStop(iteration int)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of TurnMonitor
type noopMonitor struct{}

var _ TurnMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                {}
func (n *noopMonitor) Thought(_ int, _ string)       {}
func (n *noopMonitor) ActionSelected(_, _ string)    {}
func (n *noopMonitor) Observation(_, _ string)       {}
func (n *noopMonitor) ParseFailure(_ string)         {}
func (n *noopMonitor) ForcedStop(_ int)              {}
func (n *noopMonitor) Finish(_ *Result)              {}

// LogMonitor logs every step at debug level. It backs the verbose mode of
// the chat frontend.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ TurnMonitor = (*LogMonitor)(nil)

// NewLogMonitor creates a monitor writing to the given logger, or
// slog.Default() when nil.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{Logger: logger}
}

func (m *LogMonitor) Start(input string) {
	m.Logger.Debug("turn started", "input", input)
}

func (m *LogMonitor) Thought(iteration int, text string) {
	m.Logger.Debug("thought", "iteration", iteration, "text", text)
}

func (m *LogMonitor) ActionSelected(action, input string) {
	m.Logger.Debug("action selected", "action", action, "input", input)
}

func (m *LogMonitor) Observation(action, observation string) {
	m.Logger.Debug("observation", "action", action, "observation", observation)
}

func (m *LogMonitor) ParseFailure(output string) {
	m.Logger.Debug("unparseable model output", "output", output)
}

func (m *LogMonitor) ForcedStop(iteration int) {
	m.Logger.Debug("iteration cap reached", "iteration", iteration)
}

func (m *LogMonitor) Finish(result *Result) {
	m.Logger.Debug("turn finished", "answer", result.Answer, "steps", len(result.Steps))
}
