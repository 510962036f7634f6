package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/tools"
)

const promptPrefix = `Michael's Assistant helps users to find out about Michael.
Assistant is designed to be able to answer accurate and verified information about Michael.
Assistant do not respond to irrelevant or nonsensical questions.
Assistant use any provided context about Michael's experience, such as work experience, past publications, and personal project.
Assistant do not mention that the context was used to generate the response.
Assistant only include information directly relevant to the user's inquiry.`

const formatInstructionsTemplate = `Use a json blob to specify a tool by providing an action key (tool name) and an action_input key (tool input).

Valid "action" values: "Final Answer" or %s

Provide only ONE action per json blob, as shown:

` + "```json" + `
{
  "action": $TOOL_NAME,
  "action_input": $INPUT
}
` + "```" + `

Follow this format:

Question: input question to answer
Thought: consider previous and subsequent steps
Action:
` + "```json" + `
$JSON_BLOB
` + "```" + `
Observation: action result
... (repeat Thought/Action/Observation N times)
Thought: I know what to respond
Action:
` + "```json" + `
{
  "action": "Final Answer",
  "action_input": "Final response to human"
}
` + "```" + `

Begin! Reminder to ALWAYS respond with a valid json blob of a single action. Use tools if necessary. Respond directly if appropriate.`

const promptSuffix = `Previous conversation history:
%s`

// SystemPrompt assembles the system template: role prefix, tool catalog,
// format instructions, prior history, and today's date.
func SystemPrompt(toolList []tools.Tool, history string, today time.Time) string {
	lines := make([]string, len(toolList))
	names := make([]string, len(toolList))
	for i, tool := range toolList {
		lines[i] = fmt.Sprintf("> %s: %s", tool.Name(), tool.Description())
		names[i] = tool.Name()
	}

	sections := []string{
		promptPrefix,
		strings.Join(lines, "\n"),
		fmt.Sprintf(formatInstructionsTemplate, strings.Join(names, ", ")),
		fmt.Sprintf(promptSuffix, history),
		fmt.Sprintf("Today is %s.", today.Format("2006-01-02")),
	}
	return strings.Join(sections, "\n\n")
}
