package trace

import "github.com/lojasmm/supportdemo/internal/agentapi"

// Style is the visual treatment of a step type.
type Style struct {
	Tone string // css modifier: categorize, sentiment, route, handle, default
	Icon string
}

var styles = map[agentapi.StepType]Style{
	agentapi.StepCategorize:       {Tone: "categorize", Icon: "tags"},
	agentapi.StepAnalyzeSentiment: {Tone: "sentiment", Icon: "heart"},
	agentapi.StepRoute:            {Tone: "route", Icon: "git-branch"},
	agentapi.StepHandle:           {Tone: "handle", Icon: "message-square"},
}

var defaultStyle = Style{Tone: "default", Icon: "message-square"}

// StyleFor returns the treatment for t, falling back to a neutral one for
// step types the agent may add later.
func StyleFor(t agentapi.StepType) Style {
	if s, ok := styles[t]; ok {
		return s
	}
	return defaultStyle
}

// StepView is one rendered step.
type StepView struct {
	Index       int
	Name        string
	Type        string
	Description string
	Style       Style
	Expanded    bool
	Input       string // only filled when Expanded
	Output      string
	Last        bool
}

// View is the template-ready form of a Trace.
type View struct {
	Empty   bool
	Steps   []StepView
	Summary Summary
}

func (t *Trace) View() View {
	v := View{
		Empty:   len(t.steps) == 0,
		Summary: t.Summary(),
		Steps:   make([]StepView, len(t.steps)),
	}
	for i, step := range t.steps {
		sv := StepView{
			Index:       i,
			Name:        FormatStepName(step.StepName),
			Type:        string(step.StepType),
			Description: step.Description,
			Style:       StyleFor(step.StepType),
			Expanded:    t.expanded[i],
			Last:        i == len(t.steps)-1,
		}
		if sv.Expanded {
			sv.Input = PrettyPayload(step.InputData)
			sv.Output = PrettyPayload(step.OutputData)
		}
		v.Steps[i] = sv
	}
	return v
}
