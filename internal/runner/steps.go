package runner

// Completion signal names observed in step traces.
const (
	signalFinished    = "finished"
	signalRequestUser = "request_user"
)

// stepSignal is what one scan of the step-trace response yielded.
type stepSignal struct {
	// done is true once the trace signals completion, either through a
	// terminal step action or the request_user marker appearing anywhere
	// in the payload.
	done bool
	// name is the most recent step action observed, terminal or not.
	name string
	// hint is human-readable text attached to the signalling step.
	hint string
}

// scanStepTrace inspects a ListAgentRunCurrentStep response. A step whose
// action is "finished" or "request_user" is terminal; so is the literal
// request_user marker buried anywhere in the payload, which models a remote
// agent stuck waiting on user input.
func scanStepTrace(resp map[string]any) stepSignal {
	var sig stepSignal

	for _, step := range traceSteps(resp) {
		action := stringField(step, "Action", "action")
		if action == "" {
			continue
		}
		sig.name = action
		if action == signalFinished || action == signalRequestUser {
			sig.done = true
			sig.hint = stepHint(step)
			return sig
		}
	}

	if containsMarker(resp, signalRequestUser) {
		sig.done = true
		sig.name = signalRequestUser
	}
	return sig
}

// traceSteps locates the step sequence, tolerating both Steps and List
// envelope keys.
func traceSteps(resp map[string]any) []map[string]any {
	result := resultEnvelope(resp)
	if result == nil {
		return nil
	}
	for _, key := range []string{"Steps", "List", "CurrentStep"} {
		seq, ok := result[key].([]any)
		if !ok {
			continue
		}
		steps := make([]map[string]any, 0, len(seq))
		for _, item := range seq {
			if m, ok := item.(map[string]any); ok {
				steps = append(steps, m)
			}
		}
		return steps
	}
	return nil
}

// stepHint picks readable text off a step, preferring the step parameter
// content over the step result text.
func stepHint(step map[string]any) string {
	if param, ok := step["Param"].(map[string]any); ok {
		if s := stringField(param, "Content", "content", "Text", "text"); s != "" {
			return s
		}
	}
	if s := stringField(step, "Param", "param", "Content", "content"); s != "" {
		return s
	}
	return stringField(step, "Result", "result", "Text", "text")
}
