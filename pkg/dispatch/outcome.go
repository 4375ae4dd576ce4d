package dispatch

// StubbedStatus is the status string echoed by tool operations that report
// what they would run without running it.
const StubbedStatus = "Would execute command with these parameters"

// Outcome is the result of a command request: either actually executed
// through the dispatcher, or stubbed with the parameters echoed back. Keeping
// the two as distinct variants makes the intent-echo contract structural
// rather than a convention individual tools have to remember.
type Outcome interface {
	isOutcome()
}

// Executed wraps a command that really ran.
type Executed struct {
	Result *CommandResult
}

// Stubbed echoes the parameters of a command that was deliberately not run.
// Params should carry a "status" entry; StubbedStatus is used when absent.
type Stubbed struct {
	Params map[string]any
}

func (Executed) isOutcome() {}
func (Stubbed) isOutcome()  {}

// Body renders the outcome as a JSON-ready report body.
func Body(o Outcome) map[string]any {
	switch v := o.(type) {
	case Executed:
		return map[string]any{
			"exit_code": v.Result.ExitCode,
			"stdout":    v.Result.Stdout,
			"stderr":    v.Result.Stderr,
			"succeeded": v.Result.Succeeded,
		}
	case Stubbed:
		body := make(map[string]any, len(v.Params)+1)
		for k, val := range v.Params {
			body[k] = val
		}
		if _, ok := body["status"]; !ok {
			body["status"] = StubbedStatus
		}
		return body
	default:
		return map[string]any{}
	}
}
