package brick

import "maps"

// Status is the mandatory discriminant of a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusRunning Status = "running"
	StatusLoaded  Status = "loaded"
	StatusSet     Status = "set"
	StatusSaved   Status = "saved"
	StatusNoFile  Status = "no_file"
)

// Result is what one brick execution produced.
//
// Payload is the free-form, brick specific part of the result. Outputs are
// the named values other bricks may consume through connections; they are
// recorded in the brick's slots by Run.
type Result struct {
	Status  Status
	Error   string
	Payload Values
	Outputs Values
}

// Success returns a StatusSuccess result.
func Success(payload Values) Result {
	return Result{Status: StatusSuccess, Payload: payload}
}

// Failure returns a StatusError result carrying msg.
func Failure(msg string, payload Values) Result {
	return Result{Status: StatusError, Error: msg, Payload: payload}
}

// OK reports whether the result is anything but an error.
func (r Result) OK() bool { return r.Status != StatusError }

// WithOutputs sets the named outputs.
func (r Result) WithOutputs(out Values) Result {
	r.Outputs = out
	return r
}

// Map flattens the result into {status, [error], ...payload}.
func (r Result) Map() map[string]any {
	m := make(map[string]any, len(r.Payload)+2)
	maps.Copy(m, r.Payload)
	m["status"] = string(r.Status)
	if r.Error != "" {
		m["error"] = r.Error
	}
	return m
}
