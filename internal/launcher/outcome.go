package launcher

// Outcome is the result of running script-level code: success, or failure
// carrying the text of the raised error value.
type Outcome struct {
	failed  bool
	message string
}

// Success reports that the call completed without raising.
func Success() Outcome {
	return Outcome{}
}

// Failure reports that the call raised an error with the given text.
func Failure(message string) Outcome {
	return Outcome{failed: true, message: message}
}

// Failed reports whether the outcome is a failure.
func (o Outcome) Failed() bool {
	return o.failed
}

// Message returns the error text of a failure, or "" for success.
func (o Outcome) Message() string {
	return o.message
}

func (o Outcome) String() string {
	if o.failed {
		return "failure: " + o.message
	}
	return "success"
}
