package pages

// Outcome is the result of an action the application may refuse. It holds
// exactly one of the next page (navigated) or the same page with the error
// the application displayed (rejected). A rejection is data, not an error.
type Outcome[N, S any] struct {
	next     N
	same     S
	message  string
	rejected bool
}

// Navigated builds an outcome that moved on to next.
func Navigated[N, S any](next N) Outcome[N, S] {
	return Outcome[N, S]{next: next}
}

// Rejected builds an outcome that stayed on same and showed message.
func Rejected[N, S any](same S, message string) Outcome[N, S] {
	return Outcome[N, S]{same: same, message: message, rejected: true}
}

// Navigated returns the next page, if the action went through.
func (o Outcome[N, S]) Navigated() (N, bool) {
	if o.rejected {
		var zero N
		return zero, false
	}
	return o.next, true
}

// Rejected returns the fresh model of the same page and the error message,
// if the application refused the action.
func (o Outcome[N, S]) Rejected() (S, string, bool) {
	if !o.rejected {
		var zero S
		return zero, "", false
	}
	return o.same, o.message, true
}

func (o Outcome[N, S]) IsRejected() bool { return o.rejected }

// Message is the displayed error for a rejection, empty otherwise.
func (o Outcome[N, S]) Message() string { return o.message }
