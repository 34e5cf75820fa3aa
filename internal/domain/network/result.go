package network

// Result is the outcome of collecting one unit (a resource class or a metric
// type). A failed unit carries Err and no Items. Regional units may carry
// both: Items from the regions that answered, Err joining the ones that did not.
type Result[T any] struct {
	Items []T
	Err   error
}

// Succeeded builds a result for a unit that answered
func Succeeded[T any](items []T) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items}
}

// FailedEmpty builds a result for a unit that could not be collected
func FailedEmpty[T any](err error) Result[T] {
	return Result[T]{Items: []T{}, Err: err}
}

// Failed reports whether any part of the unit failed
func (r Result[T]) Failed() bool {
	return r.Err != nil
}
