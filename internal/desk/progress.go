package desk

// ProgressSink observes MoveTo. It has no influence on control decisions.
type ProgressSink interface {
	// Progress is called once per control-loop iteration with the distance
	// covered since the previous sample, in tenth-millimetres, and the
	// current height formatted for display.
	Progress(covered int, message string)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(covered int, message string)

func (f ProgressFunc) Progress(covered int, message string) { f(covered, message) }
