package engine

// safeCall runs f on its own goroutine and blocks until it finishes.
//
// It returns nil when f returns normally. A panic is recovered and returned
// as a Fault carrying a normalized trace captured at the recovery point,
// where the panicking frames are still on the stack. If f calls
// runtime.Goexit, only f's goroutine ends and the Fault has Goexit set.
func safeCall(f func()) *Fault {
	var fault *Fault
	done := make(chan struct{})

	go func() {
		defer close(done)

		finished := false
		defer func() {
			if finished {
				return
			}
			// Since Go 1.21, panic(nil) recovers as *runtime.PanicNilError,
			// so a nil value here means Goexit.
			if val := recover(); val != nil {
				fault = newFault(val, captureStack(0))
				return
			}
			fault = &Fault{Goexit: true}
		}()

		f()
		finished = true
	}()

	<-done
	return fault
}

func newFault(val any, frames []frameInfo) *Fault {
	origin, trace := normalizeTrace(frames)
	return &Fault{Value: val, Origin: origin, Trace: trace}
}
