package cpu

// StepLimitReached is returned by Run when maxSteps is exhausted without
// the CPU faulting, letting a conformance harness distinguish "ran clean
// to the step budget" from "stopped early for some other reason".
type StepLimitReached struct {
	Steps uint64
}

func (e StepLimitReached) Error() string {
	return "cpu: step limit reached"
}

// Trace, when non-nil, is invoked by Run after every successful Step with
// the instruction's starting PC and the cycle count it took.
type Trace func(pc uint16, cycles uint8)

// Run drives the CPU with repeated Step calls until stop reports true,
// Step returns an error, or maxSteps instructions have executed (0 means
// unbounded). It returns the total number of instructions executed and
// the error that ended the run, which is StepLimitReached on a clean
// exhaustion of maxSteps.
func (c *CPU) Run(stop func() bool, maxSteps uint64, trace Trace) (uint64, error) {
	var steps uint64
	for {
		if stop != nil && stop() {
			return steps, nil
		}
		if maxSteps != 0 && steps >= maxSteps {
			return steps, StepLimitReached{Steps: steps}
		}

		pc := c.pc
		cycles, err := c.Step()
		if err != nil {
			return steps, err
		}
		steps++
		if trace != nil {
			trace(pc, cycles)
		}
	}
}
