package report

// ComputeReason reduces the accumulated modules to the overall run outcome.
//
// An empty run (no tests across all modules) yields ReasonNone so that "no
// evidence" is never reported as "passed". Skipped tests carry no weight: a
// run of only skipped tests yields ReasonPassed because no failing evidence
// exists. ComputeReason never returns ReasonInterrupted; only the
// interruption path may set that, overriding whatever this would compute.
func ComputeReason(modules []Module) Reason {
	seen := false

	for _, m := range modules {
		for _, t := range m.Tests {
			seen = true
			if t.State == StateFailed {
				return ReasonFailed
			}
		}
	}

	if !seen {
		return ReasonNone
	}

	return ReasonPassed
}
