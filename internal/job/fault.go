package job

import "math/rand/v2"

// injectFault draws once from rng and fails with the profile's reason when
// the draw falls under FaultProbability. A NaN probability never fails.
func injectFault(p Profile, rng *rand.Rand) error {
	if !(p.FaultProbability > 0) {
		return nil
	}
	if rng.Float64() >= p.FaultProbability {
		return nil
	}
	reason := p.FaultReason
	if reason == "" {
		reason = ReasonProcessingFailure
	}
	msg := p.FaultMessage
	if msg == "" {
		msg = "The simulated backend failed. Please try again."
	}
	return &Error{Reason: reason, Message: msg}
}
