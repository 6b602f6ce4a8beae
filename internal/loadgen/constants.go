package loadgen

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Submission outcomes.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)
