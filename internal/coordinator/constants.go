package coordinator

// MaxSamplePayloadBytes is the payload-length cutoff above which a
// message is treated as non-sample (e.g. control/diagnostic) and skips
// both persistence and threshold evaluation, even though LatestMessage
// is still updated.
const MaxSamplePayloadBytes = 100
