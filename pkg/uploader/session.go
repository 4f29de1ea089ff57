package uploader

// State is the lifecycle position of an upload session.
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateTransferring
	StateFinalizing
	StateCompleted
	StateAborting
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateTransferring:
		return "transferring"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	case StateAborting:
		return "aborting"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted || s == StateFailed
}

// PartStatus is the transfer status of a single PartJob.
type PartStatus int

const (
	PartPending PartStatus = iota
	PartInFlight
	PartDone
	PartFailed
)

func (s PartStatus) String() string {
	switch s {
	case PartPending:
		return "pending"
	case PartInFlight:
		return "in_flight"
	case PartDone:
		return "done"
	case PartFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UploadSession describes one in-flight transfer. PartSize and PartCount are
// fixed by the negotiation backend once the session is open.
type UploadSession struct {
	SessionID string
	ObjectKey string
	TotalSize int64
	PartSize  int64
	PartCount int
	State     State
}

// PartJob is one part upload. Only the pool slot running it mutates it, and
// Tag is set iff Status is PartDone.
type PartJob struct {
	PartRange
	Address string
	Status  PartStatus
	Tag     string
}

// buildJobs joins planned ranges with the addresses handed out by the backend.
func buildJobs(ranges []PartRange, addresses []PartAddress) ([]*PartJob, error) {
	if len(addresses) != len(ranges) {
		return nil, invalidInput("backend returned %d part addresses for %d parts", len(addresses), len(ranges))
	}

	byNumber := make(map[int]string, len(addresses))
	for _, a := range addresses {
		if a.URL == "" {
			return nil, invalidInput("part %d has an empty upload address", a.PartNumber)
		}
		if _, dup := byNumber[a.PartNumber]; dup {
			return nil, invalidInput("duplicate address for part %d", a.PartNumber)
		}
		byNumber[a.PartNumber] = a.URL
	}

	jobs := make([]*PartJob, len(ranges))
	for i, r := range ranges {
		url, ok := byNumber[r.PartNumber]
		if !ok {
			return nil, invalidInput("no upload address for part %d", r.PartNumber)
		}
		jobs[i] = &PartJob{PartRange: r, Address: url, Status: PartPending}
	}
	return jobs, nil
}
