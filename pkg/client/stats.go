package client

import "sync/atomic"

// Op names a networked client operation.
type Op int

const (
	OpLogin Op = iota
	OpListFiles
	OpUpload
	numOps
)

func (o Op) String() string {
	switch o {
	case OpLogin:
		return "login"
	case OpListFiles:
		return "list_files"
	case OpUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// Stats counts outcomes per operation.
// All counters use atomic operations for lock-free concurrent access.
type Stats struct {
	live   [numOps]atomic.Int64 // backend replied with usable data
	mock   [numOps]atomic.Int64 // fallback data served
	failed [numOps]atomic.Int64 // error returned to the caller
}

// OpStats is a point-in-time view of one operation's counters.
type OpStats struct {
	Live   int64 `json:"live"`
	Mock   int64 `json:"mock"`
	Failed int64 `json:"failed"`
}

// StatsSnapshot is a serializable view of all counters.
type StatsSnapshot struct {
	Login     OpStats `json:"login"`
	ListFiles OpStats `json:"list_files"`
	Upload    OpStats `json:"upload"`
}

func (s *Stats) record(op Op, src Source) {
	if src == SourceMock {
		s.mock[op].Add(1)
		return
	}
	s.live[op].Add(1)
}

func (s *Stats) fail(op Op) {
	s.failed[op].Add(1)
}

func (s *Stats) op(op Op) OpStats {
	return OpStats{
		Live:   s.live[op].Load(),
		Mock:   s.mock[op].Load(),
		Failed: s.failed[op].Load(),
	}
}

// Snapshot returns current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Login:     s.op(OpLogin),
		ListFiles: s.op(OpListFiles),
		Upload:    s.op(OpUpload),
	}
}
