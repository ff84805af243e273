package client

// Source tells a caller where a Result's value came from.
type Source int

const (
	SourceLive Source = iota // decoded from a backend reply
	SourceMock               // synthesized by MockBackend after a failure
)

func (s Source) String() string {
	switch s {
	case SourceLive:
		return "live"
	case SourceMock:
		return "mock"
	default:
		return "unknown"
	}
}

// Result wraps an operation's value with its provenance. When Source is
// SourceMock, Cause holds the failure that triggered the fallback.
type Result[T any] struct {
	Value  T
	Source Source
	Cause  error
}

// Degraded reports whether Value is synthetic.
func (r Result[T]) Degraded() bool {
	return r.Source == SourceMock
}

func live[T any](v T) Result[T] {
	return Result[T]{Value: v, Source: SourceLive}
}

func mocked[T any](v T, cause error) Result[T] {
	return Result[T]{Value: v, Source: SourceMock, Cause: cause}
}
