package retrieval

// State identifies where in the request lifecycle a query currently is.
// Transitions run strictly forward; StateFailed is reachable from any
// non-terminal state.
type State uint8

const (
	StateEmbeddingQuery State = iota
	StateSearching
	StateAssemblingContext
	StateGenerating
	StateStreaming
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmbeddingQuery:
		return "embedding_query"
	case StateSearching:
		return "searching"
	case StateAssemblingContext:
		return "assembling_context"
	case StateGenerating:
		return "generating"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
