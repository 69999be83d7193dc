package hashmirror

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// A corrupt field was deleted from the namespace.
	// reason ∈ {"load", "get"}
	SelfHeal(namespace, key, reason string)

	// Deleting a corrupt field failed; the error was returned to the caller.
	RepairFailed(namespace, key string, err error)

	// Values skipped undecodable payloads (no delete, no error).
	ValuesDropped(namespace string, dropped int)

	// The remote write of a SetAsync failed after the mirror was updated.
	RemoteSetFailed(namespace, key string, err error)

	// The store reported an error not tied to a call (e.g. dial failure).
	TransportError(namespace string, err error)

	// An eager load finished. repaired counts corrupt fields deleted.
	Loaded(namespace string, loaded, repaired int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string, string)       {}
func (NopHooks) RepairFailed(string, string, error)    {}
func (NopHooks) ValuesDropped(string, int)             {}
func (NopHooks) RemoteSetFailed(string, string, error) {}
func (NopHooks) TransportError(string, error)          {}
func (NopHooks) Loaded(string, int, int)               {}
