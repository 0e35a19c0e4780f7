package session

// StateStore persists session state between process runs. Load returns
// (nil, nil) when no state is stored; Clear on an empty store is a no-op.
type StateStore interface {
	Load() (*State, error)
	Save(state *State) error
	Clear() error
}
