package fx

import "fmt"

// Registry holds the selectable algorithms in registration order. The
// order is the selection index.
type Registry struct {
	algos      []Algorithm
	index      map[string]int
	arenaBytes int
}

// NewRegistry creates an empty registry whose algorithms must fit an arena
// of arenaBytes.
func NewRegistry(arenaBytes int) *Registry {
	return &Registry{index: make(map[string]int), arenaBytes: arenaBytes}
}

// Register appends an algorithm.
func (r *Registry) Register(a Algorithm) error {
	if a.Name == "" {
		return fmt.Errorf("%w: empty name", ErrConfiguration)
	}

	if a.New == nil {
		return fmt.Errorf("%w: %s: nil constructor", ErrConfiguration, a.Name)
	}

	if len(a.ParamNames) > MaxParams {
		return fmt.Errorf("%w: %s has %d", ErrTooManyParams, a.Name, len(a.ParamNames))
	}

	if _, exists := r.index[a.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAlgorithm, a.Name)
	}

	if a.MemSize < 0 || a.MemSize > r.arenaBytes {
		return fmt.Errorf("%w: %s needs %d bytes of %d", ErrArenaExhausted, a.Name, a.MemSize, r.arenaBytes)
	}

	a.ParamNames = append([]string(nil), a.ParamNames...)
	r.index[a.Name] = len(r.algos)
	r.algos = append(r.algos, a)

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(a Algorithm) {
	err := r.Register(a)
	if err != nil {
		panic("fx registry: " + err.Error())
	}
}

// Len returns the number of registered algorithms.
func (r *Registry) Len() int {
	return len(r.algos)
}

// At returns the algorithm at selection index idx.
func (r *Registry) At(idx int) (*Algorithm, error) {
	if idx < 0 || idx >= len(r.algos) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrInvalidAlgorithm, idx, len(r.algos))
	}

	return &r.algos[idx], nil
}

// Lookup returns the selection index of name.
func (r *Registry) Lookup(name string) (int, bool) {
	idx, ok := r.index[name]

	return idx, ok
}

// Names lists algorithm names by selection index.
func (r *Registry) Names() []string {
	names := make([]string, len(r.algos))
	for i := range r.algos {
		names[i] = r.algos[i].Name
	}

	return names
}

// ArenaBytes returns the capacity algorithms were checked against.
func (r *Registry) ArenaBytes() int {
	return r.arenaBytes
}
