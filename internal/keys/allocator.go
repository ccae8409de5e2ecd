// Package keys hands out run-local surrogate ids.
package keys

// Kind is an entity type that receives surrogate ids
type Kind int

const (
	Sponsor Kind = iota
	Contract
	Member
	Benefit

	numKinds
)

func (k Kind) String() string {
	switch k {
	case Sponsor:
		return "sponsor"
	case Contract:
		return "contract"
	case Member:
		return "member"
	case Benefit:
		return "benefit"
	default:
		return "unknown"
	}
}

// Allocator holds one monotonic counter per kind. A fresh allocator starts
// every counter at zero; ids are never reset or reused during a run.
type Allocator struct {
	last [numKinds]int64
}

// New creates an allocator for one run
func New() *Allocator {
	return &Allocator{}
}

// Next issues the next id for k
func (a *Allocator) Next(k Kind) int64 {
	a.last[k]++
	return a.last[k]
}

// Snapshot returns the last id issued for every kind
func (a *Allocator) Snapshot() map[Kind]int64 {
	out := make(map[Kind]int64, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out[k] = a.last[k]
	}
	return out
}
