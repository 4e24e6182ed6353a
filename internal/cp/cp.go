// Package cp holds the context-parallel primitives: the rank-group handle
// and the contiguous sequence splitter. Workers cooperate but never
// communicate here: each one independently computes the full sequence
// layout and takes its own slice, so correctness rests on every rank seeing
// the same group ordering and tensor extents.
package cp

import (
	"fmt"

	"github.com/voxelflow/posemb/internal/tensor"
)

// Group describes this process's membership in an ordered set of cooperating
// ranks. It is fed by the external process-group topology provider and is
// used only for the shard count and this rank's slice position.
type Group interface {
	// Ranks returns the ordered participating ranks.
	Ranks() []int
	// Rank returns this process's index within Ranks.
	Rank() int
}

// StaticGroup is a fixed Group, useful for tests and single-host runs.
type StaticGroup struct {
	ranks []int
	rank  int
}

// NewStaticGroup builds a group over the given ordered ranks with this
// process at position rank.
func NewStaticGroup(ranks []int, rank int) (*StaticGroup, error) {
	if len(ranks) == 0 {
		return nil, fmt.Errorf("empty rank list")
	}
	if rank < 0 || rank >= len(ranks) {
		return nil, fmt.Errorf("rank index %d outside group of %d", rank, len(ranks))
	}
	return &StaticGroup{ranks: append([]int(nil), ranks...), rank: rank}, nil
}

func (g *StaticGroup) Ranks() []int { return g.ranks }
func (g *StaticGroup) Rank() int    { return g.rank }

// Split returns this rank's contiguous shard of t along seqAxis: rank i owns
// the i-th block of size len/groupSize. It is the local inverse of a
// conceptual all-gather along that axis.
func Split(t *tensor.Tensor, seqAxis int, g Group) (*tensor.Tensor, error) {
	size := len(g.Ranks())
	if size == 0 {
		return nil, fmt.Errorf("empty rank list")
	}
	rank := g.Rank()
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("rank index %d outside group of %d", rank, size)
	}
	if seqAxis < 0 || seqAxis >= t.Rank() {
		return nil, fmt.Errorf("sequence axis %d outside tensor of rank %d", seqAxis, t.Rank())
	}
	length := t.Dims[seqAxis]
	if length%size != 0 {
		return nil, fmt.Errorf("sequence length %d does not divide across %d ranks", length, size)
	}
	chunk := length / size
	return tensor.Narrow(t, seqAxis, rank*chunk, chunk), nil
}
