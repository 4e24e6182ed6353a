package posemb

import (
	"github.com/voxelflow/posemb/internal/cp"
	"github.com/voxelflow/posemb/internal/tensor"
)

// CPAdapter makes embedding generation agree with an input tensor that was
// already sharded along the time axis across a group of cooperating workers:
// it expands the local time extent to the global one, generates for the
// global shape, and takes this rank's contiguous slice of the result along
// whichever axis plays the time role in the wrapped generator's output.
//
// With a nil (or single-rank) group the adapter is an identity pass-through.
// CPAdapter itself satisfies Embedder, so adapters compose with callers that
// do not know about sharding.
type CPAdapter struct {
	inner Embedder
	group cp.Group
}

// WithContextParallel wraps an embedder for the given group. The group comes
// from the external rank-topology provider and must match how the input was
// sharded.
func WithContextParallel(inner Embedder, group cp.Group) *CPAdapter {
	return &CPAdapter{inner: inner, group: group}
}

func (a *CPAdapter) layout() outputLayout { return a.inner.layout() }
func (a *CPAdapter) viewCount() int       { return a.inner.viewCount() }

// Generate takes the LOCAL shard's shape. Every rank regenerates the global
// embedding deterministically and slices out its own block, so no
// communication happens here.
func (a *CPAdapter) Generate(shape Shape, opts *GenerateOptions) (*tensor.Tensor, error) {
	if a.group == nil || len(a.group.Ranks()) <= 1 {
		return a.inner.Generate(shape, opts)
	}
	size := len(a.group.Ranks())
	global := shape
	global.T = shape.T * size
	emb, err := a.inner.Generate(global, opts)
	if err != nil {
		return nil, err
	}

	views := a.inner.viewCount()
	switch a.inner.layout() {
	case layoutRotaryFlat:
		if views == 1 {
			// Time is the slowest component of axis 0, so contiguous
			// blocks along it are whole-frame slices.
			return cp.Split(emb, 0, a.group)
		}
		// Axis 0 interleaves views: separate the view axis, shard only
		// the per-view sequence, and flatten back. Sharding the flat
		// axis directly would cut across view boundaries.
		rest := emb.Dims[1:]
		perView := emb.Dims[0] / views
		reshaped := emb.Reshape(append([]int{views, perView}, rest...)...)
		shard, err := cp.Split(reshaped, 1, a.group)
		if err != nil {
			return nil, err
		}
		return shard.Reshape(append([]int{views * shard.Dims[1]}, rest...)...), nil

	default: // additive (B,T,H,W,C), time on axis 1
		if views == 1 {
			return cp.Split(emb, 1, a.group)
		}
		b := emb.Dims[0]
		perView := emb.Dims[1] / views
		rest := emb.Dims[2:]
		reshaped := emb.Reshape(append([]int{b, views, perView}, rest...)...)
		shard, err := cp.Split(reshaped, 2, a.group)
		if err != nil {
			return nil, err
		}
		return shard.Reshape(append([]int{b, views * shard.Dims[2]}, rest...)...), nil
	}
}
