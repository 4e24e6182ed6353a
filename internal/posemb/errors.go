package posemb

import "errors"

// Failure classes. All are synchronous and fatal to the current call; there
// is no degraded-mode fallback. Callers match with errors.Is.
var (
	// ErrBadDimSplit reports an axis-dim partition that cannot cover the
	// head or channel dimension exactly.
	ErrBadDimSplit = errors.New("axis dim split does not cover embedding dim")

	// ErrOddEmbedDim reports an odd width where the sin/cos pairing needs
	// an even one.
	ErrOddEmbedDim = errors.New("embedding dim must be even")

	// ErrUnknownInterpolation reports an interpolation mode the variant
	// does not implement.
	ErrUnknownInterpolation = errors.New("unknown interpolation method")

	// ErrNotLearnable reports a variant whose table must be learnable but
	// was configured fixed.
	ErrNotLearnable = errors.New("variant requires a learnable table")

	// ErrShapeBounds reports a requested extent beyond the stored table or
	// bounded frequency range.
	ErrShapeBounds = errors.New("requested shape exceeds configured maximum")

	// ErrNonUniformFPS reports heterogeneous frame rates where a single
	// temporal rescaling is required.
	ErrNonUniformFPS = errors.New("non-uniform fps")

	// ErrImageFPS reports a time extent other than 1 for an image input.
	ErrImageFPS = errors.New("image input requires T=1")

	// ErrViewFPS reports heterogeneous frame rates across camera views.
	ErrViewFPS = errors.New("multi-camera generation requires uniform fps across views")

	// ErrBadViews reports a time extent that does not fold into the
	// configured number of camera views.
	ErrBadViews = errors.New("time extent does not divide into camera views")
)
