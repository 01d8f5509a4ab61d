package flame

import "errors"

// Validation errors returned by Flame.Validate and Xform.AddVariation.
var (
	ErrNoXforms           = errors.New("flame: no transforms")
	ErrBadSize            = errors.New("flame: invalid output size")
	ErrBadQuality         = errors.New("flame: invalid quality or supersample")
	ErrBadWeights         = errors.New("flame: transform weights must be non-negative with a positive sum")
	ErrBadXaos            = errors.New("flame: invalid xaos row")
	ErrTooManyVariations  = errors.New("flame: too many variations")
	ErrDuplicateVariation = errors.New("flame: duplicate variation")
	ErrNilVariation       = errors.New("flame: nil variation")
)
