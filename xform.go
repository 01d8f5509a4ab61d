package flame

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/flame/variation"
)

// MaxVariations is the number of variation slots of one transform.
const MaxVariations = 8

// Xform is one transform of a flame: an affine map followed by a weighted
// sum of variations.
type Xform struct {
	Affine Affine
	Post   Affine

	// Weight is the selection probability relative to the other transforms.
	Weight float64

	// Color is the palette coordinate the transform pulls points toward at
	// rate ColorSpeed.
	Color      float64
	ColorSpeed float64

	// Opacity scales the accumulated color. For the final transform it is
	// the probability of applying the transform at all.
	Opacity float64

	// DirectColor blends the new color coordinate over the carried one.
	DirectColor float64

	// Xaos holds the multiplier toward each transform. Missing entries are 1.
	Xaos []float64

	// Variations in insertion order. Use Ordered for execution order.
	Variations []*variation.Instance `copier:"-"`
}

// NewXform returns a transform with identity affines, unit weight and the
// given variations.
func NewXform(vars ...*variation.Instance) *Xform {
	x := &Xform{
		Affine:      Identity(),
		Post:        Identity(),
		Weight:      1,
		ColorSpeed:  0.5,
		Opacity:     1,
		DirectColor: 1,
	}
	for _, v := range vars {
		if err := x.AddVariation(v); err != nil {
			panic(err)
		}
	}
	return x
}

// HasPost reports whether the post affine is not the identity.
func (x *Xform) HasPost() bool { return !x.Post.IsIdentity() }

// AddVariation appends v. A transform holds at most MaxVariations and at
// most one instance of each name.
func (x *Xform) AddVariation(v *variation.Instance) error {
	if v == nil {
		return ErrNilVariation
	}
	if len(x.Variations) >= MaxVariations {
		return fmt.Errorf("%w: %d", ErrTooManyVariations, MaxVariations)
	}
	for _, o := range x.Variations {
		if o.Name() == v.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateVariation, v.Name())
		}
	}
	x.Variations = append(x.Variations, v)
	return nil
}

// checkVariations reports nil instances, duplicate names and overflow in
// a variation list assigned directly.
func (x *Xform) checkVariations() error {
	if len(x.Variations) > MaxVariations {
		return ErrTooManyVariations
	}
	for i, v := range x.Variations {
		if v == nil {
			return fmt.Errorf("%w: slot %d", ErrNilVariation, i)
		}
		for _, o := range x.Variations[:i] {
			if o != nil && o.Name() == v.Name() {
				return fmt.Errorf("%w: %s", ErrDuplicateVariation, v.Name())
			}
		}
	}
	return nil
}

// Variation returns the instance with the given (prefixed) name.
func (x *Xform) Variation(name string) *variation.Instance {
	for _, v := range x.Variations {
		if v.Name() == name {
			return v
		}
	}
	return nil
}

// Ordered returns the variations in execution order: pre, regular, post.
// Instances within a phase keep their insertion order.
func (x *Xform) Ordered() []*variation.Instance {
	out := slices.Clone(x.Variations)
	slices.SortStableFunc(out, func(a, b *variation.Instance) int {
		return a.Phase().Order() - b.Phase().Order()
	})
	return out
}

// XaosTo returns the multiplier toward transform j.
func (x *Xform) XaosTo(j int) float64 {
	if j < len(x.Xaos) {
		return x.Xaos[j]
	}
	return 1
}

// VizAdjusted maps Opacity onto the perceptual scale used when
// accumulating.
func (x *Xform) VizAdjusted() float64 {
	if x.Opacity <= 0 {
		return 0
	}
	return math.Abs(math.Pow(10, -math.Log10(1/x.Opacity)/math.Log10(2)))
}

// ColorCaches returns the two color blend constants
// speed*color and 1-speed.
func (x *Xform) ColorCaches() (speedColor, oneMinusSpeed float64) {
	return x.ColorSpeed * x.Color, 1 - x.ColorSpeed
}
