package flame

import (
	"github.com/jinzhu/copier"

	"github.com/gogpu/flame/variation"
)

// Clone returns a deep copy of f. Variation instances are cloned so the copy
// can be handed to another goroutine while the caller keeps editing f.
func (f *Flame) Clone() *Flame {
	out := &Flame{}
	if err := copier.CopyWithOption(out, f, copier.Option{DeepCopy: true}); err != nil {
		panic(err)
	}
	out.Xforms = make([]*Xform, len(f.Xforms))
	for i, x := range f.Xforms {
		out.Xforms[i] = x.Clone()
	}
	if f.Final != nil {
		out.Final = f.Final.Clone()
	}
	return out
}

// Clone returns a deep copy of x.
func (x *Xform) Clone() *Xform {
	out := &Xform{}
	if err := copier.CopyWithOption(out, x, copier.Option{DeepCopy: true}); err != nil {
		panic(err)
	}
	out.Variations = make([]*variation.Instance, len(x.Variations))
	for i, v := range x.Variations {
		out.Variations[i] = v.Clone()
	}
	return out
}
