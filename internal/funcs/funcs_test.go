package funcs

import (
	"errors"
	"strings"
	"testing"
)

func names(hs []*Helper) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.Name
	}
	return out
}

func TestResolve(t *testing.T) {
	r := New()
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, []string{}},
		{[]string{"lerp"}, []string{"lerp"}},
		{[]string{"safe_div"}, []string{"zeps", "safe_div"}},
		{[]string{"spread", "clamp_sign", "spread"}, []string{"hypot", "sign_nz", "spread", "clamp_sign"}},
		{[]string{"lerp", "zeps"}, []string{"zeps", "lerp"}},
	}
	for _, tt := range tests {
		hs, err := r.Resolve(tt.in...)
		if err != nil {
			t.Fatalf("Resolve(%v) error = %v", tt.in, err)
		}
		got := names(hs)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("Resolve(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	if _, err := New().Resolve("zeps", "nope"); !errors.Is(err, ErrUnknownHelper) {
		t.Errorf("Resolve(nope) error = %v, want ErrUnknownHelper", err)
	}
}

func TestDepsRegisteredFirst(t *testing.T) {
	r := New()
	pos := map[string]int{}
	for i, n := range r.Names() {
		pos[n] = i
	}
	for _, n := range r.Names() {
		h, _ := r.Lookup(n)
		for _, d := range h.Deps {
			p, ok := pos[d]
			if !ok {
				t.Errorf("%s depends on unknown %s", n, d)
				continue
			}
			if p >= pos[n] {
				t.Errorf("%s registered before its dependency %s", n, d)
			}
		}
	}
}

func TestSourceNoDuplicates(t *testing.T) {
	src, err := New().Source("safe_div", "zeps", "safe_div")
	if err != nil {
		t.Fatal(err)
	}
	if c := strings.Count(src, "fn zeps("); c != 1 {
		t.Errorf("fn zeps defined %d times, want 1", c)
	}
	if strings.Contains(src, "fn lerp(") {
		t.Error("Source() emitted an unrequested helper")
	}
	for _, n := range New().Names() {
		h, _ := New().Lookup(n)
		if !strings.HasPrefix(h.Source, "fn "+n+"(") {
			t.Errorf("helper %s source does not define fn %s", n, n)
		}
	}
}
