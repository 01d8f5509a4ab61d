package main

import (
	"fmt"
	"sort"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/variation"
)

// builtin holds the flames the command can render by name.
var builtin = map[string]func(w, h int) *flame.Flame{
	"sierpinski": sierpinski,
	"swirl":      swirl,
	"julian":     julian,
}

func builtinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupFlame(name string, w, h int) (*flame.Flame, error) {
	fn, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown flame %q, have %v", name, builtinNames())
	}
	f := fn(w, h)
	f.Name = name
	return f, nil
}

func half(x, y float64) flame.Affine {
	return flame.Translate(x, y).Multiply(flame.Scale(0.5, 0.5))
}

func sierpinski(w, h int) *flame.Flame {
	f := flame.New(w, h)
	f.CenterX, f.CenterY = 0.5, 0.5
	f.PixelsPerUnit = float64(min(w, h)) * 0.9
	corners := [][2]float64{{0, 0}, {0.5, 0}, {0, 0.5}}
	for i, c := range corners {
		x := flame.NewXform(variation.Must("linear", 1))
		x.Affine = half(c[0], c[1])
		x.Color = float64(i) / 2
		f.Add(x)
	}
	return f
}

func swirl(w, h int) *flame.Flame {
	f := flame.New(w, h)
	f.Palette = *flame.NewPalette(flame.Hex("#0b1d51"), flame.Hex("#725ac1"), flame.Hex("#f7c59f"), flame.Hex("#fffbff"))
	f.Palette.Mode = flame.PaletteLinear
	f.Vibrancy = 0.8
	f.DEMaxRadius, f.DEMinRadius = 3, 0.3

	a := flame.NewXform(variation.Must("swirl", 0.8), variation.Must("linear", 0.2))
	a.Affine = flame.Rotate(0.6).Multiply(flame.Scale(0.7, 0.7))
	a.Color = 0
	b := flame.NewXform(variation.Must("spherical", 1))
	b.Affine = flame.Translate(0.4, -0.2)
	b.Weight = 0.5
	b.Color = 1
	f.Add(a, b)
	return f
}

func julian(w, h int) *flame.Flame {
	f := flame.New(w, h)
	f.PixelsPerUnit = float64(min(w, h)) / 3
	f.Gamma = 3
	a := flame.NewXform(variation.Must("julian", 1).With("julian_power", 5).With("julian_dist", 1))
	a.Affine = flame.Rotate(0.2)
	a.Color = 0.2
	b := flame.NewXform(variation.Must("linear", 1))
	b.Affine = half(0.25, 0)
	b.Color = 0.9
	b.Weight = 0.3
	f.Add(a, b)
	final := flame.NewXform(variation.Must("spherical", 0.2), variation.Must("linear", 0.8))
	f.Final = final
	return f
}
