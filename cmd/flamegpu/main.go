// Command flamegpu renders a built-in fractal flame to a PNG file.
//
//	flamegpu -flame swirl -width 1280 -height 720 -quality 200 -output swirl.png
//	flamegpu -list
//	flamegpu -config render.toml
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/flame"
	"github.com/gogpu/flame/render"
)

func main() {
	var (
		name        = flag.String("flame", "sierpinski", "built-in flame to render")
		width       = flag.Int("width", 800, "image width")
		height      = flag.Int("height", 600, "image height")
		quality     = flag.Float64("quality", 50, "samples per output pixel")
		supersample = flag.Int("supersample", 1, "supersample factor")
		samples     = flag.Int("temporal", 1, "temporal samples")
		scale       = flag.Float64("scale", 1, "rescale the output by this factor")
		output      = flag.String("output", "flame.png", "output file")
		config      = flag.String("config", "", "TOML renderer configuration")
		list        = flag.Bool("list", false, "list devices and exit")
		verbose     = flag.Bool("v", false, "log renderer events")
	)
	flag.Parse()

	if *verbose {
		flame.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *list {
		listDevices()
		return
	}

	f, err := lookupFlame(*name, *width, *height)
	if err != nil {
		log.Fatal(err)
	}
	f.Quality = *quality
	f.Supersample = *supersample
	f.TemporalSamples = *samples

	p := message.NewPrinter(language.English)
	sel, opts, err := loadConfig(*config)
	if err != nil {
		log.Fatal(err)
	}
	opts = append(opts, render.WithProgress(func(pr render.Progress) bool {
		p.Fprintf(os.Stderr, "\r%d / %d iterations (%.0f%%)", pr.Done, pr.Total, 100*pr.Fraction())
		return true
	}))

	r, err := render.New(sel, opts...)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	defer r.Close()
	for i := range r.NumDevices() {
		log.Printf("Device %d: %s", i, r.DeviceName(i))
	}

	// Interrupt stops iterating and keeps the partial image.
	sig, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-sig.Done()
		r.Abort()
	}()

	res, err := r.Render(context.Background(), f)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("Render failed: %v\n%s", err, r.Report())
	}
	if res.Stats.Aborted {
		log.Print("Render aborted, saving partial image")
	}

	var img image.Image = res.Image
	if *scale > 0 && *scale != 1 {
		img = rescale(res.Image, *scale)
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Print(p.Sprintf("Saved %s (%dx%d), %d iterations in %v",
		*output, img.Bounds().Dx(), img.Bounds().Dy(), res.Stats.Iterations, res.Elapsed.Round(time.Millisecond)))
}

func loadConfig(path string) ([]render.Selection, []render.Option, error) {
	if path == "" {
		return nil, nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()
	c, err := render.LoadConfig(file)
	if err != nil {
		return nil, nil, err
	}
	return c.Devices, c.Options(), nil
}

func listDevices() {
	def := render.DefaultSelection()
	for _, d := range render.Devices() {
		mark := " "
		if d.Selection == def {
			mark = "*"
		}
		fmt.Printf("%s platform %d device %d: %s / %s (%s)\n",
			mark, d.Platform, d.Device, d.PlatformName, d.Name, d.Type)
	}
}

func rescale(src *image.NRGBA, factor float64) *image.NRGBA {
	b := src.Bounds()
	w := max(1, int(float64(b.Dx())*factor))
	h := max(1, int(float64(b.Dy())*factor))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func savePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
