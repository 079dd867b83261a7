// Command gdsview-demo is a runnable shell around gdsview.Viewer: it opens a
// GDSII file named on the command line, wires a live ebiten window as the
// RenderSurface/Poller, and drives Update/Render/Draw once per frame.
// Grounded on phanxgames-willow/scene.go's Run/gameShell (replaces the
// teacher's deleted demos/examples directories — see DESIGN.md).
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/jwt625/gdsjam-sub000/gdsview"
	"github.com/jwt625/gdsjam-sub000/input"
	"github.com/jwt625/gdsjam-sub000/lod"
	"github.com/jwt625/gdsjam-sub000/render"
)

func main() {
	width := flag.Int("width", 1024, "window width")
	height := flag.Int("height", 768, "window height")
	flag.Parse()

	path := flag.Arg(0)
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: gdsview-demo <file.gds>")
		os.Exit(2)
	}

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("gdsview-demo")

	g := newGame(*width, *height)
	g.loadPath = path

	if err := ebiten.RunGame(g); err != nil {
		fmt.Fprintf(os.Stderr, "[gdsview-demo] %v\n", err)
		os.Exit(1)
	}
}

// game implements ebiten.Game by delegating to a gdsview.Viewer, mirroring
// the role phanxgames-willow/scene.go's gameShell plays for a Scene.
type game struct {
	viewer   *gdsview.Viewer
	surface  *render.EbitenSurface
	loadPath string
	loaded   bool
	w, h     int
}

func newGame(w, h int) *game {
	surface := render.NewEbitenSurface(nil)
	v := gdsview.NewViewer(surface)
	v.DebugLog = func(err error) {
		fmt.Fprintf(os.Stderr, "[gdsview-demo] %v\n", err)
	}
	v.Init(gdsview.Options{Width: w, Height: h})
	v.SetPoller(input.NewEbitenPoller())

	return &game{viewer: v, surface: surface, w: w, h: h}
}

func (g *game) loadFile() {
	f, err := os.Open(g.loadPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[gdsview-demo] open %s: %v\n", g.loadPath, err)
		os.Exit(1)
	}
	defer f.Close()

	_, err = g.viewer.Load(f, func(elementsProcessed int) {
		fmt.Fprintf(os.Stderr, "\r[gdsview-demo] loading %s: %d elements", g.loadPath, elementsProcessed)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[gdsview-demo] load %s: %v\n", g.loadPath, err)
		os.Exit(1)
	}
	g.loaded = true
}

func (g *game) Update() error {
	if !g.loaded {
		g.loadFile()
	}
	g.viewer.Update(fixedDelta)
	g.viewer.SampleFPS(ebiten.ActualFPS())
	if err := g.viewer.Render(); err != nil {
		return err
	}
	return nil
}

const fixedDelta = time.Second / 60

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	g.surface.SetTarget(screen)
	g.viewer.Draw()

	m := g.viewer.GetPerformanceMetrics()
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"fps=%.1f depth=%d/%d visible=%d/%d budget=%d",
		m.FPS, m.Depth, lod.MaxDepth, m.VisiblePolygons, m.TotalPolygons, m.Budget,
	))
}

// Layout keeps the window at its initial size; gdsview.Viewer's viewport is
// sized once in Init and this demo does not wire live-resize support.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.w, g.h
}
