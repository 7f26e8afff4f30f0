package ebitenhost

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/canopy"
)

// NewFPSOverlay creates a drawable that displays ebiten's current FPS and
// TPS, refreshed every ~0.5 seconds. Add it near the top of the tree with a
// high Depth so it draws above the scene.
func NewFPSOverlay() *canopy.Drawable {
	// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
	img := ebiten.NewImage(100, 32)

	overlay := canopy.NewSprite("fps_overlay", TextureFromImage(img))
	overlay.SetSize(100, 32)
	overlay.SetDepth(1e9)

	var sinceRefresh float64
	overlay.OnUpdate = func(dt float64) {
		sinceRefresh += dt
		if sinceRefresh < 0.5 {
			return
		}
		sinceRefresh = 0

		img.Clear()
		// Semi-transparent background for readability.
		img.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}

	return overlay
}
