package ebitenhost

import (
	"fmt"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/canopy"
)

// Renderer implements canopy.Renderer by replaying draw nodes onto the
// ebiten screen image of the current frame.
type Renderer struct {
	screen *ebiten.Image

	whitePixel *ebiten.Image

	blendStack   []canopy.BlendMode
	scissorStack []canopy.Rect
}

func newRenderer() *Renderer {
	white := ebiten.NewImage(1, 1)
	white.Fill(image.White)
	return &Renderer{whitePixel: white}
}

// BeginFrame resets per-frame draw state. The target screen was set by the
// window's Draw callback.
func (r *Renderer) BeginFrame(canopy.Vec2) {
	r.blendStack = r.blendStack[:0]
	r.scissorStack = r.scissorStack[:0]
}

// FinishFrame completes the frame. Ebiten presents the screen itself after
// the Draw callback returns.
func (r *Renderer) FinishFrame() {}

// SwapBuffers is a no-op: presentation is owned by ebiten.
func (r *Renderer) SwapBuffers() {}

// WaitUntilNextFrameReady is a no-op: pacing is owned by ebiten.
func (r *Renderer) WaitUntilNextFrameReady() {}

// PushBlend makes mode the active blend state.
func (r *Renderer) PushBlend(mode canopy.BlendMode) {
	r.blendStack = append(r.blendStack, mode)
}

// PopBlend restores the previous blend state.
func (r *Renderer) PopBlend() {
	r.blendStack = r.blendStack[:len(r.blendStack)-1]
}

// PushScissor clips subsequent draws to area, intersected with any active
// scissor.
func (r *Renderer) PushScissor(area canopy.Rect) {
	if len(r.scissorStack) > 0 {
		outer := r.scissorStack[len(r.scissorStack)-1]
		area = intersect(outer, area)
	}
	r.scissorStack = append(r.scissorStack, area)
}

// intersect returns the overlap of a and b, or an empty rectangle at the
// clamped origin when they do not overlap.
func intersect(a, b canopy.Rect) canopy.Rect {
	x0 := math.Max(a.X, b.X)
	y0 := math.Max(a.Y, b.Y)
	x1 := math.Min(a.X+a.Width, b.X+b.Width)
	y1 := math.Min(a.Y+a.Height, b.Y+b.Height)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return canopy.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// PopScissor restores the previous scissor state.
func (r *Renderer) PopScissor() {
	r.scissorStack = r.scissorStack[:len(r.scissorStack)-1]
}

// DrawQuad draws one transformed, tinted quad. A nil texture draws a solid
// color using the shared white pixel.
func (r *Renderer) DrawQuad(tex canopy.Texture, transform [6]float32, size canopy.Vec2, color canopy.Color) {
	img := r.whitePixel
	if tex != nil {
		t, ok := tex.(*texture)
		if !ok {
			// Foreign texture handles cannot be drawn by this backend.
			return
		}
		img = t.img
	}

	target := r.screen
	if target == nil {
		return
	}
	if len(r.scissorStack) > 0 {
		s := r.scissorStack[len(r.scissorStack)-1]
		target = target.SubImage(image.Rect(
			int(s.X), int(s.Y),
			int(s.X+s.Width), int(s.Y+s.Height),
		)).(*ebiten.Image)
	}

	bounds := img.Bounds()
	iw, ih := bounds.Dx(), bounds.Dy()
	if iw == 0 || ih == 0 || size.X == 0 || size.Y == 0 {
		return
	}

	op := &ebiten.DrawImageOptions{}
	// Scale the source image to the drawable's size, then apply the world
	// transform.
	op.GeoM.Scale(size.X/float64(iw), size.Y/float64(ih))
	var m ebiten.GeoM
	m.SetElement(0, 0, float64(transform[0]))
	m.SetElement(1, 0, float64(transform[1]))
	m.SetElement(0, 1, float64(transform[2]))
	m.SetElement(1, 1, float64(transform[3]))
	m.SetElement(0, 2, float64(transform[4]))
	m.SetElement(1, 2, float64(transform[5]))
	op.GeoM.Concat(m)

	// Premultiply tint at submission time.
	a := float32(color.A)
	op.ColorScale.Scale(float32(color.R)*a, float32(color.G)*a, float32(color.B)*a, a)

	if len(r.blendStack) > 0 {
		op.Blend = ebitenBlend(r.blendStack[len(r.blendStack)-1])
	}

	target.DrawImage(img, op)
}

// CreateTexture uploads RGBA pixels into a new ebiten image.
func (r *Renderer) CreateTexture(width, height int, pixels []byte) (canopy.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ebitenhost: invalid texture size %dx%d", width, height)
	}
	if want := width * height * 4; pixels != nil && len(pixels) != want {
		return nil, fmt.Errorf("ebitenhost: texture pixel data is %d bytes, want %d", len(pixels), want)
	}
	img := ebiten.NewImage(width, height)
	if pixels != nil {
		img.WritePixels(pixels)
	}
	return &texture{img: img}, nil
}

// TextureFromImage wraps an existing ebiten image as a canopy texture, for
// offscreen canvases and overlays.
func TextureFromImage(img *ebiten.Image) canopy.Texture {
	return &texture{img: img}
}

type texture struct {
	img *ebiten.Image
}

func (t *texture) Size() (int, int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

func (t *texture) Dispose() {
	t.img.Deallocate()
}

// ebitenBlend maps a canopy blend mode to an ebiten blend state.
func ebitenBlend(b canopy.BlendMode) ebiten.Blend {
	switch b {
	case canopy.BlendAdd:
		return ebiten.BlendLighter
	case canopy.BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case canopy.BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case canopy.BlendNone:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}
