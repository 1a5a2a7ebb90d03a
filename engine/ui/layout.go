package ui

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vktriangle/engine/math"
)

// Panel geometry in framebuffer pixels, anchored at the top left corner.
const (
	panelX      = 10
	panelY      = 10
	panelWidth  = 220
	panelHeight = 130
	padding     = 10

	swatchSize = 40

	channelBarWidth  = 150
	channelBarHeight = 8
	channelBarGap    = 6

	graphHeight    = panelHeight - 3*padding - swatchSize
	graphBarStride = 2
	graphSamples   = (panelWidth - 2*padding) / graphBarStride

	// frame times at or above graphScaleMS fill the graph height
	graphScaleMS = 1000.0 / 30.0
	targetMS     = 1000.0 / 60.0
)

var (
	panelColor  = mgl32.Vec4{0.12, 0.12, 0.12, 1}
	borderColor = mgl32.Vec4{0.85, 0.85, 0.85, 1}

	channelColors = [3]mgl32.Vec4{
		{0.9, 0.2, 0.2, 1},
		{0.2, 0.9, 0.2, 1},
		{0.2, 0.4, 0.95, 1},
	}

	fastFrameColor = mgl32.Vec4{0.3, 0.85, 0.3, 1}
	slowFrameColor = mgl32.Vec4{0.95, 0.8, 0.2, 1}
	lateFrameColor = mgl32.Vec4{0.95, 0.25, 0.2, 1}
)

// Quad is a solid rectangle cleared into the color attachment.
type Quad struct {
	Rect  vk.Rect2D
	Color mgl32.Vec4
}

// Layout computes the HUD quads for a framebuffer of the given extent,
// back to front. Every returned rect lies inside extent and is non-empty.
// history holds frame times in milliseconds, oldest first.
func Layout(extent vk.Extent2D, background mgl32.Vec3, history []float64) []Quad {
	if extent.Width == 0 || extent.Height == 0 {
		return nil
	}

	var quads []Quad
	add := func(x, y int32, w, h uint32, color mgl32.Vec4) {
		if r, ok := clipRect(x, y, w, h, extent); ok {
			quads = append(quads, Quad{Rect: r, Color: color})
		}
	}

	add(panelX, panelY, panelWidth, panelHeight, panelColor)

	sx, sy := int32(panelX+padding), int32(panelY+padding)
	add(sx-1, sy-1, swatchSize+2, swatchSize+2, borderColor)
	add(sx, sy, swatchSize, swatchSize, background.Vec4(1))

	bx := sx + swatchSize + padding
	for i := 0; i < 3; i++ {
		w := uint32(math.Clamp(background[i], 0, 1) * channelBarWidth)
		add(bx, sy+int32(i*(channelBarHeight+channelBarGap)), w, channelBarHeight, channelColors[i])
	}

	if len(history) > graphSamples {
		history = history[len(history)-graphSamples:]
	}
	bottom := int32(panelY + panelHeight - padding)
	for i, ms := range history {
		h := uint32(math.Clamp(ms/graphScaleMS, 0, 1) * graphHeight)
		h = math.Max(h, 1)
		add(sx+int32(i*graphBarStride), bottom-int32(h), graphBarStride-1, h, frameTimeColor(ms))
	}

	return quads
}

func frameTimeColor(ms float64) mgl32.Vec4 {
	switch {
	case ms <= targetMS:
		return fastFrameColor
	case ms <= graphScaleMS:
		return slowFrameColor
	default:
		return lateFrameColor
	}
}

// clipRect intersects the rect with [0,extent). ok is false when nothing is left.
func clipRect(x, y int32, w, h uint32, extent vk.Extent2D) (vk.Rect2D, bool) {
	x0 := math.Max(int64(x), 0)
	y0 := math.Max(int64(y), 0)
	x1 := min(int64(x)+int64(w), int64(extent.Width))
	y1 := min(int64(y)+int64(h), int64(extent.Height))
	if x1 <= x0 || y1 <= y0 {
		return vk.Rect2D{}, false
	}
	return vk.Rect2D{
		Offset: vk.Offset2D{X: int32(x0), Y: int32(y0)},
		Extent: vk.Extent2D{Width: uint32(x1 - x0), Height: uint32(y1 - y0)},
	}, true
}
