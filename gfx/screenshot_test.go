package gfx

import (
	"image/color"
	"os"
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"
)

func TestDecodePixels(t *testing.T) {
	// 2x2 image, 4 bytes of offset and 4 bytes of row padding.
	data := []byte{
		0xff, 0xff, 0xff, 0xff,
		1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0,
		9, 10, 11, 12, 13, 14, 15, 16, 0, 0, 0, 0,
	}

	rgba, err := decodePixels(data, core1_0.FormatR8G8B8A8UnsignedNormalized, 2, 2, 4, 12)
	if err != nil {
		t.Fatal(err)
	}
	if got := rgba.RGBAAt(1, 1); got != (color.RGBA{R: 13, G: 14, B: 15, A: 16}) {
		t.Errorf("rgba (1,1) = %v", got)
	}

	bgra, err := decodePixels(data, core1_0.FormatB8G8R8A8SRGB, 2, 2, 4, 12)
	if err != nil {
		t.Fatal(err)
	}
	if got := bgra.RGBAAt(0, 0); got != (color.RGBA{R: 3, G: 2, B: 1, A: 4}) {
		t.Errorf("bgra (0,0) = %v", got)
	}
	if got := bgra.RGBAAt(0, 1); got != (color.RGBA{R: 11, G: 10, B: 9, A: 12}) {
		t.Errorf("bgra (0,1) = %v", got)
	}
}

func TestDecodePixelsRejects(t *testing.T) {
	if _, err := decodePixels(make([]byte, 16), core1_0.FormatD32SignedFloat, 2, 2, 0, 8); err == nil {
		t.Error("depth format decoded")
	}
	if _, err := decodePixels(make([]byte, 15), core1_0.FormatR8G8B8A8UnsignedNormalized, 2, 2, 0, 8); err == nil {
		t.Error("short buffer decoded")
	}
}

func TestWritePNGRequestsCapture(t *testing.T) {
	c := &Context{}
	if err := c.WritePNG("frame"); err == nil {
		t.Error("WritePNG accepted without SaveImages")
	}
	if c.presenter.capture != "" {
		t.Errorf("capture requested without SaveImages: %q", c.presenter.capture)
	}

	c.cfg.SaveImages = true
	if err := c.WritePNG(""); err == nil {
		t.Error("WritePNG accepted an empty name")
	}
	if err := c.WritePNG("postfx-gradient"); err != nil {
		t.Fatal(err)
	}

	// Nothing is read back until the next frame is drawn.
	if _, err := os.Stat("postfx-gradient.png"); !os.IsNotExist(err) {
		t.Errorf("png written before a frame was drawn: %v", err)
	}
	if baseName, ok := c.presenter.takeCapture(); !ok || baseName != "postfx-gradient" {
		t.Errorf("pending capture = %q, %v", baseName, ok)
	}
}
