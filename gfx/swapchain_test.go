package gfx

import (
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestChooseSwapSurfaceFormat(t *testing.T) {
	srgb := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	unorm := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	if got := chooseSwapSurfaceFormat([]khr_surface.SurfaceFormat{unorm, srgb}); got != srgb {
		t.Errorf("preferred format not chosen: %+v", got)
	}
	if got := chooseSwapSurfaceFormat([]khr_surface.SurfaceFormat{unorm}); got != unorm {
		t.Errorf("fallback format not chosen: %+v", got)
	}
}

func TestChooseSwapPresentMode(t *testing.T) {
	tests := []struct {
		modes []khr_surface.PresentMode
		want  khr_surface.PresentMode
	}{
		{[]khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}, khr_surface.PresentModeMailbox},
		{[]khr_surface.PresentMode{khr_surface.PresentModeImmediate}, khr_surface.PresentModeFIFO},
		{nil, khr_surface.PresentModeFIFO},
	}
	for _, tt := range tests {
		if got := chooseSwapPresentMode(tt.modes); got != tt.want {
			t.Errorf("chooseSwapPresentMode(%v) = %v, want %v", tt.modes, got, tt.want)
		}
	}
}

func TestChooseSwapExtent(t *testing.T) {
	fixed := &khr_surface.SurfaceCapabilities{
		CurrentExtent: core1_0.Extent2D{Width: 800, Height: 600},
	}
	if got := chooseSwapExtent(fixed, 1920, 1080); got != fixed.CurrentExtent {
		t.Errorf("surface extent ignored: %v", got)
	}

	open := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 2048},
	}
	tests := []struct {
		width, height int
		want          core1_0.Extent2D
	}{
		{1280, 720, core1_0.Extent2D{Width: 1280, Height: 720}},
		{10, 10, core1_0.Extent2D{Width: 64, Height: 64}},
		{8000, 3000, core1_0.Extent2D{Width: 4096, Height: 2048}},
	}
	for _, tt := range tests {
		if got := chooseSwapExtent(open, tt.width, tt.height); got != tt.want {
			t.Errorf("chooseSwapExtent(%d, %d) = %v, want %v", tt.width, tt.height, got, tt.want)
		}
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max int
		want     int
	}{
		{2, 0, 3},
		{2, 8, 3},
		{3, 3, 3},
	}
	for _, tt := range tests {
		capabilities := &khr_surface.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
		if got := chooseImageCount(capabilities); got != tt.want {
			t.Errorf("min %d max %d: got %d, want %d", tt.min, tt.max, got, tt.want)
		}
	}
}
