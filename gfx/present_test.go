package gfx

import (
	"testing"

	"github.com/vkngwrapper/core/v3/core1_0"
)

func TestPresenterAdvance(t *testing.T) {
	p := presenter{inFlight: make([]core1_0.Fence, MaxFramesInFlight)}

	var seen []int
	for i := 0; i < 2*MaxFramesInFlight; i++ {
		seen = append(seen, p.currentFrame)
		p.advance()
	}

	for i, frame := range seen {
		if frame != i%MaxFramesInFlight {
			t.Fatalf("frame slots %v do not cycle", seen)
		}
	}
}

func TestPresenterResetImages(t *testing.T) {
	p := presenter{capture: "pending"}
	p.resetImages(3)
	if len(p.imagesInFlight) != 3 {
		t.Errorf("%d image fences, want 3", len(p.imagesInFlight))
	}
	if p.capture != "pending" {
		t.Errorf("capture request dropped by reset: %q", p.capture)
	}

	p.resetImages(2)
	if len(p.imagesInFlight) != 2 {
		t.Errorf("%d image fences after shrink, want 2", len(p.imagesInFlight))
	}
}

func TestPresenterTakeCapture(t *testing.T) {
	var p presenter
	if _, ok := p.takeCapture(); ok {
		t.Fatal("capture taken without a request")
	}

	p.capture = "postfx-gradient"
	baseName, ok := p.takeCapture()
	if !ok || baseName != "postfx-gradient" {
		t.Fatalf("takeCapture = %q, %v", baseName, ok)
	}
	if _, ok := p.takeCapture(); ok {
		t.Error("capture taken twice for one request")
	}
}
