package render

import (
	"github.com/cockroachdb/errors"
)

// buildFramebuffers creates the offscreen framebuffer over the color and
// depth attachments and one swapchain framebuffer per frame slot.
func (r *Renderer) buildFramebuffers(sc *scope) error {
	extent := r.rt.Extent()

	offscreen, err := r.rt.CreateFramebuffer(FramebufferInfo{
		RenderPass:  r.rt.OffscreenRenderPass(),
		Attachments: []ImageView{r.colorAttachment.View, r.depthAttachment.View},
		Extent:      extent,
		Layers:      1,
	})
	if err != nil {
		return errors.Wrap(err, "create offscreen framebuffer")
	}
	r.offscreenFramebuffer = offscreen
	sc.add(r.destroyOffscreenFramebuffer)

	frameCount := r.rt.FrameCount()
	framebuffers := make([]Framebuffer, 0, frameCount)
	sc.add(func() {
		for _, framebuffer := range framebuffers {
			r.rt.DestroyFramebuffer(framebuffer)
		}
		r.swapchainFramebuffers = nil
	})

	for i := 0; i < frameCount; i++ {
		frame := r.rt.Frame(i)
		framebuffer, err := r.rt.CreateFramebuffer(FramebufferInfo{
			RenderPass:  r.rt.SwapchainRenderPass(),
			Attachments: []ImageView{frame.SwapImageView},
			Extent:      extent,
			Layers:      1,
		})
		if err != nil {
			return errors.Wrapf(err, "create swapchain framebuffer %d", i)
		}
		framebuffers = append(framebuffers, framebuffer)
	}
	r.swapchainFramebuffers = framebuffers

	return nil
}

func (r *Renderer) destroyFramebuffers() {
	r.destroyOffscreenFramebuffer()

	for _, framebuffer := range r.swapchainFramebuffers {
		r.rt.DestroyFramebuffer(framebuffer)
	}
	r.swapchainFramebuffers = nil
}

func (r *Renderer) destroyOffscreenFramebuffer() {
	if r.offscreenFramebuffer != 0 {
		r.rt.DestroyFramebuffer(r.offscreenFramebuffer)
	}
	r.offscreenFramebuffer = 0
}
