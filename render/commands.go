package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

var (
	clearColor = core1_0.ClearValueFloat{0.002, 0.023, 0.009, 1.0}
	clearDepth = core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0}
)

// RecordFrame re-records the command buffer of one frame slot: the main pass
// into the offscreen target followed by the post pass onto the swapchain
// image. Both passes draw a single generated triangle. It must run again for
// every slot after the swapchain is recreated.
func (r *Renderer) RecordFrame(frameIndex int) error {
	if r.state != stateReady {
		return errors.Wrap(ErrNotInitialized, "record frame")
	}
	if frameIndex < 0 || frameIndex >= len(r.swapchainFramebuffers) {
		return errors.Wrapf(ErrFrameIndex, "record frame %d of %d", frameIndex, len(r.swapchainFramebuffers))
	}

	frame := r.rt.Frame(frameIndex)
	err := r.rt.ResetCommandPool(frame.CommandPool)
	if err != nil {
		return errors.Wrap(err, "reset command pool")
	}

	cmd := frame.CommandBuffer
	err = r.rt.BeginCommandBuffer(cmd)
	if err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	area := renderArea(r.rt.Extent())

	err = r.recordPass(cmd, PassMain, RenderPassBegin{
		RenderPass:  r.rt.OffscreenRenderPass(),
		Framebuffer: r.offscreenFramebuffer,
		RenderArea:  area,
		ClearValues: []core1_0.ClearValue{clearColor, clearDepth},
	})
	if err != nil {
		return err
	}

	err = r.recordPass(cmd, PassPost, RenderPassBegin{
		RenderPass:  r.rt.SwapchainRenderPass(),
		Framebuffer: r.swapchainFramebuffers[frameIndex],
		RenderArea:  area,
		ClearValues: []core1_0.ClearValue{clearColor},
	})
	if err != nil {
		return err
	}

	return errors.Wrap(r.rt.EndCommandBuffer(cmd), "end command buffer")
}

func (r *Renderer) recordPass(cmd CommandBuffer, pass Pass, begin RenderPassBegin) error {
	r.rt.CmdBindPipeline(cmd, r.pipelines[pass])
	r.rt.CmdBindDescriptorSets(cmd, r.pipelineLayouts[pass], 0, r.descriptorSets[pass])

	err := r.rt.CmdBeginRenderPass(cmd, begin)
	if err != nil {
		return errors.Wrapf(err, "begin %s pass", pass)
	}

	r.rt.CmdDraw(cmd, 3, 1, 0, 0)
	r.rt.CmdEndRenderPass(cmd)
	return nil
}

func renderArea(extent core1_0.Extent2D) core1_0.Rect2D {
	return core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
}
