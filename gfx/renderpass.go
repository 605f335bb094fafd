package gfx

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/postfx/render"
)

const offscreenColorFormat = core1_0.FormatR8G8B8A8UnsignedNormalized

func (c *Context) createRenderPasses() error {
	if c.depthFormat == core1_0.FormatUndefined {
		depthFormat, err := c.findDepthFormat()
		if err != nil {
			return err
		}
		c.depthFormat = depthFormat
	}

	offscreen, err := c.createOffscreenRenderPass()
	if err != nil {
		return errors.Wrap(err, "offscreen render pass")
	}
	c.offscreenPass = c.renderPasses.add(offscreen)

	swapchain, err := c.createSwapchainRenderPass()
	if err != nil {
		return errors.Wrap(err, "swapchain render pass")
	}
	c.swapchainPass = c.renderPasses.add(swapchain)

	return nil
}

// offscreenDependencies orders the main pass against the post pass. The
// external source scope covers the previous frame in flight, which may still
// be sampling the color target or writing the shared depth target.
var offscreenDependencies = []core1_0.SubpassDependency{
	{
		SrcSubpass: core1_0.SubpassExternal,
		DstSubpass: 0,

		SrcStageMask:  core1_0.PipelineStageFragmentShader | core1_0.PipelineStageLateFragmentTests,
		SrcAccessMask: core1_0.AccessShaderRead | core1_0.AccessDepthStencilAttachmentWrite,

		DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
		DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
	},
	{
		SrcSubpass: 0,
		DstSubpass: core1_0.SubpassExternal,

		SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
		SrcAccessMask: core1_0.AccessColorAttachmentWrite,

		DstStageMask:  core1_0.PipelineStageFragmentShader,
		DstAccessMask: core1_0.AccessShaderRead,
	},
}

// The color target stays in the general layout for its whole life: it is
// rendered here and sampled by the post pass without further transitions.
func (c *Context) createOffscreenRenderPass() (core1_0.RenderPass, error) {
	renderPass, _, err := c.deviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         offscreenColorFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutGeneral,
				FinalLayout:    core1_0.ImageLayoutGeneral,
			},
			{
				Format:         c.depthFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpDontCare,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutGeneral,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		SubpassDependencies: offscreenDependencies,
	})
	return renderPass, err
}

func (c *Context) createSwapchainRenderPass() (core1_0.RenderPass, error) {
	renderPass, _, err := c.deviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         c.swapchainFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	return renderPass, err
}

func (c *Context) destroyRenderPasses() {
	for _, id := range []uint64{c.offscreenPass, c.swapchainPass} {
		renderPass, ok := c.renderPasses.remove(id)
		if ok {
			c.deviceDriver.DestroyRenderPass(renderPass, nil)
		}
	}
	c.offscreenPass = 0
	c.swapchainPass = 0
}

func (c *Context) findSupportedFormat(formats []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range formats {
		props := c.instanceDriver.GetPhysicalDeviceFormatProperties(c.physicalDevice, format)

		if tiling == core1_0.ImageTilingLinear && (props.LinearTilingFeatures&features) == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && (props.OptimalTilingFeatures&features) == features {
			return format, nil
		}
	}

	return 0, errors.Newf("failed to find supported format for tiling %s, featureset %s", tiling, features)
}

// The depth target is also sampled, so the format has to support both.
func (c *Context) findDepthFormat() (core1_0.Format, error) {
	return c.findSupportedFormat([]core1_0.Format{core1_0.FormatD32SignedFloat, core1_0.FormatD32SignedFloatS8UnsignedInt, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt},
		core1_0.ImageTilingOptimal,
		core1_0.FormatFeatureDepthStencilAttachment|core1_0.FormatFeatureSampledImage)
}

func (c *Context) OffscreenRenderPass() render.RenderPass {
	return render.RenderPass(c.offscreenPass)
}

func (c *Context) SwapchainRenderPass() render.RenderPass {
	return render.RenderPass(c.swapchainPass)
}

func (c *Context) DepthFormat() core1_0.Format {
	return c.depthFormat
}

func (c *Context) OffscreenColorFormat() core1_0.Format {
	return offscreenColorFormat
}

func (c *Context) FullscreenTriVertShader() string {
	return filepath.Join(c.cfg.SpvDir, fullscreenTriVertShader)
}
