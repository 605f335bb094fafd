package gfx

import (
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/postfx/render"
)

func (c *Context) CreateFramebuffer(info render.FramebufferInfo) (render.Framebuffer, error) {
	attachments := make([]core1_0.ImageView, 0, len(info.Attachments))
	for _, view := range info.Attachments {
		attachments = append(attachments, c.views.mustGet(uint64(view)))
	}

	layers := info.Layers
	if layers <= 0 {
		layers = 1
	}

	framebuffer, _, err := c.deviceDriver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  c.renderPasses.mustGet(uint64(info.RenderPass)),
		Layers:      layers,
		Attachments: attachments,
		Width:       info.Extent.Width,
		Height:      info.Extent.Height,
	})
	if err != nil {
		return 0, err
	}

	return render.Framebuffer(c.framebuffers.add(framebuffer)), nil
}

func (c *Context) DestroyFramebuffer(framebuffer render.Framebuffer) {
	vkFramebuffer, ok := c.framebuffers.remove(uint64(framebuffer))
	if ok {
		c.deviceDriver.DestroyFramebuffer(vkFramebuffer, nil)
	}
}
