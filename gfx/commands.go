package gfx

import (
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/postfx/render"
)

func (c *Context) ResetCommandPool(pool render.CommandPool) error {
	_, err := c.deviceDriver.ResetCommandPool(c.commandPools.mustGet(uint64(pool)), 0)
	return err
}

func (c *Context) BeginCommandBuffer(buffer render.CommandBuffer) error {
	_, err := c.deviceDriver.BeginCommandBuffer(c.commandBuffers.mustGet(uint64(buffer)), core1_0.CommandBufferBeginInfo{})
	return err
}

func (c *Context) EndCommandBuffer(buffer render.CommandBuffer) error {
	_, err := c.deviceDriver.EndCommandBuffer(c.commandBuffers.mustGet(uint64(buffer)))
	return err
}

func (c *Context) CmdBindPipeline(buffer render.CommandBuffer, pipeline render.Pipeline) {
	c.deviceDriver.CmdBindPipeline(c.commandBuffers.mustGet(uint64(buffer)), core1_0.PipelineBindPointGraphics, c.pipelines.mustGet(uint64(pipeline)))
}

func (c *Context) CmdBindDescriptorSets(buffer render.CommandBuffer, layout render.PipelineLayout, firstSet int, sets ...render.DescriptorSet) {
	vkSets := make([]core1_0.DescriptorSet, 0, len(sets))
	for _, set := range sets {
		vkSets = append(vkSets, c.descriptorSets.mustGet(uint64(set)))
	}

	c.deviceDriver.CmdBindDescriptorSets(
		c.commandBuffers.mustGet(uint64(buffer)),
		core1_0.PipelineBindPointGraphics,
		c.pipelineLayouts.mustGet(uint64(layout)),
		firstSet,
		vkSets,
		nil,
	)
}

func (c *Context) CmdBeginRenderPass(buffer render.CommandBuffer, begin render.RenderPassBegin) error {
	return c.deviceDriver.CmdBeginRenderPass(c.commandBuffers.mustGet(uint64(buffer)), core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  c.renderPasses.mustGet(uint64(begin.RenderPass)),
			Framebuffer: c.framebuffers.mustGet(uint64(begin.Framebuffer)),
			RenderArea:  begin.RenderArea,
			ClearValues: begin.ClearValues,
		})
}

func (c *Context) CmdDraw(buffer render.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int) {
	c.deviceDriver.CmdDraw(c.commandBuffers.mustGet(uint64(buffer)), vertexCount, instanceCount, uint32(firstVertex), uint32(firstInstance))
}

func (c *Context) CmdEndRenderPass(buffer render.CommandBuffer) {
	c.deviceDriver.CmdEndRenderPass(c.commandBuffers.mustGet(uint64(buffer)))
}
