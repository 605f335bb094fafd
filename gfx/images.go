package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/postfx/render"
)

type imageEntry struct {
	image   core1_0.Image
	memory  core1_0.DeviceMemory
	view    uint64
	sampler uint64
}

func (c *Context) CreateImage(info render.ImageInfo) (render.Image, error) {
	entry := &imageEntry{}

	image, _, err := c.deviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        info.Format,
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         info.Usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       info.Samples,
	})
	if err != nil {
		return render.Image{}, errors.Wrap(err, "create image")
	}
	entry.image = image

	memReqs := c.deviceDriver.GetImageMemoryRequirements(image)
	memoryIndex, err := memoryTypeFromProperties(c.memoryProperties, memReqs.MemoryTypeBits, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		c.destroyImageEntry(entry)
		return render.Image{}, err
	}

	entry.memory, _, err = c.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		c.destroyImageEntry(entry)
		return render.Image{}, errors.Wrap(err, "allocate image memory")
	}

	_, err = c.deviceDriver.BindImageMemory(image, entry.memory, 0)
	if err != nil {
		c.destroyImageEntry(entry)
		return render.Image{}, errors.Wrap(err, "bind image memory")
	}

	view, err := c.createImageView(image, info.Format, info.Aspect)
	if err != nil {
		c.destroyImageEntry(entry)
		return render.Image{}, errors.Wrap(err, "create image view")
	}
	entry.view = c.views.add(view)

	return render.Image{
		ID:      render.ImageID(c.images.add(entry)),
		View:    render.ImageView(entry.view),
		Extent:  info.Extent,
		Format:  info.Format,
		Usage:   info.Usage,
		Aspect:  info.Aspect,
		Samples: info.Samples,
		Layout:  core1_0.ImageLayoutUndefined,
	}, nil
}

func (c *Context) CreateImageAndSampler(info render.ImageInfo, filter core1_0.Filter) (render.Image, error) {
	image, err := c.CreateImage(info)
	if err != nil {
		return image, err
	}

	sampler, _, err := c.deviceDriver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    filter,
		MinFilter:    filter,
		AddressModeU: core1_0.SamplerAddressModeClampToEdge,
		AddressModeV: core1_0.SamplerAddressModeClampToEdge,
		AddressModeW: core1_0.SamplerAddressModeClampToEdge,

		BorderColor: core1_0.BorderColorFloatOpaqueBlack,

		MipmapMode: core1_0.SamplerMipmapModeNearest,
		MinLod:     0,
		MaxLod:     0,
	})
	if err != nil {
		c.FreeImage(&image)
		return render.Image{}, errors.Wrap(err, "create sampler")
	}

	entry := c.images.mustGet(uint64(image.ID))
	entry.sampler = c.samplers.add(sampler)
	image.Sampler = render.Sampler(entry.sampler)
	return image, nil
}

func (c *Context) TransitionImageLayout(image *render.Image, oldLayout, newLayout core1_0.ImageLayout) error {
	if image.Layout != oldLayout {
		return errors.Newf("image %d is in layout %s, not %s", image.ID, image.Layout, oldLayout)
	}
	entry := c.images.mustGet(uint64(image.ID))

	cmd, err := c.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = c.cmdSetImageLayout(cmd, entry.image, image.Aspect, oldLayout, newLayout)
	if err != nil {
		c.deviceDriver.FreeCommandBuffers(cmd)
		return err
	}

	err = c.endSingleTimeCommands(cmd)
	if err != nil {
		return err
	}

	image.Layout = newLayout
	return nil
}

func (c *Context) FreeImage(image *render.Image) {
	entry, ok := c.images.remove(uint64(image.ID))
	if ok {
		c.destroyImageEntry(entry)
	}
	*image = render.Image{}
}

func (c *Context) destroyImageEntry(entry *imageEntry) {
	if sampler, ok := c.samplers.remove(entry.sampler); ok {
		c.deviceDriver.DestroySampler(sampler, nil)
	}
	if view, ok := c.views.remove(entry.view); ok {
		c.deviceDriver.DestroyImageView(view, nil)
	}
	if entry.image.Initialized() {
		c.deviceDriver.DestroyImage(entry.image, nil)
	}
	if entry.memory.Initialized() {
		c.deviceDriver.FreeMemory(entry.memory, nil)
	}
}

func (c *Context) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	imageView, _, err := c.deviceDriver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, err
}

type layoutAccess struct {
	stage  core1_0.PipelineStageFlags
	access core1_0.AccessFlags
}

// srcLayoutAccess is the work that must finish before an image leaves a
// layout.
func srcLayoutAccess(layout core1_0.ImageLayout) (layoutAccess, error) {
	switch layout {
	case core1_0.ImageLayoutUndefined:
		return layoutAccess{core1_0.PipelineStageTopOfPipe, 0}, nil
	case core1_0.ImageLayoutGeneral, core1_0.ImageLayoutColorAttachmentOptimal:
		return layoutAccess{core1_0.PipelineStageColorAttachmentOutput, core1_0.AccessColorAttachmentWrite}, nil
	case core1_0.ImageLayoutDepthStencilAttachmentOptimal:
		return layoutAccess{core1_0.PipelineStageLateFragmentTests, core1_0.AccessDepthStencilAttachmentWrite}, nil
	case core1_0.ImageLayoutTransferDstOptimal:
		return layoutAccess{core1_0.PipelineStageTransfer, core1_0.AccessTransferWrite}, nil
	case core1_0.ImageLayoutTransferSrcOptimal:
		return layoutAccess{core1_0.PipelineStageTransfer, core1_0.AccessTransferRead}, nil
	case core1_0.ImageLayoutShaderReadOnlyOptimal:
		return layoutAccess{core1_0.PipelineStageFragmentShader, core1_0.AccessShaderRead}, nil
	case khr_swapchain.ImageLayoutPresentSrc:
		return layoutAccess{core1_0.PipelineStageBottomOfPipe, 0}, nil
	}
	return layoutAccess{}, errors.Newf("unsupported source layout %s", layout)
}

// dstLayoutAccess is the work that waits for an image to enter a layout.
func dstLayoutAccess(layout core1_0.ImageLayout) (layoutAccess, error) {
	switch layout {
	case core1_0.ImageLayoutGeneral:
		return layoutAccess{
			core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageFragmentShader,
			core1_0.AccessColorAttachmentWrite | core1_0.AccessShaderRead,
		}, nil
	case core1_0.ImageLayoutColorAttachmentOptimal:
		return layoutAccess{core1_0.PipelineStageColorAttachmentOutput, core1_0.AccessColorAttachmentWrite}, nil
	case core1_0.ImageLayoutDepthStencilAttachmentOptimal:
		return layoutAccess{core1_0.PipelineStageEarlyFragmentTests, core1_0.AccessDepthStencilAttachmentWrite}, nil
	case core1_0.ImageLayoutTransferDstOptimal:
		return layoutAccess{core1_0.PipelineStageTransfer, core1_0.AccessTransferWrite}, nil
	case core1_0.ImageLayoutTransferSrcOptimal:
		return layoutAccess{core1_0.PipelineStageTransfer, core1_0.AccessTransferRead}, nil
	case core1_0.ImageLayoutShaderReadOnlyOptimal:
		return layoutAccess{core1_0.PipelineStageFragmentShader, core1_0.AccessShaderRead}, nil
	case khr_swapchain.ImageLayoutPresentSrc:
		return layoutAccess{core1_0.PipelineStageBottomOfPipe, core1_0.AccessMemoryRead}, nil
	}
	return layoutAccess{}, errors.Newf("unsupported destination layout %s", layout)
}

func (c *Context) cmdSetImageLayout(cmd core1_0.CommandBuffer, image core1_0.Image, aspect core1_0.ImageAspectFlags, oldLayout, newLayout core1_0.ImageLayout) error {
	src, err := srcLayoutAccess(oldLayout)
	if err != nil {
		return err
	}
	dst, err := dstLayoutAccess(newLayout)
	if err != nil {
		return err
	}

	return c.deviceDriver.CmdPipelineBarrier(cmd, src.stage, dst.stage, 0, nil, nil, []core1_0.ImageMemoryBarrier{
		{
			OldLayout:           oldLayout,
			NewLayout:           newLayout,
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               image,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     aspect,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			SrcAccessMask: src.access,
			DstAccessMask: dst.access,
		},
	})
}

func (c *Context) beginSingleTimeCommands() (core1_0.CommandBuffer, error) {
	buffers, _, err := c.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        c.uploadPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return core1_0.CommandBuffer{}, err
	}

	buffer := buffers[0]
	_, err = c.deviceDriver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		c.deviceDriver.FreeCommandBuffers(buffer)
		return core1_0.CommandBuffer{}, err
	}
	return buffer, nil
}

// endSingleTimeCommands submits buffer and waits for the queue to drain.
// Semaphores in sync are waited on before the commands run and signaled
// again when they finish.
func (c *Context) endSingleTimeCommands(buffer core1_0.CommandBuffer, sync ...core1_0.Semaphore) error {
	defer c.deviceDriver.FreeCommandBuffers(buffer)

	_, err := c.deviceDriver.EndCommandBuffer(buffer)
	if err != nil {
		return err
	}

	submit := core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{buffer},
	}
	if len(sync) > 0 {
		submit.WaitSemaphores = sync
		submit.SignalSemaphores = sync
		submit.WaitDstStageMask = make([]core1_0.PipelineStageFlags, len(sync))
		for i := range sync {
			submit.WaitDstStageMask[i] = core1_0.PipelineStageAllCommands
		}
	}

	_, err = c.deviceDriver.QueueSubmit(c.graphicsQueue, nil, submit)
	if err != nil {
		return err
	}

	_, err = c.deviceDriver.QueueWaitIdle(c.graphicsQueue)
	return err
}
