package gfx

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/postfx/render"
)

func (c *Context) initSwapchain() error {
	err := c.createSwapchain()
	if err != nil {
		return err
	}

	err = c.createFrames()
	if err != nil {
		return err
	}

	return c.createRenderPasses()
}

// RecreateSwapchain rebuilds the swapchain at the window's current drawable
// size together with the swapchain image views, both render passes and the
// per-frame command pools. Handles issued for the old ones become invalid.
func (c *Context) RecreateSwapchain() error {
	_, err := c.deviceDriver.DeviceWaitIdle()
	if err != nil {
		return err
	}

	c.destroySwapchain()

	err = c.initSwapchain()
	if err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}

	c.presenter.resetImages(len(c.frames))
	log.Printf("gfx: swapchain recreated at %dx%d with %d images", c.extent.Width, c.extent.Height, len(c.frames))
	return nil
}

func (c *Context) createSwapchain() error {
	capabilities, _, err := c.surfaceDriver.GetPhysicalDeviceSurfaceCapabilities(c.surface, c.physicalDevice)
	if err != nil {
		return err
	}

	formats, _, err := c.surfaceDriver.GetPhysicalDeviceSurfaceFormats(c.surface, c.physicalDevice)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		return errors.New("surface reports no formats")
	}

	presentModes, _, err := c.surfaceDriver.GetPhysicalDeviceSurfacePresentModes(c.surface, c.physicalDevice)
	if err != nil {
		return err
	}

	surfaceFormat := chooseSwapSurfaceFormat(formats)
	presentMode := chooseSwapPresentMode(presentModes)

	width, height := c.Window.VulkanGetDrawableSize()
	extent := chooseSwapExtent(capabilities, int(width), int(height))

	usage := core1_0.ImageUsageColorAttachment
	if c.cfg.SaveImages {
		usage |= core1_0.ImageUsageTransferSrc
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if c.graphicsQueueFamily != c.presentQueueFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, c.graphicsQueueFamily, c.presentQueueFamily)
	}

	swapchain, _, err := c.swapchainDriver.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: c.surface,

		MinImageCount:    chooseImageCount(capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       usage,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return err
	}

	c.swapchain = swapchain
	c.swapchainFormat = surfaceFormat.Format
	c.extent = extent
	return nil
}

func (c *Context) createFrames() error {
	images, _, err := c.swapchainDriver.GetSwapchainImages(c.swapchain)
	if err != nil {
		return err
	}

	for i, image := range images {
		frame := swapchainFrame{image: image}

		view, err := c.createImageView(image, c.swapchainFormat, core1_0.ImageAspectColor)
		if err != nil {
			return errors.Wrapf(err, "frame %d view", i)
		}
		frame.view = c.views.add(view)

		pool, _, err := c.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
			QueueFamilyIndex: c.graphicsQueueFamily,
		})
		if err != nil {
			c.frames = append(c.frames, frame)
			return errors.Wrapf(err, "frame %d command pool", i)
		}
		frame.commandPool = c.commandPools.add(pool)

		buffers, _, err := c.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
			CommandPool:        pool,
			Level:              core1_0.CommandBufferLevelPrimary,
			CommandBufferCount: 1,
		})
		if err != nil {
			c.frames = append(c.frames, frame)
			return errors.Wrapf(err, "frame %d command buffer", i)
		}
		frame.commandBuffer = c.commandBuffers.add(buffers[0])

		frame.renderFinished, _, err = c.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		c.frames = append(c.frames, frame)
		if err != nil {
			return errors.Wrapf(err, "frame %d semaphore", i)
		}
	}

	return nil
}

func (c *Context) destroyFrames() {
	for _, frame := range c.frames {
		if frame.renderFinished.Initialized() {
			c.deviceDriver.DestroySemaphore(frame.renderFinished, nil)
		}

		c.commandBuffers.remove(frame.commandBuffer)
		pool, ok := c.commandPools.remove(frame.commandPool)
		if ok {
			c.deviceDriver.DestroyCommandPool(pool, nil)
		}

		view, ok := c.views.remove(frame.view)
		if ok {
			c.deviceDriver.DestroyImageView(view, nil)
		}
	}
	c.frames = nil
}

func (c *Context) destroySwapchain() {
	c.destroyRenderPasses()
	c.destroyFrames()

	if c.swapchain.Initialized() {
		c.swapchainDriver.DestroySwapchain(c.swapchain, nil)
		c.swapchain = khr_swapchain.Swapchain{}
	}
}

func (c *Context) FrameCount() int {
	return len(c.frames)
}

func (c *Context) Frame(index int) render.Frame {
	frame := c.frames[index]
	return render.Frame{
		CommandPool:   render.CommandPool(frame.commandPool),
		CommandBuffer: render.CommandBuffer(frame.commandBuffer),
		SwapImageView: render.ImageView(frame.view),
	}
}

func chooseSwapSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func chooseSwapPresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// chooseSwapExtent uses the surface's current extent when it has one and
// otherwise clamps the drawable size into the supported range.
func chooseSwapExtent(capabilities *khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return core1_0.Extent2D{Width: width, Height: height}
}

func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}
