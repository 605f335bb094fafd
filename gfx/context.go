// Package gfx is the Vulkan runtime the renderer draws through. A Context
// owns the window, the device and the swapchain, and hands out opaque
// handles for everything it creates on the renderer's behalf.
package gfx

import (
	"log"
	"path/filepath"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/postfx/render"
)

const (
	MaxFramesInFlight = 2

	DefaultPipelineCacheFile = "pipeline_cache_data.bin"

	fullscreenTriVertShader = "fullscreen-tri-vert.spv"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

type Config struct {
	Title         string
	Width, Height int

	// SpvDir holds the compiled shaders, including the full-screen
	// triangle vertex shader.
	SpvDir string

	Validation bool
	// SaveImages adds transfer-source usage to the swapchain so rendered
	// frames can be written out with WritePNG.
	SaveImages bool
	// PipelineCache is where pipeline cache data is loaded from and saved
	// to. Empty disables the on-disk cache.
	PipelineCache string
}

func (c Config) withDefaults() Config {
	if c.Title == "" {
		c.Title = "postfx"
	}
	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 720
	}
	if c.SpvDir == "" {
		c.SpvDir = render.DefaultSpvDir
	}
	return c
}

type swapchainFrame struct {
	image core1_0.Image
	view  uint64

	commandPool   uint64
	commandBuffer uint64

	renderFinished core1_0.Semaphore
}

type Context struct {
	cfg Config

	Window *sdl.Window

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	deviceDriver   core1_0.CoreDeviceDriver

	debugDriver     ext_debug_utils.ExtensionDriver
	debugMessenger  ext_debug_utils.DebugUtilsMessenger
	surfaceDriver   khr_surface.ExtensionDriver
	surface         khr_surface.Surface
	swapchainDriver khr_swapchain.ExtensionDriver

	physicalDevice   core1_0.PhysicalDevice
	gpuProps         *core1_0.PhysicalDeviceProperties
	memoryProperties *core1_0.PhysicalDeviceMemoryProperties

	graphicsQueueFamily int
	presentQueueFamily  int
	graphicsQueue       core1_0.Queue
	presentQueue        core1_0.Queue

	swapchain       khr_swapchain.Swapchain
	swapchainFormat core1_0.Format
	extent          core1_0.Extent2D
	frames          []swapchainFrame

	depthFormat   core1_0.Format
	offscreenPass uint64
	swapchainPass uint64

	uploadPool    core1_0.CommandPool
	pipelineCache core1_0.PipelineCache
	shaders       *shaderCache
	uniforms      []*uniformBlock

	descriptorPools []core1_0.DescriptorPool
	setLayouts      map[render.DescriptorSetID]core1_0.DescriptorSetLayout
	setIDs          map[render.DescriptorSetID]uint64
	layoutIDs       map[render.PipelineLayoutID]uint64

	images          *handleTable[*imageEntry]
	views           *handleTable[core1_0.ImageView]
	samplers        *handleTable[core1_0.Sampler]
	framebuffers    *handleTable[core1_0.Framebuffer]
	renderPasses    *handleTable[core1_0.RenderPass]
	pipelines       *handleTable[core1_0.Pipeline]
	pipelineLayouts *handleTable[core1_0.PipelineLayout]
	descriptorSets  *handleTable[core1_0.DescriptorSet]
	buffers         *handleTable[core1_0.Buffer]
	commandPools    *handleTable[core1_0.CommandPool]
	commandBuffers  *handleTable[core1_0.CommandBuffer]

	presenter presenter
}

var _ render.Runtime = (*Context)(nil)

// NewContext opens the window and brings up everything the renderer needs
// before its own initialization: instance, device, swapchain, both render
// passes and the per-frame command pools. On failure everything created so
// far is destroyed.
func NewContext(cfg Config) (*Context, error) {
	c := &Context{
		cfg:             cfg.withDefaults(),
		setLayouts:      make(map[render.DescriptorSetID]core1_0.DescriptorSetLayout),
		setIDs:          make(map[render.DescriptorSetID]uint64),
		layoutIDs:       make(map[render.PipelineLayoutID]uint64),
		images:          newHandleTable[*imageEntry]("image"),
		views:           newHandleTable[core1_0.ImageView]("image view"),
		samplers:        newHandleTable[core1_0.Sampler]("sampler"),
		framebuffers:    newHandleTable[core1_0.Framebuffer]("framebuffer"),
		renderPasses:    newHandleTable[core1_0.RenderPass]("render pass"),
		pipelines:       newHandleTable[core1_0.Pipeline]("pipeline"),
		pipelineLayouts: newHandleTable[core1_0.PipelineLayout]("pipeline layout"),
		descriptorSets:  newHandleTable[core1_0.DescriptorSet]("descriptor set"),
		buffers:         newHandleTable[core1_0.Buffer]("buffer"),
		commandPools:    newHandleTable[core1_0.CommandPool]("command pool"),
		commandBuffers:  newHandleTable[core1_0.CommandBuffer]("command buffer"),
	}
	c.shaders = newShaderCache()

	steps := []struct {
		name string
		run  func() error
	}{
		{"init window", c.initWindow},
		{"init instance", c.initInstance},
		{"init debug messenger", c.initDebugMessenger},
		{"init surface", c.initSurface},
		{"pick physical device", c.pickPhysicalDevice},
		{"init device", c.initDevice},
		{"init upload pool", c.initUploadPool},
		{"init pipeline cache", c.initPipelineCache},
		{"init swapchain", c.initSwapchain},
		{"init presenter", c.initPresenter},
		{"preload shaders", c.preloadShaders},
	}
	for _, step := range steps {
		err := step.run()
		if err != nil {
			c.Destroy()
			return nil, errors.Wrap(err, step.name)
		}
	}

	log.Printf("gfx: %s, swapchain %dx%d with %d images", c.gpuProps.DeviceName, c.extent.Width, c.extent.Height, len(c.frames))
	return c, nil
}

func (c *Context) initWindow() error {
	err := sdl.Init(sdl.INIT_VIDEO)
	if err != nil {
		return err
	}

	c.Window, err = sdl.CreateWindow(c.cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(c.cfg.Width), int32(c.cfg.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return err
	}

	c.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	return err
}

func (c *Context) preloadShaders() error {
	return c.shaders.Preload(
		c.FullscreenTriVertShader(),
		filepath.Join(c.cfg.SpvDir, "post-frag.spv"),
	)
}

func (c *Context) Extent() core1_0.Extent2D {
	return c.extent
}

func (c *Context) DeviceWaitIdle() error {
	_, err := c.deviceDriver.DeviceWaitIdle()
	return err
}

// Destroy waits for the device and releases everything the context created,
// including whatever the renderer left behind: descriptor pools and layouts,
// pipeline layouts and the uniform blocks.
func (c *Context) Destroy() {
	if c.deviceDriver != nil {
		_, err := c.deviceDriver.DeviceWaitIdle()
		if err != nil {
			log.Printf("gfx: wait idle during destroy: %v", err)
		}

		c.framebuffers.drain(func(framebuffer core1_0.Framebuffer) {
			c.deviceDriver.DestroyFramebuffer(framebuffer, nil)
		})
		c.pipelines.drain(func(pipeline core1_0.Pipeline) {
			c.deviceDriver.DestroyPipeline(pipeline, nil)
		})
		c.images.drain(c.destroyImageEntry)

		c.destroyDescriptors()
		c.destroyUniformBlocks()
		c.destroyPresenter()
		c.destroySwapchain()
		c.destroyPipelineCache()

		if c.uploadPool.Initialized() {
			c.deviceDriver.DestroyCommandPool(c.uploadPool, nil)
		}

		c.deviceDriver.DestroyDevice(nil)
		c.deviceDriver = nil
	}

	if c.debugMessenger.Initialized() {
		c.debugDriver.DestroyDebugUtilsMessenger(c.debugMessenger, nil)
		c.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if c.surface.Initialized() {
		c.surfaceDriver.DestroySurface(c.surface, nil)
		c.surface = khr_surface.Surface{}
	}

	if c.instanceDriver != nil {
		c.instanceDriver.DestroyInstance(nil)
		c.instanceDriver = nil
	}

	if c.Window != nil {
		err := c.Window.Destroy()
		if err != nil {
			log.Printf("gfx: destroy window: %v", err)
		}
		c.Window = nil
	}
	sdl.Quit()
}

func logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] - %s", severity, msgType, data.Message)

	if (severity & ext_debug_utils.SeverityError) != 0 {
		debug.PrintStack()
	}

	return false
}
