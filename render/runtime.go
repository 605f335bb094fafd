package render

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Handles issued by a Runtime. The zero value of every handle means "none".
type (
	ImageID        uint64
	ImageView      uint64
	Sampler        uint64
	Buffer         uint64
	Framebuffer    uint64
	RenderPass     uint64
	Pipeline       uint64
	PipelineLayout uint64
	DescriptorSet  uint64
	CommandPool    uint64
	CommandBuffer  uint64
)

type DescriptorSetID uint32
type PipelineLayoutID uint32

type ImageInfo struct {
	Extent  core1_0.Extent2D
	Format  core1_0.Format
	Usage   core1_0.ImageUsageFlags
	Aspect  core1_0.ImageAspectFlags
	Samples core1_0.SampleCountFlags
}

// Image is an image allocated by the runtime together with its default view
// and, for images created with CreateImageAndSampler, a sampler.
type Image struct {
	ID      ImageID
	View    ImageView
	Sampler Sampler

	Extent  core1_0.Extent2D
	Format  core1_0.Format
	Usage   core1_0.ImageUsageFlags
	Aspect  core1_0.ImageAspectFlags
	Samples core1_0.SampleCountFlags
	Layout  core1_0.ImageLayout
}

type DescriptorBinding struct {
	Type   core1_0.DescriptorType
	Stages core1_0.ShaderStageFlags
	Count  int
}

type DescriptorSetDecl struct {
	ID       DescriptorSetID
	Bindings []DescriptorBinding
}

type PushConstantRange struct {
	Stages core1_0.ShaderStageFlags
	Offset int
	Size   int
}

type PipelineLayoutDecl struct {
	ID             PipelineLayoutID
	DescriptorSets []DescriptorSetID
	PushConstants  []PushConstantRange
}

type DescriptorImageInfo struct {
	View    ImageView
	Sampler Sampler
	Layout  core1_0.ImageLayout
}

type DescriptorBufferInfo struct {
	Buffer Buffer
	Offset int
	Range  int
}

// DescriptorWrite points one binding of a declared set at an image or a
// buffer. Exactly one of Image or Buffer is set.
type DescriptorWrite struct {
	Set     DescriptorSet
	Binding int
	Type    core1_0.DescriptorType
	Image   *DescriptorImageInfo
	Buffer  *DescriptorBufferInfo
}

type PipelineType int

const (
	PipelineRaster PipelineType = iota
)

type PipelineInfo struct {
	Type       PipelineType
	Layout     PipelineLayoutID
	RenderPass RenderPass
	VertShader string
	FragShader string
	FrontFace  core1_0.FrontFace
	Samples    core1_0.SampleCountFlags
}

type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      core1_0.Extent2D
	Layers      int
}

// Frame is the set of per-frame resources for one frame slot.
type Frame struct {
	CommandPool   CommandPool
	CommandBuffer CommandBuffer
	SwapImageView ImageView
}

// BufferRegion is a sub-allocation of a host-visible buffer. HostData aliases
// the mapped memory and stays valid until the runtime is destroyed.
type BufferRegion struct {
	HostData []byte
	Buffer   Buffer
	Offset   int
	Size     int
}

type RenderPassBegin struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	RenderArea  core1_0.Rect2D
	ClearValues []core1_0.ClearValue
}

type Device interface {
	// Extent is the current window/swapchain size.
	Extent() core1_0.Extent2D
	DeviceWaitIdle() error
	// RecreateSwapchain rebuilds the swapchain, its image views, both render
	// passes and the per-frame resources.
	RecreateSwapchain() error
}

type Images interface {
	CreateImage(info ImageInfo) (Image, error)
	CreateImageAndSampler(info ImageInfo, filter core1_0.Filter) (Image, error)
	TransitionImageLayout(image *Image, oldLayout, newLayout core1_0.ImageLayout) error
	FreeImage(image *Image)
}

type Descriptors interface {
	DeclareDescriptorSets(sets ...DescriptorSetDecl) error
	DeclarePipelineLayouts(layouts ...PipelineLayoutDecl) error
	DescriptorSet(id DescriptorSetID) DescriptorSet
	PipelineLayout(id PipelineLayoutID) PipelineLayout
	UpdateDescriptorSets(writes ...DescriptorWrite) error
}

type Pipelines interface {
	CreatePipeline(info PipelineInfo) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)
}

type RenderPasses interface {
	OffscreenRenderPass() RenderPass
	SwapchainRenderPass() RenderPass
	DepthFormat() core1_0.Format
	OffscreenColorFormat() core1_0.Format
	// FullscreenTriVertShader is the path of a vertex shader that generates a
	// single screen-covering triangle from gl_VertexIndex.
	FullscreenTriVertShader() string
}

type Framebuffers interface {
	CreateFramebuffer(info FramebufferInfo) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)
}

type Frames interface {
	FrameCount() int
	Frame(index int) Frame
}

type Buffers interface {
	RequestBufferRegion(size int, usage core1_0.BufferUsageFlags) (BufferRegion, error)
}

type Commands interface {
	ResetCommandPool(pool CommandPool) error
	BeginCommandBuffer(buffer CommandBuffer) error
	EndCommandBuffer(buffer CommandBuffer) error
	CmdBindPipeline(buffer CommandBuffer, pipeline Pipeline)
	CmdBindDescriptorSets(buffer CommandBuffer, layout PipelineLayout, firstSet int, sets ...DescriptorSet)
	CmdBeginRenderPass(buffer CommandBuffer, begin RenderPassBegin) error
	CmdDraw(buffer CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int)
	CmdEndRenderPass(buffer CommandBuffer)
}

// Runtime is everything the renderer needs from the graphics runtime.
type Runtime interface {
	Device
	Images
	Descriptors
	Pipelines
	RenderPasses
	Framebuffers
	Frames
	Buffers
	Commands
}
