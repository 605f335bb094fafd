package render

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type command struct {
	name  string
	args  []uint64
	begin *RenderPassBegin
}

type commandBufferState int

const (
	cmdInitial commandBufferState = iota
	cmdRecording
	cmdExecutable
)

// fakeRuntime issues handles from a counter and tracks which of them are
// alive so tests can assert on leaks and stale references.
type fakeRuntime struct {
	extent     core1_0.Extent2D
	frameCount int

	next uint64

	images       map[ImageID]Image
	views        map[ImageView]bool
	samplers     map[Sampler]bool
	framebuffers map[Framebuffer]FramebufferInfo
	pipelines    map[Pipeline]PipelineInfo

	descriptorSets  map[DescriptorSetID]DescriptorSet
	pipelineLayouts map[PipelineLayoutID]PipelineLayout
	setDecls        []DescriptorSetDecl
	layoutDecls     []PipelineLayoutDecl
	writes          map[DescriptorSet]DescriptorWrite

	offscreenPass RenderPass
	swapchainPass RenderPass
	frames        []Frame

	regions []BufferRegion

	commands map[CommandBuffer][]command
	cmdState map[CommandBuffer]commandBufferState
	inPass   map[CommandBuffer]bool

	calls []string

	waitIdleCalls   int
	recreateCalls   int
	failFramebuffer int
	framebufferSeq  int
}

func newFakeRuntime(width, height, frameCount int) *fakeRuntime {
	rt := &fakeRuntime{
		extent:          core1_0.Extent2D{Width: width, Height: height},
		frameCount:      frameCount,
		images:          make(map[ImageID]Image),
		views:           make(map[ImageView]bool),
		samplers:        make(map[Sampler]bool),
		framebuffers:    make(map[Framebuffer]FramebufferInfo),
		pipelines:       make(map[Pipeline]PipelineInfo),
		descriptorSets:  make(map[DescriptorSetID]DescriptorSet),
		pipelineLayouts: make(map[PipelineLayoutID]PipelineLayout),
		writes:          make(map[DescriptorSet]DescriptorWrite),
		commands:        make(map[CommandBuffer][]command),
		cmdState:        make(map[CommandBuffer]commandBufferState),
		inPass:          make(map[CommandBuffer]bool),
	}
	rt.buildSwapchain()
	return rt
}

func (f *fakeRuntime) handle() uint64 {
	f.next++
	return f.next
}

func (f *fakeRuntime) buildSwapchain() {
	for _, frame := range f.frames {
		delete(f.views, frame.SwapImageView)
	}

	f.offscreenPass = RenderPass(f.handle())
	f.swapchainPass = RenderPass(f.handle())
	f.frames = f.frames[:0]
	for i := 0; i < f.frameCount; i++ {
		view := ImageView(f.handle())
		f.views[view] = true
		f.frames = append(f.frames, Frame{
			CommandPool:   CommandPool(f.handle()),
			CommandBuffer: CommandBuffer(f.handle()),
			SwapImageView: view,
		})
	}
}

func (f *fakeRuntime) Extent() core1_0.Extent2D { return f.extent }

func (f *fakeRuntime) DeviceWaitIdle() error {
	f.calls = append(f.calls, "DeviceWaitIdle")
	f.waitIdleCalls++
	return nil
}

func (f *fakeRuntime) RecreateSwapchain() error {
	f.calls = append(f.calls, "RecreateSwapchain")
	f.recreateCalls++
	f.buildSwapchain()
	return nil
}

func (f *fakeRuntime) CreateImage(info ImageInfo) (Image, error) {
	f.calls = append(f.calls, "CreateImage")
	image := Image{
		ID:      ImageID(f.handle()),
		View:    ImageView(f.handle()),
		Extent:  info.Extent,
		Format:  info.Format,
		Usage:   info.Usage,
		Aspect:  info.Aspect,
		Samples: info.Samples,
		Layout:  core1_0.ImageLayoutUndefined,
	}
	f.images[image.ID] = image
	f.views[image.View] = true
	return image, nil
}

func (f *fakeRuntime) CreateImageAndSampler(info ImageInfo, filter core1_0.Filter) (Image, error) {
	image, err := f.CreateImage(info)
	if err != nil {
		return image, err
	}
	f.calls[len(f.calls)-1] = "CreateImageAndSampler"
	image.Sampler = Sampler(f.handle())
	f.samplers[image.Sampler] = true
	f.images[image.ID] = image
	return image, nil
}

func (f *fakeRuntime) TransitionImageLayout(image *Image, oldLayout, newLayout core1_0.ImageLayout) error {
	f.calls = append(f.calls, "TransitionImageLayout")
	if image.Layout != oldLayout {
		return errors.Newf("image %d is in layout %d, not %d", image.ID, image.Layout, oldLayout)
	}
	image.Layout = newLayout
	f.images[image.ID] = *image
	return nil
}

func (f *fakeRuntime) FreeImage(image *Image) {
	f.calls = append(f.calls, "FreeImage")
	delete(f.images, image.ID)
	delete(f.views, image.View)
	delete(f.samplers, image.Sampler)
	*image = Image{}
}

func (f *fakeRuntime) DeclareDescriptorSets(sets ...DescriptorSetDecl) error {
	f.calls = append(f.calls, "DeclareDescriptorSets")
	for _, set := range sets {
		f.descriptorSets[set.ID] = DescriptorSet(f.handle())
	}
	f.setDecls = append(f.setDecls, sets...)
	return nil
}

func (f *fakeRuntime) DeclarePipelineLayouts(layouts ...PipelineLayoutDecl) error {
	f.calls = append(f.calls, "DeclarePipelineLayouts")
	for _, layout := range layouts {
		for _, set := range layout.DescriptorSets {
			if _, ok := f.descriptorSets[set]; !ok {
				return errors.Newf("layout %d references undeclared set %d", layout.ID, set)
			}
		}
		f.pipelineLayouts[layout.ID] = PipelineLayout(f.handle())
	}
	f.layoutDecls = append(f.layoutDecls, layouts...)
	return nil
}

func (f *fakeRuntime) DescriptorSet(id DescriptorSetID) DescriptorSet {
	return f.descriptorSets[id]
}

func (f *fakeRuntime) PipelineLayout(id PipelineLayoutID) PipelineLayout {
	return f.pipelineLayouts[id]
}

func (f *fakeRuntime) UpdateDescriptorSets(writes ...DescriptorWrite) error {
	f.calls = append(f.calls, "UpdateDescriptorSets")
	for _, write := range writes {
		if write.Image != nil && !f.views[write.Image.View] {
			return errors.Newf("descriptor write references dead view %d", write.Image.View)
		}
		f.writes[write.Set] = write
	}
	return nil
}

func (f *fakeRuntime) CreatePipeline(info PipelineInfo) (Pipeline, error) {
	f.calls = append(f.calls, "CreatePipeline")
	if _, ok := f.pipelineLayouts[info.Layout]; !ok {
		return 0, errors.Newf("pipeline layout %d not declared", info.Layout)
	}
	pipeline := Pipeline(f.handle())
	f.pipelines[pipeline] = info
	return pipeline, nil
}

func (f *fakeRuntime) DestroyPipeline(pipeline Pipeline) {
	f.calls = append(f.calls, "DestroyPipeline")
	delete(f.pipelines, pipeline)
}

func (f *fakeRuntime) OffscreenRenderPass() RenderPass { return f.offscreenPass }
func (f *fakeRuntime) SwapchainRenderPass() RenderPass { return f.swapchainPass }
func (f *fakeRuntime) DepthFormat() core1_0.Format { return core1_0.FormatD32SignedFloat }
func (f *fakeRuntime) OffscreenColorFormat() core1_0.Format { return core1_0.FormatR8G8B8A8SRGB }
func (f *fakeRuntime) FullscreenTriVertShader() string { return "spv/fullscreen-tri-vert.spv" }

func (f *fakeRuntime) CreateFramebuffer(info FramebufferInfo) (Framebuffer, error) {
	f.calls = append(f.calls, "CreateFramebuffer")
	f.framebufferSeq++
	if f.failFramebuffer > 0 && f.framebufferSeq == f.failFramebuffer {
		return 0, errors.New("out of device memory")
	}
	for _, view := range info.Attachments {
		if !f.views[view] {
			return 0, errors.Newf("framebuffer attachment %d is not a live view", view)
		}
	}
	framebuffer := Framebuffer(f.handle())
	f.framebuffers[framebuffer] = info
	return framebuffer, nil
}

func (f *fakeRuntime) DestroyFramebuffer(framebuffer Framebuffer) {
	f.calls = append(f.calls, "DestroyFramebuffer")
	delete(f.framebuffers, framebuffer)
}

func (f *fakeRuntime) FrameCount() int { return f.frameCount }

func (f *fakeRuntime) Frame(index int) Frame { return f.frames[index] }

func (f *fakeRuntime) RequestBufferRegion(size int, usage core1_0.BufferUsageFlags) (BufferRegion, error) {
	f.calls = append(f.calls, "RequestBufferRegion")
	host := make([]byte, 256)
	for i := range host {
		host[i] = 0xCD
	}
	region := BufferRegion{
		HostData: host[:size],
		Buffer:   Buffer(f.handle()),
		Offset:   64,
		Size:     size,
	}
	f.regions = append(f.regions, region)
	return region, nil
}

func (f *fakeRuntime) record(buffer CommandBuffer, cmd command) {
	f.commands[buffer] = append(f.commands[buffer], cmd)
}

func (f *fakeRuntime) ResetCommandPool(pool CommandPool) error {
	for _, frame := range f.frames {
		if frame.CommandPool == pool {
			f.commands[frame.CommandBuffer] = nil
			f.cmdState[frame.CommandBuffer] = cmdInitial
			f.inPass[frame.CommandBuffer] = false
			return nil
		}
	}
	return errors.Newf("unknown command pool %d", pool)
}

func (f *fakeRuntime) BeginCommandBuffer(buffer CommandBuffer) error {
	if f.cmdState[buffer] != cmdInitial {
		return errors.Newf("command buffer %d begun while not reset", buffer)
	}
	f.cmdState[buffer] = cmdRecording
	f.record(buffer, command{name: "Begin"})
	return nil
}

func (f *fakeRuntime) EndCommandBuffer(buffer CommandBuffer) error {
	if f.cmdState[buffer] != cmdRecording || f.inPass[buffer] {
		return errors.Newf("command buffer %d ended in a bad state", buffer)
	}
	f.cmdState[buffer] = cmdExecutable
	f.record(buffer, command{name: "End"})
	return nil
}

func (f *fakeRuntime) CmdBindPipeline(buffer CommandBuffer, pipeline Pipeline) {
	f.record(buffer, command{name: "BindPipeline", args: []uint64{uint64(pipeline)}})
}

func (f *fakeRuntime) CmdBindDescriptorSets(buffer CommandBuffer, layout PipelineLayout, firstSet int, sets ...DescriptorSet) {
	args := []uint64{uint64(layout), uint64(firstSet)}
	for _, set := range sets {
		args = append(args, uint64(set))
	}
	f.record(buffer, command{name: "BindDescriptorSets", args: args})
}

func (f *fakeRuntime) CmdBeginRenderPass(buffer CommandBuffer, begin RenderPassBegin) error {
	if f.inPass[buffer] {
		return errors.New("render pass already active")
	}
	if _, ok := f.framebuffers[begin.Framebuffer]; !ok {
		return errors.Newf("render pass begun on dead framebuffer %d", begin.Framebuffer)
	}
	f.inPass[buffer] = true
	b := begin
	f.record(buffer, command{name: "BeginRenderPass", begin: &b})
	return nil
}

func (f *fakeRuntime) CmdDraw(buffer CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance int) {
	f.record(buffer, command{name: "Draw", args: []uint64{uint64(vertexCount), uint64(instanceCount), uint64(firstVertex), uint64(firstInstance)}})
}

func (f *fakeRuntime) CmdEndRenderPass(buffer CommandBuffer) {
	f.inPass[buffer] = false
	f.record(buffer, command{name: "EndRenderPass"})
}

func (f *fakeRuntime) commandNames(buffer CommandBuffer) []string {
	var names []string
	for _, cmd := range f.commands[buffer] {
		names = append(names, cmd.name)
	}
	return names
}

func (f *fakeRuntime) String() string {
	return fmt.Sprintf("images=%d framebuffers=%d pipelines=%d", len(f.images), len(f.framebuffers), len(f.pipelines))
}
