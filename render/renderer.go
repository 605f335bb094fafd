// Package render draws a scene into an offscreen color+depth target and then
// composites that target onto the swapchain with a full-screen post pass.
//
// A Renderer owns the size-dependent resources of both passes (attachments,
// pipelines, framebuffers) and the contents of their descriptor sets. The
// graphics runtime it is built on is supplied through the Runtime interface.
package render

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const DefaultSpvDir = "./shaders/spv"

var (
	ErrNotInitialized     = errors.New("renderer is not initialized")
	ErrAlreadyInitialized = errors.New("renderer is already initialized")
	ErrFrameIndex         = errors.New("frame index out of range")
)

type Config struct {
	// ShaderName selects the main pass fragment shader,
	// <SpvDir>/<ShaderName>-frag.spv. It must be set before InitRenderer.
	ShaderName string
	SpvDir     string
}

type state int

const (
	stateUninitialized state = iota
	stateReady
)

type Renderer struct {
	id  uuid.UUID
	rt  Runtime
	cfg Config

	state    state
	declared bool

	descriptorSets  map[Pass]DescriptorSet
	pipelineLayouts map[Pass]PipelineLayout
	pipelines       map[Pass]Pipeline

	colorAttachment Image
	depthAttachment Image

	offscreenFramebuffer  Framebuffer
	swapchainFramebuffers []Framebuffer

	parmsRegion BufferRegion
	parms       *ShaderParms
}

func New(rt Runtime, cfg Config) *Renderer {
	if cfg.SpvDir == "" {
		cfg.SpvDir = DefaultSpvDir
	}

	return &Renderer{
		id:              uuid.New(),
		rt:              rt,
		cfg:             cfg,
		descriptorSets:  make(map[Pass]DescriptorSet),
		pipelineLayouts: make(map[Pass]PipelineLayout),
		pipelines:       make(map[Pass]Pipeline),
	}
}

func (r *Renderer) ID() uuid.UUID {
	return r.id
}

// SetShaderName replaces the main pass shader. It takes effect the next time
// pipelines are built.
func (r *Renderer) SetShaderName(name string) {
	r.cfg.ShaderName = name
}

func (r *Renderer) Ready() bool {
	return r.state == stateReady
}

// InitRenderer performs one-time setup. Calling it without a shader name is
// a programming error and panics. On failure every resource acquired by the
// call is released and the renderer stays uninitialized.
func (r *Renderer) InitRenderer() error {
	if r.cfg.ShaderName == "" {
		panic("render: InitRenderer called before a shader name was set")
	}
	if r.state == stateReady {
		return ErrAlreadyInitialized
	}

	if !r.declared {
		err := r.declareDescriptorSets()
		if err != nil {
			return err
		}

		err = r.declarePipelineLayouts()
		if err != nil {
			return err
		}
		r.declared = true
	}

	sc := &scope{}
	err := r.buildPipelines(sc)
	if err == nil {
		err = r.createOffscreenAttachments(sc)
	}
	if err == nil {
		err = r.writeImageDescriptor()
	}
	if err == nil && r.parms == nil {
		err = r.writeBufferDescriptor()
	}
	if err == nil {
		err = r.buildFramebuffers(sc)
	}
	if err != nil {
		sc.release()
		return errors.Wrap(err, "init renderer")
	}

	r.state = stateReady
	extent := r.rt.Extent()
	log.Printf("renderer %s: initialized %dx%d, %d frames, shader %q", r.id, extent.Width, extent.Height, len(r.swapchainFramebuffers), r.cfg.ShaderName)
	return nil
}

// RecreateSwapchain rebuilds every size-dependent resource after the window
// changed size, then re-records the commands of every frame slot. The
// shader parameter buffer and its descriptor are kept.
func (r *Renderer) RecreateSwapchain() error {
	if r.state != stateReady {
		return errors.Wrap(ErrNotInitialized, "recreate swapchain")
	}

	err := r.rt.DeviceWaitIdle()
	if err != nil {
		return errors.Wrap(err, "recreate swapchain: wait idle")
	}

	r.Cleanup()

	err = r.rt.RecreateSwapchain()
	if err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}

	sc := &scope{}
	err = r.createOffscreenAttachments(sc)
	if err == nil {
		err = r.buildPipelines(sc)
	}
	if err == nil {
		err = r.writeImageDescriptor()
	}
	if err == nil {
		err = r.buildFramebuffers(sc)
	}
	if err != nil {
		sc.release()
		return errors.Wrap(err, "recreate swapchain")
	}
	r.state = stateReady

	for i := 0; i < r.rt.FrameCount(); i++ {
		err = r.RecordFrame(i)
		if err != nil {
			return errors.Wrapf(err, "recreate swapchain: record frame %d", i)
		}
	}

	extent := r.rt.Extent()
	log.Printf("renderer %s: swapchain recreated at %dx%d", r.id, extent.Width, extent.Height)
	return nil
}

// GetShaderParms returns the shader parameters living in host-visible
// memory. The pointer is stable for the lifetime of the runtime and is nil
// until the first successful InitRenderer.
func (r *Renderer) GetShaderParms() *ShaderParms {
	return r.parms
}

func (r *Renderer) FrameCount() int {
	return len(r.swapchainFramebuffers)
}

// Cleanup destroys the framebuffers, attachments and pipelines. Descriptor
// set declarations, pipeline layouts and the shader parameter buffer belong
// to the runtime and are released with it.
func (r *Renderer) Cleanup() {
	r.destroyFramebuffers()
	r.freeOffscreenAttachments()
	r.destroyPipelines()
	r.state = stateUninitialized
}
