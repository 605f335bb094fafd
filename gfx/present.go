package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// ErrSwapchainOutOfDate is returned by DrawFrame when the swapchain no longer
// matches the surface. The caller is expected to rebuild everything sized to
// the swapchain and draw again.
var ErrSwapchainOutOfDate = errors.New("swapchain out of date")

type presenter struct {
	imageAvailable []core1_0.Semaphore
	inFlight       []core1_0.Fence
	// imagesInFlight is the fence of the submission currently using each
	// swapchain image, if any.
	imagesInFlight []core1_0.Fence

	currentFrame int
	// capture is the base name of the png requested for the next frame.
	capture string
}

func (p *presenter) resetImages(count int) {
	p.imagesInFlight = make([]core1_0.Fence, count)
}

func (p *presenter) takeCapture() (string, bool) {
	baseName := p.capture
	p.capture = ""
	return baseName, baseName != ""
}

func (p *presenter) advance() {
	p.currentFrame = (p.currentFrame + 1) % len(p.inFlight)
}

func (c *Context) initPresenter() error {
	for i := 0; i < MaxFramesInFlight; i++ {
		semaphore, _, err := c.deviceDriver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return err
		}
		c.presenter.imageAvailable = append(c.presenter.imageAvailable, semaphore)

		fence, _, err := c.deviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return err
		}
		c.presenter.inFlight = append(c.presenter.inFlight, fence)
	}

	c.presenter.resetImages(len(c.frames))
	return nil
}

func (c *Context) destroyPresenter() {
	for _, fence := range c.presenter.inFlight {
		c.deviceDriver.DestroyFence(fence, nil)
	}
	for _, semaphore := range c.presenter.imageAvailable {
		c.deviceDriver.DestroySemaphore(semaphore, nil)
	}
	c.presenter = presenter{}
}

// DrawFrame acquires the next swapchain image, submits the command buffer
// recorded for it and presents it. A capture requested with WritePNG is
// taken between the submit and the present.
func (c *Context) DrawFrame() error {
	p := &c.presenter
	fences := []core1_0.Fence{p.inFlight[p.currentFrame]}

	_, err := c.deviceDriver.WaitForFences(true, common.NoTimeout, fences...)
	if err != nil {
		return err
	}

	imageIndex, res, err := c.swapchainDriver.AcquireNextImage(c.swapchain, common.NoTimeout, &p.imageAvailable[p.currentFrame], nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return ErrSwapchainOutOfDate
	} else if err != nil {
		return err
	}

	if p.imagesInFlight[imageIndex].Initialized() {
		_, err := c.deviceDriver.WaitForFences(true, common.NoTimeout, p.imagesInFlight[imageIndex])
		if err != nil {
			return err
		}
	}
	p.imagesInFlight[imageIndex] = p.inFlight[p.currentFrame]

	_, err = c.deviceDriver.ResetFences(fences...)
	if err != nil {
		return err
	}

	frame := c.frames[imageIndex]
	_, err = c.deviceDriver.QueueSubmit(c.graphicsQueue, &p.inFlight[p.currentFrame],
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{p.imageAvailable[p.currentFrame]},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{c.commandBuffers.mustGet(frame.commandBuffer)},
			SignalSemaphores: []core1_0.Semaphore{frame.renderFinished},
		},
	)
	if err != nil {
		return err
	}

	var captureErr error
	baseName, capture := p.takeCapture()
	if capture {
		captureErr = c.captureImage(frame.image, frame.renderFinished, baseName)
	}

	res, err = c.swapchainDriver.QueuePresent(c.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{frame.renderFinished},
		Swapchains:     []khr_swapchain.Swapchain{c.swapchain},
		ImageIndices:   []int{imageIndex},
	})
	p.advance()

	if captureErr != nil {
		return errors.Wrapf(captureErr, "capture %s", baseName)
	}
	if res == khr_swapchain.VKErrorOutOfDate || res == khr_swapchain.VKSuboptimal {
		return ErrSwapchainOutOfDate
	}
	return err
}
