package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// createOffscreenAttachments allocates the depth and color targets of the
// main pass at the current window size. The color image is moved to the
// general layout so it can be rendered to and sampled without further
// transitions.
func (r *Renderer) createOffscreenAttachments(sc *scope) error {
	extent := r.rt.Extent()

	depth, err := r.rt.CreateImage(ImageInfo{
		Extent:  extent,
		Format:  r.rt.DepthFormat(),
		Usage:   core1_0.ImageUsageDepthStencilAttachment | core1_0.ImageUsageSampled,
		Aspect:  core1_0.ImageAspectDepth,
		Samples: core1_0.Samples1,
	})
	if err != nil {
		return errors.Wrap(err, "create depth attachment")
	}
	r.depthAttachment = depth
	sc.add(r.freeDepthAttachment)

	color, err := r.rt.CreateImageAndSampler(ImageInfo{
		Extent:  extent,
		Format:  r.rt.OffscreenColorFormat(),
		Usage:   core1_0.ImageUsageColorAttachment | core1_0.ImageUsageSampled,
		Aspect:  core1_0.ImageAspectColor,
		Samples: core1_0.Samples1,
	}, core1_0.FilterNearest)
	if err != nil {
		return errors.Wrap(err, "create color attachment")
	}
	r.colorAttachment = color
	sc.add(r.freeColorAttachment)

	err = r.rt.TransitionImageLayout(&r.colorAttachment, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutGeneral)
	if err != nil {
		return errors.Wrap(err, "transition color attachment")
	}

	return nil
}

func (r *Renderer) freeOffscreenAttachments() {
	r.freeColorAttachment()
	r.freeDepthAttachment()
}

func (r *Renderer) freeColorAttachment() {
	if r.colorAttachment.ID != 0 {
		r.rt.FreeImage(&r.colorAttachment)
	}
	r.colorAttachment = Image{}
}

func (r *Renderer) freeDepthAttachment() {
	if r.depthAttachment.ID != 0 {
		r.rt.FreeImage(&r.depthAttachment)
	}
	r.depthAttachment = Image{}
}
