package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func (r *Renderer) declareDescriptorSets() error {
	err := r.rt.DeclareDescriptorSets(
		DescriptorSetDecl{
			ID: PassMain.descriptorSetID(),
			Bindings: []DescriptorBinding{
				{
					Type:   core1_0.DescriptorTypeUniformBuffer,
					Stages: core1_0.StageFragment,
					Count:  1,
				},
			},
		},
		DescriptorSetDecl{
			ID: PassPost.descriptorSetID(),
			Bindings: []DescriptorBinding{
				{
					Type:   core1_0.DescriptorTypeCombinedImageSampler,
					Stages: core1_0.StageFragment,
					Count:  1,
				},
			},
		},
	)
	if err != nil {
		return errors.Wrap(err, "declare descriptor sets")
	}

	for _, pass := range passes {
		r.descriptorSets[pass] = r.rt.DescriptorSet(pass.descriptorSetID())
	}
	return nil
}

func (r *Renderer) declarePipelineLayouts() error {
	err := r.rt.DeclarePipelineLayouts(
		PipelineLayoutDecl{
			ID:             PassMain.pipelineLayoutID(),
			DescriptorSets: []DescriptorSetID{PassMain.descriptorSetID()},
		},
		PipelineLayoutDecl{
			ID:             PassPost.pipelineLayoutID(),
			DescriptorSets: []DescriptorSetID{PassPost.descriptorSetID()},
		},
	)
	if err != nil {
		return errors.Wrap(err, "declare pipeline layouts")
	}

	for _, pass := range passes {
		r.pipelineLayouts[pass] = r.rt.PipelineLayout(pass.pipelineLayoutID())
	}
	return nil
}

// writeImageDescriptor points the post pass sampler at the current color
// attachment. The view changes every time the attachments are rebuilt.
func (r *Renderer) writeImageDescriptor() error {
	err := r.rt.UpdateDescriptorSets(DescriptorWrite{
		Set:     r.descriptorSets[PassPost],
		Binding: 0,
		Type:    core1_0.DescriptorTypeCombinedImageSampler,
		Image: &DescriptorImageInfo{
			View:    r.colorAttachment.View,
			Sampler: r.colorAttachment.Sampler,
			Layout:  r.colorAttachment.Layout,
		},
	})
	return errors.Wrap(err, "write image descriptor")
}

func (r *Renderer) writeBufferDescriptor() error {
	region, err := r.rt.RequestBufferRegion(shaderParmsSize, core1_0.BufferUsageUniformBuffer)
	if err != nil {
		return errors.Wrap(err, "request shader parameter buffer")
	}

	parms := shaderParmsAt(region.HostData)
	if parms == nil {
		return errors.Newf("shader parameter region holds %d bytes, need %d", len(region.HostData), shaderParmsSize)
	}
	*parms = ShaderParms{}

	err = r.rt.UpdateDescriptorSets(DescriptorWrite{
		Set:     r.descriptorSets[PassMain],
		Binding: 0,
		Type:    core1_0.DescriptorTypeUniformBuffer,
		Buffer: &DescriptorBufferInfo{
			Buffer: region.Buffer,
			Offset: region.Offset,
			Range:  region.Size,
		},
	})
	if err != nil {
		return errors.Wrap(err, "write buffer descriptor")
	}

	r.parmsRegion = region
	r.parms = parms
	return nil
}
