package gfx

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/postfx/render"
)

// DeclareDescriptorSets creates a layout for every declaration and allocates
// one set of each from a pool sized for exactly these declarations.
func (c *Context) DeclareDescriptorSets(sets ...render.DescriptorSetDecl) error {
	if len(sets) == 0 {
		return nil
	}

	var allocLayouts []core1_0.DescriptorSetLayout
	for _, decl := range sets {
		if _, exists := c.setLayouts[decl.ID]; exists {
			return errors.Newf("descriptor set %d declared twice", decl.ID)
		}

		var bindings []core1_0.DescriptorSetLayoutBinding
		for i, binding := range decl.Bindings {
			bindings = append(bindings, core1_0.DescriptorSetLayoutBinding{
				Binding:         i,
				DescriptorType:  binding.Type,
				DescriptorCount: bindingCount(binding),
				StageFlags:      binding.Stages,
			})
		}

		layout, _, err := c.deviceDriver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
			Bindings: bindings,
		})
		if err != nil {
			return errors.Wrapf(err, "descriptor set layout %d", decl.ID)
		}
		c.setLayouts[decl.ID] = layout
		allocLayouts = append(allocLayouts, layout)
	}

	pool, _, err := c.deviceDriver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets:   len(sets),
		PoolSizes: descriptorPoolSizes(sets),
	})
	if err != nil {
		return errors.Wrap(err, "descriptor pool")
	}
	c.descriptorPools = append(c.descriptorPools, pool)

	descriptorSets, _, err := c.deviceDriver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: pool,
		SetLayouts:     allocLayouts,
	})
	if err != nil {
		return errors.Wrap(err, "allocate descriptor sets")
	}

	for i, decl := range sets {
		c.setIDs[decl.ID] = c.descriptorSets.add(descriptorSets[i])
	}
	return nil
}

func bindingCount(binding render.DescriptorBinding) int {
	if binding.Count <= 0 {
		return 1
	}
	return binding.Count
}

// descriptorPoolSizes totals the descriptors of every type across the
// declarations, ordered by type.
func descriptorPoolSizes(sets []render.DescriptorSetDecl) []core1_0.DescriptorPoolSize {
	counts := make(map[core1_0.DescriptorType]int)
	for _, decl := range sets {
		for _, binding := range decl.Bindings {
			counts[binding.Type] += bindingCount(binding)
		}
	}

	sizes := make([]core1_0.DescriptorPoolSize, 0, len(counts))
	for descriptorType, count := range counts {
		sizes = append(sizes, core1_0.DescriptorPoolSize{
			Type:            descriptorType,
			DescriptorCount: count,
		})
	}
	sort.Slice(sizes, func(i, j int) bool {
		return sizes[i].Type < sizes[j].Type
	})
	return sizes
}

func (c *Context) DeclarePipelineLayouts(layouts ...render.PipelineLayoutDecl) error {
	for _, decl := range layouts {
		if _, exists := c.layoutIDs[decl.ID]; exists {
			return errors.Newf("pipeline layout %d declared twice", decl.ID)
		}

		var setLayouts []core1_0.DescriptorSetLayout
		for _, setID := range decl.DescriptorSets {
			setLayout, ok := c.setLayouts[setID]
			if !ok {
				return errors.Newf("pipeline layout %d uses undeclared descriptor set %d", decl.ID, setID)
			}
			setLayouts = append(setLayouts, setLayout)
		}

		var pushConstantRanges []core1_0.PushConstantRange
		for _, pushConstants := range decl.PushConstants {
			pushConstantRanges = append(pushConstantRanges, core1_0.PushConstantRange{
				Stages: pushConstants.Stages,
				Offset: pushConstants.Offset,
				Size:   pushConstants.Size,
			})
		}

		layout, _, err := c.deviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
			SetLayouts:         setLayouts,
			PushConstantRanges: pushConstantRanges,
		})
		if err != nil {
			return errors.Wrapf(err, "pipeline layout %d", decl.ID)
		}
		c.layoutIDs[decl.ID] = c.pipelineLayouts.add(layout)
	}
	return nil
}

func (c *Context) DescriptorSet(id render.DescriptorSetID) render.DescriptorSet {
	return render.DescriptorSet(c.setIDs[id])
}

func (c *Context) PipelineLayout(id render.PipelineLayoutID) render.PipelineLayout {
	return render.PipelineLayout(c.layoutIDs[id])
}

func (c *Context) UpdateDescriptorSets(writes ...render.DescriptorWrite) error {
	var vkWrites []core1_0.WriteDescriptorSet
	for _, write := range writes {
		vkWrite := core1_0.WriteDescriptorSet{
			DstSet:          c.descriptorSets.mustGet(uint64(write.Set)),
			DstBinding:      write.Binding,
			DstArrayElement: 0,
			DescriptorType:  write.Type,
		}

		switch {
		case write.Image != nil:
			imageInfo := core1_0.DescriptorImageInfo{
				ImageView:   c.views.mustGet(uint64(write.Image.View)),
				ImageLayout: write.Image.Layout,
			}
			if write.Image.Sampler != 0 {
				imageInfo.Sampler = c.samplers.mustGet(uint64(write.Image.Sampler))
			}
			vkWrite.ImageInfo = []core1_0.DescriptorImageInfo{imageInfo}
		case write.Buffer != nil:
			vkWrite.BufferInfo = []core1_0.DescriptorBufferInfo{
				{
					Buffer: c.buffers.mustGet(uint64(write.Buffer.Buffer)),
					Offset: write.Buffer.Offset,
					Range:  write.Buffer.Range,
				},
			}
		default:
			return errors.Newf("descriptor write to set %d binding %d has no image or buffer", write.Set, write.Binding)
		}

		vkWrites = append(vkWrites, vkWrite)
	}

	return c.deviceDriver.UpdateDescriptorSets(vkWrites, nil)
}

func (c *Context) destroyDescriptors() {
	c.pipelineLayouts.drain(func(layout core1_0.PipelineLayout) {
		c.deviceDriver.DestroyPipelineLayout(layout, nil)
	})
	for id := range c.layoutIDs {
		delete(c.layoutIDs, id)
	}

	// Sets go back with their pools.
	c.descriptorSets.drain(func(core1_0.DescriptorSet) {})
	for id := range c.setIDs {
		delete(c.setIDs, id)
	}
	for _, pool := range c.descriptorPools {
		c.deviceDriver.DestroyDescriptorPool(pool, nil)
	}
	c.descriptorPools = nil

	for id, layout := range c.setLayouts {
		c.deviceDriver.DestroyDescriptorSetLayout(layout, nil)
		delete(c.setLayouts, id)
	}
}
