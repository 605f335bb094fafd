package gfx

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/postfx/render"
)

const uniformBlockSize = 64 * 1024

func memoryTypeFromProperties(props *core1_0.PhysicalDeviceMemoryProperties, typeBits uint32, requirements core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range props.MemoryTypes {
		if (typeBits&(1<<i)) != 0 && (memoryType.PropertyFlags&requirements) == requirements {
			return i, nil
		}
	}

	return 0, errors.Newf("no memory type matches bits %#x with properties %s", typeBits, requirements)
}

func alignUp(value, alignment int) int {
	if alignment <= 1 {
		return value
	}
	return (value + alignment - 1) / alignment * alignment
}

// uniformBlock is a persistently mapped host-visible buffer that regions are
// carved out of. Regions are never returned; the block lives until the
// context is destroyed.
type uniformBlock struct {
	buffer   core1_0.Buffer
	memory   core1_0.DeviceMemory
	bufferID uint64
	usage    core1_0.BufferUsageFlags

	mapped []byte
	used   int
}

func (b *uniformBlock) alloc(size, alignment int) (int, bool) {
	offset := alignUp(b.used, alignment)
	if offset+size > len(b.mapped) {
		return 0, false
	}
	b.used = offset + size
	return offset, true
}

func (c *Context) RequestBufferRegion(size int, usage core1_0.BufferUsageFlags) (render.BufferRegion, error) {
	if size <= 0 {
		return render.BufferRegion{}, errors.Newf("invalid buffer region size %d", size)
	}
	alignment := c.gpuProps.Limits.MinUniformBufferOffsetAlignment

	for _, block := range c.uniforms {
		if block.usage != usage {
			continue
		}
		offset, ok := block.alloc(size, alignment)
		if ok {
			return block.region(offset, size), nil
		}
	}

	blockSize := uniformBlockSize
	if size > blockSize {
		blockSize = alignUp(size, alignment)
	}
	block, err := c.createUniformBlock(blockSize, usage)
	if err != nil {
		return render.BufferRegion{}, err
	}
	c.uniforms = append(c.uniforms, block)

	offset, _ := block.alloc(size, alignment)
	return block.region(offset, size), nil
}

func (b *uniformBlock) region(offset, size int) render.BufferRegion {
	return render.BufferRegion{
		HostData: b.mapped[offset : offset+size : offset+size],
		Buffer:   render.Buffer(b.bufferID),
		Offset:   offset,
		Size:     size,
	}
}

func (c *Context) createUniformBlock(size int, usage core1_0.BufferUsageFlags) (*uniformBlock, error) {
	block := &uniformBlock{usage: usage}

	var err error
	block.buffer, _, err = c.deviceDriver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create uniform buffer")
	}

	memReqs := c.deviceDriver.GetBufferMemoryRequirements(block.buffer)
	memoryIndex, err := memoryTypeFromProperties(c.memoryProperties, memReqs.MemoryTypeBits, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		c.destroyUniformBlock(block)
		return nil, err
	}

	block.memory, _, err = c.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		c.destroyUniformBlock(block)
		return nil, errors.Wrap(err, "allocate uniform memory")
	}

	_, err = c.deviceDriver.BindBufferMemory(block.buffer, block.memory, 0)
	if err != nil {
		c.destroyUniformBlock(block)
		return nil, errors.Wrap(err, "bind uniform memory")
	}

	data, _, err := c.deviceDriver.MapMemory(block.memory, 0, size, 0)
	if err != nil {
		c.destroyUniformBlock(block)
		return nil, errors.Wrap(err, "map uniform memory")
	}
	block.mapped = unsafe.Slice((*byte)(data), size)
	block.bufferID = c.buffers.add(block.buffer)

	return block, nil
}

func (c *Context) destroyUniformBlock(block *uniformBlock) {
	if block.mapped != nil {
		c.deviceDriver.UnmapMemory(block.memory)
		block.mapped = nil
	}
	c.buffers.remove(block.bufferID)
	if block.buffer.Initialized() {
		c.deviceDriver.DestroyBuffer(block.buffer, nil)
	}
	if block.memory.Initialized() {
		c.deviceDriver.FreeMemory(block.memory, nil)
	}
}

func (c *Context) destroyUniformBlocks() {
	for _, block := range c.uniforms {
		c.destroyUniformBlock(block)
	}
	c.uniforms = nil
}
