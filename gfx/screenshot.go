package gfx

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// WritePNG asks DrawFrame to write the next frame it renders to
// baseName.png. The copy is taken after the frame's commands finish and
// before the image is handed to the presentation engine. The context must
// have been created with SaveImages.
func (c *Context) WritePNG(baseName string) error {
	if !c.cfg.SaveImages {
		return errors.New("swapchain images are not readable without SaveImages")
	}
	if baseName == "" {
		return errors.New("png base name must not be empty")
	}

	c.presenter.capture = baseName
	return nil
}

// captureImage copies a rendered swapchain image that has not been presented
// yet into a linear host-visible image and writes it out. rendered is
// waited on before the copy and signaled again once it is done, so the
// present that follows still waits for it.
func (c *Context) captureImage(src core1_0.Image, rendered core1_0.Semaphore, baseName string) error {
	width, height := c.extent.Width, c.extent.Height
	mappableImage, _, err := c.deviceDriver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Format:    c.swapchainFormat,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       core1_0.Samples1,
		Tiling:        core1_0.ImageTilingLinear,
		Usage:         core1_0.ImageUsageTransferDst,
		SharingMode:   core1_0.SharingModeExclusive,
		InitialLayout: core1_0.ImageLayoutUndefined,
	})
	if err != nil {
		return err
	}
	defer c.deviceDriver.DestroyImage(mappableImage, nil)

	memReqs := c.deviceDriver.GetImageMemoryRequirements(mappableImage)
	memoryTypeIndex, err := memoryTypeFromProperties(c.memoryProperties, memReqs.MemoryTypeBits, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return err
	}

	mappableMemory, _, err := c.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return err
	}
	defer c.deviceDriver.FreeMemory(mappableMemory, nil)

	_, err = c.deviceDriver.BindImageMemory(mappableImage, mappableMemory, 0)
	if err != nil {
		return err
	}

	err = c.copySwapchainImage(src, mappableImage, rendered)
	if err != nil {
		return err
	}

	subresourceLayout := c.deviceDriver.GetImageSubresourceLayout(mappableImage, &core1_0.ImageSubresource{
		AspectMask: core1_0.ImageAspectColor,
		MipLevel:   0,
		ArrayLayer: 0,
	})

	memPtr, _, err := c.deviceDriver.MapMemory(mappableMemory, 0, memReqs.Size, 0)
	if err != nil {
		return err
	}
	outImg, err := decodePixels(unsafe.Slice((*byte)(memPtr), memReqs.Size), c.swapchainFormat, width, height, subresourceLayout.Offset, subresourceLayout.RowPitch)
	c.deviceDriver.UnmapMemory(mappableMemory)
	if err != nil {
		return err
	}

	writeFile, err := os.Create(fmt.Sprintf("%s.png", baseName))
	if err != nil {
		return err
	}
	defer writeFile.Close()

	return png.Encode(writeFile, outImg)
}

func (c *Context) copySwapchainImage(src, dst core1_0.Image, rendered core1_0.Semaphore) error {
	cmd, err := c.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	err = c.recordSwapchainCopy(cmd, src, dst)
	if err != nil {
		c.deviceDriver.FreeCommandBuffers(cmd)
		return err
	}

	return c.endSingleTimeCommands(cmd, rendered)
}

func (c *Context) recordSwapchainCopy(cmd core1_0.CommandBuffer, src, dst core1_0.Image) error {
	err := c.cmdSetImageLayout(cmd, dst, core1_0.ImageAspectColor, core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal)
	if err != nil {
		return err
	}

	err = c.cmdSetImageLayout(cmd, src, core1_0.ImageAspectColor, khr_swapchain.ImageLayoutPresentSrc, core1_0.ImageLayoutTransferSrcOptimal)
	if err != nil {
		return err
	}

	layers := core1_0.ImageSubresourceLayers{
		AspectMask:     core1_0.ImageAspectColor,
		MipLevel:       0,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
	err = c.deviceDriver.CmdCopyImage(cmd,
		src,
		core1_0.ImageLayoutTransferSrcOptimal,
		dst,
		core1_0.ImageLayoutTransferDstOptimal,
		[]core1_0.ImageCopy{
			{
				SrcSubresource: layers,
				DstSubresource: layers,
				SrcOffset:      core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				DstOffset:      core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				Extent:         core1_0.Extent3D{Width: c.extent.Width, Height: c.extent.Height, Depth: 1},
			},
		})
	if err != nil {
		return err
	}

	// The swapchain image goes back to present for the pending present.
	return c.cmdSetImageLayout(cmd, src, core1_0.ImageAspectColor, core1_0.ImageLayoutTransferSrcOptimal, khr_swapchain.ImageLayoutPresentSrc)
}

func decodePixels(data []byte, format core1_0.Format, width, height, offset, rowPitch int) (*image.RGBA, error) {
	var bgra bool
	switch format {
	case core1_0.FormatB8G8R8A8UnsignedNormalized, core1_0.FormatB8G8R8A8SRGB:
		bgra = true
	case core1_0.FormatR8G8B8A8UnsignedNormalized, core1_0.FormatR8G8B8A8SRGB:
	default:
		return nil, errors.Newf("unrecognized image format %s - will not write image files", format)
	}

	if height > 0 && offset+(height-1)*rowPitch+width*4 > len(data) {
		return nil, errors.Newf("%d bytes is too small for a %dx%d image with row pitch %d", len(data), width, height, rowPitch)
	}

	outImg := image.NewRGBA(image.Rectangle{
		Min: image.Point{X: 0, Y: 0},
		Max: image.Point{X: width, Y: height},
	})

	bufferIndex := offset
	for y := 0; y < height; y++ {
		rowIndex := bufferIndex
		for x := 0; x < width; x++ {
			pixel := color.RGBA{
				R: data[rowIndex],
				G: data[rowIndex+1],
				B: data[rowIndex+2],
				A: data[rowIndex+3],
			}
			if bgra {
				pixel.R, pixel.B = pixel.B, pixel.R
			}
			outImg.Set(x, y, pixel)
			rowIndex += 4
		}
		bufferIndex += rowPitch
	}

	return outImg, nil
}
