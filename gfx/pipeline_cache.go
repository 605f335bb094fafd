package gfx

import (
	"bytes"
	"encoding/binary"
	"log"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const pipelineCacheHeaderVersionOne = 1

type pipelineCacheHeader struct {
	HeaderLength  uint32
	HeaderVersion uint32
	VendorID      uint32
	DeviceID      uint32
	CacheUUID     uuid.UUID
}

// checkPipelineCacheHeader reports every way the cache header in data
// disagrees with the device that would consume it.
func checkPipelineCacheHeader(data []byte, vendorID, deviceID uint32, cacheUUID uuid.UUID) error {
	var header pipelineCacheHeader
	err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header)
	if err != nil {
		return errors.Wrap(err, "read pipeline cache header")
	}

	var bad error
	if header.HeaderLength == 0 {
		bad = errors.CombineErrors(bad, errors.Newf("bad header length 0x%x", header.HeaderLength))
	}
	if header.HeaderVersion != pipelineCacheHeaderVersionOne {
		bad = errors.CombineErrors(bad, errors.Newf("unsupported header version 0x%x", header.HeaderVersion))
	}
	if header.VendorID != vendorID {
		bad = errors.CombineErrors(bad, errors.Newf("vendor ID 0x%x, driver expects 0x%x", header.VendorID, vendorID))
	}
	if header.DeviceID != deviceID {
		bad = errors.CombineErrors(bad, errors.Newf("device ID 0x%x, driver expects 0x%x", header.DeviceID, deviceID))
	}
	if header.CacheUUID != cacheUUID {
		bad = errors.CombineErrors(bad, errors.Newf("UUID %s, driver expects %s", header.CacheUUID, cacheUUID))
	}
	return bad
}

func (c *Context) initPipelineCache() error {
	fileName := c.cfg.PipelineCache

	var pipelineData []byte
	if fileName != "" {
		var err error
		pipelineData, err = os.ReadFile(fileName)
		if os.IsNotExist(err) {
			log.Printf("gfx: pipeline cache miss at %s", fileName)
		} else if err != nil {
			return err
		}
	}

	if pipelineData != nil {
		err := checkPipelineCacheHeader(pipelineData, uint32(c.gpuProps.VendorID), uint32(c.gpuProps.DeviceID), c.gpuProps.PipelineCacheUUID)
		if err != nil {
			log.Printf("gfx: discarding pipeline cache %s: %v", fileName, err)
			pipelineData = nil
			_ = os.Remove(fileName)
		}
	}

	var err error
	c.pipelineCache, _, err = c.deviceDriver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: pipelineData,
	})
	return err
}

// destroyPipelineCache stores the cache contents before destroying it so the
// next run starts warm.
func (c *Context) destroyPipelineCache() {
	if !c.pipelineCache.Initialized() {
		return
	}

	if c.cfg.PipelineCache != "" {
		data, _, err := c.deviceDriver.GetPipelineCacheData(c.pipelineCache)
		if err != nil {
			log.Printf("gfx: read pipeline cache: %v", err)
		} else if err = os.WriteFile(c.cfg.PipelineCache, data, 0666); err != nil {
			log.Printf("gfx: write pipeline cache: %v", err)
		}
	}

	c.deviceDriver.DestroyPipelineCache(c.pipelineCache, nil)
	c.pipelineCache = core1_0.PipelineCache{}
}
