package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

var deviceExtensions = []string{khr_swapchain.ExtensionName}

func (c *Context) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDebug,
	}
}

func (c *Context) initInstance() error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    c.cfg.Title,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "postfx",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	sdlExtensions := c.Window.VulkanGetInstanceExtensions()
	extensions, _, err := c.globalDriver.AvailableExtensions()
	if err != nil {
		return err
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Newf("missing instance extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if c.cfg.Validation {
		layers, _, err := c.globalDriver.AvailableLayers()
		if err != nil {
			return err
		}

		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.Newf("validation layer %s not available, install the LunarG Vulkan SDK", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		instanceOptions.Next = c.debugMessengerOptions()
	}

	c.instanceDriver, _, err = c.globalDriver.CreateInstance(nil, instanceOptions)
	return err
}

func (c *Context) initDebugMessenger() error {
	if !c.cfg.Validation {
		return nil
	}

	var err error
	c.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(c.instanceDriver)
	c.debugMessenger, _, err = c.debugDriver.CreateDebugUtilsMessenger(nil, c.debugMessengerOptions())
	return err
}

func (c *Context) initSurface() error {
	c.surfaceDriver = khr_surface.CreateExtensionDriverFromCoreDriver(c.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(c.instanceDriver.Instance(), c.surfaceDriver, c.Window)
	if err != nil {
		return err
	}

	c.surface = surface
	return nil
}

func (c *Context) pickPhysicalDevice() error {
	physicalDevices, _, err := c.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}

	for _, device := range physicalDevices {
		graphics, present, err := c.findQueueFamilies(device)
		if err != nil {
			continue
		}
		if !c.checkDeviceExtensionSupport(device) {
			continue
		}

		c.physicalDevice = device
		c.graphicsQueueFamily = graphics
		c.presentQueueFamily = present
		break
	}

	if !c.physicalDevice.Initialized() {
		return errors.New("no GPU with graphics, present and swapchain support")
	}

	c.gpuProps, err = c.instanceDriver.GetPhysicalDeviceProperties(c.physicalDevice)
	if err != nil {
		return err
	}
	c.memoryProperties = c.instanceDriver.GetPhysicalDeviceMemoryProperties(c.physicalDevice)

	return nil
}

func (c *Context) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := c.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return false
	}

	for _, extension := range deviceExtensions {
		_, hasExtension := extensions[extension]
		if !hasExtension {
			return false
		}
	}

	return true
}

func (c *Context) findQueueFamilies(device core1_0.PhysicalDevice) (graphics, present int, err error) {
	queueFamilies := c.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device)

	graphicsSupport := make([]bool, len(queueFamilies))
	presentSupport := make([]bool, len(queueFamilies))
	for queueIndex, queueFamily := range queueFamilies {
		graphicsSupport[queueIndex] = (queueFamily.QueueFlags & core1_0.QueueGraphics) != 0

		supported, _, err := c.surfaceDriver.GetPhysicalDeviceSurfaceSupport(c.surface, device, queueIndex)
		if err != nil {
			return -1, -1, err
		}
		presentSupport[queueIndex] = supported
	}

	return chooseQueueFamilies(graphicsSupport, presentSupport)
}

// chooseQueueFamilies prefers a single family that supports both graphics
// and present, and falls back to the first of each.
func chooseQueueFamilies(graphicsSupport, presentSupport []bool) (graphics, present int, err error) {
	graphics = -1
	present = -1
	for queueIndex, supportsGraphics := range graphicsSupport {
		if !supportsGraphics {
			continue
		}

		if graphics < 0 {
			graphics = queueIndex
		}

		if presentSupport[queueIndex] {
			graphics = queueIndex
			present = queueIndex
			break
		}
	}

	if present < 0 {
		for queueIndex, supportsPresent := range presentSupport {
			if supportsPresent {
				present = queueIndex
				break
			}
		}
	}

	if graphics < 0 || present < 0 {
		return -1, -1, errors.New("could not find a queue for both graphics and present")
	}
	return graphics, present, nil
}

func (c *Context) initDevice() error {
	uniqueQueueFamilies := []int{c.graphicsQueueFamily}
	if c.presentQueueFamily != c.graphicsQueueFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, c.presentQueueFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := append([]string(nil), deviceExtensions...)

	// Required on portability implementations such as MoltenVK.
	extensions, _, err := c.instanceDriver.EnumerateDeviceExtensionProperties(c.physicalDevice)
	if err != nil {
		return err
	}
	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	c.deviceDriver, _, err = c.instanceDriver.CreateDevice(c.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return err
	}

	c.graphicsQueue = c.deviceDriver.GetQueue(c.graphicsQueueFamily, 0)
	c.presentQueue = c.deviceDriver.GetQueue(c.presentQueueFamily, 0)
	c.swapchainDriver = khr_swapchain.CreateExtensionDriverFromCoreDriver(c.deviceDriver)
	return nil
}

func (c *Context) initUploadPool() error {
	var err error
	c.uploadPool, _, err = c.deviceDriver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: c.graphicsQueueFamily,
	})
	return err
}
