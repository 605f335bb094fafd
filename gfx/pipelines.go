package gfx

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/postfx/render"
)

func (c *Context) createShaderModule(path string) (core1_0.ShaderModule, error) {
	code, err := c.shaders.Load(path)
	if err != nil {
		return core1_0.ShaderModule{}, err
	}

	module, _, err := c.deviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	return module, err
}

// CreatePipeline builds a graphics pipeline with no vertex input: geometry
// comes from gl_VertexIndex. Depth testing is on only for pipelines that
// target the offscreen pass, the only one with a depth attachment.
func (c *Context) CreatePipeline(info render.PipelineInfo) (render.Pipeline, error) {
	if info.Type != render.PipelineRaster {
		return 0, errors.Newf("unsupported pipeline type %d", info.Type)
	}

	layoutID, ok := c.layoutIDs[info.Layout]
	if !ok {
		return 0, errors.Newf("pipeline layout %d not declared", info.Layout)
	}
	layout := c.pipelineLayouts.mustGet(layoutID)
	renderPass := c.renderPasses.mustGet(uint64(info.RenderPass))

	vertShader, err := c.createShaderModule(info.VertShader)
	if err != nil {
		return 0, err
	}
	defer c.deviceDriver.DestroyShaderModule(vertShader, nil)

	fragShader, err := c.createShaderModule(info.FragShader)
	if err != nil {
		return 0, err
	}
	defer c.deviceDriver.DestroyShaderModule(fragShader, nil)

	samples := info.Samples
	if samples == 0 {
		samples = core1_0.Samples1
	}

	depthTest := uint64(info.RenderPass) == c.offscreenPass

	pipelines, _, err := c.deviceDriver.CreateGraphicsPipelines(&c.pipelineCache, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vertShader,
					Name:   "main",
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fragShader,
					Name:   "main",
				},
			},
			VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{},
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology:               core1_0.PrimitiveTopologyTriangleList,
				PrimitiveRestartEnable: false,
			},
			ViewportState: &core1_0.PipelineViewportStateCreateInfo{
				Viewports: []core1_0.Viewport{
					{
						X:        0,
						Y:        0,
						Width:    float32(c.extent.Width),
						Height:   float32(c.extent.Height),
						MinDepth: 0,
						MaxDepth: 1,
					},
				},
				Scissors: []core1_0.Rect2D{
					{
						Offset: core1_0.Offset2D{X: 0, Y: 0},
						Extent: c.extent,
					},
				},
			},
			RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
				DepthClampEnable:        false,
				RasterizerDiscardEnable: false,

				PolygonMode: core1_0.PolygonModeFill,
				CullMode:    core1_0.CullModeBack,
				FrontFace:   info.FrontFace,

				DepthBiasEnable: false,

				LineWidth: 1.0,
			},
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				SampleShadingEnable:  false,
				RasterizationSamples: samples,
				MinSampleShading:     1.0,
			},
			DepthStencilState: &core1_0.PipelineDepthStencilStateCreateInfo{
				DepthTestEnable:  depthTest,
				DepthWriteEnable: depthTest,
				DepthCompareOp:   core1_0.CompareOpLessOrEqual,
			},
			ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
				LogicOpEnabled: false,
				LogicOp:        core1_0.LogicOpCopy,

				BlendConstants: [4]float32{0, 0, 0, 0},
				Attachments: []core1_0.PipelineColorBlendAttachmentState{
					{
						BlendEnabled:   false,
						ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
					},
				},
			},
			Layout:            layout,
			RenderPass:        renderPass,
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	)
	if err != nil {
		return 0, err
	}

	return render.Pipeline(c.pipelines.add(pipelines[0])), nil
}

func (c *Context) DestroyPipeline(pipeline render.Pipeline) {
	vkPipeline, ok := c.pipelines.remove(uint64(pipeline))
	if ok {
		c.deviceDriver.DestroyPipeline(vkPipeline, nil)
	}
}
