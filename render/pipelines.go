package render

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

const postShader = "post"

func shaderPath(spvDir, name string) string {
	return filepath.Join(spvDir, name+"-frag.spv")
}

func (r *Renderer) buildPipelines(sc *scope) error {
	if r.cfg.ShaderName == "" {
		panic("render: pipelines built before a shader name was set")
	}

	infos := map[Pass]PipelineInfo{
		PassMain: {
			Type:       PipelineRaster,
			Layout:     PassMain.pipelineLayoutID(),
			RenderPass: r.rt.OffscreenRenderPass(),
			VertShader: r.rt.FullscreenTriVertShader(),
			FragShader: shaderPath(r.cfg.SpvDir, r.cfg.ShaderName),
			FrontFace:  core1_0.FrontFaceClockwise,
			Samples:    core1_0.Samples1,
		},
		PassPost: {
			Type:       PipelineRaster,
			Layout:     PassPost.pipelineLayoutID(),
			RenderPass: r.rt.SwapchainRenderPass(),
			VertShader: r.rt.FullscreenTriVertShader(),
			FragShader: shaderPath(r.cfg.SpvDir, postShader),
			FrontFace:  core1_0.FrontFaceClockwise,
			Samples:    core1_0.Samples1,
		},
	}

	for _, pass := range passes {
		pipeline, err := r.rt.CreatePipeline(infos[pass])
		if err != nil {
			return errors.Wrapf(err, "create %s pipeline", pass)
		}
		r.pipelines[pass] = pipeline

		pass := pass
		sc.add(func() { r.destroyPipeline(pass) })
	}

	return nil
}

func (r *Renderer) destroyPipelines() {
	for _, pass := range passes {
		r.destroyPipeline(pass)
	}
}

func (r *Renderer) destroyPipeline(pass Pass) {
	pipeline, ok := r.pipelines[pass]
	if !ok {
		return
	}
	r.rt.DestroyPipeline(pipeline)
	delete(r.pipelines, pass)
}
