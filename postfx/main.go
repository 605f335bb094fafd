// Command postfx renders a full-screen fragment shader into an offscreen
// target and runs it through a post-processing pass onto the window.
package main

//go:generate glslc ../shaders/fullscreen-tri.vert -o ../shaders/spv/fullscreen-tri-vert.spv
//go:generate glslc ../shaders/post.frag -o ../shaders/spv/post-frag.spv
//go:generate glslc ../shaders/gradient.frag -o ../shaders/spv/gradient-frag.spv

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/postfx/gfx"
	"github.com/vkngwrapper/postfx/render"
)

const fpsInterval = 5 * time.Second

type PostFXApplication struct {
	opts options

	ctx      *gfx.Context
	renderer *render.Renderer

	start      time.Duration
	frame      uint32
	mouse      mgl32.Vec2
	savedFirst bool
	saveNext   bool
}

func (app *PostFXApplication) Run() error {
	err := app.initVulkan()
	if err != nil {
		return err
	}
	defer app.cleanup()

	return app.mainLoop()
}

func (app *PostFXApplication) initVulkan() error {
	var err error
	app.ctx, err = gfx.NewContext(gfx.Config{
		Title:         fmt.Sprintf("postfx - %s", app.opts.shader),
		Width:         app.opts.width,
		Height:        app.opts.height,
		SpvDir:        app.opts.spvDir,
		Validation:    app.opts.validation,
		SaveImages:    app.opts.saveImages,
		PipelineCache: app.opts.pipelineCache,
	})
	if err != nil {
		return err
	}

	app.renderer = render.New(app.ctx, render.Config{
		ShaderName: app.opts.shader,
		SpvDir:     app.opts.spvDir,
	})

	start := hrtime.Now()
	err = app.renderer.InitRenderer()
	if err != nil {
		app.renderer = nil
		app.cleanup()
		return err
	}
	log.Printf("postfx: renderer ready in %s", hrtime.Since(start))

	for i := 0; i < app.renderer.FrameCount(); i++ {
		err = app.renderer.RecordFrame(i)
		if err != nil {
			app.cleanup()
			return errors.Wrapf(err, "record frame %d", i)
		}
	}

	app.start = hrtime.Now()
	return nil
}

func (app *PostFXApplication) mainLoop() error {
	rendering := true
	lastReport := hrtime.Now()
	var framesSinceReport int

appLoop:
	for true {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				break appLoop
			case *sdl.MouseMotionEvent:
				app.mouse = mgl32.Vec2{float32(e.X), float32(e.Y)}
			case *sdl.KeyboardEvent:
				if e.Keysym.Sym == sdl.K_F12 && e.State == sdl.PRESSED {
					app.saveNext = true
				}
			case *sdl.WindowEvent:
				switch e.Event {
				case sdl.WINDOWEVENT_MINIMIZED:
					rendering = false
				case sdl.WINDOWEVENT_RESTORED:
					rendering = true
				case sdl.WINDOWEVENT_RESIZED:
					w, h := app.ctx.Window.GetSize()
					if w > 0 && h > 0 {
						rendering = true
						err := app.recreateSwapchain()
						if err != nil {
							return err
						}
					} else {
						rendering = false
					}
				}
			}
		}
		if !rendering {
			continue
		}

		err := app.drawFrame()
		if err != nil {
			return err
		}

		framesSinceReport++
		if elapsed := hrtime.Since(lastReport); elapsed >= fpsInterval {
			log.Printf("postfx: %.1f fps", float64(framesSinceReport)/elapsed.Seconds())
			lastReport = hrtime.Now()
			framesSinceReport = 0
		}
	}

	return app.ctx.DeviceWaitIdle()
}

func (app *PostFXApplication) drawFrame() error {
	app.updateShaderParms()

	err := app.requestCapture()
	if err != nil {
		return err
	}

	err = app.ctx.DrawFrame()
	if errors.Is(err, gfx.ErrSwapchainOutOfDate) {
		return app.recreateSwapchain()
	} else if err != nil {
		return err
	}
	app.frame++
	return nil
}

func (app *PostFXApplication) updateShaderParms() {
	parms := app.renderer.GetShaderParms()
	if parms == nil {
		return
	}

	extent := app.ctx.Extent()
	parms.Resolution = mgl32.Vec2{float32(extent.Width), float32(extent.Height)}
	parms.Mouse = app.mouse
	parms.Time = float32((hrtime.Now() - app.start).Seconds())
	parms.Frame = app.frame
	parms.Tint = mgl32.Vec4{1, 1, 1, 1}
}

// requestCapture marks the frame about to be drawn for saving: the first
// frame, then the next one after each F12 press.
func (app *PostFXApplication) requestCapture() error {
	if !app.opts.saveImages {
		return nil
	}

	var baseName string
	switch {
	case !app.savedFirst:
		app.savedFirst = true
		baseName = fmt.Sprintf("postfx-%s", app.opts.shader)
	case app.saveNext:
		app.saveNext = false
		baseName = fmt.Sprintf("postfx-%s-%06d", app.opts.shader, app.frame)
	default:
		return nil
	}

	err := app.ctx.WritePNG(baseName)
	if err != nil {
		return errors.Wrapf(err, "save %s", baseName)
	}
	log.Printf("postfx: saving frame %d to %s.png", app.frame, baseName)
	return nil
}

func (app *PostFXApplication) recreateSwapchain() error {
	w, h := app.ctx.Window.VulkanGetDrawableSize()
	if w == 0 || h == 0 {
		return nil
	}
	if (app.ctx.Window.GetFlags() & sdl.WINDOW_MINIMIZED) != 0 {
		return nil
	}

	return app.renderer.RecreateSwapchain()
}

func (app *PostFXApplication) cleanup() {
	if app.renderer != nil {
		err := app.ctx.DeviceWaitIdle()
		if err != nil {
			log.Printf("postfx: wait idle: %v", err)
		}
		app.renderer.Cleanup()
		app.renderer = nil
	}

	if app.ctx != nil {
		app.ctx.Destroy()
		app.ctx = nil
	}
}

func main() {
	runtime.LockOSThread()

	opts, err := parseOptions(os.Args[1:])
	if errors.Is(err, errHelp) {
		printUsage(os.Stdout)
		os.Exit(0)
	} else if err != nil {
		fmt.Printf("\n%v\n", err)
		fmt.Println("\nUse --help or -h for option list.")
		os.Exit(2)
	}

	app := &PostFXApplication{opts: opts}

	err = app.Run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
