package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/postfx/gfx"
	"github.com/vkngwrapper/postfx/render"
)

var errHelp = errors.New("help requested")

type options struct {
	shader        string
	spvDir        string
	width, height int
	validation    bool
	saveImages    bool
	pipelineCache string
}

func defaultOptions() options {
	return options{
		shader: "gradient",
		spvDir: render.DefaultSpvDir,
		width:  1280,
		height: 720,
	}
}

// parseOptions accepts both "--name value" and "--name=value".
func parseOptions(args []string) (options, error) {
	opts := defaultOptions()

	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(args[i], "=")

		nextValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			if i+1 >= len(args) {
				return "", errors.Newf("option %s needs a value", name)
			}
			i++
			return args[i], nil
		}
		nextInt := func() (int, error) {
			s, err := nextValue()
			if err != nil {
				return 0, err
			}
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return 0, errors.Newf("option %s needs a positive number, got %q", name, s)
			}
			return n, nil
		}

		var err error
		switch name {
		case "--shader":
			opts.shader, err = nextValue()
		case "--spv":
			opts.spvDir, err = nextValue()
		case "--width":
			opts.width, err = nextInt()
		case "--height":
			opts.height, err = nextInt()
		case "--validation":
			opts.validation = true
		case "--save-images":
			opts.saveImages = true
		case "--pipeline-cache":
			// The file is optional, so a following option is not taken as one.
			switch {
			case hasValue:
				opts.pipelineCache = value
			case i+1 < len(args) && !strings.HasPrefix(args[i+1], "-"):
				i++
				opts.pipelineCache = args[i]
			default:
				opts.pipelineCache = gfx.DefaultPipelineCacheFile
			}
			if opts.pipelineCache == "" {
				err = errors.New("--pipeline-cache file must not be empty")
			}
		case "--help", "-h":
			return opts, errHelp
		default:
			return opts, errors.Newf("unrecognized option: %s", args[i])
		}
		if err != nil {
			return opts, err
		}
	}

	if opts.shader == "" {
		return opts, errors.New("--shader must not be empty")
	}
	return opts, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "\nOptions")
	fmt.Fprintln(w, "\t--shader NAME")
	fmt.Fprintf(w, "\t\tMain pass fragment shader, loaded from <spv>/NAME-frag.spv (default %s)\n", defaultOptions().shader)
	fmt.Fprintln(w, "\t--spv DIR")
	fmt.Fprintf(w, "\t\tDirectory of compiled shaders (default %s)\n", render.DefaultSpvDir)
	fmt.Fprintln(w, "\t--width N, --height N")
	fmt.Fprintln(w, "\t\tInitial window size")
	fmt.Fprintln(w, "\t--validation")
	fmt.Fprintln(w, "\t\tEnable the Khronos validation layer")
	fmt.Fprintln(w, "\t--save-images")
	fmt.Fprintln(w, "\t\tSave the first frame, and every frame F12 is pressed on, as png files in current working directory")
	fmt.Fprintln(w, "\t--pipeline-cache [FILE]")
	fmt.Fprintf(w, "\t\tLoad and store pipeline cache data (default file %s)\n", gfx.DefaultPipelineCacheFile)
}
