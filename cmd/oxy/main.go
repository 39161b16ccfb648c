// Command oxy drives the frame pipeline either headless for benchmarking or in a window.
package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "oxy"
	app.Usage = "run the oxy frame pipeline"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "bench",
			Usage: "render a generated scene headless and report frame statistics",
			Description: `
Populate a grid scene, render a fixed number of frames without presenting and
print the statistics of the last frame followed by the buffer pool report.

Buffers are allocated in host memory unless --gpu is set, in which case a
headless WebGPU device backs the pool.`,
			Flags: withPipelineFlags(
				cli.IntFlag{
					Name:  "frames",
					Value: 120,
					Usage: "number of frames to render",
				},
				cli.BoolFlag{
					Name:  "gpu",
					Usage: "allocate pool buffers on a headless WebGPU device",
				},
			),
			Action: Bench,
		},
		{
			Name:  "interactive",
			Usage: "render a generated scene in a window",
			Description: `
Open a window and render continuously until it is closed.

Keys: P pauses and resumes, D toggles the debug pass, O toggles occlusion
culling, R prints the pool report and Esc quits.`,
			Flags: withPipelineFlags(
				cli.IntFlag{
					Name:  "width",
					Value: 1280,
					Usage: "window width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 720,
					Usage: "window height",
				},
				cli.BoolFlag{
					Name:  "vsync",
					Usage: "wait for vertical sync when presenting",
				},
				cli.Float64Flag{
					Name:  "fps-limit",
					Usage: "cap the render loop at this many frames per second (0 = uncapped)",
				},
			),
			Action: Interactive,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
