package main

import (
	"context"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame_pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/window"
	"github.com/urfave/cli"
)

// Interactive renders a generated scene in a window until it is closed.
func Interactive(ctx *cli.Context) error {
	setupLogging(ctx)

	width, height := ctx.Int("width"), ctx.Int("height")
	w, err := window.NewWindow(
		window.WithTitle("oxy"),
		window.WithSize(width, height),
		window.WithSizeLimits(320, 240, 7680, 4320),
	)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	presentMode := renderer.PresentModeUncapped
	if ctx.Bool("vsync") {
		presentMode = renderer.PresentModeVSync
	}
	s := buildScene(ctx, float32(width)/float32(height))
	r, err := renderer.NewRenderer(
		renderer.WithSurface(w.SurfaceDescriptor(), width, height),
		renderer.WithPresentMode(presentMode),
		renderer.WithClearColor(s.Environment().ClearColor),
	)
	if err != nil {
		return err
	}
	defer r.Release()

	p := frame_pipeline.NewFramePipeline(
		frame_pipeline.WithConfig(pipelineConfig(ctx)),
		frame_pipeline.WithBackend(r.PoolBackend()),
		frame_pipeline.WithPresenter(r),
	)
	e := engine.NewEngine(
		engine.WithPipeline(p),
		engine.WithScene(s),
		engine.WithWindow(w),
		engine.WithResizer(r),
		engine.WithRenderFrameLimit(ctx.Float64("fps-limit")),
	)

	occlusion := ctx.Bool("occlusion")
	w.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyP:
			e.TogglePause()
		case common.KeyD:
			enabled := !p.Graph().Enabled(frame_pipeline.PassDebug)
			if err := p.Graph().SetEnabled(frame_pipeline.PassDebug, enabled); err != nil {
				logger.Warning(err)
				return
			}
			logger.Noticef("debug pass enabled: %t", enabled)
		case common.KeyO:
			occlusion = !occlusion
			p.Filter().SetOcclusionEnabled(occlusion)
			logger.Noticef("occlusion culling enabled: %t", occlusion)
		case common.KeyR:
			logger.Noticef("buffer pool\n%s", p.Pool().StatisticsReport())
		}
	})

	logger.Notice("P pause, D debug pass, O occlusion culling, R pool report, Esc quit")
	if err := e.Run(context.Background()); err != nil {
		return err
	}
	logger.Noticef("rendered %d frames, %d dropped", e.Frames(), e.FrameErrors())
	return nil
}
