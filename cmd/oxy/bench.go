package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame_pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// benchSummary accumulates per-frame statistics over a run.
type benchSummary struct {
	frames int
	total  time.Duration
	min    time.Duration
	max    time.Duration
	last   frame.Statistics
	report string
}

func (b *benchSummary) add(stats frame.Statistics) {
	b.frames++
	b.last = stats
	b.total += stats.FrameTime
	if b.min == 0 || stats.FrameTime < b.min {
		b.min = stats.FrameTime
	}
	if stats.FrameTime > b.max {
		b.max = stats.FrameTime
	}
}

// Bench renders a generated scene headless and prints the collected statistics.
func Bench(ctx *cli.Context) error {
	setupLogging(ctx)

	frames := ctx.Int("frames")
	if frames <= 0 {
		return fmt.Errorf("--frames must be positive, got %d", frames)
	}

	var options []frame_pipeline.FramePipelineBuilderOption
	options = append(options, frame_pipeline.WithConfig(pipelineConfig(ctx)))
	if ctx.Bool("gpu") {
		r, err := renderer.NewRenderer()
		if err != nil {
			return err
		}
		defer r.Release()
		options = append(options, frame_pipeline.WithBackend(r.PoolBackend()))
		logger.Notice("allocating pool buffers on a headless WebGPU device")
	}
	p := frame_pipeline.NewFramePipeline(options...)

	summary := &benchSummary{}
	e := engine.NewEngine(
		engine.WithPipeline(p),
		engine.WithScene(buildScene(ctx, 16.0/9.0)),
		engine.WithMaxFrames(uint64(frames)),
		engine.WithFrameCallback(func(stats frame.Statistics) {
			summary.add(stats)
			if summary.frames == frames {
				summary.report = p.Pool().StatisticsReport()
			}
		}),
	)

	start := time.Now()
	if err := e.Run(context.Background()); err != nil {
		return err
	}
	elapsed := time.Since(start)

	logger.Noticef("last frame\n%s", summary.last.Table())
	logger.Noticef("buffer pool\n%s", summary.report)
	displayBenchSummary(summary, e.FrameErrors(), elapsed)
	return nil
}

func displayBenchSummary(b *benchSummary, errors uint64, elapsed time.Duration) {
	var avg time.Duration
	if b.frames > 0 {
		avg = b.total / time.Duration(b.frames)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frames", "Errors", "Min", "Avg", "Max", "Wall time"})
	table.Append([]string{
		fmt.Sprintf("%d", b.frames),
		fmt.Sprintf("%d", errors),
		b.min.String(),
		avg.String(),
		b.max.String(),
		elapsed.String(),
	})
	table.Render()
	logger.Noticef("bench summary\n%s", buf.String())
}
