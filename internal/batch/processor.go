package batch

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"volumetric-clouds/internal/clouds"
	"volumetric-clouds/internal/export"
	"volumetric-clouds/internal/postprocess"
)

// Config holds all shared settings for an animation run.
type Config struct {
	OutputDir   string
	Format      export.Format
	Width       int
	Height      int
	Supersample int
	Tone        postprocess.Tone
	WriteEXR    bool // also write the linear frame as .exr
	Workers     int  // frames rendered concurrently

	Camera clouds.Camera
	Sky    clouds.Sky
	Params clouds.Params

	Frames    int
	FPS       float64
	StartTime float64 // seconds
	Paused    bool    // render every frame with movement frozen
}

// Result holds the outcome of rendering one frame.
type Result struct {
	Index    int
	Time     float64 // simulation time the frame was rendered at
	Image    string
	Coverage float64 // mean cloud coverage
	Success  bool
	Error    string
}

func (c Config) fps() float64 {
	if c.FPS <= 0 {
		return 24
	}
	return c.FPS
}

// frameJob is one frame with its clock state already stamped into params.
type frameJob struct {
	idx    int
	params clouds.Params
}

// FrameName returns the output file name of frame i.
func (c Config) FrameName(i int) string {
	return fmt.Sprintf("frame_%04d%s", i, c.Format.Ext())
}

// EXRName returns the linear output file name of frame i.
func (c Config) EXRName(i int) string {
	return fmt.Sprintf("frame_%04d.exr", i)
}

// Run renders every frame using a worker pool.
func Run(r *clouds.Raymarcher, cfg Config) []Result {
	total := cfg.Frames
	if total <= 0 {
		total = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.2f frames/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	frameChan := make(chan frameJob, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range frameChan {
				results[job.idx] = renderFrame(r, cfg, job)
				processed.Add(1)
			}
		}()
	}

	// Send work; the clock only moves between frames.
	clock := clouds.NewManualClock()
	clock.Advance(seconds(cfg.StartTime))
	if cfg.Paused {
		clock.Pause()
	}
	step := seconds(1 / cfg.fps())
	for i := 0; i < total; i++ {
		p := cfg.Params
		clock.Apply(&p)
		frameChan <- frameJob{idx: i, params: p}
		clock.Advance(step)
	}
	close(frameChan)

	wg.Wait()
	close(done)

	return results
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func renderFrame(r *clouds.Raymarcher, cfg Config, job frameJob) Result {
	idx, p := job.idx, job.params
	res := Result{Index: idx, Time: p.EffectiveTime(), Image: cfg.FrameName(idx)}

	ss := cfg.Supersample
	if ss < 1 {
		ss = 1
	}

	hdr, err := r.Render(clouds.Frame{
		Width:  cfg.Width * ss,
		Height: cfg.Height * ss,
		Camera: cfg.Camera,
		Sky:    cfg.Sky,
		Params: p,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Coverage = meanCoverage(hdr)

	img := postprocess.Tonemap(hdr, cfg.Tone)

	// Post-processing: supersample downsample
	if ss > 1 {
		img = postprocess.Downsample(img, cfg.Width, cfg.Height)
	}

	outPath := filepath.Join(cfg.OutputDir, res.Image)
	if err := export.WriteFile(outPath, img); err != nil {
		res.Error = err.Error()
		return res
	}
	if cfg.WriteEXR {
		if err := export.WriteEXR(filepath.Join(cfg.OutputDir, cfg.EXRName(idx)), hdr); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	res.Success = true
	return res
}

func meanCoverage(img *clouds.Image) float64 {
	n := img.Width * img.Height
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 3; i < len(img.Pix); i += 4 {
		sum += float64(img.Pix[i])
	}
	return sum / float64(n)
}
