package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/xrcube"
)

// frameInterval advances the scene clock between benchmark frames, 90 Hz
// like a typical headset.
const frameInterval = time.Second / 90

// benchOpts holds the command-line flags for the bench command.
type benchOpts struct {
	device     deviceOpts
	scenePath  string
	frames     int
	width      int
	height     int
	reversedZ  bool
	noProgress bool
}

// cacheStatter is implemented by renderers that count pipeline cache use.
type cacheStatter interface {
	PipelineCacheStats() (hits, misses uint64, size int)
}

func (c *CLI) benchCommand() *cobra.Command {
	opts := benchOpts{frames: 300}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Render frames back to back and report timings",
		Long: `Bench renders an animated scene into an offscreen stereo swapchain and
reports the CPU time spent recording and submitting each frame.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBench(cmd.Context(), opts)
		},
	}

	opts.device.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.scenePath, "scene", "s", "", "scene file (.toml, .yaml, .yml)")
	cmd.Flags().IntVarP(&opts.frames, "frames", "n", opts.frames, "number of frames")
	cmd.Flags().IntVar(&opts.width, "width", 0, "per-eye width (default: scene width)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "per-eye height (default: scene height)")
	cmd.Flags().BoolVar(&opts.reversedZ, "reversed-z", false, "use reversed-Z depth")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "hide the progress bar")

	return cmd
}

func (c *CLI) runBench(ctx context.Context, opts benchOpts) error {
	if opts.frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", opts.frames)
	}
	s, err := loadScene(opts.scenePath)
	if err != nil {
		return err
	}
	applySceneOverrides(s, opts.width, opts.height, opts.reversedZ)
	if err := s.Validate(); err != nil {
		return err
	}

	r, _, err := opts.device.open(c)
	if err != nil {
		return err
	}
	defer r.Close()

	sc, err := createSwapchain(r, s, len(s.ViewProjections()), "", "")
	if err != nil {
		return err
	}
	defer sc.Release()

	var progressOut io.Writer = os.Stderr
	if opts.noProgress {
		progressOut = io.Discard
	}
	bar := progressbar.NewOptions(opts.frames,
		progressbar.OptionSetWriter(progressOut),
		progressbar.OptionSetDescription("rendering"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Close()

	times := make([]time.Duration, 0, opts.frames)
	start := time.Now()
	for i := 0; i < opts.frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := s.Request(time.Duration(i) * frameInterval)
		bindSwapchain(req, sc)

		t0 := time.Now()
		if err := r.RenderView(req); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		times = append(times, time.Since(t0))
		_ = bar.Add(1)
	}
	total := time.Since(start)
	_ = bar.Finish()

	c.printBench(r, summarize(times), total)
	return nil
}

// frameSummary holds order statistics of frame times.
type frameSummary struct {
	frames         int
	min, max, mean time.Duration
	p50, p95, p99  time.Duration
}

func summarize(times []time.Duration) frameSummary {
	if len(times) == 0 {
		return frameSummary{}
	}
	sorted := slices.Clone(times)
	slices.Sort(sorted)

	var sum time.Duration
	for _, t := range sorted {
		sum += t
	}
	pct := func(p float64) time.Duration {
		return sorted[min(len(sorted)-1, int(p*float64(len(sorted))))]
	}
	return frameSummary{
		frames: len(sorted),
		min:    sorted[0],
		max:    sorted[len(sorted)-1],
		mean:   sum / time.Duration(len(sorted)),
		p50:    pct(0.50),
		p95:    pct(0.95),
		p99:    pct(0.99),
	}
}

func (c *CLI) printBench(r xrcube.Renderer, s frameSummary, total time.Duration) {
	round := func(d time.Duration) string { return d.Round(time.Microsecond).String() }
	p := message.NewPrinter(language.English)

	printTitle(c.out, "Frame times")
	rows := [][2]string{
		{"frames", p.Sprintf("%d", s.frames)},
		{"total", total.Round(time.Millisecond).String()},
		{"mean", round(s.mean)},
		{"min", round(s.min)},
		{"p50", round(s.p50)},
		{"p95", round(s.p95)},
		{"p99", round(s.p99)},
		{"max", round(s.max)},
	}
	if total > 0 {
		rows = append(rows, [2]string{"rate", p.Sprintf("%.1f frames/s", float64(s.frames)/total.Seconds())})
	}
	printRows(c.out, rows)

	if sr, ok := r.(xrcube.StatsReporter); ok {
		st := sr.LastFrameStats()
		printTitle(c.out, "Last frame")
		printRows(c.out, [][2]string{
			{"views", fmt.Sprint(st.Views)},
			{"passes", fmt.Sprint(st.Passes)},
			{"draws", fmt.Sprint(st.Draws)},
			{"instances", p.Sprintf("%d", st.InstanceCount)},
			{"reversed-z", fmt.Sprint(st.ReversedZ)},
		})
	}
	if cs, ok := r.(cacheStatter); ok {
		hits, misses, size := cs.PipelineCacheStats()
		printTitle(c.out, "Pipeline cache")
		printRows(c.out, [][2]string{
			{"pipelines", fmt.Sprint(size)},
			{"hits", fmt.Sprint(hits)},
			{"misses", fmt.Sprint(misses)},
		})
	}
}
