package cli

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/xrcube"
	"github.com/gogpu/xrcube/internal/scene"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	device      deviceOpts
	scenePath   string        // TOML or YAML scene; empty for the built-in scene
	output      string        // PNG path
	width       int           // per-eye width override
	height      int           // per-eye height override
	colorFormat string        // swapchain color format name
	depthFormat string        // swapchain depth format name
	reversedZ   bool          // force reversed-Z depth
	at          time.Duration // animation time the scene is posed at
	split       bool          // write one PNG per eye instead of side by side
	labels      bool          // stamp each eye with its name
	scale       float64       // output scale factor
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{output: "stereo.png", scale: 1}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene into a stereo swapchain and write it to PNG",
		Long: `Render draws every cube of the scene once per eye into the slices of an
offscreen 2D array swapchain, reads the slices back and writes them side by
side (left eye first) to a PNG file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(opts)
		},
	}

	opts.device.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.scenePath, "scene", "s", "", "scene file (.toml, .yaml, .yml)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output PNG path")
	cmd.Flags().IntVar(&opts.width, "width", 0, "per-eye width (default: scene width)")
	cmd.Flags().IntVar(&opts.height, "height", 0, "per-eye height (default: scene height)")
	cmd.Flags().StringVar(&opts.colorFormat, "color-format", "", "swapchain color format (see 'xrcube formats')")
	cmd.Flags().StringVar(&opts.depthFormat, "depth-format", "", "swapchain depth format (see 'xrcube formats')")
	cmd.Flags().BoolVar(&opts.reversedZ, "reversed-z", false, "use reversed-Z depth")
	cmd.Flags().DurationVar(&opts.at, "at", 0, "animation time to pose spinning cubes at")
	cmd.Flags().BoolVar(&opts.split, "split", false, "write each eye to its own file")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "stamp each eye with its name")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "scale the output image")

	return cmd
}

func (c *CLI) runRender(opts renderOpts) error {
	if opts.scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", opts.scale)
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

	req := s.Request(opts.at)
	sc, err := createSwapchain(r, s, len(req.Views), opts.colorFormat, opts.depthFormat)
	if err != nil {
		return err
	}
	defer sc.Release()
	bindSwapchain(req, sc)

	sw := startStopwatch(c.Logger)
	if err := r.RenderView(req); err != nil {
		return err
	}
	eyes := make([]*image.RGBA, len(req.Views))
	for i := range eyes {
		if eyes[i], err = sc.ReadLayer(i); err != nil {
			return fmt.Errorf("read eye %d: %w", i, err)
		}
	}
	if opts.labels {
		for i, eye := range eyes {
			stampLabel(eye, eyeName(i, len(eyes)))
		}
	}
	sw.done("Rendered", "views", len(req.Views), "cubes", len(req.Cubes), "size", fmt.Sprintf("%dx%d", s.Width, s.Height))

	if opts.split {
		for i, eye := range eyes {
			path := eyePath(opts.output, i, len(eyes))
			if err := writePNG(path, scaleImage(eye, opts.scale)); err != nil {
				return err
			}
			c.Logger.Info("Wrote", "eye", i, "path", path)
		}
		return nil
	}

	if err := writePNG(opts.output, scaleImage(sideBySide(eyes), opts.scale)); err != nil {
		return err
	}
	c.Logger.Info("Wrote", "path", opts.output)
	return nil
}

// loadScene reads path, or returns the built-in scene when path is empty.
func loadScene(path string) (*scene.Scene, error) {
	if path == "" {
		return scene.Default(), nil
	}
	return scene.Load(path)
}

func applySceneOverrides(s *scene.Scene, width, height int, reversedZ bool) {
	if width != 0 {
		s.Width = width
	}
	if height != 0 {
		s.Height = height
	}
	if reversedZ {
		s.ReversedZ = true
	}
}

// createSwapchain allocates an offscreen stereo image sized for s.
func createSwapchain(r xrcube.Renderer, s *scene.Scene, layers int, colorName, depthName string) (xrcube.Swapchain, error) {
	sp, ok := r.(xrcube.SwapchainProvider)
	if !ok {
		return nil, fmt.Errorf("%w: renderer %T has no offscreen swapchain", xrcube.ErrInvalidTarget, r)
	}
	cf, err := parseFormat(colorName, r.SupportedColorFormats())
	if err != nil {
		return nil, err
	}
	df, err := parseFormat(depthName, r.SupportedDepthFormats())
	if err != nil {
		return nil, err
	}
	return sp.CreateSwapchain(xrcube.SwapchainDesc{
		Width:       s.Width,
		Height:      s.Height,
		Layers:      layers,
		ColorFormat: cf,
		DepthFormat: df,
	})
}

func bindSwapchain(req *xrcube.ViewRequest, sc xrcube.Swapchain) {
	d := sc.Desc()
	req.ColorFormat, req.ColorTarget = d.ColorFormat, sc.ColorTarget()
	req.DepthFormat, req.DepthTarget = d.DepthFormat, sc.DepthTarget()
}

// sideBySide places the eye images left to right.
func sideBySide(eyes []*image.RGBA) *image.RGBA {
	if len(eyes) == 1 {
		return eyes[0]
	}
	w, h := 0, 0
	for _, e := range eyes {
		w += e.Bounds().Dx()
		h = max(h, e.Bounds().Dy())
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	x := 0
	for _, e := range eyes {
		b := e.Bounds()
		draw.Draw(dst, image.Rect(x, 0, x+b.Dx(), b.Dy()), e, b.Min, draw.Src)
		x += b.Dx()
	}
	return dst
}

// scaleImage resamples img by factor with Catmull-Rom filtering.
func scaleImage(img *image.RGBA, factor float64) *image.RGBA {
	if factor == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor+0.5))
	h := max(1, int(float64(b.Dy())*factor+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// eyePath derives per-eye file names: out.png becomes out-left.png and
// out-right.png for a stereo pair, out-0.png and so on otherwise.
func eyePath(path string, eye, eyes int) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "-" + eyeName(eye, eyes) + ext
}

// eyeName is "left" or "right" for a stereo pair and the index otherwise.
func eyeName(eye, eyes int) string {
	if eyes == 2 {
		return [2]string{"left", "right"}[eye]
	}
	return fmt.Sprint(eye)
}

// stampLabel draws text in the top-left corner of img on a dark backing.
func stampLabel(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	const pad = 4
	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	w := d.MeasureString(text).Ceil()
	h := face.Metrics().Height.Ceil()

	backing := image.Rect(0, 0, w+2*pad, h+2*pad).Add(img.Bounds().Min)
	draw.Draw(img, backing, image.NewUniform(color.RGBA{A: 0xc0}), image.Point{}, draw.Over)

	d.Dot = fixed.P(img.Bounds().Min.X+pad, img.Bounds().Min.Y+pad+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}

func writePNG(path string, img image.Image) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return png.Encode(f, img)
}
