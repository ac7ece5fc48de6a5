package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/xrcube"
	"github.com/gogpu/xrcube/internal/scene"
)

// execute runs the CLI with args and returns what it printed and logged.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogDebug)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&logs)
	err = root.Execute()
	return out.String(), logs.String(), err
}

func TestFormatsCommand(t *testing.T) {
	out, _, err := execute(t, "formats")
	if err != nil {
		t.Fatalf("formats failed: %v", err)
	}
	for _, f := range append(xrcube.SupportedColorFormats(), xrcube.SupportedDepthFormats()...) {
		if !strings.Contains(out, f.String()) {
			t.Errorf("output missing %s:\n%s", f, out)
		}
	}
	if !strings.Contains(out, "(default)") {
		t.Error("output does not mark the default formats")
	}
}

func TestSceneCommand(t *testing.T) {
	out, _, err := execute(t, "scene", "--format", "yaml")
	if err != nil {
		t.Fatalf("scene failed: %v", err)
	}
	s, err := scene.Parse([]byte(out), scene.FormatYAML)
	if err != nil {
		t.Fatalf("printed scene does not parse: %v\n%s", err, out)
	}
	if len(s.Cubes) != len(scene.Default().Cubes) {
		t.Errorf("cubes = %d, want %d", len(s.Cubes), len(scene.Default().Cubes))
	}
}

func TestSceneCommandToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.toml")
	if _, _, err := execute(t, "scene", "-o", path); err != nil {
		t.Fatalf("scene failed: %v", err)
	}
	if _, err := scene.Load(path); err != nil {
		t.Errorf("written scene does not load: %v", err)
	}

	if _, _, err := execute(t, "scene", "-o", filepath.Join(t.TempDir(), "scene.json")); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestRenderNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "stereo.png")
	_, logs, err := execute(t, "render", "--backend", "noop", "--width", "32", "--height", "16", "--labels", "-o", path)
	if err != nil {
		t.Fatalf("render failed: %v\n%s", err, logs)
	}
	img := decodePNG(t, path)
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 16 {
		t.Errorf("image = %v, want 64x16 side by side", b)
	}
	if !strings.Contains(logs, "Device ready") {
		t.Errorf("logs missing device line:\n%s", logs)
	}
}

func TestRenderSplitScaled(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.yaml")
	data := "width: 20\nheight: 10\nreversed_z: true\ncubes:\n  - position: [0, 0, -2]\n"
	if err := os.WriteFile(scenePath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "eye.png")
	_, logs, err := execute(t, "render", "--backend", "noop", "--scene", scenePath,
		"--split", "--scale", "0.5", "--color-format", "bgra8unorm", "--depth-format", "Depth24PlusStencil8", "-o", out)
	if err != nil {
		t.Fatalf("render failed: %v\n%s", err, logs)
	}
	for _, name := range []string{"eye-left.png", "eye-right.png"} {
		img := decodePNG(t, filepath.Join(dir, name))
		if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
			t.Errorf("%s = %v, want 10x5", name, b)
		}
	}
}

func TestRenderRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"backend", []string{"--backend", "d3d9"}},
		{"shaders", []string{"--shaders", "hlsl"}},
		{"level", []string{"--level", "ultra"}},
		{"color format", []string{"--color-format", "r8unorm"}},
		{"depth format", []string{"--depth-format", "rgba8unorm"}},
		{"scale", []string{"--scale", "0"}},
		{"scene", []string{"--scene", "missing.toml"}},
		{"size", []string{"--width", "-4"}},
		{"args", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "--backend", "noop", "-o", filepath.Join(t.TempDir(), "x.png")}, tt.args...)
			if _, _, err := execute(t, args...); err == nil {
				t.Errorf("render %v succeeded", tt.args)
			}
		})
	}
}

func TestBenchNoop(t *testing.T) {
	out, logs, err := execute(t, "bench", "--backend", "noop", "-n", "5", "--width", "16", "--height", "16", "--no-progress")
	if err != nil {
		t.Fatalf("bench failed: %v\n%s", err, logs)
	}
	for _, want := range []string{"Frame times", "p95", "Last frame", "draws", "Pipeline cache"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, _, err := execute(t, "bench", "--backend", "noop", "-n", "0"); err == nil {
		t.Error("expected error for zero frames")
	}
}

func TestAdaptersNoop(t *testing.T) {
	out, _, err := execute(t, "adapters", "--backend", "noop")
	if err != nil {
		t.Fatalf("adapters failed: %v", err)
	}
	for _, want := range []string{"Noop Adapter", "(default)", "layered rendering", "core"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		name   string
		want   gputypes.Backend
		pinned bool
		ok     bool
	}{
		{"", 0, false, true},
		{"auto", 0, false, true},
		{"Vulkan", gputypes.BackendVulkan, true, true},
		{"noop", gputypes.BackendEmpty, true, true},
		{"gl", gputypes.BackendGL, true, true},
		{"glide", 0, false, false},
	}
	for _, tt := range tests {
		b, pinned, err := parseBackend(tt.name)
		if (err == nil) != tt.ok || pinned != tt.pinned || b != tt.want {
			t.Errorf("parseBackend(%q) = %v, %v, %v", tt.name, b, pinned, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	colors := xrcube.SupportedColorFormats()
	if f, err := parseFormat("", colors); err != nil || f != colors[0] {
		t.Errorf("empty name = %v, %v, want %v", f, err, colors[0])
	}
	if f, err := parseFormat("bgra8unormsrgb", colors); err != nil || f != gputypes.TextureFormatBGRA8UnormSrgb {
		t.Errorf("bgra8unormsrgb = %v, %v", f, err)
	}
	if _, err := parseFormat("Depth32Float", colors); err == nil {
		t.Error("depth format accepted as color format")
	}
}

func TestEyePath(t *testing.T) {
	tests := []struct {
		path      string
		eye, eyes int
		want      string
	}{
		{"out.png", 0, 2, "out-left.png"},
		{"dir/out.png", 1, 2, "dir/out-right.png"},
		{"out.png", 0, 1, "out-0.png"},
		{"out", 1, 2, "out-right"},
	}
	for _, tt := range tests {
		if got := eyePath(tt.path, tt.eye, tt.eyes); got != tt.want {
			t.Errorf("eyePath(%q, %d, %d) = %q, want %q", tt.path, tt.eye, tt.eyes, got, tt.want)
		}
	}
}

func TestSideBySide(t *testing.T) {
	left := image.NewRGBA(image.Rect(0, 0, 2, 2))
	right := image.NewRGBA(image.Rect(0, 0, 3, 2))
	left.Pix[0] = 10
	right.Pix[0] = 20

	img := sideBySide([]*image.RGBA{left, right})
	if b := img.Bounds(); b.Dx() != 5 || b.Dy() != 2 {
		t.Fatalf("bounds = %v, want 5x2", b)
	}
	if img.Pix[0] != 10 {
		t.Errorf("left eye pixel = %d, want 10", img.Pix[0])
	}
	if got := img.Pix[img.PixOffset(2, 0)]; got != 20 {
		t.Errorf("right eye pixel = %d, want 20", got)
	}
	if sideBySide([]*image.RGBA{left}) != left {
		t.Error("single eye should be returned as is")
	}
}

func TestStampLabel(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0x80, 0x80, 0x80, 0xff}), image.Point{}, draw.Src)
	stampLabel(img, "left")

	if c := img.RGBAAt(1, 1); c.R >= 0x80 {
		t.Errorf("backing not darkened: %v", c)
	}
	white := 0
	for y := 0; y < 24; y++ {
		for x := 0; x < 40; x++ {
			if img.RGBAAt(x, y).R == 0xff {
				white++
			}
		}
	}
	if white == 0 {
		t.Error("no glyph pixels drawn")
	}
	if c := img.RGBAAt(63, 31); c.R != 0x80 {
		t.Errorf("pixel outside label changed: %v", c)
	}
}

func TestScaleImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 4))
	if scaleImage(img, 1) != img {
		t.Error("unit scale should return the input")
	}
	if b := scaleImage(img, 2).Bounds(); b.Dx() != 20 || b.Dy() != 8 {
		t.Errorf("2x bounds = %v", b)
	}
	if b := scaleImage(img, 0.01).Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("tiny bounds = %v, want 1x1", b)
	}
}

func TestSummarize(t *testing.T) {
	var times []time.Duration
	for i := 100; i >= 1; i-- {
		times = append(times, time.Duration(i)*time.Millisecond)
	}
	s := summarize(times)
	if s.frames != 100 || s.min != time.Millisecond || s.max != 100*time.Millisecond {
		t.Errorf("summary = %+v", s)
	}
	if s.p50 != 51*time.Millisecond || s.p95 != 96*time.Millisecond {
		t.Errorf("p50=%v p95=%v", s.p50, s.p95)
	}
	if s.mean != 50500*time.Microsecond {
		t.Errorf("mean = %v", s.mean)
	}
	if times[0] != 100*time.Millisecond {
		t.Error("summarize reordered its input")
	}
	if (summarize(nil) != frameSummary{}) {
		t.Error("empty summary not zero")
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("v1.2.3", "abc123", "2026-01-01")
	defer SetVersion("dev", "", "")

	out, _, err := execute(t, "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	for _, want := range []string{"v1.2.3", "abc123", "2026-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}
