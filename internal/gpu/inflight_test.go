//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/xrcube"
)

func TestRenderViewDefersRelease(t *testing.T) {
	h := newRenderHarness(t)
	h.queue.hold()
	base := h.queue.completed
	views := stereoViews(2, standardDepth)

	if err := h.r.RenderView(h.request(views, unitCubes(1))); err != nil {
		t.Fatalf("frame 1 failed: %v", err)
	}
	if h.rec.freed != 0 || h.rec.released != 0 {
		t.Fatalf("frame 1 released before completion: %d command buffers, %d views", h.rec.freed, h.rec.released)
	}

	// Frame 2 needs more model slots than frame 1's set holds. That set is
	// still in flight, so it must not be grown in place.
	if err := h.r.RenderView(h.request(views, unitCubes(initialModelSlots*2+1))); err != nil {
		t.Fatalf("frame 2 failed: %v", err)
	}
	if h.rec.freed != 0 || h.rec.released != 0 {
		t.Errorf("released before completion: %d command buffers, %d views", h.rec.freed, h.rec.released)
	}
	if n := h.rec.destroyed["buffer"] + h.rec.destroyed["bindGroup"]; n != 0 {
		t.Errorf("destroyed %v while frames are in flight", h.rec.destroyed)
	}
	if got := len(h.r.res.pending); got != 2 {
		t.Errorf("pending frames = %d, want 2", got)
	}

	// Each frame writes its view uniforms, then its model uniforms.
	w := h.rec.writes
	first, second := w[len(w)-4:len(w)-2], w[len(w)-2:]
	for i := range first {
		if first[i].buffer == second[i].buffer {
			t.Errorf("frame 2 write %d overwrites a buffer frame 1 reads", i)
		}
	}

	h.queue.complete(base + 1)
	buffers := h.rec.created["buffer"]
	if err := h.r.RenderView(h.request(views, unitCubes(1))); err != nil {
		t.Fatalf("frame 3 failed: %v", err)
	}
	if h.rec.freed != 1 || h.rec.released != 4 {
		t.Errorf("after frame 1 completed: freed %d command buffers, %d views, want 1 and 4", h.rec.freed, h.rec.released)
	}
	if got := h.rec.created["buffer"]; got != buffers {
		t.Errorf("frame 3 created %d buffers, want it to reuse frame 1's set", got-buffers)
	}
	if got := len(h.r.res.pending); got != 2 {
		t.Errorf("pending frames = %d, want 2", got)
	}

	h.r.Close()
	if h.rec.freed != 3 || h.rec.released != 12 {
		t.Errorf("after Close: freed %d command buffers, %d views, want 3 and 12", h.rec.freed, h.rec.released)
	}
}

func TestRenderViewReusesCompletedUniforms(t *testing.T) {
	h := newRenderHarness(t)
	for i := 0; i < 5; i++ {
		if err := h.r.RenderView(h.request(stereoViews(2, standardDepth), unitCubes(2))); err != nil {
			t.Fatalf("frame %d failed: %v", i, err)
		}
	}
	if got := h.r.res.uniformSets; got != 1 {
		t.Errorf("uniform sets = %d, want 1 when every frame completes at once", got)
	}
	if len(h.r.res.pending) != 0 {
		t.Errorf("pending frames = %d, want 0", len(h.r.res.pending))
	}
	if h.rec.freed != 5 {
		t.Errorf("freed command buffers = %d, want 5", h.rec.freed)
	}
}

// failingSubmitQueue rejects every submission.
type failingSubmitQueue struct {
	hal.Queue
}

func (q *failingSubmitQueue) Submit([]hal.CommandBuffer) (uint64, error) {
	return 0, hal.ErrDeviceLost
}

// beginFailDevice hands out encoders that cannot begin encoding.
type beginFailDevice struct {
	*recordingDevice
}

func (d beginFailDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.recordingDevice.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &beginFailEncoder{CommandEncoder: enc}, nil
}

type beginFailEncoder struct {
	hal.CommandEncoder
}

func (e *beginFailEncoder) BeginEncoding(string) error {
	return errors.New("out of command memory")
}

// attachRenderer attaches a renderer to device and queue and returns it
// with a request for fresh targets.
func attachRenderer(t *testing.T, device, targetDevice hal.Device, queue hal.Queue, adapter *hal.ExposedAdapter) (*StereoCubeRenderer, *xrcube.ViewRequest) {
	t.Helper()
	r := NewStereoCubeRenderer()
	if err := r.AttachDevice(&testProvider{device: device, queue: queue, adapter: adapter}); err != nil {
		t.Fatalf("AttachDevice failed: %v", err)
	}
	t.Cleanup(r.Close)
	color, depth := createTargets(t, targetDevice, xrcube.DefaultColorFormat, xrcube.DefaultDepthFormat)
	h := &renderHarness{color: color, depth: depth}
	return r, h.request(stereoViews(2, standardDepth), unitCubes(2))
}

func TestRenderViewSubmitFailureReleasesFrame(t *testing.T) {
	device, queue, adapter, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	rec := newRecorder()
	r, req := attachRenderer(t, &recordingDevice{Device: device, rec: rec}, device, &failingSubmitQueue{Queue: queue}, adapter)

	if err := r.RenderView(req); !errors.Is(err, hal.ErrDeviceLost) {
		t.Fatalf("err = %v, want ErrDeviceLost", err)
	}
	if rec.freed != 1 || rec.released != 4 {
		t.Errorf("freed %d command buffers, %d views, want 1 and 4", rec.freed, rec.released)
	}
	if len(r.res.pending) != 0 || len(r.res.free) != 1 {
		t.Errorf("pending = %d free = %d, want 0 and 1", len(r.res.pending), len(r.res.free))
	}
}

func TestRenderViewBeginEncodingFailure(t *testing.T) {
	device, queue, adapter, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	rec := newRecorder()
	dev := beginFailDevice{&recordingDevice{Device: device, rec: rec}}
	r, req := attachRenderer(t, dev, device, &recordingQueue{Queue: queue, rec: rec}, adapter)

	if err := r.RenderView(req); err == nil {
		t.Fatal("RenderView succeeded with a failing encoder")
	}
	if rec.discards != 1 {
		t.Errorf("discards = %d, want 1", rec.discards)
	}
	if rec.submits != 0 || len(rec.views) != 0 {
		t.Errorf("submits = %d views = %d, want none", rec.submits, len(rec.views))
	}
	if len(r.res.free) != 1 {
		t.Errorf("free uniform sets = %d, want the frame's set back", len(r.res.free))
	}
}
