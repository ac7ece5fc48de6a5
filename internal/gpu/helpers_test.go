//go:build !nogpu

package gpu

import (
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/xrcube"
)

// createNoopDevice opens a device on the noop backend and returns it with
// its exposed adapter.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, *hal.ExposedAdapter, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	adapter := adapters[0]
	openDev, err := adapter.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, &adapter, cleanup
}

// drawCall is one recorded DrawIndexed.
type drawCall struct {
	indexCount    uint32
	instanceCount uint32
	offsets       []uint32
}

// recordedPass is what one render pass recorded.
type recordedPass struct {
	desc      hal.RenderPassDescriptor
	pipeline  hal.RenderPipeline
	viewport  [6]float32
	viewports int
	draws     []drawCall
	ended     bool
}

// recorder collects everything the recording wrappers observe.
type recorder struct {
	mu sync.Mutex

	created  map[string]int
	encoders int
	discards int
	passes   []*recordedPass
	submits  int
	writes   []bufferWrite
	views    []hal.TextureViewDescriptor
	released int

	// freed counts command buffers returned to the pool, destroyed counts
	// buffers and bind groups by kind.
	freed     int
	destroyed map[string]int
}

type bufferWrite struct {
	buffer hal.Buffer
	offset uint64
	size   int
}

func newRecorder() *recorder {
	return &recorder{created: make(map[string]int), destroyed: make(map[string]int)}
}

func (r *recorder) count(kind string) {
	r.mu.Lock()
	r.created[kind]++
	r.mu.Unlock()
}

// totalCreated returns the number of objects created of any kind.
func (r *recorder) totalCreated() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.created {
		n += c
	}
	return n
}

func (r *recorder) drawCount() int {
	n := 0
	for _, p := range r.passes {
		n += len(p.draws)
	}
	return n
}

// recordingDevice wraps a hal.Device and counts object creation.
type recordingDevice struct {
	hal.Device
	rec *recorder
}

func (d *recordingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.rec.count("buffer")
	return d.Device.CreateBuffer(desc)
}

func (d *recordingDevice) DestroyBuffer(buf hal.Buffer) {
	d.rec.mu.Lock()
	d.rec.destroyed["buffer"]++
	d.rec.mu.Unlock()
	d.Device.DestroyBuffer(buf)
}

func (d *recordingDevice) DestroyBindGroup(group hal.BindGroup) {
	d.rec.mu.Lock()
	d.rec.destroyed["bindGroup"]++
	d.rec.mu.Unlock()
	d.Device.DestroyBindGroup(group)
}

func (d *recordingDevice) FreeCommandBuffer(cmdBuf hal.CommandBuffer) {
	d.rec.mu.Lock()
	d.rec.freed++
	d.rec.mu.Unlock()
	d.Device.FreeCommandBuffer(cmdBuf)
}

func (d *recordingDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.rec.count("shader")
	return d.Device.CreateShaderModule(desc)
}

func (d *recordingDevice) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	d.rec.count("bindGroupLayout")
	return d.Device.CreateBindGroupLayout(desc)
}

func (d *recordingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.rec.count("bindGroup")
	return d.Device.CreateBindGroup(desc)
}

func (d *recordingDevice) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	d.rec.count("pipelineLayout")
	return d.Device.CreatePipelineLayout(desc)
}

func (d *recordingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.rec.count("pipeline")
	p, err := d.Device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, err
	}
	return &taggedPipeline{RenderPipeline: p, desc: *desc}, nil
}

// taggedPipeline keeps the descriptor a pipeline was built from. Noop
// pipelines are zero-sized and cannot be told apart by pointer.
type taggedPipeline struct {
	hal.RenderPipeline
	desc hal.RenderPipelineDescriptor
}

func (d *recordingDevice) CreateTextureView(tex hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	d.rec.mu.Lock()
	d.rec.views = append(d.rec.views, *desc)
	d.rec.mu.Unlock()
	return d.Device.CreateTextureView(tex, desc)
}

func (d *recordingDevice) DestroyTextureView(view hal.TextureView) {
	d.rec.mu.Lock()
	d.rec.released++
	d.rec.mu.Unlock()
	d.Device.DestroyTextureView(view)
}

func (d *recordingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	d.rec.mu.Lock()
	d.rec.encoders++
	d.rec.mu.Unlock()
	return &recordingEncoder{CommandEncoder: enc, rec: d.rec}, nil
}

type recordingEncoder struct {
	hal.CommandEncoder
	rec *recorder
}

func (e *recordingEncoder) DiscardEncoding() {
	e.rec.discards++
	e.CommandEncoder.DiscardEncoding()
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	p := &recordedPass{desc: *desc}
	e.rec.passes = append(e.rec.passes, p)
	return &recordingPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), pass: p}
}

type recordingPass struct {
	hal.RenderPassEncoder
	pass    *recordedPass
	offsets []uint32
}

func (p *recordingPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.pass.pipeline = pipeline
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *recordingPass) SetViewport(x, y, w, h, minDepth, maxDepth float32) {
	p.pass.viewport = [6]float32{x, y, w, h, minDepth, maxDepth}
	p.pass.viewports++
	p.RenderPassEncoder.SetViewport(x, y, w, h, minDepth, maxDepth)
}

func (p *recordingPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.offsets = append([]uint32(nil), offsets...)
	p.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (p *recordingPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.draws = append(p.pass.draws, drawCall{
		indexCount:    indexCount,
		instanceCount: instanceCount,
		offsets:       p.offsets,
	})
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *recordingPass) End() {
	p.pass.ended = true
	p.RenderPassEncoder.End()
}

// recordingQueue wraps a hal.Queue and counts submissions and writes.
type recordingQueue struct {
	hal.Queue
	rec *recorder
}

func (q *recordingQueue) Submit(buffers []hal.CommandBuffer) (uint64, error) {
	q.rec.mu.Lock()
	q.rec.submits++
	q.rec.mu.Unlock()
	return q.Queue.Submit(buffers)
}

func (q *recordingQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	q.rec.mu.Lock()
	q.rec.writes = append(q.rec.writes, bufferWrite{buffer: buffer, offset: offset, size: len(data)})
	q.rec.mu.Unlock()
	return q.Queue.WriteBuffer(buffer, offset, data)
}

// heldQueue reports submissions complete no further than a test allows once
// hold is called. The noop queue completes every submission at once.
type heldQueue struct {
	hal.Queue

	mu        sync.Mutex
	held      bool
	completed uint64
}

func (q *heldQueue) PollCompleted() uint64 {
	done := q.Queue.PollCompleted()
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.held {
		return min(done, q.completed)
	}
	return done
}

// hold stops completion at the submissions completed so far.
func (q *heldQueue) hold() {
	done := q.Queue.PollCompleted()
	q.mu.Lock()
	q.held, q.completed = true, done
	q.mu.Unlock()
}

// complete lets submissions up to index complete.
func (q *heldQueue) complete(index uint64) {
	q.mu.Lock()
	q.completed = index
	q.mu.Unlock()
}

// testProvider is a host device provider for AttachDevice.
type testProvider struct {
	device  hal.Device
	queue   hal.Queue
	adapter *hal.ExposedAdapter
}

func (p *testProvider) HalDevice() any  { return p.device }
func (p *testProvider) HalQueue() any   { return p.queue }
func (p *testProvider) HalAdapter() any { return p.adapter }

// renderHarness is a Ready renderer on a recording noop device.
type renderHarness struct {
	r       *StereoCubeRenderer
	rec     *recorder
	queue   *heldQueue
	device  hal.Device
	adapter *hal.ExposedAdapter
	color   hal.Texture
	depth   hal.Texture
}

func newRenderHarness(t *testing.T, opts ...Option) *renderHarness {
	t.Helper()
	device, queue, adapter, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)

	rec := newRecorder()
	dev := &recordingDevice{Device: device, rec: rec}
	held := &heldQueue{Queue: queue}
	r := NewStereoCubeRenderer(opts...)
	if err := r.AttachDevice(&testProvider{
		device:  dev,
		queue:   &recordingQueue{Queue: held, rec: rec},
		adapter: adapter,
	}); err != nil {
		t.Fatalf("AttachDevice failed: %v", err)
	}
	t.Cleanup(r.Close)

	color, depth := createTargets(t, device, xrcube.DefaultColorFormat, xrcube.DefaultDepthFormat)
	return &renderHarness{r: r, rec: rec, queue: held, device: dev, adapter: adapter, color: color, depth: depth}
}

func createTargets(t *testing.T, device hal.Device, colorFormat, depthFormat gputypes.TextureFormat) (hal.Texture, hal.Texture) {
	t.Helper()
	size := hal.Extent3D{Width: 64, Height: 64, DepthOrArrayLayers: xrcube.MaxViews}
	color, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: "test_color", Size: size, MipLevelCount: 1, SampleCount: 1,
		Dimension: gputypes.TextureDimension2D, Format: colorFormat,
		Usage: gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		t.Fatalf("CreateTexture(color) failed: %v", err)
	}
	depth, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: "test_depth", Size: size, MipLevelCount: 1, SampleCount: 1,
		Dimension: gputypes.TextureDimension2D, Format: depthFormat,
		Usage: gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("CreateTexture(depth) failed: %v", err)
	}
	return color, depth
}

// request builds a ViewRequest for the harness targets.
func (h *renderHarness) request(views []xrcube.ViewProjection, cubes []xrcube.Cube) *xrcube.ViewRequest {
	return &xrcube.ViewRequest{
		Viewport: xrcube.Rect2Di{
			Extent: xrcube.Extent2Di{Width: 64, Height: 64},
		},
		ClearColor:  [4]float32{0.1, 0.2, 0.3, 1},
		Views:       views,
		ColorFormat: xrcube.DefaultColorFormat,
		ColorTarget: h.color,
		DepthFormat: xrcube.DefaultDepthFormat,
		DepthTarget: h.depth,
		Cubes:       cubes,
	}
}

// stereoViews returns n eye views with the given depth range.
func stereoViews(n int, nf xrcube.NearFar) []xrcube.ViewProjection {
	views := make([]xrcube.ViewProjection, n)
	for i := range views {
		pose := xrcube.IdentityPose()
		pose.Position[0] = float32(i)*0.064 - 0.032
		views[i] = xrcube.ViewProjection{
			Pose:    pose,
			Fov:     xrcube.SymmetricFov(90, 90),
			NearFar: nf,
		}
	}
	return views
}

func unitCubes(n int) []xrcube.Cube {
	cubes := make([]xrcube.Cube, n)
	for i := range cubes {
		pose := xrcube.IdentityPose()
		pose.Position[2] = -2 - float32(i)
		cubes[i] = xrcube.Cube{Scale: [3]float32{1, 1, 1}, PoseInScene: pose}
	}
	return cubes
}
