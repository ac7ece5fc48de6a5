//go:build !nogpu

package gpu

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func TestDepthCompare(t *testing.T) {
	if got := depthCompare(false); got != gputypes.CompareFunctionLess {
		t.Errorf("standard = %v, want Less", got)
	}
	if got := depthCompare(true); got != gputypes.CompareFunctionGreater {
		t.Errorf("reversed = %v, want Greater", got)
	}
}

func TestPipelineCacheHitsAndMisses(t *testing.T) {
	device, _, _, cleanup := createNoopDevice(t)
	defer cleanup()

	builds := 0
	c := newPipelineCache(device, func(key pipelineKey) (hal.RenderPipeline, error) {
		builds++
		return device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{Label: "test"})
	})
	defer c.destroy()

	less := pipelineKey{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth32Float, gputypes.CompareFunctionLess}
	greater := less
	greater.compare = gputypes.CompareFunctionGreater

	for _, k := range []pipelineKey{less, less, greater, less, greater} {
		if _, err := c.get(k); err != nil {
			t.Fatalf("get(%v) failed: %v", k, err)
		}
	}
	hits, misses := c.stats()
	if builds != 2 || misses != 2 || hits != 3 {
		t.Errorf("builds=%d misses=%d hits=%d, want 2/2/3", builds, misses, hits)
	}
	if c.len() != 2 {
		t.Errorf("len = %d, want 2", c.len())
	}

	c.destroy()
	if c.len() != 0 {
		t.Errorf("len after destroy = %d", c.len())
	}
}

func TestPipelineCacheBuildError(t *testing.T) {
	device, _, _, cleanup := createNoopDevice(t)
	defer cleanup()

	errBuild := errors.New("boom")
	c := newPipelineCache(device, func(pipelineKey) (hal.RenderPipeline, error) {
		return nil, errBuild
	})
	_, err := c.get(pipelineKey{})
	if !errors.Is(err, errBuild) {
		t.Errorf("err = %v, want wrapped build error", err)
	}
	if c.len() != 0 {
		t.Error("failed build was cached")
	}
}

func TestPipelineCacheConcurrent(t *testing.T) {
	device, _, _, cleanup := createNoopDevice(t)
	defer cleanup()

	var mu sync.Mutex
	builds := 0
	c := newPipelineCache(device, func(pipelineKey) (hal.RenderPipeline, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		return device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{})
	})
	defer c.destroy()

	key := pipelineKey{gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatDepth16Unorm, gputypes.CompareFunctionLess}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.get(key); err != nil {
				t.Errorf("get failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if builds != 1 {
		t.Errorf("builds = %d, want 1", builds)
	}
}
