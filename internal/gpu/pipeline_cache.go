//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// pipelineKey identifies one cube pipeline variant. The two depth
// conventions differ only in compare.
type pipelineKey struct {
	color   gputypes.TextureFormat
	depth   gputypes.TextureFormat
	compare gputypes.CompareFunction
}

// depthCompare returns the depth test for the frame's convention.
func depthCompare(reversedZ bool) gputypes.CompareFunction {
	if reversedZ {
		return gputypes.CompareFunctionGreater
	}
	return gputypes.CompareFunctionLess
}

// pipelineCache holds cube render pipelines keyed by target formats and
// depth compare.
//
// Safe for concurrent use: reads take the read lock, creation takes the
// write lock and checks again before building.
type pipelineCache struct {
	device hal.Device
	build  func(pipelineKey) (hal.RenderPipeline, error)

	mu        sync.RWMutex
	pipelines map[pipelineKey]hal.RenderPipeline

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newPipelineCache(device hal.Device, build func(pipelineKey) (hal.RenderPipeline, error)) *pipelineCache {
	return &pipelineCache{
		device:    device,
		build:     build,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
}

// get returns the pipeline for key, creating it on first use.
func (c *pipelineCache) get(key pipelineKey) (hal.RenderPipeline, error) {
	c.mu.RLock()
	if p, ok := c.pipelines[key]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pipelines[key]; ok {
		c.hits.Add(1)
		return p, nil
	}

	p, err := c.build(key)
	if err != nil {
		return nil, fmt.Errorf("create cube pipeline %s/%s/%s: %w", key.color, key.depth, key.compare, err)
	}
	c.pipelines[key] = p
	c.misses.Add(1)
	slogger().Debug("cube pipeline created",
		"color", key.color.String(), "depth", key.depth.String(), "compare", key.compare.String())
	return p, nil
}

// len returns the number of cached pipelines.
func (c *pipelineCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

// stats returns hit and miss counts.
func (c *pipelineCache) stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// destroy releases every cached pipeline.
func (c *pipelineCache) destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, p := range c.pipelines {
		c.device.DestroyRenderPipeline(p)
		delete(c.pipelines, k)
	}
}
