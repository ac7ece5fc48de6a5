//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/xrcube"
)

// AdapterReport describes one adapter as InitializeDevice would judge it.
type AdapterReport struct {
	Backend  string
	Name     string
	Driver   string
	VendorID uint32
	DeviceID uint32
	Type     gpucontext.AdapterType

	// FeatureLevel is the first default level the adapter satisfies. It is
	// meaningful only when LevelErr is nil.
	FeatureLevel xrcube.FeatureLevel
	LevelErr     error

	// LayeredErr is non-nil when the adapter cannot render one view per
	// array slice.
	LayeredErr error

	// Selected marks the adapter a zero AdapterIdentity picks.
	Selected bool
}

// Usable reports whether the renderer can initialize on the adapter.
func (a AdapterReport) Usable() bool {
	return a.LevelErr == nil && a.LayeredErr == nil
}

// ListAdapters enumerates the adapters of the backend the options select.
// No device is opened.
func ListAdapters(opts ...Option) ([]AdapterReport, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	backend, err := o.backend()
	if err != nil {
		return nil, err
	}
	instance, adapters, err := enumerateAdapters(backend)
	if err != nil {
		return nil, err
	}
	defer instance.Destroy()

	best, _ := selectAdapter(adapters, xrcube.AdapterIdentity{})
	reports := make([]AdapterReport, len(adapters))
	for i := range adapters {
		a := &adapters[i]
		level, levelErr := chooseFeatureLevel(a.Capabilities.Limits, nil)
		reports[i] = AdapterReport{
			Backend:      backend.Variant().String(),
			Name:         a.Info.Name,
			Driver:       a.Info.Driver,
			VendorID:     a.Info.VendorID,
			DeviceID:     a.Info.DeviceID,
			Type:         adapterType(a.Info.DeviceType),
			FeatureLevel: level,
			LevelErr:     levelErr,
			LayeredErr:   checkLayeredRendering(a),
			Selected:     a == best,
		}
	}
	return reports, nil
}
