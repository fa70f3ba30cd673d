package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/snowmerak/asio.go/lib/asio"
	"github.com/snowmerak/asio.go/lib/driver"
	"github.com/snowmerak/asio.go/lib/logging"
	"github.com/snowmerak/asio.go/lib/probe"
)

type streamStats struct {
	buffers int64
	samples int64
}

// stream opens every channel at the preferred buffer size and runs until
// ctx is done.
func stream(ctx context.Context, session *asio.Session, report *probe.Report, logger *logging.Logger) (streamStats, error) {
	infos := make([]driver.BufferInfo, 0, report.Inputs+report.Outputs)
	for i := range report.Inputs {
		infos = append(infos, driver.BufferInfo{IsInput: true, Channel: i})
	}
	for i := range report.Outputs {
		infos = append(infos, driver.BufferInfo{Channel: i})
	}

	var buffers, samples atomic.Int64
	callbacks := &driver.Callbacks{
		BufferSwitchTimeInfo: func(t *driver.Time, index int, direct bool) *driver.Time {
			buffers.Add(1)
			if t != nil {
				samples.Store(t.Info.SamplePosition)
			}
			return t
		},
		SampleRateDidChange: func(rate float64) {
			fmt.Printf("sample rate changed to %g\n", rate)
		},
		Message: func(selector driver.MessageSelector, value int, _ any, _ *float64) int {
			switch selector {
			case driver.SelectorSupported:
				switch driver.MessageSelector(value) {
				case driver.EngineVersion, driver.SupportsTimeInfo:
					return 1
				}
			case driver.EngineVersion:
				return asio.Version
			case driver.SupportsTimeInfo:
				return 1
			}
			return 0
		},
	}

	if err := session.CreateBuffers(infos, report.Buffer.Preferred, callbacks); err != nil {
		return streamStats{}, fmt.Errorf("failed to create buffers: %w", err)
	}
	defer func() {
		if err := session.DisposeBuffers(); err != nil {
			logger.Warn("failed to dispose buffers", "error", err)
		}
	}()

	if err := session.Start(); err != nil {
		return streamStats{}, fmt.Errorf("failed to start: %w", err)
	}
	<-ctx.Done()
	if err := session.Stop(); err != nil {
		return streamStats{}, fmt.Errorf("failed to stop: %w", err)
	}

	return streamStats{buffers: buffers.Load(), samples: samples.Load()}, nil
}
