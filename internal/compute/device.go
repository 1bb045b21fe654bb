// Package compute models the GPU the noise kernels were written for: work is
// dispatched as 8×8×8 thread groups over a 3D grid, every group runs on a
// pool of goroutines, and Dispatch does not return until all groups have
// finished, which is the fence between consecutive passes.
package compute

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

// GroupSize is the thread-group edge length (numthreads(8,8,8)).
const GroupSize = 8

var (
	// ErrDispatchFailed reports a kernel that did not run to completion.
	ErrDispatchFailed = errors.New("compute: dispatch failed")
	// ErrResourceExhausted reports an allocation beyond the device budget.
	ErrResourceExhausted = errors.New("compute: resource exhausted")
)

// Group identifies one thread group and the voxel range it covers.
type Group struct {
	X, Y, Z int // group coordinates
	Size    int // grid edge length in voxels
}

// Each calls fn for every voxel of the group that lies inside the grid.
func (g Group) Each(fn func(x, y, z int)) {
	x0, y0, z0 := g.X*GroupSize, g.Y*GroupSize, g.Z*GroupSize
	x1, y1, z1 := min(x0+GroupSize, g.Size), min(y0+GroupSize, g.Size), min(z0+GroupSize, g.Size)
	for z := z0; z < z1; z++ {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				fn(x, y, z)
			}
		}
	}
}

// Kernel is executed once per thread group.
type Kernel func(g Group)

// Device executes kernels. The zero value is not usable; see NewDevice.
type Device struct {
	workers   int
	maxBytes  int64
	allocated atomic.Int64
}

// Options configures a Device.
type Options struct {
	Workers  int   // goroutines per dispatch (default: NumCPU)
	MaxBytes int64 // allocation budget, 0 = unlimited
}

// NewDevice creates a device.
func NewDevice(opts Options) *Device {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Device{workers: opts.Workers, maxBytes: opts.MaxBytes}
}

// Workers returns the number of goroutines used per dispatch.
func (d *Device) Workers() int { return d.workers }

// Groups returns the number of thread groups per axis for a grid of size voxels.
func Groups(size int) int {
	return (size + GroupSize - 1) / GroupSize
}

// Buffer is device memory holding float32 values.
type Buffer struct {
	Data []float32
	dev  *Device
}

// Alloc reserves a buffer of n float32 values against the device budget.
func (d *Device) Alloc(n int) (*Buffer, error) {
	bytes := int64(n) * 4
	if d.maxBytes > 0 {
		if d.allocated.Add(bytes) > d.maxBytes {
			d.allocated.Add(-bytes)
			return nil, fmt.Errorf("%w: need %s, budget %s", ErrResourceExhausted,
				humanize.Bytes(uint64(bytes)), humanize.Bytes(uint64(d.maxBytes)))
		}
	} else {
		d.allocated.Add(bytes)
	}
	return &Buffer{Data: make([]float32, n), dev: d}, nil
}

// Release returns the buffer's memory to the device budget.
func (b *Buffer) Release() {
	if b == nil || b.dev == nil {
		return
	}
	b.dev.allocated.Add(-int64(len(b.Data)) * 4)
	b.dev = nil
	b.Data = nil
}

// Dispatch runs kernel over a size³ grid and waits for every group to finish.
// A panicking kernel aborts the remaining groups and yields ErrDispatchFailed.
func (d *Device) Dispatch(name string, size int, kernel Kernel) error {
	if size <= 0 {
		return fmt.Errorf("%w: %s: empty grid", ErrDispatchFailed, name)
	}
	n := Groups(size)
	total := n * n * n

	groupChan := make(chan Group, d.workers*2)
	var wg sync.WaitGroup
	var failed atomic.Bool
	var firstErr atomic.Value

	for w := 0; w < d.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range groupChan {
				if failed.Load() {
					continue
				}
				if err := runGroup(kernel, g); err != nil {
					if failed.CompareAndSwap(false, true) {
						firstErr.Store(err)
					}
				}
			}
		}()
	}

	for i := 0; i < total; i++ {
		gx := i % n
		gy := (i / n) % n
		gz := i / (n * n)
		groupChan <- Group{X: gx, Y: gy, Z: gz, Size: size}
	}
	close(groupChan)
	wg.Wait()

	if failed.Load() {
		err, _ := firstErr.Load().(error)
		slog.Error("kernel dispatch failed", "kernel", name, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrDispatchFailed, name, err)
	}
	return nil
}

func runGroup(kernel Kernel, g Group) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("group (%d,%d,%d): %v", g.X, g.Y, g.Z, r)
		}
	}()
	kernel(g)
	return nil
}
