//go:build opencl

package main

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"github.com/aklo360/mcliv/field"
)

// openCLStepper runs the per-point frame update as one kernel launch. The
// device owns the authoritative state between frames; displacement, velocity
// and positions are read back every frame so the CPU path can take over at
// any point.
type openCLStepper struct {
	physics field.Physics

	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel

	n          int
	bound      *field.Field
	baseBuf    *cl.MemObject
	dispXBuf   *cl.MemObject
	dispYBuf   *cl.MemObject
	velXBuf    *cl.MemObject
	velYBuf    *cl.MemObject
	posBuf     *cl.MemObject
	baseHost   []float32
	deviceName string
}

const fieldKernelSource = `__kernel void field_step(
    const int n,
    const float t,
    const float hx,
    const float hy,
    const int active,
    const int reduced,
    const float damping,
    const float spring,
    const float inv2s2,
    const float strength,
    const float swirl,
    __global const float* base,
    __global float* disp_x,
    __global float* disp_y,
    __global float* vel_x,
    __global float* vel_y,
    __global float* positions)
{
    int idx = get_global_id(0);
    if (idx >= n) {
        return;
    }
    float bx = base[idx * 2];
    float by = base[idx * 2 + 1];

    float wave = 0.0f;
    if (!reduced) {
        float rx = bx * cos(0.4f) - by * sin(0.4f);
        wave = 0.12f * sin(bx * 1.2f + t * 0.6f)
             + 0.09f * cos(by * 1.3f - t * 0.5f)
             + 0.06f * sin((bx + by) * 0.9f + t * 0.9f)
             + 0.05f * sin(rx * 2.0f + t * 0.8f);
    }

    float vx = vel_x[idx];
    float vy = vel_y[idx];
    float dx = disp_x[idx];
    float dy = disp_y[idx];

    if (active) {
        float px = bx - hx;
        float py = by - hy;
        float dist2 = px * px + py * py;
        float influence = exp(-dist2 * inv2s2);
        float l = sqrt(dist2) + 1e-6f;
        float ux = px / l;
        float uy = py / l;
        float impulse = strength * influence;
        vx += (ux - uy * swirl) * impulse;
        vy += (uy + ux * swirl) * impulse;
    }

    vx = (vx - spring * dx) * damping;
    vy = (vy - spring * dy) * damping;
    dx += vx;
    dy += vy;

    vel_x[idx] = vx;
    vel_y[idx] = vy;
    disp_x[idx] = dx;
    disp_y[idx] = dy;
    positions[idx * 3] = bx + dx;
    positions[idx * 3 + 1] = by + dy;
    positions[idx * 3 + 2] = wave;
}`

func newOpenCLStepper(p field.Physics) (*openCLStepper, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}
	device := pickDevice(platforms, cl.DeviceTypeGPU)
	if device == nil {
		device = pickDevice(platforms, cl.DeviceTypeCPU)
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	s := &openCLStepper{physics: p, deviceName: device.Name()}
	if s.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	if s.queue, err = s.context.CreateCommandQueue(device, 0); err != nil {
		s.Close()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if s.program, err = s.context.CreateProgramWithSource([]string{fieldKernelSource}); err != nil {
		s.Close()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := s.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		s.Close()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	if s.kernel, err = s.program.CreateKernel("field_step"); err != nil {
		s.Close()
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}
	return s, nil
}

func pickDevice(platforms []*cl.Platform, kind cl.DeviceType) *cl.Device {
	for _, p := range platforms {
		devices, err := p.GetDevices(kind)
		if err != nil && err != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			return devices[0]
		}
	}
	return nil
}

func (s *openCLStepper) DeviceName() string { return s.deviceName }

// bind allocates device buffers for f and uploads its current state.
func (s *openCLStepper) bind(f *field.Field) error {
	s.releaseBuffers()
	n := f.Len()
	floatSize := int(unsafe.Sizeof(float32(0)))
	alloc := func(flags cl.MemFlag, count int, what string) (*cl.MemObject, error) {
		buf, err := s.context.CreateEmptyBuffer(flags, count*floatSize)
		if err != nil {
			return nil, fmt.Errorf("allocating %s buffer: %w", what, err)
		}
		return buf, nil
	}
	var err error
	if s.baseBuf, err = alloc(cl.MemReadOnly, n*2, "base"); err != nil {
		return err
	}
	if s.dispXBuf, err = alloc(cl.MemReadWrite, n, "displacement x"); err != nil {
		return err
	}
	if s.dispYBuf, err = alloc(cl.MemReadWrite, n, "displacement y"); err != nil {
		return err
	}
	if s.velXBuf, err = alloc(cl.MemReadWrite, n, "velocity x"); err != nil {
		return err
	}
	if s.velYBuf, err = alloc(cl.MemReadWrite, n, "velocity y"); err != nil {
		return err
	}
	if s.posBuf, err = alloc(cl.MemWriteOnly, n*3, "position"); err != nil {
		return err
	}

	if cap(s.baseHost) < n*2 {
		s.baseHost = make([]float32, n*2)
	}
	s.baseHost = s.baseHost[:n*2]
	g := f.Grid()
	for idx := 0; idx < n; idx++ {
		s.baseHost[idx*2], s.baseHost[idx*2+1] = g.Base(idx)
	}
	uploads := []struct {
		buf  *cl.MemObject
		data []float32
	}{
		{s.baseBuf, s.baseHost},
		{s.dispXBuf, f.DispX},
		{s.dispYBuf, f.DispY},
		{s.velXBuf, f.VelX},
		{s.velYBuf, f.VelY},
	}
	for _, u := range uploads {
		if _, err := s.queue.EnqueueWriteBufferFloat32(u.buf, true, 0, u.data, nil); err != nil {
			return fmt.Errorf("uploading field state: %w", err)
		}
	}
	s.n = n
	s.bound = f
	return nil
}

// Step launches one frame update and reads the state back into f.
func (s *openCLStepper) Step(f *field.Field, in field.StepInput) error {
	if s.kernel == nil {
		return errors.New("OpenCL stepper closed")
	}
	if f.DispX == nil {
		return errors.New("field buffers released")
	}
	if s.bound != f || s.n != f.Len() {
		if err := s.bind(f); err != nil {
			return err
		}
	}

	p := s.physics
	sigma := p.Radius * field.SigmaScale
	active, reduced := int32(0), int32(0)
	if field.HitActive(in.Hit) {
		active = 1
	}
	if in.Reduced {
		reduced = 1
	}
	// The wave repeats every WavePeriod; folding keeps float32 time precise.
	t := math.Mod(in.T, field.WavePeriod)
	if err := s.kernel.SetArgs(
		int32(s.n),
		float32(t),
		float32(in.Hit.X),
		float32(in.Hit.Y),
		active,
		reduced,
		float32(p.Damping),
		float32(p.Spring),
		float32(1/(2*sigma*sigma)),
		float32(p.Strength),
		float32(p.Swirl),
		s.baseBuf,
		s.dispXBuf,
		s.dispYBuf,
		s.velXBuf,
		s.velYBuf,
		s.posBuf,
	); err != nil {
		return fmt.Errorf("setting kernel arguments: %w", err)
	}
	if _, err := s.queue.EnqueueNDRangeKernel(s.kernel, nil, []int{s.n}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}

	readbacks := []struct {
		buf  *cl.MemObject
		data []float32
	}{
		{s.dispXBuf, f.DispX},
		{s.dispYBuf, f.DispY},
		{s.velXBuf, f.VelX},
		{s.velYBuf, f.VelY},
		{s.posBuf, f.Positions},
	}
	for _, r := range readbacks {
		if _, err := s.queue.EnqueueReadBufferFloat32(r.buf, true, 0, r.data, nil); err != nil {
			return fmt.Errorf("reading field state: %w", err)
		}
	}
	f.MarkDirty()
	return nil
}

func (s *openCLStepper) releaseBuffers() {
	for _, buf := range []**cl.MemObject{&s.baseBuf, &s.dispXBuf, &s.dispYBuf, &s.velXBuf, &s.velYBuf, &s.posBuf} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	s.bound = nil
	s.n = 0
}

func (s *openCLStepper) Close() {
	s.releaseBuffers()
	if s.kernel != nil {
		s.kernel.Release()
		s.kernel = nil
	}
	if s.program != nil {
		s.program.Release()
		s.program = nil
	}
	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.context != nil {
		s.context.Release()
		s.context = nil
	}
}
