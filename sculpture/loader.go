package sculpture

import (
	"context"

	"github.com/aklo360/mcliv/field"
)

// Resources are acquired asynchronously when a sculpture mounts.
type Resources struct {
	Stepper field.Stepper
}

// Loader acquires mount resources off the render thread. It should return
// promptly once ctx is cancelled.
type Loader func(ctx context.Context, cfg Config) (Resources, error)

// CPULoader resolves immediately with the CPU stepper.
func CPULoader(_ context.Context, cfg Config) (Resources, error) {
	return Resources{Stepper: field.NewCPUStepper(cfg.Physics)}, nil
}

// load runs the loader on its own goroutine and posts the result back to
// the render thread. The continuation checks the mount's cancelled flag, so
// a load finishing after Unmount never touches a torn-down mount.
func (m *mount) load(loader Loader) {
	ctx := m.ctx
	go func() {
		res, err := loader(ctx, m.cfg)
		m.host.Post(func() { m.loaded(res, err) })
	}()
}

func (m *mount) loaded(res Resources, err error) {
	if m.cancelled {
		if res.Stepper != nil {
			res.Stepper.Close()
		}
		m.log.Debugw("load finished after unmount; discarded", "error", err)
		return
	}
	if err != nil || res.Stepper == nil {
		if res.Stepper != nil {
			res.Stepper.Close()
		}
		m.log.Warnw("resource load failed; using CPU stepper", "error", err)
		res.Stepper = field.NewCPUStepper(m.cfg.Physics)
	}
	m.start(res)
}
