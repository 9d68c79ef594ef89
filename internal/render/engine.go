package render

import (
	"errors"
	"time"

	"github.com/coreman2200/funtimes-aurora/internal/automaton"
	"github.com/coreman2200/funtimes-aurora/internal/layout"
	"github.com/coreman2200/funtimes-aurora/internal/sensor"
)

// Overlay temporarily replaces the rendered primary frame, e.g. a wiring
// test pattern. Step returns false once it has nothing more to show.
type Overlay interface {
	Step(dst []RGB) bool
}

// Engine owns all cross-frame animation state and renders one frame per
// call: automaton step, sensor integration and injection, compositing,
// downsampling to the secondary ring, then the post stage.
type Engine struct {
	Field      *automaton.Field
	Rand       *automaton.Source
	Sensors    sensor.Source // nil disables stimulus
	Entropy    sensor.Entropy
	Integrator *sensor.Integrator
	Injector   *sensor.Injector
	Comp       *Compositor
	Down       *layout.Resampler

	// ReseedPerFrame folds one entropy sample into the generator each frame.
	ReseedPerFrame bool

	// framebuffers, fully overwritten every frame
	Primary   []RGB
	Secondary []RGB

	overlay Overlay
	scratch []RGB
	frame   uint64
	post    PostPipeline

	// metrics of the last frame
	Last struct {
		RenderMS float64
		PostMS   float64
		Sensors  [sensor.Channels]float64
	}
}

// PostPipeline groups post stages; all are optional.
type PostPipeline struct {
	Limiter func(frames ...[]RGB)
}

// NewEngine checks that the pieces agree on ring sizes and allocates the
// output buffers.
func NewEngine(f *automaton.Field, rng *automaton.Source, comp *Compositor, down *layout.Resampler) (*Engine, error) {
	switch {
	case f == nil || rng == nil || comp == nil || down == nil:
		return nil, errors.New("engine: missing component")
	case f.Len() != comp.Ring.Count:
		return nil, errors.New("engine: field and primary ring sizes differ")
	case down.Src.Count != comp.Ring.Count:
		return nil, errors.New("engine: downsampler source is not the primary ring")
	}
	return &Engine{
		Field:     f,
		Rand:      rng,
		Comp:      comp,
		Down:      down,
		Primary:   make([]RGB, comp.Ring.Count),
		Secondary: make([]RGB, down.Dst.Count),
		scratch:   make([]RGB, comp.Ring.Count),
	}, nil
}

// WithSensors wires stimulus. Both the integrator and injector are required.
func (e *Engine) WithSensors(src sensor.Source, g *sensor.Integrator, inj *sensor.Injector) *Engine {
	e.Sensors, e.Integrator, e.Injector = src, g, inj
	return e
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// SetOverlay shows o instead of the animation until o reports done. The
// animation keeps running underneath.
func (e *Engine) SetOverlay(o Overlay) { e.overlay = o }

func (e *Engine) Overlay() Overlay { return e.overlay }

// Frame is the frame counter, the plasma field's only notion of time.
func (e *Engine) Frame() uint64 { return e.frame }

// Advance moves to the next frame. Called once per transmitted frame.
func (e *Engine) Advance() { e.frame++ }

// RenderOnce renders the current frame. now is monotonic time since start,
// used only by the sensor filters.
func (e *Engine) RenderOnce(now time.Duration) {
	start := time.Now()

	if e.ReseedPerFrame && e.Entropy != nil {
		e.Rand.Mix(e.Entropy.Sample())
	}
	e.Field.Step(e.Rand)

	if e.Sensors != nil && e.Integrator != nil && e.Injector != nil {
		for ch := 0; ch < sensor.Channels; ch++ {
			v := e.Integrator.Integrate(ch, e.Sensors.ReadRaw(ch), now)
			e.Injector.Inject(e.Field, ch, v)
		}
		e.Last.Sensors = e.Integrator.Values()
	}

	e.Comp.Render(e.Field.Cells, e.frame, e.Primary)
	if e.overlay != nil {
		if e.overlay.Step(e.scratch) {
			copy(e.Primary, e.scratch)
		} else {
			e.overlay = nil
		}
	}
	layout.Map(e.Down, e.Primary, e.Secondary)

	postStart := time.Now()
	if e.post.Limiter != nil {
		e.post.Limiter(e.Primary, e.Secondary)
	}
	e.Last.PostMS = float64(time.Since(postStart).Microseconds()) / 1000.0
	e.Last.RenderMS = float64(time.Since(start).Microseconds()) / 1000.0
}
