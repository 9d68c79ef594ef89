package sensor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// fullScale10 is the top of the 10-bit range the tuning constants assume.
const fullScale10 = 1023

// DefaultFullScale is the sensor supply voltage.
const DefaultFullScale = 3300 * physic.MilliVolt

// Sampler is the part of an analog input the poller uses;
// ads1x15 pins satisfy it.
type Sampler interface {
	Read() (analog.Sample, error)
}

// ADC keeps the latest sample of every channel so the frame loop can read
// without waiting on the I2C conversions.
type ADC struct {
	// FullScale is the input voltage that reads as 1023. The converter's
	// own range is usually wider, since the PGA rounds up to the next step.
	FullScale physic.ElectricPotential

	pins    []Sampler
	entropy Sampler
	latest  [Channels]atomic.Int32
	noise   atomic.Uint32

	closers []func() error
}

func NewADC(pins []Sampler, entropy Sampler) (*ADC, error) {
	if len(pins) != Channels {
		return nil, fmt.Errorf("adc: %d pins, want %d", len(pins), Channels)
	}
	return &ADC{FullScale: DefaultFullScale, pins: pins, entropy: entropy}, nil
}

type ADCOpts struct {
	Bus            string
	Addresses      []uint16
	MaxMilliV      int
	EntropyChannel int // index over all converter inputs; <0 disables
}

// OpenADC initializes the host and opens one ADS1115 per address. Sensor
// channel ch is input ch%4 of converter ch/4.
func OpenADC(o ADCOpts) (*ADC, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(o.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %w", o.Bus, err)
	}
	closers := []func() error{bus.Close}
	fail := func(err error) (*ADC, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	devs := make([]*ads1x15.Dev, 0, len(o.Addresses))
	for _, addr := range o.Addresses {
		d, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: addr})
		if err != nil {
			return fail(fmt.Errorf("ads1115 at %#x: %w", addr, err))
		}
		devs = append(devs, d)
		closers = append(closers, d.Halt)
	}

	pin := func(idx int) (Sampler, error) {
		if idx/4 >= len(devs) {
			return nil, fmt.Errorf("adc input %d needs converter %d, have %d", idx, idx/4+1, len(devs))
		}
		return openPin(devs[idx/4], idx%4, o.MaxMilliV)
	}
	pins := make([]Sampler, Channels)
	for ch := range pins {
		p, err := pin(ch)
		if err != nil {
			return fail(err)
		}
		pins[ch] = p
	}
	var ent Sampler
	if o.EntropyChannel >= 0 {
		if ent, err = pin(o.EntropyChannel); err != nil {
			return fail(err)
		}
	}
	a, err := NewADC(pins, ent)
	if err != nil {
		return fail(err)
	}
	if o.MaxMilliV > 0 {
		a.FullScale = physic.ElectricPotential(o.MaxMilliV) * physic.MilliVolt
	}
	a.closers = closers
	return a, nil
}

func openPin(d *ads1x15.Dev, input int, maxMilliV int) (Sampler, error) {
	chans := [...]ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}
	p, err := d.PinForChannel(chans[input], physic.ElectricPotential(maxMilliV)*physic.MilliVolt, 860*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("ads1115 input %d: %w", input, err)
	}
	return p, nil
}

// Poll cycles through every input until ctx is done.
func (a *ADC) Poll(ctx context.Context) {
	for ctx.Err() == nil {
		a.PollOnce()
	}
}

// PollOnce samples every input once. A failed read keeps the previous value.
func (a *ADC) PollOnce() {
	for ch, p := range a.pins {
		s, err := p.Read()
		if err != nil {
			log.Debug().Err(err).Int("channel", ch).Msg("adc read")
			continue
		}
		a.latest[ch].Store(int32(normalize(s, a.FullScale)))
	}
	if a.entropy != nil {
		if s, err := a.entropy.Read(); err == nil {
			a.noise.Store(a.noise.Load()*31 + uint32(s.Raw))
		}
	}
}

func (a *ADC) ReadRaw(ch int) int {
	if ch < 0 || ch >= Channels {
		return 0
	}
	return int(a.latest[ch].Load())
}

// Entropy returns a source backed by the floating input, or nil when none
// was configured.
func (a *ADC) Entropy() Entropy {
	if a.entropy == nil {
		return nil
	}
	return adcEntropy{a}
}

type adcEntropy struct{ a *ADC }

func (e adcEntropy) Sample() uint16 {
	n := e.a.noise.Load()
	return uint16(n ^ n>>16)
}

func (a *ADC) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func normalize(s analog.Sample, full physic.ElectricPotential) int {
	if full <= 0 {
		full = DefaultFullScale
	}
	v := int64(s.V) * fullScale10 / int64(full)
	if v < 0 {
		return 0
	}
	if v > fullScale10 {
		return fullScale10
	}
	return int(v)
}
