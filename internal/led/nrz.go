package led

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-aurora/internal/render"
)

// StripOpts describes one physical ring.
type StripOpts struct {
	Name  string
	Dev   string // spireg name, "" picks the first port
	Count int
	Order Order
}

// SPIClock is the only port speed nrzled accepts. It packs each WS281x bit
// into three SPI bits, which yields the 800kHz LED bit rate.
const SPIClock = 2500 * physic.KiloHertz

// Strip is one WS281x ring behind an SPI port, NRZ encoded by nrzled.
type Strip struct {
	Name  string
	Count int
	Order Order

	dev  *nrzled.Dev
	port spi.PortCloser
	buf  []byte
}

// NewStrip wraps an already opened port. The strip does not own p.
func NewStrip(p spi.Port, o StripOpts) (*Strip, error) {
	if o.Count <= 0 {
		return nil, fmt.Errorf("strip %s: invalid LED count %d", o.Name, o.Count)
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: o.Count, Channels: 3, Freq: SPIClock})
	if err != nil {
		return nil, fmt.Errorf("strip %s: %w", o.Name, err)
	}
	return &Strip{
		Name:  o.Name,
		Count: o.Count,
		Order: o.Order,
		dev:   d,
		buf:   make([]byte, 3*o.Count),
	}, nil
}

// nrzled always transmits its input as G,R,B. pack returns the input bytes
// that make the wire carry the strip's own order.
func (s *Strip) pack(c render.RGB) [3]byte {
	w := s.Order.Wire(c)
	return [3]byte{w[1], w[0], w[2]}
}

// Write transmits frame scaled by brightness.
func (s *Strip) Write(frame []render.RGB, brightness uint8) error {
	if len(frame) != s.Count {
		return fmt.Errorf("strip %s: frame has %d LEDs, want %d", s.Name, len(frame), s.Count)
	}
	for i, c := range frame {
		if brightness != 255 {
			c = c.Scale(brightness)
		}
		b := s.pack(c)
		copy(s.buf[3*i:], b[:])
	}
	if _, err := s.dev.Write(s.buf); err != nil {
		return fmt.Errorf("strip %s: %w", s.Name, err)
	}
	return nil
}

// Close blanks the strip and closes its port if the strip opened it.
func (s *Strip) Close() error {
	err := s.dev.Halt()
	if s.port != nil {
		err = errors.Join(err, s.port.Close())
		s.port = nil
	}
	return err
}

// NRZ drives both rings over SPI.
type NRZ struct {
	Primary    *Strip
	Secondary  *Strip
	brightness uint8
}

func NewNRZ(primary, secondary *Strip, brightness uint8) *NRZ {
	return &NRZ{Primary: primary, Secondary: secondary, brightness: brightness}
}

// OpenNRZ initializes the host drivers and opens one SPI port per ring.
func OpenNRZ(primary, secondary StripOpts, brightness uint8) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := openStrip(primary)
	if err != nil {
		return nil, err
	}
	s, err := openStrip(secondary)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return NewNRZ(p, s, brightness), nil
}

func openStrip(o StripOpts) (*Strip, error) {
	port, err := spireg.Open(o.Dev)
	if err != nil {
		return nil, fmt.Errorf("strip %s: open spi %q: %w", o.Name, o.Dev, err)
	}
	s, err := NewStrip(port, o)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	s.port = port
	return s, nil
}

func (n *NRZ) Show(primary, secondary []render.RGB) error {
	if err := n.Primary.Write(primary, n.brightness); err != nil {
		return err
	}
	return n.Secondary.Write(secondary, n.brightness)
}

func (n *NRZ) SetBrightness(b uint8) { n.brightness = b }

func (n *NRZ) Brightness() uint8 { return n.brightness }

func (n *NRZ) Close() error {
	return errors.Join(n.Primary.Close(), n.Secondary.Close())
}
