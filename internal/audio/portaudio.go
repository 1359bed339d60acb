package audio

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 512

// PortAudioCapture owns the microphone stream. It runs continuously
// and publishes every frame to the Tap; consumers decide what to do
// with them. Privacy gating happens downstream (the spotter detaches
// while asleep), not by stopping the device.
type PortAudioCapture struct {
	cfg Config
	tap *Tap

	mu      sync.Mutex
	stream  *portaudio.Stream
	running bool
}

// NewPortAudioCapture initializes the PortAudio host API. Callers must
// Close to release it.
func NewPortAudioCapture(cfg Config, tap *Tap) (*PortAudioCapture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	return &PortAudioCapture{cfg: cfg, tap: tap}, nil
}

// Devices lists input-capable devices.
func (c *PortAudioCapture) Devices() ([]Device, error) {
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	def, err := portaudio.DefaultInputDevice()
	if err != nil {
		log.Printf("[audio] no default input device: %v", err)
	}

	var devices []Device
	for i, info := range infos {
		if info.MaxInputChannels < 1 {
			continue
		}
		devices = append(devices, Device{
			ID:            i,
			Name:          info.Name,
			InputChannels: info.MaxInputChannels,
			IsDefault:     def != nil && info.Name == def.Name,
		})
	}
	return devices, nil
}

// Start opens the input stream and begins publishing frames.
func (c *PortAudioCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("capture already running")
	}

	info, err := c.resolveDevice()
	if err != nil {
		return err
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: 1,
			Latency:  info.DefaultLowInputLatency,
		},
		SampleRate:      float64(c.cfg.SampleRate),
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, c.callback)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}

	c.stream = stream
	c.running = true
	log.Printf("[audio] capture started: device=%q rate=%d frames=%d",
		info.Name, c.cfg.SampleRate, framesPerBuffer)
	return nil
}

func (c *PortAudioCapture) resolveDevice() (*portaudio.DeviceInfo, error) {
	if c.cfg.DeviceID < 0 {
		info, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return info, nil
	}
	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if c.cfg.DeviceID >= len(infos) {
		return nil, fmt.Errorf("device %d not found (%d devices)", c.cfg.DeviceID, len(infos))
	}
	info := infos[c.cfg.DeviceID]
	if info.MaxInputChannels < 1 {
		return nil, fmt.Errorf("device %d (%s) has no input channels", c.cfg.DeviceID, info.Name)
	}
	return info, nil
}

// callback runs on the PortAudio capture thread. Keep it cheap: copy
// out and hand off.
func (c *PortAudioCapture) callback(in []int16) {
	c.tap.Publish(in)
}

// Stop halts the stream without releasing the host API.
func (c *PortAudioCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}
	return nil
}

// Close stops the stream if needed and terminates PortAudio.
func (c *PortAudioCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		if c.running {
			c.stream.Stop()
			c.running = false
		}
		c.stream.Close()
		c.stream = nil
	}
	return portaudio.Terminate()
}
