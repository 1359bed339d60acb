package audio

import "math"

// Device is an audio input device visible to the capture driver.
type Device struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	InputChannels int    `json:"input_channels"`
	IsDefault     bool   `json:"is_default"`
}

// Config holds capture configuration. DeviceID -1 selects the default
// input device. Capture is mono 16-bit PCM.
type Config struct {
	DeviceID   int
	SampleRate int
}

// DefaultConfig is 16 kHz mono on the default device, the rate the
// transcription engine expects.
func DefaultConfig() Config {
	return Config{DeviceID: -1, SampleRate: 16000}
}

// RMS computes the root mean square amplitude of a frame.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}
