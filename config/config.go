package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gopkg.in/yaml.v3"
)

// MIDISource selects where MIDI comes from
type MIDISource string

const (
	SourcePort   MIDISource = "port"   // rtmidi input, hot-plugged
	SourceSerial MIDISource = "serial" // DIN MIDI on a UART
	SourceNone   MIDISource = "none"
)

// LCDPins names the GPIO lines of the character display
type LCDPins struct {
	RS string `json:"rs" yaml:"rs"`
	E  string `json:"e" yaml:"e"`
	D4 string `json:"d4" yaml:"d4"`
	D5 string `json:"d5" yaml:"d5"`
	D6 string `json:"d6" yaml:"d6"`
	D7 string `json:"d7" yaml:"d7"`
}

// HardwareConfig describes the converter board
type HardwareConfig struct {
	I2CBus       string            `json:"i2cBus,omitempty" yaml:"i2cBus,omitempty"` // empty = first bus
	DACAddr      uint16            `json:"dacAddr" yaml:"dacAddr"`
	ExpanderAddr uint16            `json:"expanderAddr" yaml:"expanderAddr"`
	ADCAddr      uint16            `json:"adcAddr" yaml:"adcAddr"`
	LCD          LCDPins           `json:"lcd" yaml:"lcd"`
	Buttons      map[string]string `json:"buttons" yaml:"buttons"` // button name -> pin name
	DebounceMS   int               `json:"debounceMs" yaml:"debounceMs"`
	HoldMS       int               `json:"holdMs" yaml:"holdMs"`
	TempoPollMS  int               `json:"tempoPollMs" yaml:"tempoPollMs"`
}

// MIDIConfig selects and filters the MIDI input
type MIDIConfig struct {
	Source       MIDISource `json:"source" yaml:"source"`
	Port         string     `json:"port,omitempty" yaml:"port,omitempty"` // substring of the port name
	SerialDevice string     `json:"serialDevice,omitempty" yaml:"serialDevice,omitempty"`
	Baud         int        `json:"baud,omitempty" yaml:"baud,omitempty"`
	Channel      int        `json:"channel" yaml:"channel"` // 1-16, 0 = omni
}

// VoiceConfig holds the allocator's calibration
type VoiceConfig struct {
	LiveBudget     int     `json:"liveBudget" yaml:"liveBudget"`
	TriggerUS      int     `json:"triggerUs" yaml:"triggerUs"`
	ReferenceNote  int     `json:"referenceNote" yaml:"referenceNote"`
	FullScaleVolts float64 `json:"fullScaleVolts" yaml:"fullScaleVolts"`
	MaxCode        uint16  `json:"maxCode" yaml:"maxCode"`
	BendRange      float64 `json:"bendRange" yaml:"bendRange"`
}

// TempoConfig bounds the tempo control
type TempoConfig struct {
	BPM    float64 `json:"bpm" yaml:"bpm"`
	MinBPM float64 `json:"minBpm" yaml:"minBpm"`
	MaxBPM float64 `json:"maxBpm" yaml:"maxBpm"`
}

// UIConfig stores simulator preferences
type UIConfig struct {
	Palette    string `json:"palette,omitempty" yaml:"palette,omitempty"` // GIMP .gpl file, empty = built in
	BaseOctave int    `json:"baseOctave" yaml:"baseOctave"`
}

// Config is the main configuration structure
type Config struct {
	Hardware HardwareConfig `json:"hardware" yaml:"hardware"`
	MIDI     MIDIConfig     `json:"midi" yaml:"midi"`
	Voices   VoiceConfig    `json:"voices" yaml:"voices"`
	Tempo    TempoConfig    `json:"tempo" yaml:"tempo"`
	UI       UIConfig       `json:"ui,omitempty" yaml:"ui,omitempty"`
}

// DefaultConfig returns a config matching the reference board
func DefaultConfig() *Config {
	return &Config{
		Hardware: HardwareConfig{
			DACAddr:      0x48,
			ExpanderAddr: 0x20,
			ADCAddr:      0x6A,
			LCD: LCDPins{
				RS: "GPIO13", E: "GPIO12",
				D4: "GPIO4", D5: "GPIO5", D6: "GPIO6", D7: "GPIO7",
			},
			Buttons: map[string]string{
				"layer":   "GPIO16",
				"step":    "GPIO17",
				"budget":  "GPIO22",
				"rest":    "GPIO23",
				"ratchet": "GPIO24",
				"clear":   "GPIO25",
			},
			DebounceMS:  20,
			HoldMS:      1000,
			TempoPollMS: 20,
		},
		MIDI: MIDIConfig{
			Source:       SourcePort,
			SerialDevice: "/dev/serial0",
			Baud:         31250,
		},
		Voices: VoiceConfig{
			LiveBudget:     4,
			TriggerUS:      2000,
			ReferenceNote:  36,
			FullScaleVolts: 5.0,
			MaxCode:        4095,
			BendRange:      2,
		},
		Tempo: TempoConfig{
			BPM:    120,
			MinBPM: 20,
			MaxBPM: 300,
		},
		UI: UIConfig{
			BaseOctave: 4,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-midicv"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a JSON or YAML (.yaml, .yml) config. Missing files give
// defaults; fields absent from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fault.Wrap(err, fmsg.WithDesc("read config", "Could not read "+path))
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fault.Wrap(err,
			ftag.With(ftag.InvalidArgument),
			fmsg.WithDesc("parse config", "Config file "+path+" is not valid"))
	}

	cfg.Validate()
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return fault.Wrap(err, fmsg.With("config path"))
	}
	return c.SaveFile(path)
}

// SaveFile writes the config, as YAML when the extension says so
func (c *Config) SaveFile(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config dir"))
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fault.Wrap(err, fmsg.WithDesc("write config", "Could not write "+path))
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Validate clamps out-of-range values back into range
func (c *Config) Validate() {
	d := DefaultConfig()

	c.Voices.LiveBudget = clampInt(c.Voices.LiveBudget, 0, 8)
	c.Voices.TriggerUS = clampInt(c.Voices.TriggerUS, 1000, 5000)
	if c.Voices.FullScaleVolts <= 0 {
		c.Voices.FullScaleVolts = d.Voices.FullScaleVolts
	}
	if c.Voices.MaxCode == 0 {
		c.Voices.MaxCode = d.Voices.MaxCode
	}
	if c.Voices.BendRange <= 0 || c.Voices.BendRange > 24 {
		c.Voices.BendRange = d.Voices.BendRange
	}

	if c.Tempo.MinBPM <= 0 {
		c.Tempo.MinBPM = d.Tempo.MinBPM
	}
	if c.Tempo.MaxBPM < c.Tempo.MinBPM {
		c.Tempo.MaxBPM = c.Tempo.MinBPM
	}
	if c.Tempo.BPM < c.Tempo.MinBPM {
		c.Tempo.BPM = c.Tempo.MinBPM
	}
	if c.Tempo.BPM > c.Tempo.MaxBPM {
		c.Tempo.BPM = c.Tempo.MaxBPM
	}

	c.MIDI.Channel = clampInt(c.MIDI.Channel, 0, 16)
	switch c.MIDI.Source {
	case SourcePort, SourceSerial, SourceNone:
	default:
		c.MIDI.Source = d.MIDI.Source
	}
	if c.MIDI.Baud <= 0 {
		c.MIDI.Baud = d.MIDI.Baud
	}

	if c.Hardware.DebounceMS <= 0 {
		c.Hardware.DebounceMS = d.Hardware.DebounceMS
	}
	if c.Hardware.HoldMS <= 0 {
		c.Hardware.HoldMS = d.Hardware.HoldMS
	}
	if c.Hardware.TempoPollMS <= 0 {
		c.Hardware.TempoPollMS = d.Hardware.TempoPollMS
	}
	c.UI.BaseOctave = clampInt(c.UI.BaseOctave, 0, 8)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TriggerWidth is the trigger pulse length
func (c *Config) TriggerWidth() time.Duration {
	return time.Duration(c.Voices.TriggerUS) * time.Microsecond
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Hardware.DebounceMS) * time.Millisecond
}

func (c *Config) HoldTime() time.Duration {
	return time.Duration(c.Hardware.HoldMS) * time.Millisecond
}

func (c *Config) TempoPoll() time.Duration {
	return time.Duration(c.Hardware.TempoPollMS) * time.Millisecond
}
