// Package config loads and validates the screen layout and transport settings
// shared by both roles.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"sharemouse/internal/cursor"
	"sharemouse/internal/geometry"
	"sharemouse/internal/hotkey"
	"sharemouse/internal/input"
	"sharemouse/internal/network"
	"sharemouse/internal/protocol"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// DefaultPort is used for remote_port and listen_port when unset
const DefaultPort = 5000

// Config represents the application configuration
type Config struct {
	// RemoteIP and RemotePort address the receiving machine (send role)
	RemoteIP   string `yaml:"remote_ip" toml:"remote_ip" json:"remote_ip"`
	RemotePort uint16 `yaml:"remote_port" toml:"remote_port" json:"remote_port"`

	// Screen is this machine's display, RemoteScreen the peer's
	Screen       geometry.Screen `yaml:"screen" toml:"screen" json:"screen"`
	RemoteScreen geometry.Screen `yaml:"remote_screen" toml:"remote_screen" json:"remote_screen"`

	Layout LayoutConfig `yaml:"layout" toml:"layout" json:"layout"`
	Edge   EdgeConfig   `yaml:"edge" toml:"edge" json:"edge"`

	Protocol network.Protocol `yaml:"protocol" toml:"protocol" json:"protocol"`

	// BufferSize caps a received datagram or frame, in bytes
	BufferSize int `yaml:"buffer_size" toml:"buffer_size" json:"buffer_size"`

	// EdgeThreshold is the edge proximity in pixels that triggers a handoff
	EdgeThreshold float64 `yaml:"edge_threshold" toml:"edge_threshold" json:"edge_threshold"`

	// Hysteresis is how far, in pixels, the cursor must come back into the
	// local screen before control returns from the remote
	Hysteresis float64 `yaml:"hysteresis" toml:"hysteresis" json:"hysteresis"`

	MoveMode cursor.MoveMode `yaml:"move_mode" toml:"move_mode" json:"move_mode"`

	// PollIntervalMS is the cursor sampling period of the send role
	PollIntervalMS int `yaml:"poll_interval_ms" toml:"poll_interval_ms" json:"poll_interval_ms"`

	// InputDevice is an optional evdev node (/dev/input/eventN) read for
	// buttons and wheel ticks on Linux
	InputDevice string `yaml:"input_device,omitempty" toml:"input_device,omitempty" json:"input_device,omitempty"`

	// ReclaimChord is a button chord such as "Left+Right" that pulls the
	// pointer back from the remote. Needs input_device for button events.
	ReclaimChord string `yaml:"reclaim_chord,omitempty" toml:"reclaim_chord,omitempty" json:"reclaim_chord,omitempty"`

	// ListenPort is the receive role's default port
	ListenPort uint16 `yaml:"listen_port" toml:"listen_port" json:"listen_port"`

	// StatusPort serves the read-only status API; 0 disables it
	StatusPort uint16 `yaml:"status_port,omitempty" toml:"status_port,omitempty" json:"status_port,omitempty"`
	// APIToken, when set, is required as a Bearer token by the status API
	APIToken string `yaml:"api_token,omitempty" toml:"api_token,omitempty" json:"api_token,omitempty"`
}

// StatusAddr returns the status API listen address, empty when disabled
func (c *Config) StatusAddr() string {
	if c.StatusPort == 0 {
		return ""
	}
	return net.JoinHostPort("", strconv.Itoa(int(c.StatusPort)))
}

// LayoutConfig describes where each screen sits
type LayoutConfig struct {
	Position       geometry.Direction `yaml:"position" toml:"position" json:"position"`
	RemotePosition geometry.Direction `yaml:"remote_position" toml:"remote_position" json:"remote_position"`
}

// EdgeConfig names the edge that hands control over in each direction
type EdgeConfig struct {
	SenderToReceiver geometry.Direction `yaml:"sender_to_receiver" toml:"sender_to_receiver" json:"sender_to_receiver"`
	ReceiverToSender geometry.Direction `yaml:"receiver_to_sender" toml:"receiver_to_sender" json:"receiver_to_sender"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RemoteIP:     "192.168.1.100",
		RemotePort:   DefaultPort,
		Screen:       geometry.Screen{Width: 2560, Height: 1440},
		RemoteScreen: geometry.Screen{Width: 1920, Height: 1080},
		Layout: LayoutConfig{
			Position:       geometry.Left,
			RemotePosition: geometry.Right,
		},
		Edge: EdgeConfig{
			SenderToReceiver: geometry.Right,
			ReceiverToSender: geometry.Left,
		},
		Protocol:       network.UDP,
		BufferSize:     network.DefaultBufferSize,
		EdgeThreshold:  geometry.DefaultEdgeThreshold,
		MoveMode:       cursor.Absolute,
		PollIntervalMS: int(input.DefaultPollInterval / time.Millisecond),
		ListenPort:     DefaultPort,
	}
}

// DefaultPath returns the per-user config file location
func DefaultPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "sharemouse")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "sharemouse")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "sharemouse")
	}

	return filepath.Join(configDir, "config.yaml"), nil
}

type format int

const (
	formatYAML format = iota
	formatTOML
	formatJSON
)

func formatOf(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML
	case ".json":
		return formatJSON
	default:
		return formatYAML
	}
}

// Load reads the configuration at path, choosing the decoder by extension
// (.toml, .json, anything else is YAML). Unset fields keep their defaults.
// The result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("Config: loaded %s", path)
	return cfg, nil
}

// Parse decodes and validates a configuration document. name only selects
// the decoder by its extension.
func Parse(data []byte, name string) (*Config, error) {
	cfg := DefaultConfig()

	var err error
	switch formatOf(name) {
	case formatTOML:
		_, err = toml.Decode(string(data), cfg)
	case formatJSON:
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the geometry and transport settings. Inconsistent layouts
// are rejected, never corrected.
func (c *Config) Validate() error {
	invalid := func(msg string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(msg, args...))
	}

	if c.Screen.Width == 0 || c.Screen.Height == 0 {
		return invalid("screen must have a non-zero size, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	if c.RemoteScreen.Width == 0 || c.RemoteScreen.Height == 0 {
		return invalid("remote_screen must have a non-zero size, got %dx%d", c.RemoteScreen.Width, c.RemoteScreen.Height)
	}

	pos := c.Layout.Position
	if !pos.Valid() {
		return invalid("layout.position is required")
	}
	if c.Layout.RemotePosition != pos.Opposite() {
		return invalid("layout.remote_position %s does not face position %s", c.Layout.RemotePosition, pos)
	}
	if c.Edge.SenderToReceiver != pos.Opposite() {
		return invalid("edge.sender_to_receiver must be %s for position %s, got %s", pos.Opposite(), pos, c.Edge.SenderToReceiver)
	}
	if c.Edge.ReceiverToSender != pos {
		return invalid("edge.receiver_to_sender must be %s for position %s, got %s", pos, pos, c.Edge.ReceiverToSender)
	}

	if c.EdgeThreshold < 0 {
		return invalid("edge_threshold must not be negative")
	}
	if c.Hysteresis < 0 {
		return invalid("hysteresis must not be negative")
	}
	// the return point sits threshold+hysteresis+1 px inside the local screen
	extent := float64(c.Screen.Height)
	if pos.Horizontal() {
		extent = float64(c.Screen.Width)
	}
	th := geometry.NewTransformer(c.GeometryLayout()).Threshold()
	if th+c.Hysteresis+1 >= extent {
		return invalid("hysteresis %.0f with edge_threshold %.0f does not fit the %.0f px local screen", c.Hysteresis, th, extent)
	}
	if c.PollIntervalMS < 0 {
		return invalid("poll_interval_ms must not be negative")
	}
	if c.BufferSize != 0 && c.BufferSize < protocol.MaxEncodedSize {
		return invalid("buffer_size must be at least %d bytes", protocol.MaxEncodedSize)
	}
	if c.ReclaimChord != "" {
		if _, err := hotkey.ParseChord(c.ReclaimChord); err != nil {
			return invalid("reclaim_chord: %v", err)
		}
	}
	return nil
}

// RemoteAddr returns "remote_ip:remote_port" for the send role
func (c *Config) RemoteAddr() (string, error) {
	if c.RemoteIP == "" {
		return "", fmt.Errorf("%w: remote_ip is required", ErrInvalidConfig)
	}
	port := c.RemotePort
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.RemoteIP, strconv.Itoa(int(port))), nil
}

// GeometryLayout builds the screen layout used by the cursor state machine
func (c *Config) GeometryLayout() geometry.Layout {
	return geometry.Layout{
		Local:          c.Screen,
		Remote:         c.RemoteScreen,
		Position:       c.Layout.Position,
		RemotePosition: c.Layout.RemotePosition,
		EdgeToRemote:   c.Edge.SenderToReceiver,
		EdgeToLocal:    c.Edge.ReceiverToSender,
		Threshold:      c.EdgeThreshold,
	}
}

// CursorOptions returns the state machine tuning
func (c *Config) CursorOptions() cursor.Options {
	opts := cursor.Options{Hysteresis: c.Hysteresis, Mode: c.MoveMode}
	if c.ReclaimChord != "" {
		chords := hotkey.NewManager()
		if err := chords.Register(c.ReclaimChord, nil); err != nil {
			log.Warnf("Config: reclaim_chord ignored: %v", err)
			return opts
		}
		opts.Reclaim = chords
	}
	return opts
}

// PollInterval returns the capture poll period
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return input.DefaultPollInterval
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

const templateHeader = `# sharemouse configuration
#
# position is where this machine's screen sits next to the remote one.
# Edges must face each other: position Left means sender_to_receiver Right
# and receiver_to_sender Left.
`

// Marshal encodes c in the format matching path's extension
func (c *Config) Marshal(path string) ([]byte, error) {
	var buf bytes.Buffer
	switch formatOf(path) {
	case formatTOML:
		buf.WriteString(templateHeader + "\n")
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
	case formatJSON:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	default:
		buf.WriteString(templateHeader + "\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return nil, err
		}
		enc.Close()
	}
	return buf.Bytes(), nil
}

// WriteTemplate writes a starter configuration to path, creating its
// directory. An existing file is left untouched.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := DefaultConfig().Marshal(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	log.Printf("Config: writing template to %s (%d bytes)", path, len(data))
	return os.WriteFile(path, data, 0644)
}
