// Package config provides configuration for the harness binary. It loads
// settings from CLI flags and environment variables, and can apply a TOML
// profile that reshapes the bridge fixtures (vault password, latency, notes)
// for interactive debugging sessions.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cocobolo/uitest/internal/bridge"
	"github.com/cocobolo/uitest/internal/errs"
	"github.com/cocobolo/uitest/internal/ratelimit"
)

// Config holds all harness configuration.
type Config struct {
	ListenAddr   string
	TemplatesDir string
	StaticDir    string
	ProfilePath  string

	RateLimit ratelimit.Config
}

// ParseFlags registers and parses harness flags. Environment variables provide
// the flag defaults, so flags win when both are set.
func ParseFlags() Config {
	cfg := FromEnv()
	flag.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "Harness listen address (overrides HARNESS_ADDR)")
	flag.StringVar(&cfg.TemplatesDir, "templates", cfg.TemplatesDir, "Templates directory (overrides HARNESS_TEMPLATES_DIR)")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "Static assets directory (overrides HARNESS_STATIC_DIR)")
	flag.StringVar(&cfg.ProfilePath, "profile", cfg.ProfilePath, "Optional TOML fixture profile (overrides HARNESS_PROFILE)")
	flag.Float64Var(&cfg.RateLimit.RPS, "invoke-rps", cfg.RateLimit.RPS, "Invoke requests per second per client (overrides HARNESS_INVOKE_RPS)")
	flag.IntVar(&cfg.RateLimit.Burst, "invoke-burst", cfg.RateLimit.Burst, "Invoke burst per client (overrides HARNESS_INVOKE_BURST)")
	flag.Parse()
	return cfg
}

// FromEnv builds a Config from environment variables, falling back to the
// built-in defaults for anything unset.
func FromEnv() Config {
	cfg := Config{RateLimit: ratelimit.DefaultConfig}
	cfg.ListenAddr = getEnvOrDefault("HARNESS_ADDR", "127.0.0.1:8787")
	cfg.TemplatesDir = getEnvOrDefault("HARNESS_TEMPLATES_DIR", "web/templates")
	cfg.StaticDir = getEnvOrDefault("HARNESS_STATIC_DIR", "web/static")
	cfg.ProfilePath = strings.TrimSpace(os.Getenv("HARNESS_PROFILE"))
	cfg.RateLimit.RPS = parseFloat64OrDefault("HARNESS_INVOKE_RPS", cfg.RateLimit.RPS)
	cfg.RateLimit.Burst = parseIntOrDefault("HARNESS_INVOKE_BURST", cfg.RateLimit.Burst)
	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Profile reshapes the default fixtures for a debugging session.
type Profile struct {
	UnlockPassword string            `toml:"unlock_password"`
	Theme          string            `toml:"theme"`
	Folders        []string          `toml:"folders"`
	Notes          []ProfileNote     `toml:"note"`
	LatencyMS      map[string]int64  `toml:"latency_ms"`
	Stubs          map[string]string `toml:"fail"`
}

// ProfileNote is a note seeded from a profile file.
type ProfileNote struct {
	Title   string   `toml:"title"`
	Content string   `toml:"content"`
	Tags    []string `toml:"tags"`
	Folder  string   `toml:"folder"`
}

// LoadProfile decodes a TOML profile file.
func LoadProfile(path string) (*Profile, error) {
	var p Profile
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("load harness profile: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown profile keys: %s", strings.Join(keys, ", "))
	}
	return &p, nil
}

// Apply reshapes the dispatcher's fixtures and latency from the profile.
func (p *Profile) Apply(d *bridge.Dispatcher) error {
	d.MutateFixtures(func(fx *bridge.Fixtures) {
		if strings.TrimSpace(p.UnlockPassword) != "" {
			fx.UnlockPassword = p.UnlockPassword
		}
		if strings.TrimSpace(p.Theme) != "" {
			fx.Config.Theme = p.Theme
		}
		if len(p.Folders) > 0 {
			fx.Folders = append([]string{}, p.Folders...)
		}
	})

	for command, ms := range p.LatencyMS {
		if ms < 0 {
			return fmt.Errorf("negative latency for command %q", command)
		}
		d.SetLatency(command, time.Duration(ms)*time.Millisecond)
	}
	for command, message := range p.Stubs {
		d.StubError(command, errs.New(errs.Internal, message))
	}

	for _, n := range p.Notes {
		if err := seedNote(d, n); err != nil {
			return err
		}
	}
	return nil
}

func seedNote(d *bridge.Dispatcher, n ProfileNote) error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("profile note is missing a title")
	}
	d.SeedNote(n.Title, n.Content, n.Tags, n.Folder)
	return nil
}
