package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "10m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	v, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", n.Value, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config carries all service settings. Scoring and ranking constants are
// product-tuned defaults; deployments override them in config.yaml.
type Config struct {
	Port string `yaml:"port"`

	Upstream UpstreamConfig `yaml:"upstream"`
	POI      POIConfig      `yaml:"poi"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Incident IncidentConfig `yaml:"incident"`

	// DatabaseURL enables the Postgres incident store when set.
	DatabaseURL string `yaml:"databaseUrl"`
	// RedisURL enables the Redis POI cache when set.
	RedisURL string `yaml:"redisUrl"`
}

type UpstreamConfig struct {
	OSRMURL      string        `yaml:"osrmUrl"`
	NominatimURL string        `yaml:"nominatimUrl"`
	OverpassURL  string        `yaml:"overpassUrl"`
	Timeout      Duration      `yaml:"timeout"`
	UserAgent    string        `yaml:"userAgent"`
}

type POIConfig struct {
	BaseRadiusM      int           `yaml:"baseRadiusM"`
	RadiusIncrementM int           `yaml:"radiusIncrementM"`
	PreciseRadiusM   int           `yaml:"preciseRadiusM"`
	MaxAttempts      int           `yaml:"maxAttempts"`
	RetryBackoff     Duration      `yaml:"retryBackoff"`
	CacheTTL         Duration      `yaml:"cacheTtl"`
	Debounce         Duration      `yaml:"debounce"`
	// RateLimit caps Overpass queries per second; burst 1 above it.
	RateLimit float64 `yaml:"rateLimit"`

	LampThresholdM   float64 `yaml:"lampThresholdM"`
	SignalThresholdM float64 `yaml:"signalThresholdM"`
	ShopThresholdM   float64 `yaml:"shopThresholdM"`

	// FingerprintSamples bounds how many vertices go into the cache key and
	// the Overpass around-polyline clause.
	FingerprintSamples int `yaml:"fingerprintSamples"`
}

type ScoringConfig struct {
	ExpectedLampsPerKm   float64 `yaml:"expectedLampsPerKm"`
	ExpectedSignalsPerKm float64 `yaml:"expectedSignalsPerKm"`
	ExpectedShopsPerKm   float64 `yaml:"expectedShopsPerKm"`

	LightingWeight float64 `yaml:"lightingWeight"`
	CrowdWeight    float64 `yaml:"crowdWeight"`
	ShopWeight     float64 `yaml:"shopWeight"`
	IncidentWeight float64 `yaml:"incidentWeight"`
}

type RankingConfig struct {
	// MaxDetourFactor excludes routes longer than shortest*factor from the
	// safest pool.
	MaxDetourFactor  float64 `yaml:"maxDetourFactor"`
	SafetyWeight     float64 `yaml:"safetyWeight"`
	EfficiencyWeight float64 `yaml:"efficiencyWeight"`
}

type IncidentConfig struct {
	ImpactRadiusM     float64  `yaml:"impactRadiusM"`
	ImpactPerIncident int      `yaml:"impactPerIncident"`
	TTL               Duration `yaml:"ttl"`
}

// Default returns the shipped configuration.
func Default() Config {
	return Config{
		Port: "8080",
		Upstream: UpstreamConfig{
			OSRMURL:      "https://router.project-osrm.org",
			NominatimURL: "https://nominatim.openstreetmap.org",
			OverpassURL:  "https://overpass-api.de/api/interpreter",
			Timeout:      Duration(25 * time.Second),
			UserAgent:    "saferoute/1.0",
		},
		POI: POIConfig{
			BaseRadiusM:        60,
			RadiusIncrementM:   50,
			PreciseRadiusM:     40,
			MaxAttempts:        2,
			RetryBackoff:       Duration(2 * time.Second),
			CacheTTL:           Duration(10 * time.Minute),
			Debounce:           Duration(400 * time.Millisecond),
			RateLimit:          2,
			LampThresholdM:     10,
			SignalThresholdM:   30,
			ShopThresholdM:     75,
			FingerprintSamples: 15,
		},
		Scoring: ScoringConfig{
			ExpectedLampsPerKm:   15,
			ExpectedSignalsPerKm: 3,
			ExpectedShopsPerKm:   10,
			LightingWeight:       0.4,
			CrowdWeight:          0.3,
			ShopWeight:           0.2,
			IncidentWeight:       0.5,
		},
		Ranking: RankingConfig{
			MaxDetourFactor:  1.3,
			SafetyWeight:     0.7,
			EfficiencyWeight: 0.3,
		},
		Incident: IncidentConfig{
			ImpactRadiusM:     500,
			ImpactPerIncident: 15,
			TTL:               Duration(2 * time.Hour),
		},
	}
}

// Load reads path (optional) over the defaults, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("OSRM_URL"); v != "" {
		cfg.Upstream.OSRMURL = v
	}
	if v := os.Getenv("NOMINATIM_URL"); v != "" {
		cfg.Upstream.NominatimURL = v
	}
	if v := os.Getenv("OVERPASS_URL"); v != "" {
		cfg.Upstream.OverpassURL = v
	}
	if v := os.Getenv("POI_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.POI.CacheTTL = Duration(d)
		}
	}
	if v := os.Getenv("POI_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.POI.RateLimit = f
		}
	}
}

func (c Config) validate() error {
	if c.Ranking.MaxDetourFactor < 1 {
		return fmt.Errorf("ranking.maxDetourFactor must be >= 1")
	}
	if c.POI.MaxAttempts < 1 {
		return fmt.Errorf("poi.maxAttempts must be >= 1")
	}
	if c.POI.FingerprintSamples < 2 {
		return fmt.Errorf("poi.fingerprintSamples must be >= 2")
	}
	if c.Scoring.LightingWeight < 0 || c.Scoring.CrowdWeight < 0 || c.Scoring.ShopWeight < 0 {
		return fmt.Errorf("scoring weights must be >= 0")
	}
	return nil
}
