package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values
const (
	DefaultPort        = 5000
	DefaultDownloadDir = "downloads"
	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"

	DefaultStreamTimeoutSec  = 15
	DefaultSearchCacheTTLSec = 300
	DefaultSearchLimit       = 5
	DefaultMaxPlaylistItems  = 20
	DefaultPlaylistWorkers   = 3
)

// Bind addresses
const (
	LoopbackHost      = "127.0.0.1"
	AllInterfacesHost = "0.0.0.0"
)

// Config carries the service configuration, read once from the environment.
type Config struct {
	Port       int
	Debug      bool
	Production bool

	DownloadDir string
	FFmpegPath  string
	FFprobePath string

	// ExtractTimeout and TranscodeTimeout default to zero (no enforced
	// timeout); StreamTimeout bounds upstream connect/header reads.
	ExtractTimeout   time.Duration
	TranscodeTimeout time.Duration
	StreamTimeout    time.Duration

	MaxPlaylistItems int
	PlaylistWorkers  int

	SearchCacheTTL time.Duration
	SearchLimit    int
}

// Load reads configuration from the environment. An optional .env file in the
// working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:       envInt("PORT", DefaultPort),
		Debug:      envBool("DEBUG"),
		Production: os.Getenv("PRODUCTION") != "",

		DownloadDir: envString("DOWNLOAD_DIR", DefaultDownloadDir),
		FFmpegPath:  envString("FFMPEG_PATH", DefaultFFmpegPath),
		FFprobePath: envString("FFPROBE_PATH", DefaultFFprobePath),

		ExtractTimeout:   envSeconds("EXTRACT_TIMEOUT_SEC", 0),
		TranscodeTimeout: envSeconds("TRANSCODE_TIMEOUT_SEC", 0),
		StreamTimeout:    envSeconds("STREAM_TIMEOUT_SEC", DefaultStreamTimeoutSec),

		MaxPlaylistItems: clamp(envInt("MAX_PLAYLIST_ITEMS", DefaultMaxPlaylistItems), 1, 100),
		PlaylistWorkers:  clamp(envInt("PLAYLIST_WORKERS", DefaultPlaylistWorkers), 1, 10),

		SearchCacheTTL: envSeconds("SEARCH_CACHE_TTL_SEC", DefaultSearchCacheTTLSec),
		SearchLimit:    clamp(envInt("SEARCH_LIMIT", DefaultSearchLimit), 1, 20),
	}
}

// Addr returns the listen address: loopback unless PRODUCTION is set.
func (c *Config) Addr() string {
	host := LoopbackHost
	if c.Production {
		host = AllInterfacesHost
	}
	return fmt.Sprintf("%s:%d", host, c.Port)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string) bool {
	return strings.EqualFold(os.Getenv(key), "true")
}

func envSeconds(key string, fallbackSec int) time.Duration {
	return time.Duration(envInt(key, fallbackSec)) * time.Second
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
