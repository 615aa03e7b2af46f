package bnnctl

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DEFAULT_BITMAP_WIDTH         = 28
	DEFAULT_BITMAP_HEIGHT        = 28
	DEFAULT_CMD_TIMEOUT_CYCLES   = 100000
	DEFAULT_ACCEL_LATENCY_CYCLES = 512
	DEFAULT_STATUS_POLL_CYCLES   = 1000000
	DEFAULT_CLOCK_PERIOD         = 10 * time.Nanosecond
	DEFAULT_CAMERA_INTERVAL      = time.Second
)

type Config struct {
	BitmapWidth  int
	BitmapHeight int
	// BufferBytes is the image buffer capacity N. Zero derives it from the
	// bitmap size, eight pixels per byte.
	BufferBytes int
	Mode        Mode

	CommandTimeoutCycles uint64
	AccelLatencyCycles   uint64
	// AccelTimeoutCycles arms the device watchdog; zero disables it.
	AccelTimeoutCycles uint64
	StatusPollCycles   uint64
	ClockPeriod        time.Duration

	MQTTBroker      string
	MQTTTopicPrefix string
	WatchDir        string
	StatusAddr      string
	TraceFile       string
	JournalFile     string

	// CameraDevice is a capture device index or video file; empty disables
	// the camera intake.
	CameraDevice   string
	CameraInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		BitmapWidth:          DEFAULT_BITMAP_WIDTH,
		BitmapHeight:         DEFAULT_BITMAP_HEIGHT,
		Mode:                 Mode0,
		CommandTimeoutCycles: DEFAULT_CMD_TIMEOUT_CYCLES,
		AccelLatencyCycles:   DEFAULT_ACCEL_LATENCY_CYCLES,
		StatusPollCycles:     DEFAULT_STATUS_POLL_CYCLES,
		ClockPeriod:          DEFAULT_CLOCK_PERIOD,
		MQTTTopicPrefix:      "bnnctl",
		CameraInterval:       DEFAULT_CAMERA_INTERVAL,
	}
}

// Capacity is the image buffer size in bytes.
func (c Config) Capacity() int {
	if c.BufferBytes > 0 {
		return c.BufferBytes
	}
	return (c.BitmapWidth*c.BitmapHeight + 7) / 8
}

func (c Config) Validate() error {
	if c.BitmapWidth <= 0 || c.BitmapHeight <= 0 {
		return errors.Errorf("config: bitmap size %dx%d", c.BitmapWidth, c.BitmapHeight)
	}
	if c.Capacity() <= 0 {
		return errors.Errorf("config: buffer bytes %d", c.BufferBytes)
	}
	if c.BufferBytes > 0 && c.BufferBytes*8 < c.BitmapWidth*c.BitmapHeight {
		return errors.Errorf("config: %d buffer bytes cannot hold a %dx%d bitmap", c.BufferBytes, c.BitmapWidth, c.BitmapHeight)
	}
	if _, err := ParseMode(int(c.Mode)); err != nil {
		return errors.Wrap(err, "config")
	}
	if c.CommandTimeoutCycles == 0 {
		return errors.New("config: command timeout must be non-zero")
	}
	if c.CameraDevice != "" && c.CameraInterval <= 0 {
		return errors.New("config: camera interval must be positive")
	}
	if c.StatusPollCycles == 0 {
		return errors.New("config: status poll budget must be non-zero")
	}
	return nil
}

// ConfigFromEnv starts from DefaultConfig, loads a .env file when present
// and applies the BNN_* and MQTT_* variables.
func ConfigFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil {
		debugf("no .env file loaded: %v", err)
	}
	cfg := DefaultConfig()

	var err error
	if cfg.BitmapWidth, err = envInt("BNN_BITMAP_WIDTH", cfg.BitmapWidth); err != nil {
		return cfg, err
	}
	if cfg.BitmapHeight, err = envInt("BNN_BITMAP_HEIGHT", cfg.BitmapHeight); err != nil {
		return cfg, err
	}
	if cfg.BufferBytes, err = envInt("BNN_BUFFER_BYTES", cfg.BufferBytes); err != nil {
		return cfg, err
	}
	mode, err := envInt("BNN_SPI_MODE", int(cfg.Mode))
	if err != nil {
		return cfg, err
	}
	if cfg.Mode, err = ParseMode(mode); err != nil {
		return cfg, errors.Wrap(err, "BNN_SPI_MODE")
	}
	if cfg.CommandTimeoutCycles, err = envUint("BNN_CMD_TIMEOUT_CYCLES", cfg.CommandTimeoutCycles); err != nil {
		return cfg, err
	}
	if cfg.AccelLatencyCycles, err = envUint("BNN_ACCEL_LATENCY_CYCLES", cfg.AccelLatencyCycles); err != nil {
		return cfg, err
	}
	if cfg.AccelTimeoutCycles, err = envUint("BNN_ACCEL_TIMEOUT_CYCLES", cfg.AccelTimeoutCycles); err != nil {
		return cfg, err
	}
	if cfg.StatusPollCycles, err = envUint("BNN_STATUS_POLL_CYCLES", cfg.StatusPollCycles); err != nil {
		return cfg, err
	}
	periodNs, err := envInt("BNN_CLOCK_PERIOD_NS", int(cfg.ClockPeriod/time.Nanosecond))
	if err != nil {
		return cfg, err
	}
	cfg.ClockPeriod = time.Duration(periodNs) * time.Nanosecond

	cfg.MQTTBroker = envString("MQTT_BROKER", cfg.MQTTBroker)
	cfg.MQTTTopicPrefix = envString("MQTT_TOPIC_PREFIX", cfg.MQTTTopicPrefix)
	cfg.WatchDir = envString("BNN_WATCH_DIR", cfg.WatchDir)
	cfg.StatusAddr = envString("BNN_STATUS_ADDR", cfg.StatusAddr)
	cfg.TraceFile = envString("BNN_TRACE_FILE", cfg.TraceFile)
	cfg.JournalFile = envString("BNN_JOURNAL_FILE", cfg.JournalFile)
	cfg.CameraDevice = envString("BNN_CAMERA_DEVICE", cfg.CameraDevice)
	intervalMs, err := envInt("BNN_CAMERA_INTERVAL_MS", int(cfg.CameraInterval/time.Millisecond))
	if err != nil {
		return cfg, err
	}
	cfg.CameraInterval = time.Duration(intervalMs) * time.Millisecond

	return cfg, cfg.Validate()
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		INFOLogger.Printf("Setting %s value provided in env variable: %s", key, v)
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, errors.Wrapf(err, "%s=%q", key, v)
	}
	INFOLogger.Printf("Setting %s value provided in env variable: %d", key, n)
	return n, nil
}

func envUint(key string, def uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def, errors.Wrapf(err, "%s=%q", key, v)
	}
	INFOLogger.Printf("Setting %s value provided in env variable: %d", key, n)
	return n, nil
}
