// Package config provides application configuration structures and helpers.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Settings holds every tunable. Environment variables take the highest priority.
type Settings struct {
	Targets        string        `env:"TARGETS"`         // Path to the target list
	ReportIn       string        `env:"REPORT_IN"`       // Webhook receiving reports
	ReportInterval time.Duration `env:"REPORT_INTERVAL"` // Time between reports
	SendInterval   time.Duration `env:"SEND_INTERVAL"`   // Time between emitted jobs
	Message        string        `env:"MESSAGE"`         // Content of every synthetic job
	SenderIPs      []string      `env:"SENDER_IPS" envSeparator:","`
	Multiplier     int           `env:"MULTIPLIER"`     // Workers per sender IP
	QueueSize      int           `env:"QUEUE_SIZE"`     // In-process queue capacity
	Shards         int           `env:"GAUGE_SHARDS"`   // 1 is a single lock, 0 picks GOMAXPROCS
	ClientTimeout  time.Duration `env:"CLIENT_TIMEOUT"` // HTTP timeout for deliveries and reports
	RedisAddr      string        `env:"REDIS_ADDR"`     // Use a Redis stream as the queue
	RedisStream    string        `env:"REDIS_STREAM"`
	DatabaseDsn    string        `env:"DATABASE_DSN"`   // Archive snapshots in PostgreSQL
	Addr           string        `env:"ADDRESS"`        // Control plane address, empty disables it
	Key            string        `env:"KEY"`            // Key for request hash verification
	TrustedSubnet  string        `env:"TRUSTED_SUBNET"` // CIDR, ex. "192.168.1.0/24"
	Debug          bool          `env:"DEBUG"`
	LogFile        string        `env:"LOG_FILE"`
}

// BenchConfig is the resolved configuration plus the process logger.
type BenchConfig struct {
	Settings
	Logger *zap.SugaredLogger
}

func defaults() Settings {
	return Settings{
		ReportInterval: 600 * time.Second,
		SendInterval:   100 * time.Millisecond,
		Message:        "Hello World!",
		SenderIPs:      []string{"0.0.0.0"},
		Multiplier:     1,
		QueueSize:      1024,
		Shards:         1,
		ClientTimeout:  10 * time.Second,
	}
}

// NewBenchConfig reads the process flags and environment.
func NewBenchConfig() (*BenchConfig, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load resolves configuration in order: defaults, config file, flags, environment.
// An optional .env file in the working directory is merged into the environment first.
func Load(fs *flag.FlagSet, args []string) (*BenchConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	s := defaults()

	var fTargets, fReportIn, fMessage, fRedis, fStream, fDSN, fAddr, fKey, fTrusted, fLogFile, fConf strFlag
	var fReportInterval, fSendInterval, fTimeout durFlag
	var fMultiplier, fQueueSize, fShards intFlag
	var fSenderIPs listFlag
	var fDebug boolFlag

	fs.Var(&fTargets, "targets", "path to the target list")
	fs.Var(&fReportIn, "report-in", "webhook URL receiving reports")
	fs.Var(&fReportInterval, "report-interval", "report interval (default 600s)")
	fs.Var(&fSendInterval, "send-interval", "interval between jobs (default 100ms)")
	fs.Var(&fMessage, "message", "message content (default \"Hello World!\")")
	fs.Var(&fSenderIPs, "sender-ips", "comma separated source addresses (default 0.0.0.0)")
	fs.Var(&fMultiplier, "multiplier", "workers per sender ip (default 1)")
	fs.Var(&fQueueSize, "queue-size", "in-process queue capacity (default 1024)")
	fs.Var(&fShards, "shards", "latency aggregator shards, 0 for GOMAXPROCS (default 1)")
	fs.Var(&fTimeout, "timeout", "HTTP client timeout (default 10s)")
	fs.Var(&fRedis, "redis", "Redis address, enables the stream queue")
	fs.Var(&fStream, "stream", "Redis stream name")
	fs.Var(&fDSN, "d", "DB connection string")
	fs.Var(&fAddr, "a", "control plane address")
	fs.Var(&fKey, "k", "Hash key string")
	fs.Var(&fTrusted, "t", "trusted subnet")
	fs.Var(&fDebug, "debug", "debug logging")
	fs.Var(&fLogFile, "log-file", "also write logs to this file")
	fs.Var(&fConf, "c", "Path to JSON or YAML config file")
	fs.Var(&fConf, "config", "Path to JSON or YAML config file (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fConf.v == "" {
		fConf.v = os.Getenv("CONFIG")
	}
	file := &benchFile{}
	if fConf.v != "" {
		var err error
		if file, err = loadBenchFile(fConf.v); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	pickStr(&s.Targets, fTargets, file.Targets)
	pickStr(&s.ReportIn, fReportIn, file.ReportIn)
	pickStr(&s.Message, fMessage, file.Message)
	pickStr(&s.RedisAddr, fRedis, file.RedisAddr)
	pickStr(&s.RedisStream, fStream, file.RedisStream)
	pickStr(&s.DatabaseDsn, fDSN, file.DatabaseDSN)
	pickStr(&s.Addr, fAddr, file.Address)
	pickStr(&s.Key, fKey, file.Key)
	pickStr(&s.TrustedSubnet, fTrusted, file.TrustedSubnet)
	pickStr(&s.LogFile, fLogFile, file.LogFile)
	pickInt(&s.Multiplier, fMultiplier, file.Multiplier)
	pickInt(&s.QueueSize, fQueueSize, file.QueueSize)
	pickInt(&s.Shards, fShards, file.Shards)

	if fSenderIPs.set {
		s.SenderIPs = fSenderIPs.v
	} else if file.SenderIPs != nil {
		s.SenderIPs = file.SenderIPs
	}
	if fDebug.set {
		s.Debug = fDebug.v
	} else if file.Debug != nil {
		s.Debug = *file.Debug
	}

	for _, d := range []struct {
		name string
		dst  *time.Duration
		flag durFlag
		file *string
	}{
		{"report_interval", &s.ReportInterval, fReportInterval, file.ReportInterval},
		{"send_interval", &s.SendInterval, fSendInterval, file.SendInterval},
		{"client_timeout", &s.ClientTimeout, fTimeout, file.ClientTimeout},
	} {
		if err := pickDur(d.dst, d.flag, d.name, d.file); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	logger, err := buildLogger(s.Debug, s.LogFile)
	if err != nil {
		return nil, err
	}

	return &BenchConfig{Settings: s, Logger: logger}, nil
}

func pickStr(dst *string, f strFlag, file *string) {
	if f.set {
		*dst = f.v
	} else if file != nil {
		*dst = *file
	}
}

func pickInt(dst *int, f intFlag, file *int) {
	if f.set {
		*dst = f.v
	} else if file != nil {
		*dst = *file
	}
}

func pickDur(dst *time.Duration, f durFlag, name string, file *string) error {
	if f.set {
		*dst = f.v
		return nil
	}
	if file == nil {
		return nil
	}
	d, err := parseDuration(name, file)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func buildLogger(debug bool, logFile string) (*zap.SugaredLogger, error) {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stdout"}
	if logFile != "" {
		logCfg.OutputPaths = append(logCfg.OutputPaths, logFile)
	}
	if debug {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Validate reports every problem at once.
func (s Settings) Validate() error {
	var errs []error

	if s.Targets == "" {
		errs = append(errs, errors.New("targets path is required"))
	}
	if s.ReportIn == "" {
		errs = append(errs, errors.New("report-in webhook url is required"))
	} else if u, err := url.Parse(s.ReportIn); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("report-in must be an absolute http(s) url, got %q", s.ReportIn))
	}
	if s.ReportInterval <= 0 {
		errs = append(errs, fmt.Errorf("report interval must be positive, got %s", s.ReportInterval))
	}
	if s.SendInterval <= 0 {
		errs = append(errs, fmt.Errorf("send interval must be positive, got %s", s.SendInterval))
	}
	if s.ClientTimeout <= 0 {
		errs = append(errs, fmt.Errorf("client timeout must be positive, got %s", s.ClientTimeout))
	}
	if s.Multiplier <= 0 {
		errs = append(errs, fmt.Errorf("multiplier must be positive, got %d", s.Multiplier))
	}
	if s.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue size must be positive, got %d", s.QueueSize))
	}
	if s.Shards < 0 {
		errs = append(errs, fmt.Errorf("shards must not be negative, got %d", s.Shards))
	}
	if len(s.SenderIPs) == 0 {
		errs = append(errs, errors.New("at least one sender ip is required"))
	}
	for _, ip := range s.SenderIPs {
		if net.ParseIP(ip) == nil {
			errs = append(errs, fmt.Errorf("invalid sender ip %q", ip))
		}
	}
	if s.TrustedSubnet != "" {
		if _, _, err := net.ParseCIDR(s.TrustedSubnet); err != nil {
			errs = append(errs, fmt.Errorf("invalid trusted subnet: %w", err))
		}
	}

	return errors.Join(errs...)
}
