package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// benchFile mirrors Settings for config files. Nil means "not in the file".
// Durations are strings such as "600s".
type benchFile struct {
	Targets        *string  `json:"targets" yaml:"targets"`
	ReportIn       *string  `json:"report_in" yaml:"report_in"`
	ReportInterval *string  `json:"report_interval" yaml:"report_interval"`
	SendInterval   *string  `json:"send_interval" yaml:"send_interval"`
	Message        *string  `json:"message" yaml:"message"`
	SenderIPs      []string `json:"sender_ips" yaml:"sender_ips"`
	Multiplier     *int     `json:"multiplier" yaml:"multiplier"`
	QueueSize      *int     `json:"queue_size" yaml:"queue_size"`
	Shards         *int     `json:"gauge_shards" yaml:"gauge_shards"`
	ClientTimeout  *string  `json:"client_timeout" yaml:"client_timeout"`
	RedisAddr      *string  `json:"redis_addr" yaml:"redis_addr"`
	RedisStream    *string  `json:"redis_stream" yaml:"redis_stream"`
	DatabaseDSN    *string  `json:"database_dsn" yaml:"database_dsn"`
	Address        *string  `json:"address" yaml:"address"`
	Key            *string  `json:"key" yaml:"key"`
	TrustedSubnet  *string  `json:"trusted_subnet" yaml:"trusted_subnet"`
	Debug          *bool    `json:"debug" yaml:"debug"`
	LogFile        *string  `json:"log_file" yaml:"log_file"`
}

// loadBenchFile reads JSON, or YAML when the extension is .yaml/.yml.
func loadBenchFile(path string) (*benchFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f benchFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	default:
		err = json.Unmarshal(b, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

func parseDuration(field string, s *string) (time.Duration, error) {
	d, err := time.ParseDuration(*s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
