package config

import "strings"

type EnvVars struct {
	Port     string `mapstructure:"port"`
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := strings.TrimSpace(e.Port)
	if port == "" {
		port = "8080"
	}
	if !strings.Contains(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

// GetEnv returns the deployment environment, "DEV" when unset.
func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetLogFile returns the rotating log file path; empty logs to stdout only.
func (e EnvVars) GetLogFile() string {
	return e.LogFile
}
