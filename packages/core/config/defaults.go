package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
		EnvPrefix:       "RESTING_",
		Output:          "console",
		NoColor:         BoolPtr(false),
		LogLevel:        "error",
		LogFormat:       "console",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	d := DefaultConfig()
	return c.Timeout == d.Timeout &&
		c.GetFollowRedirects() == d.GetFollowRedirects() &&
		c.MaxRedirects == d.MaxRedirects &&
		c.GetValidateSSL() == d.GetValidateSSL() &&
		c.Proxy == d.Proxy &&
		len(c.Headers) == 0 &&
		c.Rate == d.Rate &&
		c.EnvFile == d.EnvFile &&
		c.EnvPrefix == d.EnvPrefix &&
		c.Output == d.Output &&
		c.Verbose == d.Verbose &&
		c.GetNoColor() == d.GetNoColor() &&
		c.LogLevel == d.LogLevel &&
		c.LogFormat == d.LogFormat &&
		c.LogOutput == d.LogOutput
}
