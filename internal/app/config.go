package service

import "github.com/okian/satfinder/internal/config"

// OptionsFromConfig maps the process configuration onto service options.
func OptionsFromConfig(cfg *config.Config) []Option {
	if cfg == nil {
		return nil
	}
	return []Option{
		WithSourceURL(cfg.TLESourceURL),
		WithFetchTimeout(cfg.TLEFetchTimeout()),
		WithDatasetTTL(cfg.DatasetTTL()),
		WithPathCacheTTL(cfg.PathCacheTTL()),
		WithPathDuration(cfg.PathDurationMinutes),
		WithClientCacheSeconds(cfg.TimingsClientCacheSeconds, cfg.PathClientCacheSeconds),
	}
}

