package main

import (
	"net/http"
	"time"

	"github.com/sells-group/vnreg-cli/internal/cache"
	"github.com/sells-group/vnreg-cli/internal/hsct"
	"github.com/sells-group/vnreg-cli/internal/registry"
)

// initGateway builds the registry API client from config.
func initGateway() *registry.HTTPClient {
	return registry.NewHTTPClient(cfg.Registry.BaseURL,
		registry.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Registry.TimeoutSecs) * time.Second,
		}),
		registry.WithRateLimit(cfg.Registry.RateLimitRPS),
		registry.WithMaxRetries(cfg.Registry.MaxRetries),
		registry.WithCache(cache.New(), time.Duration(cfg.Registry.CacheTTLHours)*time.Hour),
	)
}

// initExtractor builds the hsctvn.com browser extractor from config.
// Close the returned browser when done.
func initExtractor() (*hsct.Extractor, *hsct.ChromeBrowser) {
	browser := hsct.NewChromeBrowser(hsct.BrowserConfig{
		BaseURL:        cfg.HSCT.BaseURL,
		Headless:       cfg.HSCT.Headless,
		Settle:         time.Duration(cfg.HSCT.SettleMillis) * time.Millisecond,
		NavTimeout:     time.Duration(cfg.HSCT.NavTimeoutSecs) * time.Second,
		UserAgent:      cfg.HSCT.UserAgent,
		ExecPath:       cfg.HSCT.ExecPath,
		DisableSandbox: cfg.HSCT.DisableSandbox,
	})
	return hsct.NewExtractor(browser, cfg.HSCT.BaseURL), browser
}
