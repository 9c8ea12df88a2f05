package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/temidaradev/coinwatch/internal/config"
	"github.com/temidaradev/coinwatch/internal/favorites"
	"github.com/temidaradev/coinwatch/internal/logger"
	"github.com/temidaradev/coinwatch/internal/source"
)

// setup loads the configuration and builds the logger every command uses.
func setup() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

func openFavorites(cfg config.Config, log *logrus.Logger) (*favorites.Collection, error) {
	favs, err := favorites.Open(favorites.NewFileStore(cfg.FavoritesPath, log))
	if err != nil {
		return nil, fmt.Errorf("failed to open favorites: %w", err)
	}
	return favs, nil
}

// newSource builds the CoinGecko client behind the logging middleware and,
// when instrumented, the Prometheus request metrics.
func newSource(cfg config.Config, log *logrus.Logger, instrumented bool) source.Source {
	var opts []source.CoinGeckoOption
	if cfg.API.Key != "" {
		opts = append(opts, source.WithAPIKey(cfg.API.Key))
	}

	var src source.Source = source.NewCoinGecko(cfg.API.BaseURL, cfg.API.Timeout, opts...)
	src = source.NewLoggingMiddleware(log, src)
	if instrumented {
		count, duration := source.PrometheusMetrics(cfg.Status.MetricsNamespace, cfg.Status.MetricsSubsystem)
		src = source.NewInstrumentingMiddleware(count, duration, src)
	}
	return src
}
