package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mukhulaazam/large-req-handling/internal/config"
	"github.com/mukhulaazam/large-req-handling/internal/repository"
	"github.com/mukhulaazam/large-req-handling/internal/sink"
	"github.com/mukhulaazam/large-req-handling/internal/tracker"
)

// newSink builds the store adapter selected by tracking.sink. The
// returned close func releases sink resources on shutdown; it is nil for
// sinks that hold none of their own.
func newSink(cfg *config.Config, pool *pgxpool.Pool) (tracker.Store, func() error, error) {
	switch cfg.Tracking.Sink {
	case "postgres":
		return repository.NewRequestLogRepository(pool), nil, nil
	case "kafka":
		if cfg.Kafka == nil {
			return nil, nil, errors.New("tracking sink is kafka but kafka config is missing")
		}
		s := sink.NewKafkaSink(cfg.Kafka)
		return s, s.Close, nil
	case "elasticsearch":
		if cfg.Elastic == nil {
			return nil, nil, errors.New("tracking sink is elasticsearch but elastic config is missing")
		}
		s, err := sink.NewElasticSink(cfg.Elastic)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case "s3":
		if cfg.S3 == nil {
			return nil, nil, errors.New("tracking sink is s3 but s3 config is missing")
		}
		s, err := sink.NewS3Sink(cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureBucket(context.Background()); err != nil {
			return nil, nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return s, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown tracking sink %q", cfg.Tracking.Sink)
	}
}
