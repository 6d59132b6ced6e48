package transport

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mirrorsync/pkg/circuitbreaker"
	"mirrorsync/pkg/config"
	"mirrorsync/pkg/db"
	"mirrorsync/pkg/mq"
	pkgredis "mirrorsync/pkg/redis"
)

// Open builds the transport named by cfg.Transport.Kind, wrapped in a
// breaker when enabled. The returned close func releases whatever
// connections the transport opened and is never nil.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Transport, func(), error) {
	kind, err := ParseKind(cfg.Transport.Kind)
	if err != nil {
		return nil, nil, err
	}

	var (
		t       Transport
		closeFn = func() {}
	)

	switch kind {
	case KindHTTP:
		ack, err := ParseAckMode(cfg.Transport.HTTP.Ack)
		if err != nil {
			return nil, nil, err
		}
		t, err = NewHTTP(HTTPOptions{
			URL:           cfg.Transport.HTTP.URL,
			Method:        cfg.Transport.HTTP.Method,
			Ack:           ack,
			Timeout:       cfg.Transport.HTTP.Timeout,
			SigningSecret: cfg.Transport.HTTP.SigningSecret,
		})
		if err != nil {
			return nil, nil, err
		}

	case KindLocal:
		local, err := OpenLocal(ctx, cfg.Transport.Local.Path, cfg.Transport.Local.List)
		if err != nil {
			return nil, nil, err
		}
		t = local
		closeFn = func() { _ = local.Close() }

	case KindRedis:
		rdb, err := pkgredis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		t = NewRedisList(rdb, cfg.Transport.RedisKey)
		closeFn = func() { _ = rdb.Close() }

	case KindPostgres:
		pool, err := db.NewConnection(ctx, cfg.DB, logger)
		if err != nil {
			return nil, nil, err
		}
		pg := NewPostgres(pool, cfg.Transport.PGTable)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		t = pg
		closeFn = pool.Close

	case KindAMQP:
		pub, err := mq.NewPublisher(cfg.MQ)
		if err != nil {
			return nil, nil, err
		}
		t = NewAMQP(pub, cfg.Transport.RoutingKey)
		closeFn = pub.Close

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if cfg.Breaker.Enabled {
		t = WithBreaker(t, circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
			FailureThreshold:    cfg.Breaker.FailureThreshold,
			SuccessThreshold:    cfg.Breaker.SuccessThreshold,
			Timeout:             cfg.Breaker.Timeout,
			HalfOpenMaxRequests: cfg.Breaker.HalfOpenMaxRequests,
		}))
	}

	logger.Info("Waitlist transport ready",
		zap.String("kind", string(kind)),
		zap.String("name", t.Name()),
		zap.Bool("breaker", cfg.Breaker.Enabled),
	)
	return t, closeFn, nil
}
