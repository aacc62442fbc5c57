// Package redis provides helpers for connecting to a Redis server used as an
// alternative notification status store.
//
// Connect retries until the server answers a ping and Healthcheck plugs the
// client into readiness probes. Configuration comes from REDIS_* environment
// variables through the Config struct.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	check := redis.Healthcheck(client)
//
// # Errors
//
// Failures wrap ErrRedisNotReady, ErrFailedToParseRedisConnString or
// ErrHealthcheckFailed using errors.Join.
package redis
