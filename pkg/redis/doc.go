// Package redis connects to the Redis server used to relay session
// notifications between replicas.
//
// Connect parses the URL, pings the server and retries a configurable number
// of times. Healthcheck adapts a client into a readiness check for
// httpserver.HealthCheckHandler.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
