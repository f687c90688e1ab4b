// Package redis connects to Redis with go-redis/v9.
//
// Connect retries the initial ping within REDIS_CONNECT_TIMEOUT, and
// Healthcheck adapts a client to a readiness probe. The gate package uses the
// client as a shared entitlement cache across replicas.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
