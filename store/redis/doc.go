// Package redis stores repair trails in Redis.
//
// Each trail is a JSON string under {prefix}trail:{id}, and every session keeps
// a set of its trail IDs under {prefix}session:{session}:trails. An optional TTL
// applies to both keys, so abandoned sessions expire on their own.
//
// # Basic Usage
//
//	trails := redis.NewRedisTrailStore(redis.RedisOptions{
//		Addr:   "localhost:6379",
//		Prefix: "flowers:",
//		TTL:    24 * time.Hour,
//	})
//
//	loop, err := repair.New(s, gen, repair.WithTrailStore(trails, "flower-copy"))
//
// A cluster or sentinel client can be used through NewRedisTrailStoreWithClient.
package redis
