package kvstore_test

import "github.com/redis/go-redis/v9"

func newRedis(addr string) redis.UniversalClient {
	return redis.NewClient(&redis.Options{Addr: addr})
}
