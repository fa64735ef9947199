package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"codeprep/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// RDB backs the execution queue, job locks and interview sessions.
var RDB *redis.Client

// Open returns a client only once the server has answered a PING.
func Open(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

func ConnectRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Open(ctx, &redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
		// BRPOP holds a connection for the whole poll; leave room for
		// request traffic next to the worker.
		PoolSize:    20,
		ReadTimeout: 10 * time.Second,
	})
	if err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	RDB = client
}

func CloseRedis() {
	if RDB != nil {
		if err := RDB.Close(); err != nil {
			log.Printf("WARN: closing redis: %v", err)
		}
	}
}
