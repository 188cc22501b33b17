// Command redis-bench exercises the facade end-to-end: it sets and gets a
// key in a loop, printing the average round-trip latency, to manually smoke-test a
// connection including reconnect behaviour (kill and restart the server
// mid-run to see it recover).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pascaldekloe/redis/v2"
	"github.com/pascaldekloe/redis/v2/rescore"
	"github.com/pascaldekloe/redis/v2/restransport"
)

var (
	addrFlag  = flag.String("addr", "localhost:6379", "Redis node `address`.")
	countFlag = flag.Int("count", 1000, "Number of SET/GET round trips.")
	keyFlag   = flag.String("key", "redis-bench:probe", "Key to SET and GET repeatedly.")
	verbose   = flag.Bool("v", false, "Log lifecycle and reconnect events.")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	if *verbose {
		logger, _ = zap.NewDevelopment()
	} else {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	config := rescore.DefaultEndpointConfig()
	client := redis.NewClient(*addrFlag, restransport.TCP{}, config, logger)
	defer client.Close()

	if *verbose {
		go logEvents(client.Endpoint(), logger)
	}

	ctx := context.Background()
	value := []byte("redis-bench payload")

	var total time.Duration
	for i := 0; i < *countFlag; i++ {
		start := time.Now()
		if err := client.Set(ctx, *keyFlag, value); err != nil {
			fmt.Fprintln(os.Stderr, "redis-bench: SET:", err)
			continue
		}
		if _, _, err := client.Get(ctx, *keyFlag); err != nil {
			fmt.Fprintln(os.Stderr, "redis-bench: GET:", err)
			continue
		}
		total += time.Since(start)
	}

	fmt.Printf("%d round trips, average %s\n", *countFlag, total/time.Duration(*countFlag))
}

func logEvents(ep *rescore.Endpoint, logger *zap.Logger) {
	for ev := range ep.Events() {
		switch ev.Kind {
		case rescore.LifecycleChanged:
			logger.Info("lifecycle", zap.Stringer("from", ev.From), zap.Stringer("to", ev.To))
		case rescore.ReconnectScheduled:
			logger.Info("reconnect scheduled", zap.Int("attempt", ev.Attempt), zap.Duration("delay", ev.Delay))
		case rescore.ReconnectFailed:
			logger.Warn("reconnect failed", zap.Int("attempt", ev.Attempt), zap.Error(ev.LastErr))
		case rescore.SubscriptionRestored:
			logger.Info("subscriptions restored", zap.Int("channels", ev.ChannelCount), zap.Int("patterns", ev.PatternCount))
		}
	}
}
