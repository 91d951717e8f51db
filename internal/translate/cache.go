package translate

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"github.com/carolinavmo/PMR-atlas/internal/lang"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
	"github.com/carolinavmo/PMR-atlas/pkg/metrics"
)

// Cached fronts a provider with Redis. Each entry is a hash holding the
// source text next to its translation, and a hit is only served when the
// source matches, so two texts sharing a key hash never swap translations.
// Cache failures degrade to a direct call; only successful translations are
// stored.
type Cached struct {
	next   Provider
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewCached(next Provider, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, client: client, ttl: ttl, prefix: "translate:"}
}

func (c *Cached) key(text string, from, to lang.Language) string {
	return c.prefix + string(from) + ":" + string(to) + ":" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}

func (c *Cached) Translate(ctx context.Context, text string, from, to lang.Language) (string, error) {
	k := c.key(text, from, to)
	vals, err := c.client.HMGet(ctx, k, "src", "out").Result()
	if err != nil {
		metrics.TranslationCache.WithLabelValues("error").Inc()
		logger.Debugf("translate cache get: %v", err)
	} else {
		src, _ := vals[0].(string)
		out, stored := vals[1].(string)
		switch {
		case stored && src == text:
			metrics.TranslationCache.WithLabelValues("hit").Inc()
			return out, nil
		case stored:
			metrics.TranslationCache.WithLabelValues("collision").Inc()
			logger.Warnf("translate cache: key %s holds a different source text", k)
		default:
			metrics.TranslationCache.WithLabelValues("miss").Inc()
		}
	}

	out, err := c.next.Translate(ctx, text, from, to)
	if err != nil {
		return "", err
	}
	bg := context.WithoutCancel(ctx)
	if _, serr := c.client.TxPipelined(bg, func(p redis.Pipeliner) error {
		p.HSet(bg, k, "src", text, "out", out)
		if c.ttl > 0 {
			p.Expire(bg, k, c.ttl)
		}
		return nil
	}); serr != nil {
		logger.Debugf("translate cache set: %v", serr)
	}
	return out, nil
}
