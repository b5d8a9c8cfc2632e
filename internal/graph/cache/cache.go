// Package cache keeps pre-fetched 2-level neighborhoods in Redis so repeated
// views of the same company skip the artifact query.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"radar/internal/graph"
	id "radar/pkg/domain"
)

const keyPrefix = "radar:neighborhood:"

// Loader fetches the untruncated neighborhood of a company, requested company
// first.
type Loader func(ctx context.Context, cnpj id.CNPJ) ([]graph.Node, []graph.Edge, error)

type entry struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Neighborhoods is a read-through cache keyed by artifact build and company.
// Entries of an older build are never read again and expire by TTL.
type Neighborhoods struct {
	client  *redis.Client
	ttl     time.Duration
	buildID string
}

// New constructs the cache. buildID scopes keys to one artifact.
func New(client *redis.Client, buildID string, ttl time.Duration) *Neighborhoods {
	return &Neighborhoods{client: client, ttl: ttl, buildID: buildID}
}

func (c *Neighborhoods) key(cnpj id.CNPJ) string {
	return keyPrefix + c.buildID + ":" + cnpj.String()
}

// View returns the bounded neighborhood of cnpj, loading and caching the
// untruncated one on a miss. Truncation runs on every call so different caps
// share one entry.
func (c *Neighborhoods) View(ctx context.Context, cnpj id.CNPJ, maxNodes int, load Loader) (graph.View, error) {
	e, err := c.get(ctx, cnpj)
	if err != nil {
		return graph.View{}, err
	}
	if e == nil {
		nodes, edges, err := load(ctx, cnpj)
		if err != nil {
			return graph.View{}, err
		}
		e = &entry{Nodes: nodes, Edges: edges}
		if err := c.set(ctx, cnpj, e); err != nil {
			return graph.View{}, err
		}
	}
	return graph.Bounded(e.Nodes, e.Edges, maxNodes), nil
}

func (c *Neighborhoods) get(ctx context.Context, cnpj id.CNPJ) (*entry, error) {
	raw, err := c.client.Get(ctx, c.key(cnpj)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get neighborhood cache: %w", err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode neighborhood cache: %w", err)
	}
	return &e, nil
}

func (c *Neighborhoods) set(ctx context.Context, cnpj id.CNPJ, e *entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode neighborhood cache: %w", err)
	}
	if err := c.client.Set(ctx, c.key(cnpj), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set neighborhood cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached neighborhood of cnpj.
func (c *Neighborhoods) Invalidate(ctx context.Context, cnpj id.CNPJ) error {
	return c.client.Del(ctx, c.key(cnpj)).Err()
}

// Warm loads and caches the neighborhoods of cnpjs that are not cached yet.
// It returns how many entries it wrote.
func (c *Neighborhoods) Warm(ctx context.Context, cnpjs []id.CNPJ, load Loader) (int, error) {
	written := 0
	for _, cnpj := range cnpjs {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		e, err := c.get(ctx, cnpj)
		if err != nil {
			return written, err
		}
		if e != nil {
			continue
		}
		nodes, edges, err := load(ctx, cnpj)
		if err != nil {
			return written, err
		}
		if err := c.set(ctx, cnpj, &entry{Nodes: nodes, Edges: edges}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
