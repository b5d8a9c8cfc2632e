//go:build integration

package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"radar/internal/graph"
	"radar/internal/graph/cache"
	id "radar/pkg/domain"
	"radar/pkg/testutil/containers"
)

type NeighborhoodCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.Neighborhoods
}

func TestNeighborhoodCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(NeighborhoodCacheSuite))
}

func (s *NeighborhoodCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = cache.New(s.redis.Client, "build-1", 5*time.Minute)
}

func (s *NeighborhoodCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

var center = id.MustParseCNPJ("11222333000181")

func neighborhood() ([]graph.Node, []graph.Edge) {
	nodes := []graph.Node{
		{ID: "PJ:11222333000181", Kind: graph.NodeCompany, Label: "ALFA"},
		{ID: "PF:h1|ANA", Kind: graph.NodePartner, Label: "ANA"},
		{ID: "PJ:11444777000161", Kind: graph.NodeCompany, Label: "BETA"},
	}
	edges := []graph.Edge{
		{Source: "PF:h1|ANA", Target: "PJ:11222333000181", Level: graph.LevelMembership},
		{Source: "PF:h1|ANA", Target: "PJ:11444777000161", Level: graph.LevelMembership},
		{Source: "PJ:11222333000181", Target: "PJ:11444777000161", Level: graph.LevelSharedPartner, Label: "ANA"},
	}
	return nodes, edges
}

// TestReadThrough verifies the loader runs once and later views are served
// from Redis, each with its own cap.
func (s *NeighborhoodCacheSuite) TestReadThrough() {
	ctx := context.Background()
	calls := 0
	load := func(context.Context, id.CNPJ) ([]graph.Node, []graph.Edge, error) {
		calls++
		n, e := neighborhood()
		return n, e, nil
	}

	full, err := s.cache.View(ctx, center, 10, load)
	s.Require().NoError(err)
	s.Len(full.Nodes, 3)
	s.False(full.Truncated)

	bounded, err := s.cache.View(ctx, center, 2, load)
	s.Require().NoError(err)
	s.True(bounded.Truncated)
	s.Len(bounded.Nodes, 2)
	s.Len(bounded.Edges, 1)
	s.Equal("PJ:11222333000181", bounded.Nodes[0].ID)

	s.Equal(1, calls)
}

func (s *NeighborhoodCacheSuite) TestLoaderErrorIsNotCached() {
	ctx := context.Background()
	boom := errors.New("artifact unavailable")
	_, err := s.cache.View(ctx, center, 10, func(context.Context, id.CNPJ) ([]graph.Node, []graph.Edge, error) {
		return nil, nil, boom
	})
	s.ErrorIs(err, boom)

	n, err := s.redis.Client.Exists(ctx, "radar:neighborhood:build-1:"+center.String()).Result()
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *NeighborhoodCacheSuite) TestInvalidate() {
	ctx := context.Background()
	calls := 0
	load := func(context.Context, id.CNPJ) ([]graph.Node, []graph.Edge, error) {
		calls++
		n, e := neighborhood()
		return n, e, nil
	}
	_, err := s.cache.View(ctx, center, 10, load)
	s.Require().NoError(err)
	s.Require().NoError(s.cache.Invalidate(ctx, center))
	_, err = s.cache.View(ctx, center, 10, load)
	s.Require().NoError(err)
	s.Equal(2, calls)
}

func (s *NeighborhoodCacheSuite) TestWarm() {
	ctx := context.Background()
	other := id.MustParseCNPJ("11444777000161")
	calls := 0
	load := func(context.Context, id.CNPJ) ([]graph.Node, []graph.Edge, error) {
		calls++
		n, e := neighborhood()
		return n, e, nil
	}

	written, err := s.cache.Warm(ctx, []id.CNPJ{center, other}, load)
	s.Require().NoError(err)
	s.Equal(2, written)

	written, err = s.cache.Warm(ctx, []id.CNPJ{center}, load)
	s.Require().NoError(err)
	s.Zero(written)

	keys, err := s.redis.Keys(ctx, "radar:neighborhood:build-1:*")
	s.Require().NoError(err)
	s.Len(keys, 2)
	s.Equal(2, calls)
}
