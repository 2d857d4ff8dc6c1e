package core

import (
	"context"
	"time"
)

// RecentLoads lists the newest loads by pickup time. Repository failures yield
// an empty list.
func (s *Service) RecentLoads(ctx context.Context, limit int) []Load {
	startedAt := time.Now().UTC()
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	loads := s.matcher.Recent(ctx, limit)
	s.observeOperation(ctx, startedAt, "recent_loads", nil, map[string]any{
		"limit": limit,
		"loads": len(loads),
	})
	return loads
}

func (s *Service) SearchLoads(ctx context.Context, query LoadQuery) []Load {
	startedAt := time.Now().UTC()
	loads := s.matcher.Search(ctx, query)
	s.observeOperation(ctx, startedAt, "search_loads", nil, map[string]any{
		"strategy": StrategyStructured,
		"loads":    len(loads),
	})
	return loads
}
