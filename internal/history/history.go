// Package history fetches past predictions and groups them for the
// sidebar: newest first, bucketed by local calendar date.
package history

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/tahmid/pneumoscan/pkg/models"
)

type Group struct {
	Date    string
	Entries []models.HistoryEntry
}

type Groups []Group

// Flatten restores the globally sorted list the groups were built from.
func (g Groups) Flatten() []models.HistoryEntry {
	var out []models.HistoryEntry
	for _, group := range g {
		out = append(out, group.Entries...)
	}
	return out
}

func (g Groups) Len() int {
	n := 0
	for _, group := range g {
		n += len(group.Entries)
	}
	return n
}

// GroupByDate sorts descending by timestamp (stable, so equal stamps
// keep their source order) and then buckets by local calendar date.
// Because the list is fully sorted first, groups come out date-descending
// by construction.
func GroupByDate(entries []models.HistoryEntry) Groups {
	sorted := make([]models.HistoryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp.Time)
	})

	var groups Groups
	index := make(map[string]int)
	for _, entry := range sorted {
		date := entry.Timestamp.LocalDate()
		i, ok := index[date]
		if !ok {
			i = len(groups)
			index[date] = i
			groups = append(groups, Group{Date: date})
		}
		groups[i].Entries = append(groups[i].Entries, entry)
	}
	return groups
}

// Fetcher is the single call the aggregator needs from the gateway.
type Fetcher interface {
	History(ctx context.Context) ([]models.HistoryEntry, error)
}

// Aggregator fetches the full history in one call and serves it
// grouped. When a cache is attached, every successful refresh snapshots
// the raw list so an offline read can still render.
type Aggregator struct {
	client Fetcher
	cache  *Cache
	log    *zap.Logger
}

func NewAggregator(client Fetcher, cache *Cache, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{client: client, cache: cache, log: log}
}

// Refresh fetches and regroups. An empty history is an empty Groups,
// not an error.
func (a *Aggregator) Refresh(ctx context.Context) (Groups, error) {
	entries, err := a.client.History(ctx)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.ReplaceAll(ctx, entries); err != nil {
			a.log.Warn("history snapshot failed", zap.Error(err))
		}
	}
	return GroupByDate(entries), nil
}

// Offline serves the last snapshot without touching the network.
func (a *Aggregator) Offline(ctx context.Context) (Groups, error) {
	if a.cache == nil {
		return nil, ErrNoCache
	}
	entries, err := a.cache.List(ctx)
	if err != nil {
		return nil, err
	}
	return GroupByDate(entries), nil
}
