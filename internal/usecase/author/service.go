package author

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader"
	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/repository"
	"github.com/Guyuepp/community-board/internal/repository/cache"
)

const (
	DefaultTTL = 10 * time.Minute

	loaderWait   = 2 * time.Millisecond
	fetchTimeout = 2 * time.Second
)

type Service struct {
	userRepo domain.UserRepository
	cache    *cache.Cache
	ttl      time.Duration
	loader   *dataloader.Loader
}

var _ domain.AuthorResolver = (*Service)(nil)

// NewService builds the resolver. Single lookups that miss the cache within the
// same few milliseconds are merged into one GetByIDs call.
func NewService(userRepo domain.UserRepository, c *cache.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		userRepo: userRepo,
		cache:    c,
		ttl:      ttl,
	}
	s.loader = dataloader.NewBatchedLoader(s.batchFn,
		dataloader.WithWait(loaderWait),
		dataloader.WithCache(&dataloader.NoCache{}),
	)
	return s
}

func (s *Service) ResolveAuthor(ctx context.Context, id string) (domain.AuthorInfo, error) {
	if id == "" {
		return domain.AuthorInfo{}, domain.ErrNotFound
	}

	var info domain.AuthorInfo
	if s.cache.GetJSON(ctx, cache.AuthorKey(id), &info) {
		return info, nil
	}

	data, err := s.loader.Load(ctx, dataloader.StringKey(id))()
	if err != nil {
		return domain.AuthorInfo{}, err
	}
	return data.(domain.AuthorInfo), nil
}

// batchFn answers every queued single lookup with one store query.
func (s *Service) batchFn(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
	// the first caller's cancellation must not fail the other callers in the batch
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
	defer cancel()

	results := make([]*dataloader.Result, len(keys))
	found, err := s.fetch(ctx, keys.Keys())
	for i, key := range keys {
		switch info, ok := found[key.String()]; {
		case err != nil:
			results[i] = &dataloader.Result{Error: err}
		case !ok:
			results[i] = &dataloader.Result{Error: domain.ErrNotFound}
		default:
			results[i] = &dataloader.Result{Data: info}
		}
	}
	return results
}

func (s *Service) ResolveAuthorsBatch(ctx context.Context, ids []string) (map[string]domain.AuthorInfo, error) {
	ids = repository.UniqueIDs(ids)
	if len(ids) == 0 {
		return map[string]domain.AuthorInfo{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.AuthorKey(id)
	}
	hits := cache.GetMany[domain.AuthorInfo](ctx, s.cache, keys)

	res := make(map[string]domain.AuthorInfo, len(ids))
	missed := make([]string, 0, len(ids))
	for i, id := range ids {
		if info, ok := hits[keys[i]]; ok {
			res[id] = info
			continue
		}
		missed = append(missed, id)
	}
	if len(missed) == 0 {
		return res, nil
	}

	fetched, err := s.fetch(ctx, missed)
	if err != nil {
		return nil, err
	}
	for id, info := range fetched {
		res[id] = info
	}
	return res, nil
}

// fetch loads ids with exactly one store query and caches every found author
// that was not invalidated while the query ran.
func (s *Service) fetch(ctx context.Context, ids []string) (map[string]domain.AuthorInfo, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.AuthorKey(id)
	}
	leases := s.cache.Leases(ctx, keys)

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		logrus.Errorf("failed to GetByIDs from repo: %v", err)
		return nil, err
	}

	res := make(map[string]domain.AuthorInfo, len(users))
	for _, u := range users {
		res[u.ID] = u.AuthorInfo()
	}
	for i, id := range ids {
		if info, ok := res[id]; ok {
			s.cache.Fill(ctx, leases[i], info, s.ttl)
		}
	}
	return res, nil
}

func (s *Service) InvalidateAuthor(ctx context.Context, id string) {
	if id == "" {
		return
	}
	s.cache.Delete(ctx, cache.AuthorKey(id))
}
