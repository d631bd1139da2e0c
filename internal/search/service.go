package search

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gcbaptista/go-archive-search/internal/cache"
	internalErrors "github.com/gcbaptista/go-archive-search/internal/errors"
	"github.com/gcbaptista/go-archive-search/internal/logging"
	"github.com/gcbaptista/go-archive-search/internal/metrics"
	"github.com/gcbaptista/go-archive-search/internal/tokenizer"
	"github.com/gcbaptista/go-archive-search/model"
	"github.com/gcbaptista/go-archive-search/services"
)

// Service runs ranked queries against whatever index the provider is
// currently serving. It fulfills the services.Searcher interface.
type Service struct {
	provider services.IndexProvider
	cache    cache.Cache
	metrics  *metrics.Metrics
	logger   *logrus.Entry
}

// NewService creates a new search Service. A nil cache disables caching and
// nil metrics records nothing.
func NewService(provider services.IndexProvider, c cache.Cache, m *metrics.Metrics) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("index provider cannot be nil")
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		provider: provider,
		cache:    c,
		metrics:  m,
		logger:   logging.WithComponent("search"),
	}, nil
}

// Search ranks the serving index against query.Terms.
func (s *Service) Search(ctx context.Context, query services.SearchQuery) (model.SearchResult, error) {
	startTime := time.Now()
	source := string(query.Source)
	if source == "" {
		source = string(services.QuerySourceTerms)
	}

	result, cached, err := s.search(ctx, query)
	elapsed := time.Since(startTime)
	if err != nil {
		s.metrics.ObserveSearch(source, false, len(query.Terms), 0, elapsed, err)
		return model.SearchResult{}, err
	}

	result.Time = elapsed.Milliseconds()
	result.QueryID = uuid.New().String()
	s.metrics.ObserveSearch(source, cached, len(query.Terms), result.Total, elapsed, nil)

	s.logger.WithFields(logrus.Fields{
		"query_id": result.QueryID,
		"source":   source,
		"terms":    len(query.Terms),
		"matches":  result.Total,
		"cached":   cached,
		"took_ms":  result.Time,
	}).Debug("search completed")
	return result, nil
}

// SearchByEntries ranks the serving index against the listing of an
// uploaded archive, tokenized the same way indexed listings are.
func (s *Service) SearchByEntries(ctx context.Context, entryNames []string, maxLength *int, minScore *float64) (model.SearchResult, error) {
	return s.Search(ctx, services.SearchQuery{
		Terms:     tokenizer.QueryTermsFromEntries(entryNames),
		MaxLength: maxLength,
		MinScore:  minScore,
		Source:    services.QuerySourceArchive,
	})
}

func (s *Service) search(ctx context.Context, query services.SearchQuery) (model.SearchResult, bool, error) {
	maxLength, minScore, err := normalizeLimits(query.MaxLength, query.MinScore)
	if err != nil {
		return model.SearchResult{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return model.SearchResult{}, false, err
	}

	snapshot, err := s.provider.Read()
	if err != nil {
		return model.SearchResult{}, false, err
	}

	if len(query.Terms) == 0 {
		return model.SearchResult{Matches: []model.SearchMatch{}}, false, nil
	}

	key := cache.Key(snapshot.Generation, query.Terms, maxLength, minScore)
	result, cached, err := s.cache.GetOrCompute(ctx, key, func() (*model.SearchResult, error) {
		scored := Score(snapshot.Index, query.Terms)
		matches := Select(scored, minScore, maxLength)
		return &model.SearchResult{Matches: matches, Total: len(matches)}, nil
	})
	if err != nil {
		return model.SearchResult{}, false, err
	}
	return *result, cached, nil
}

// normalizeLimits applies defaults: unbounded length (-1) and a threshold of
// zero. A NaN threshold is treated as absent.
func normalizeLimits(maxLength *int, minScore *float64) (int, float64, error) {
	limit := -1
	if maxLength != nil {
		if *maxLength < 0 {
			return 0, 0, internalErrors.NewValidationError("max_length", "must not be negative")
		}
		limit = *maxLength
	}

	threshold := 0.0
	if minScore != nil && !math.IsNaN(*minScore) {
		threshold = *minScore
	}
	return limit, threshold, nil
}

// Select keeps the documents scoring strictly above minScore, in ranked
// order, then truncates to maxLength. A negative maxLength means no limit.
func Select(ranked []ScoredDoc, minScore float64, maxLength int) []model.SearchMatch {
	matches := make([]model.SearchMatch, 0, len(ranked))
	for _, doc := range ranked {
		if maxLength >= 0 && len(matches) >= maxLength {
			break
		}
		if !(doc.Score > minScore) {
			continue
		}
		matches = append(matches, model.SearchMatch{Document: doc.Name, Score: doc.Score})
	}
	return matches
}
