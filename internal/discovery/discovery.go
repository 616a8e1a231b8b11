package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ytget/yt-mashup/internal/logging"
	"github.com/ytget/yt-mashup/internal/model"
)

// Stage is the stage name attached to discovery errors and logs
const Stage = "discovery"

// QuerySuffix is appended to the performer name before searching
const QuerySuffix = "songs"

// Source supplies the candidate identifiers for a query.
type Source interface {
	Candidates(ctx context.Context, query string) (model.SearchResult, error)
}

// Service turns a performer name into a random selection of watch URLs.
type Service struct {
	source Source
	suffix string
	rng    *rand.Rand
	logger *slog.Logger
}

// NewService creates a discovery service. A nil rng draws from the runtime's
// random source; pass a seeded one for reproducible selections.
func NewService(source Source, suffix string, rng *rand.Rand, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(suffix) == "" {
		suffix = QuerySuffix
	}
	return &Service{source: source, suffix: strings.TrimSpace(suffix), rng: rng, logger: logger}
}

// BuildQuery normalizes the performer name and appends the suffix.
func BuildQuery(performer, suffix string) string {
	performer = norm.NFC.String(strings.Join(strings.Fields(performer), " "))
	if suffix == "" {
		return performer
	}
	return performer + " " + suffix
}

// Discover returns count distinct watch URLs chosen uniformly at random from
// the candidates found for performer. It fails with an insufficient_results
// error before anything is downloaded when the pool is too small.
func (s *Service) Discover(ctx context.Context, performer string, count int) ([]string, error) {
	if count <= 0 {
		return nil, model.NewStageError(model.KindUsage, Stage, 0, fmt.Errorf("count must be positive, got %d", count))
	}
	query := BuildQuery(performer, s.suffix)
	if strings.TrimSpace(performer) == "" {
		return nil, model.NewStageError(model.KindUsage, Stage, 0, errors.New("performer name must not be empty"))
	}

	result, err := s.source.Candidates(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	pool := result.Distinct()
	s.logger.Info("search results",
		slog.String(logging.FieldStage, Stage),
		slog.String("query", query),
		slog.Int("matches", len(result.IDs)),
		slog.Int("distinct", len(pool)),
	)

	if len(pool) < count {
		return nil, model.NewStageError(model.KindInsufficientResults, Stage, 0,
			fmt.Errorf("found %d videos for %q, need %d", len(pool), query, count))
	}

	selection := model.VideoSelection{IDs: s.sample(pool, count)}
	return selection.URLs(), nil
}

// sample picks k identifiers without replacement using a partial shuffle.
func (s *Service) sample(pool []string, k int) []string {
	picked := make([]string, len(pool))
	copy(picked, pool)
	for i := 0; i < k; i++ {
		j := i + s.intN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:k]
}

func (s *Service) intN(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}
