package resolver

import (
	"context"
	"strconv"
	"sync"
)

const (
	TierCurated   = "curated"
	TierGenerated = "generated"
	TierIndex     = "index"
	TierEvents    = "events"

	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	DefaultCurated = []string{
		"alice", "bob", "carol", "dave", "test", "demo", "admin", "user",
		"vitalik", "satoshi", "contx", "agent", "hello", "gm", "web3", "eth",
	}

	DefaultTerms = []string{
		"ai", "agent", "bot", "persona", "contx", "web3", "defi", "nft", "dao", "crypto",
	}
)

// StaticSource returns a fixed candidate list.
type StaticSource struct {
	name       string
	candidates []string
}

// NewCuratedSource is the first tier: a short list of likely usernames.
func NewCuratedSource(names []string) *StaticSource {
	if len(names) == 0 {
		names = DefaultCurated
	}
	return &StaticSource{
		name:       TierCurated,
		candidates: normalize(names),
	}
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) Candidates(_ context.Context) ([]string, error) {
	return s.candidates, nil
}

// GeneratedSource enumerates single characters, two character combinations, numbers from
// 0 to numericMax and extra terms.
type GeneratedSource struct {
	numericMax int
	terms      []string

	once       sync.Once
	candidates []string
}

func NewGeneratedSource(numericMax int, terms []string) *GeneratedSource {
	if len(terms) == 0 {
		terms = DefaultTerms
	}
	return &GeneratedSource{
		numericMax: numericMax,
		terms:      terms,
	}
}

func (s *GeneratedSource) Name() string {
	return TierGenerated
}

func (s *GeneratedSource) Candidates(_ context.Context) ([]string, error) {
	s.once.Do(func() {
		s.candidates = s.generate()
	})
	return s.candidates, nil
}

func (s *GeneratedSource) generate() []string {
	n := len(alphabet)
	names := make([]string, 0, n+n*n+s.numericMax+1+len(s.terms))

	for i := 0; i < n; i++ {
		names = append(names, alphabet[i:i+1])
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			names = append(names, string([]byte{alphabet[i], alphabet[j]}))
		}
	}

	for i := 0; i <= s.numericMax; i++ {
		names = append(names, strconv.Itoa(i))
	}

	names = append(names, s.terms...)
	return normalize(names)
}

// normalize drops invalid and duplicate names and keeps the first occurrence order.
func normalize(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))

	for _, name := range names {
		if ValidateUsername(name) != nil {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}

	return result
}
