package result

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnavailable is wrapped by a store's load error when the analysis
// document is missing or malformed. Queries against an unavailable store
// return empty sets rather than failing.
var ErrUnavailable = errors.New("fieldlens: analysis document unavailable")

// IsUnavailableErr returns true if err is or wraps ErrUnavailable.
func IsUnavailableErr(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// queryCacheSize bounds the runtime lookup cache.
const queryCacheSize = 1024

// Store answers runtime field-requirement lookups over a loaded analysis
// document. It is safe for concurrent readers; lookups are cached for the
// process lifetime until ClearCache.
type Store struct {
	mu      sync.RWMutex
	result  *AnalysisResult
	loadErr error
	cache   *lru.Cache[string, []string]
}

// Open loads the document at path. A missing or malformed document does not
// fail: the store reports unavailable and every query resolves to an empty
// set.
func Open(path string) *Store {
	s := newStore()
	r, err := Load(path)
	if err != nil {
		s.loadErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return s
	}
	s.result = r
	return s
}

// NewStore wraps an in-memory result, for hosts that load the document
// themselves.
func NewStore(r *AnalysisResult) *Store {
	s := newStore()
	s.result = r
	return s
}

func newStore() *Store {
	cache, err := lru.New[string, []string](queryCacheSize)
	if err != nil {
		// Only possible with a non-positive size.
		panic(err)
	}
	return &Store{cache: cache}
}

// IsAnalysisAvailable reports whether a document was loaded.
func (s *Store) IsAnalysisAvailable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result != nil
}

// LoadErr returns the load failure, wrapping ErrUnavailable, or nil.
func (s *Store) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// GetRequiredFields returns the sorted union of fields required by the
// given caller when it obtains aggregateRoot through repositoryMethod.
//
// repositoryMethod may be empty (union across all repository methods), a
// bare name (union across that name's overloads) or name+descriptor (exact
// match). A query with no match returns an empty set; that is not an error.
func (s *Store) GetRequiredFields(aggregateRoot, callerClass, callerMethod, repositoryMethod string) []string {
	key := strings.Join([]string{aggregateRoot, callerClass, callerMethod, repositoryMethod}, "\x00")
	if fields, ok := s.cache.Get(key); ok {
		return fields
	}

	fields := s.lookup(aggregateRoot, callerClass, callerMethod, repositoryMethod)

	// Recomputing for the same key yields an identical value, so a racing
	// overwrite is harmless.
	s.cache.Add(key, fields)
	return fields
}

func (s *Store) lookup(aggregateRoot, callerClass, callerMethod, repositoryMethod string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := []string{}
	if s.result == nil {
		return fields
	}
	agg, ok := s.result.CallGraph[aggregateRoot]
	if !ok {
		return fields
	}

	seen := make(map[string]struct{})
	for methodKey, entry := range agg.Methods {
		if !methodKeyMatches(methodKey, repositoryMethod) {
			continue
		}
		for _, call := range entry.Calls {
			if call.MethodClass != callerClass || call.Method != callerMethod {
				continue
			}
			for _, f := range call.RequiredFields {
				if _, dup := seen[f]; dup {
					continue
				}
				seen[f] = struct{}{}
				fields = append(fields, f)
			}
		}
	}

	sort.Strings(fields)
	return fields
}

// methodKeyMatches matches a stored "name(descriptor)" key against a query:
// exact when the query carries a descriptor, by name otherwise.
func methodKeyMatches(methodKey, query string) bool {
	if query == "" {
		return true
	}
	if strings.ContainsRune(query, '(') {
		return methodKey == query
	}
	name := methodKey
	if i := strings.IndexByte(methodKey, '('); i >= 0 {
		name = methodKey[:i]
	}
	return name == query
}

// ClearCache drops all cached lookups. Intended for tests and hot-reload.
func (s *Store) ClearCache() {
	s.cache.Purge()
}
