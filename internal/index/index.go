// Package index provides the in-memory inverted index used for candidate
// retrieval. Capabilities are indexed under type, tag, and description-token
// keys; lookups union the postings for a need's keys.
package index

import (
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/substratehq/substrate/internal/model"
)

// minTokenLen filters out short, low-signal tokens ("the", "for", "a").
const minTokenLen = 4

// Entry is a single indexed capability together with its owner.
type Entry struct {
	UserID     string
	Capability model.Capability
}

// Index is a sharded inverted index from retrieval keys to capabilities.
// Postings shards are guarded per-shard so concurrent lookups during a
// profile reindex never block each other globally.
type Index struct {
	shards []*shard

	// reg tracks each capability's current entry and key set so repeated
	// indexing of the same capability replaces rather than accumulates.
	regMu sync.RWMutex
	reg   map[uuid.UUID]*regEntry
}

type regEntry struct {
	entry     Entry
	keys      []string
	embedding []float32
}

type shard struct {
	mu       sync.RWMutex
	postings map[string]map[uuid.UUID]struct{}
}

// New creates an index with the given number of postings shards.
func New(numShards int) *Index {
	if numShards <= 0 {
		numShards = 1
	}
	shards := make([]*shard, numShards)
	for i := range shards {
		shards[i] = &shard{postings: make(map[string]map[uuid.UUID]struct{})}
	}
	return &Index{
		shards: shards,
		reg:    make(map[uuid.UUID]*regEntry),
	}
}

func (ix *Index) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return ix.shards[h.Sum32()%uint32(len(ix.shards))]
}

// Upsert indexes a capability for a user. Indexing the same capability ID
// again replaces its previous keys, so reindexing a changed profile never
// leaves stale postings behind.
func (ix *Index) Upsert(userID string, cap model.Capability) {
	keys := CapabilityKeys(cap)

	ix.regMu.Lock()
	prev := ix.reg[cap.ID]
	var prevKeys []string
	var embedding []float32
	if prev != nil {
		prevKeys = prev.keys
		embedding = prev.embedding
	}
	ix.reg[cap.ID] = &regEntry{
		entry:     Entry{UserID: userID, Capability: cap},
		keys:      keys,
		embedding: embedding,
	}
	ix.regMu.Unlock()

	ix.removeKeys(cap.ID, diffKeys(prevKeys, keys))
	for _, key := range keys {
		s := ix.shardFor(key)
		s.mu.Lock()
		ids := s.postings[key]
		if ids == nil {
			ids = make(map[uuid.UUID]struct{})
			s.postings[key] = ids
		}
		ids[cap.ID] = struct{}{}
		s.mu.Unlock()
	}
}

// Delete removes a capability and all its postings.
func (ix *Index) Delete(capID uuid.UUID) {
	ix.regMu.Lock()
	prev := ix.reg[capID]
	delete(ix.reg, capID)
	ix.regMu.Unlock()

	if prev != nil {
		ix.removeKeys(capID, prev.keys)
	}
}

func (ix *Index) removeKeys(capID uuid.UUID, keys []string) {
	for _, key := range keys {
		s := ix.shardFor(key)
		s.mu.Lock()
		if ids := s.postings[key]; ids != nil {
			delete(ids, capID)
			if len(ids) == 0 {
				delete(s.postings, key)
			}
		}
		s.mu.Unlock()
	}
}

// diffKeys returns the keys in old that are absent from new.
func diffKeys(old, new []string) []string {
	if len(old) == 0 {
		return nil
	}
	keep := make(map[string]struct{}, len(new))
	for _, k := range new {
		keep[k] = struct{}{}
	}
	var removed []string
	for _, k := range old {
		if _, ok := keep[k]; !ok {
			removed = append(removed, k)
		}
	}
	return removed
}

// Candidates returns the capabilities whose keys intersect the need's keys,
// excluding those owned by excludeUserID. Results are sorted by capability ID
// for deterministic downstream ordering.
func (ix *Index) Candidates(need model.Need, excludeUserID string) []Entry {
	seen := make(map[uuid.UUID]struct{})
	for _, key := range NeedKeys(need) {
		s := ix.shardFor(key)
		s.mu.RLock()
		for id := range s.postings[key] {
			seen[id] = struct{}{}
		}
		s.mu.RUnlock()
	}

	entries := make([]Entry, 0, len(seen))
	ix.regMu.RLock()
	for id := range seen {
		re := ix.reg[id]
		if re == nil || re.entry.UserID == excludeUserID {
			continue
		}
		entries = append(entries, re.entry)
	}
	ix.regMu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Capability.ID.String() < entries[j].Capability.ID.String()
	})
	return entries
}

// Get returns the entry for a capability ID, if indexed.
func (ix *Index) Get(capID uuid.UUID) (Entry, bool) {
	ix.regMu.RLock()
	defer ix.regMu.RUnlock()
	if re := ix.reg[capID]; re != nil {
		return re.entry, true
	}
	return Entry{}, false
}

// SetEmbedding caches a capability's embedding vector alongside its entry.
// No-op if the capability is not indexed.
func (ix *Index) SetEmbedding(capID uuid.UUID, vec []float32) {
	ix.regMu.Lock()
	if re := ix.reg[capID]; re != nil {
		re.embedding = vec
	}
	ix.regMu.Unlock()
}

// Embedding returns a capability's cached embedding, or nil if absent.
func (ix *Index) Embedding(capID uuid.UUID) []float32 {
	ix.regMu.RLock()
	defer ix.regMu.RUnlock()
	if re := ix.reg[capID]; re != nil {
		return re.embedding
	}
	return nil
}

// Len returns the number of indexed capabilities.
func (ix *Index) Len() int {
	ix.regMu.RLock()
	defer ix.regMu.RUnlock()
	return len(ix.reg)
}

// CapabilityKeys derives the retrieval keys a capability is indexed under.
func CapabilityKeys(cap model.Capability) []string {
	return deriveKeys(string(cap.Type), cap.Tags, cap.Name+" "+cap.Description)
}

// NeedKeys derives the retrieval keys looked up for a need. Symmetric with
// CapabilityKeys so a need finds capabilities of its own type, tags, and
// vocabulary.
func NeedKeys(need model.Need) []string {
	return deriveKeys(string(need.Type), need.Tags, need.Name+" "+need.Description)
}

func deriveKeys(typ string, tags []string, text string) []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0, 8)
	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	add("type:" + typ)
	for _, tag := range model.NormalizeTags(tags) {
		add("tag:" + tag)
	}
	for _, tok := range Tokenize(text) {
		add("token:" + tok)
	}
	return keys
}

// Tokenize lowercases text and splits on non-alphanumeric runes, keeping
// tokens of at least minTokenLen characters.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	toks := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			toks = append(toks, f)
		}
	}
	return toks
}
