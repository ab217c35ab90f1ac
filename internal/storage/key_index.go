package storage

// KeyIndex maps keys to stored entries. Implementations decide what key
// equality means; they are not synchronized.
type KeyIndex[K comparable, V any] interface {
	Lookup(key K) *Entry[K, V]
	Insert(entry *Entry[K, V])
	Remove(entry *Entry[K, V])
	Reset()
}

// NativeIndex uses Go's built-in == on keys
type NativeIndex[K comparable, V any] struct {
	items map[K]*Entry[K, V]
}

// NewNativeIndex creates an index keyed by native equality
func NewNativeIndex[K comparable, V any]() *NativeIndex[K, V] {
	return &NativeIndex[K, V]{items: make(map[K]*Entry[K, V])}
}

func (ix *NativeIndex[K, V]) Lookup(key K) *Entry[K, V] {
	return ix.items[key]
}

func (ix *NativeIndex[K, V]) Insert(entry *Entry[K, V]) {
	ix.items[entry.Key] = entry
}

func (ix *NativeIndex[K, V]) Remove(entry *Entry[K, V]) {
	if ix.items[entry.Key] == entry {
		delete(ix.items, entry.Key)
	}
}

func (ix *NativeIndex[K, V]) Reset() {
	ix.items = make(map[K]*Entry[K, V])
}

// HashedIndex supports caller-defined key equality. Keys are grouped in
// buckets by hash and compared with equal inside a bucket, so hash must be
// consistent with equal.
type HashedIndex[K comparable, V any] struct {
	hash    func(K) uint64
	equal   func(a, b K) bool
	buckets map[uint64][]*Entry[K, V]
}

// NewHashedIndex creates an index using the supplied hash and equality functions
func NewHashedIndex[K comparable, V any](hash func(K) uint64, equal func(a, b K) bool) *HashedIndex[K, V] {
	return &HashedIndex[K, V]{
		hash:    hash,
		equal:   equal,
		buckets: make(map[uint64][]*Entry[K, V]),
	}
}

func (ix *HashedIndex[K, V]) Lookup(key K) *Entry[K, V] {
	for _, e := range ix.buckets[ix.hash(key)] {
		if ix.equal(e.Key, key) {
			return e
		}
	}
	return nil
}

func (ix *HashedIndex[K, V]) Insert(entry *Entry[K, V]) {
	h := ix.hash(entry.Key)
	ix.buckets[h] = append(ix.buckets[h], entry)
}

func (ix *HashedIndex[K, V]) Remove(entry *Entry[K, V]) {
	h := ix.hash(entry.Key)
	bucket := ix.buckets[h]
	for i, e := range bucket {
		if e != entry {
			continue
		}
		bucket[i] = bucket[len(bucket)-1]
		bucket[len(bucket)-1] = nil
		bucket = bucket[:len(bucket)-1]
		break
	}
	if len(bucket) == 0 {
		delete(ix.buckets, h)
		return
	}
	ix.buckets[h] = bucket
}

func (ix *HashedIndex[K, V]) Reset() {
	ix.buckets = make(map[uint64][]*Entry[K, V])
}
