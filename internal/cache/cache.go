package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store is a TTL request cache. Entries always live in process memory;
// when a redis client is configured they are mirrored there so cached
// responses survive restarts.
type Store struct {
	rdb *redis.Client
	log zerolog.Logger

	mu     sync.RWMutex
	memory map[string]entry

	stop chan struct{}
	once sync.Once
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// New creates a cache store. redisURL may be empty; the store then runs
// memory-only. A bad or unreachable redis is downgraded to memory-only
// with a warning rather than failing startup.
func New(redisURL string, log zerolog.Logger) *Store {
	s := &Store{
		log:    log,
		memory: make(map[string]entry),
		stop:   make(chan struct{}),
	}

	if redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Warn().Err(err).Msg("invalid REDIS_URL, request cache is memory-only")
		} else {
			rdb := redis.NewClient(opt)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Msg("redis unreachable, request cache is memory-only")
			} else {
				s.rdb = rdb
			}
		}
	}

	go s.janitor()
	return s
}

// Get returns the cached bytes for key, or false when absent or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.memory[key]
	s.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.data, true
	}

	if s.rdb == nil {
		return nil, false
	}

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn().Err(err).Str("key", key).Msg("redis get failed")
		}
		return nil, false
	}

	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		ttl = time.Minute
	}
	s.mu.Lock()
	s.memory[key] = entry{data: data, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()

	return data, true
}

// Set stores data under key for ttl.
func (s *Store) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	s.mu.Lock()
	s.memory[key] = entry{data: data, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("redis set failed")
		}
	}
}

// Close stops the janitor and the redis connection.
func (s *Store) Close() error {
	s.once.Do(func() { close(s.stop) })
	if s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}

func (s *Store) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for k, e := range s.memory {
				if now.After(e.expiresAt) {
					delete(s.memory, k)
				}
			}
			s.mu.Unlock()
		}
	}
}
