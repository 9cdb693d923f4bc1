package version

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// 测试替身

type valRow struct{ v int64 }

func (r valRow) Scan(dest ...any) error {
	p, ok := dest[0].(*int64)
	if !ok {
		return fmt.Errorf("unexpected scan dest %T", dest[0])
	}
	*p = r.v
	return nil
}

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

type fakeDB struct {
	mu       sync.Mutex
	versions map[string]int64
	err      error
	selects  int
	bumps    int
}

func newFakeDB() *fakeDB {
	return &fakeDB{versions: map[string]int64{}}
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return errRow{f.err}
	}
	if err := ctx.Err(); err != nil {
		return errRow{err}
	}
	id, _ := args[0].(string)
	if strings.Contains(sql, "UPDATE") {
		if _, ok := f.versions[id]; !ok {
			return errRow{pgx.ErrNoRows}
		}
		f.bumps++
		f.versions[id]++
		return valRow{f.versions[id]}
	}
	f.selects++
	v, ok := f.versions[id]
	if !ok {
		return errRow{pgx.ErrNoRows}
	}
	return valRow{v}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}

func (f *fakeDB) selectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selects
}

type fakeCache struct {
	mu       sync.Mutex
	data     map[string]string
	getErr   error
	mgetErr  error
	setErr   error
	setCalls int
	delCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCache) MGet(ctx context.Context, keys ...string) *redis.SliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mgetErr != nil {
		return redis.NewSliceResult(nil, f.mgetErr)
	}
	out := make([]interface{}, len(keys))
	for i, k := range keys {
		if v, ok := f.data[k]; ok {
			out[i] = v
		}
	}
	return redis.NewSliceResult(out, nil)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.setCalls++
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delCalls++
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeCache) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}


func TestCacheKeyInjectiveAcrossScopeKinds(t *testing.T) {
	id := "42"
	tk := TenantScope(id).CacheKey()
	uk := UserScope(id).CacheKey()
	if tk == uk {
		t.Fatalf("tenant and user cache keys collide: %s", tk)
	}
	if tk != "authz:tenant:42:v" {
		t.Errorf("tenant key = %s", tk)
	}
	if uk != "authz:user:42:v" {
		t.Errorf("user key = %s", uk)
	}
}

func TestGetDBDefaultsWhenRowMissing(t *testing.T) {
	s := &Store{DB: newFakeDB()}
	v, err := s.GetDB(context.Background(), TenantScope("ghost"))
	if err != nil {
		t.Fatalf("GetDB: %v", err)
	}
	if v != DefaultVersion {
		t.Fatalf("missing row should default to %d, got %d", DefaultVersion, v)
	}
}

func TestGetDBPropagatesStorageError(t *testing.T) {
	db := newFakeDB()
	db.err = fmt.Errorf("connection refused")
	s := &Store{DB: db}
	if _, err := s.GetDB(context.Background(), TenantScope("t1")); err == nil {
		t.Fatal("expected storage error")
	}
}

func TestBumpDBMonotonicUnderConcurrency(t *testing.T) {
	db := newFakeDB()
	db.versions["t1"] = 1
	s := &Store{DB: db}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.BumpDB(context.Background(), TenantScope("t1")); err != nil {
				t.Errorf("BumpDB: %v", err)
			}
		}()
	}
	wg.Wait()

	v, err := s.GetDB(context.Background(), TenantScope("t1"))
	if err != nil {
		t.Fatalf("GetDB: %v", err)
	}
	if v != 1+n {
		t.Fatalf("expected %d after %d bumps, got %d", 1+n, n, v)
	}
}

func TestBumpDBMissingRowIsError(t *testing.T) {
	s := &Store{DB: newFakeDB()}
	_, err := s.BumpDB(context.Background(), UserScope("ghost"))
	if err == nil {
		t.Fatal("bump on missing row must not silently succeed")
	}
}

func TestGetCacheThreeWayResult(t *testing.T) {
	c := newFakeCache()
	c.data[TenantScope("t1").CacheKey()] = "7"
	s := &Store{DB: newFakeDB(), Cache: c}

	if v, st := s.GetCache(context.Background(), TenantScope("t1")); st != CacheHit || v != 7 {
		t.Fatalf("expected hit 7, got v=%d st=%d", v, st)
	}
	if _, st := s.GetCache(context.Background(), TenantScope("t2")); st != CacheMiss {
		t.Fatalf("absent key should be miss, got %d", st)
	}

	c.getErr = fmt.Errorf("i/o timeout")
	if _, st := s.GetCache(context.Background(), TenantScope("t1")); st != CacheError {
		t.Fatalf("transport failure should be error, got %d", st)
	}
}

func TestGetCacheCorruptValueTreatedAsMiss(t *testing.T) {
	c := newFakeCache()
	c.data[UserScope("u1").CacheKey()] = "not-a-number"
	s := &Store{DB: newFakeDB(), Cache: c}
	if _, st := s.GetCache(context.Background(), UserScope("u1")); st != CacheMiss {
		t.Fatalf("corrupt value should read as miss, got %d", st)
	}
}

func TestGetCacheNilClientIsMiss(t *testing.T) {
	s := &Store{DB: newFakeDB()}
	if _, st := s.GetCache(context.Background(), TenantScope("t1")); st != CacheMiss {
		t.Fatalf("disabled cache tier should read as miss, got %d", st)
	}
}

func TestGetCacheBatchIndependentStates(t *testing.T) {
	c := newFakeCache()
	c.data[TenantScope("t1").CacheKey()] = "5"
	s := &Store{DB: newFakeDB(), Cache: c}

	vals, states := s.GetCacheBatch(context.Background(), TenantScope("t1"), UserScope("u1"))
	if states[0] != CacheHit || vals[0] != 5 {
		t.Fatalf("tenant key: v=%d st=%d", vals[0], states[0])
	}
	if states[1] != CacheMiss {
		t.Fatalf("user key should miss, got %d", states[1])
	}

	c.mgetErr = fmt.Errorf("broken pipe")
	_, states = s.GetCacheBatch(context.Background(), TenantScope("t1"), UserScope("u1"))
	if states[0] != CacheError || states[1] != CacheError {
		t.Fatalf("mget failure should mark all keys error, got %v", states)
	}
}

func TestSetCacheFailureSwallowed(t *testing.T) {
	c := newFakeCache()
	c.setErr = fmt.Errorf("readonly replica")
	s := &Store{DB: newFakeDB(), Cache: c}
	if ok := s.SetCache(context.Background(), TenantScope("t1"), 9); ok {
		t.Fatal("set failure should report false")
	}
}
