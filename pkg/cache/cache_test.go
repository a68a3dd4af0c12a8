package cache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/brio-lang/brio/pkg/bytecode"
	"github.com/brio-lang/brio/pkg/value"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "programs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleProgram() *bytecode.Program {
	p := bytecode.NewProgram()
	p.AppendOp(bytecode.OpPushInt)
	p.AppendInt(42)
	p.InternString("hello")
	p.StateDefaults["count"] = value.NewInt(3)
	return p
}

func TestKeyIsStable(t *testing.T) {
	src := []byte(`{"body": []}`)
	a := Key(src)
	b := Key(src)
	if a != b {
		t.Errorf("Key should be deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Key length = %d, want 64 hex chars", len(a))
	}
	if Key([]byte(`{"body": [1]}`)) == a {
		t.Error("different inputs should hash differently")
	}
}

func TestPutGet(t *testing.T) {
	c := openTemp(t)
	key := Key([]byte("source"))

	if err := c.Put(key, sampleProgram()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Code) != 9 {
		t.Errorf("code length = %d, want 9", len(got.Code))
	}
	if v, ok := got.StateDefaults["count"]; !ok || v.Int() != 3 {
		t.Errorf("StateDefaults[count] = (%v, %v), want (3, true)", v, ok)
	}
}

func TestGetMiss(t *testing.T) {
	c := openTemp(t)
	_, err := c.Get(Key([]byte("never stored")))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPutReplaces(t *testing.T) {
	c := openTemp(t)
	key := Key([]byte("source"))

	if err := c.Put(key, sampleProgram()); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}

	replacement := bytecode.NewProgram()
	replacement.AppendOp(bytecode.OpPushNil)
	if err := c.Put(key, replacement); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	got, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Code) != 1 {
		t.Errorf("code length = %d, want 1 (replacement)", len(got.Code))
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "programs.db")
	key := Key([]byte("source"))

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := c.Put(key, sampleProgram()); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	c.Close()

	c, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer c.Close()

	if _, err := c.Get(key); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	c := openTemp(t)
	key := Key([]byte("source"))

	if _, err := c.db.Exec("INSERT INTO programs (key, program) VALUES (?, ?)", key, []byte("junk")); err != nil {
		t.Fatalf("seeding junk: %v", err)
	}
	if _, err := c.Get(key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() of corrupt entry = %v, want ErrNotFound", err)
	}
}
