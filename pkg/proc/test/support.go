package test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// Fixture is a test program.
type Fixture struct {
	// Name is the short name of the fixture.
	Name string
	// Path is the absolute path to the program file.
	Path string
}

// Fixtures is a map of Fixture.Name to Fixture.
var Fixtures = make(map[string]Fixture)
var fixturesMu sync.Mutex

// FindFixturesDir will search for the directory holding all test fixtures
// beginning with the current directory and searching up 10 directories.
func FindFixturesDir() string {
	parent := ".."
	fixturesDir := "_fixtures"
	for depth := 0; depth < 10; depth++ {
		if _, err := os.Stat(fixturesDir); err == nil {
			break
		}
		fixturesDir = filepath.Join(parent, fixturesDir)
	}
	return fixturesDir
}

// GetFixture returns the fixture program _fixtures/<name>.elf, failing the
// test if it does not exist.
func GetFixture(t testing.TB, name string) Fixture {
	t.Helper()
	fixturesMu.Lock()
	defer fixturesMu.Unlock()
	if f, ok := Fixtures[name]; ok {
		return f
	}
	path, err := filepath.Abs(filepath.Join(FindFixturesDir(), name+".elf"))
	if err != nil {
		t.Fatalf("could not resolve fixture %s: %v", name, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("missing fixture %s: %v", name, err)
	}
	Fixtures[name] = Fixture{Name: name, Path: path}
	return Fixtures[name]
}
