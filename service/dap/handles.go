package dap

import (
	"github.com/go-delve/elfdb/service/api"
	lru "github.com/hashicorp/golang-lru"
)

const (
	startHandle = 1000
	// maxHandles bounds the number of references kept alive between two
	// stops. Clients rarely expand more than a few per stop.
	maxHandles = 256
)

// handlesMap maps arbitrary values to unique sequential ids.
// This provides convenient abstraction of references, offering
// opacity and allowing simplification of complex identifiers.
// Only the most recently used handles are retained.
// Based on
// https://github.com/microsoft/vscode-debugadapter-node/blob/master/adapter/src/handles.ts
type handlesMap struct {
	nextHandle  int
	handleToVal *lru.Cache
}

func newHandlesMap() *handlesMap {
	cache, err := lru.New(maxHandles)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &handlesMap{startHandle, cache}
}

func (hs *handlesMap) reset() {
	hs.nextHandle = startHandle
	hs.handleToVal.Purge()
}

func (hs *handlesMap) create(value interface{}) int {
	next := hs.nextHandle
	hs.nextHandle++
	hs.handleToVal.Add(next, value)
	return next
}

func (hs *handlesMap) get(handle int) (interface{}, bool) {
	return hs.handleToVal.Get(handle)
}

// registerScope is the register file at a stop.
type registerScope struct {
	registers []api.Register
}

// historyRef is the observation history of one register at a stop.
type historyRef struct {
	info *api.UniqueInfo
}
