package logger

import (
	"sync"
)

// named holds per-component loggers that override the global fallback.
var named = struct {
	sync.RWMutex
	m map[string]*Logger
}{m: make(map[string]*Logger)}

// Register pins the logger returned by Get(name).
func Register(name string, l *Logger) {
	named.Lock()
	named.m[name] = l
	named.Unlock()
}

// Unregister removes a pinned logger, so Get(name) falls back to the global
// logger again.
func Unregister(name string) {
	named.Lock()
	delete(named.m, name)
	named.Unlock()
}

// Get returns the logger pinned for name, or the global logger tagged with
// name when none is pinned. The fallback is resolved on every call, so a
// global logger installed later is picked up.
func Get(name string) *Logger {
	named.RLock()
	l, ok := named.m[name]
	named.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterComponents pins a logger derived from base for each name.
func RegisterComponents(base *Logger, names ...string) {
	named.Lock()
	defer named.Unlock()
	for _, name := range names {
		named.m[name] = base.WithComponent(name)
	}
}
