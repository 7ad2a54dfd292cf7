package app

import "xreflint/internal/ui/report"

type cacheEntry struct {
	hash   string
	result report.FileResult
}

// cachedResult returns the previous result for path when its content hash
// is unchanged.
func (a *App) cachedResult(path, hash string) (report.FileResult, bool) {
	a.cacheMu.RLock()
	defer a.cacheMu.RUnlock()
	entry, ok := a.cache[path]
	if !ok || entry.hash != hash {
		return report.FileResult{}, false
	}
	return entry.result, true
}

func (a *App) cacheResult(path, hash string, result report.FileResult) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	a.cache[path] = cacheEntry{hash: hash, result: result}
}

func (a *App) dropResult(path string) {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	delete(a.cache, path)
}

func (a *App) resetCache() {
	a.cacheMu.Lock()
	defer a.cacheMu.Unlock()
	a.cache = make(map[string]cacheEntry)
}
