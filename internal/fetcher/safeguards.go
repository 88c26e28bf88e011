package fetcher

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

var panicCount atomic.Int64

// recoverPanic must be deferred directly. It turns a panic during a fetch
// into the fetch error so the rest of the batch still runs.
func (f *Fetcher) recoverPanic(url string, err *error) {
	if r := recover(); r != nil {
		panicCount.Add(1)
		f.log.Debugf("panic during fetching. url:%s\n%s", url, debug.Stack())
		*err = fmt.Errorf("panic during fetching: %v", r)
	}
}

// PanicCount returns the number of recovered fetch panics in this process
func PanicCount() int64 {
	return panicCount.Load()
}
