//go:build !linux && !darwin && !freebsd
// +build !linux,!darwin,!freebsd

package terminal

// getWindowSize disables paging, the window size is unknown.
func (w *pagingWriter) getWindowSize() {
	w.mode = pagingWriterNormal
}
