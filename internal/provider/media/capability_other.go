//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package media

// hostSupportsFastPath always reports false: the descriptor API is only
// offered on hosts where the kernel release can be checked.
func hostSupportsFastPath(string) bool {
	return false
}
