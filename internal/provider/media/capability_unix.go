//go:build linux || darwin || freebsd || netbsd || openbsd

package media

import (
	"golang.org/x/sys/unix"
)

// hostSupportsFastPath compares the running kernel release with minKernel.
func hostSupportsFastPath(minKernel string) bool {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return false
	}
	return versionAtLeast(unix.ByteSliceToString(uts.Release[:]), minKernel)
}
