//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package transport

import (
	"syscall"

	"github.com/pkg/errors"
)

func peek(rc syscall.RawConn) Liveness {
	var (
		buf   [1]byte
		n     int
		errno error
	)

	// MSG_DONTWAIT keeps the peek non-blocking whatever mode the fd is in.
	// Returning true tells the runtime not to wait for readability.
	err := rc.Read(func(fd uintptr) bool {
		for {
			n, _, errno = syscall.Recvfrom(int(fd), buf[:], syscall.MSG_PEEK|syscall.MSG_DONTWAIT)
			if !errors.Is(errno, syscall.EINTR) {
				return true
			}
		}
	})
	if err != nil {
		return Dead
	}

	switch {
	case errors.Is(errno, syscall.EAGAIN), errors.Is(errno, syscall.EWOULDBLOCK):
		return WouldBlock
	case errno != nil:
		return Dead
	case n == 0:
		return Dead
	}

	return Readable
}
