//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package transport

import (
	"syscall"
	"time"
)

func setNonblock(c syscall.Conn, nonblocking bool) error {
	rc, err := c.SyscallConn()
	if err != nil {
		return err
	}

	var serr error
	if err := rc.Control(func(fd uintptr) {
		serr = syscall.SetNonblock(int(fd), nonblocking)
	}); err != nil {
		return err
	}
	return serr
}

func (s *ProbeTestSuite) TestIdleOnBlockingSocket() {
	sc, ok := s.client.(syscall.Conn)
	s.Require().True(ok)

	s.Require().NoError(setNonblock(sc, false))
	defer func() { s.NoError(setNonblock(sc, true)) }()

	done := make(chan Liveness, 1)
	go func() { done <- Probe(s.client) }()

	select {
	case got := <-done:
		s.Equal(WouldBlock, got)
	case <-time.After(time.Second):
		// Unblock the peek before failing so the goroutine does not leak.
		s.server.Write([]byte("x"))
		<-done
		s.Fail("peek blocked on an idle socket")
	}
}
