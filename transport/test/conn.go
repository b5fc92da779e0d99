package test

import (
	"bytes"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// ConnTestSuite checks a connected pair of conns.
// Embedders fill C1 and C2 in their SetupTest.
type ConnTestSuite struct {
	suite.Suite
	C1, C2 net.Conn
	Clock  clock.Clock

	done  chan struct{}
	timer *time.Timer
}

func (s *ConnTestSuite) SetupTest() {
	s.done = make(chan struct{})
	s.Clock = clock.New() // Use real-time timer for now.

	s.timer = time.AfterFunc(time.Second, func() {
		select {
		case <-s.done:
		default:
			s.Fail("timeout exceeded")
		}
	})
}

func (s *ConnTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.C1.Close()
	s.C2.Close()
	close(s.done)
	s.timer.Stop()
}

func (s *ConnTestSuite) TestReadWrite() {
	data := []byte("Hello, World!")

	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Add(2)

	go func() {
		defer wg.Done()
		n, err := s.C1.Write(data)
		s.NoError(err)
		s.Equal(len(data), n)
	}()
	go func() {
		defer wg.Done()
		buf := make([]byte, len(data))

		_, err := io.ReadFull(s.C2, buf)
		s.NoError(err)
		s.Equal(data, buf)
	}()
}

func (s *ConnTestSuite) TestWriteRace() {
	data := []byte("ABCD")
	N := 10

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()

		result, err := io.ReadAll(s.C2)
		s.NoError(err)
		s.Equal(bytes.Repeat(data, N), result)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var wwg sync.WaitGroup
		for range N {
			wwg.Add(1)
			go func() {
				defer wwg.Done()
				n, err := s.C1.Write(data)
				s.NoError(err)
				s.Equal(len(data), n)
			}()
		}
		wwg.Wait()
		s.NoError(s.C1.Close())
	}()
}

func (s *ConnTestSuite) TestClose() {
	s.Require().NoError(s.C1.Close())

	buf := make([]byte, 10)

	// Local side rejects further use.
	n, err := s.C1.Read(buf)
	s.ErrorIs(err, net.ErrClosed)
	s.Zero(n)

	n, err = s.C1.Write(buf)
	s.ErrorIs(err, net.ErrClosed)
	s.Zero(n)

	// Remote side sees end-of-stream.
	n, err = s.C2.Read(buf)
	s.ErrorIs(err, io.EOF)
	s.Zero(n)
}

func (s *ConnTestSuite) TestReadBeforeClose() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Read(make([]byte, 1))
		s.ErrorIs(err, net.ErrClosed)
	}()

	s.Clock.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.C1.Close())
}

func (s *ConnTestSuite) TestReadDeadLine() {
	s.Require().NoError(s.C1.SetReadDeadline(s.Clock.Now().Add(-time.Second)))

	b := make([]byte, 1)
	n, err := s.C1.Read(b)
	s.ErrorIs(err, os.ErrDeadlineExceeded)
	s.Zero(n)
}

func (s *ConnTestSuite) TestWriteDeadLine() {
	s.Require().NoError(s.C1.SetWriteDeadline(s.Clock.Now().Add(-time.Second)))

	b := make([]byte, 1)
	n, err := s.C1.Write(b)
	s.ErrorIs(err, os.ErrDeadlineExceeded)
	s.Zero(n)
}

func (s *ConnTestSuite) TestAddr() {
	local1, remote1 := s.C1.LocalAddr(), s.C1.RemoteAddr()
	local2, remote2 := s.C2.LocalAddr(), s.C2.RemoteAddr()

	s.Equal(local1.String(), remote2.String())
	s.Equal(local2.String(), remote1.String())
}
