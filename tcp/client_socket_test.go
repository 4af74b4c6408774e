package tcp

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startClient(t *testing.T, s *ServerSocketManager) *ClientSocketManager {
	t.Helper()
	c, err := NewClientSocketManager(ClientConfig{
		ServerAddr:  s.GetAddr(),
		DialTimeout: time.Second,
	})
	require.NoError(t, err)
	c.Start()
	t.Cleanup(c.Stop)
	return c
}

func TestClientSocketManager(t *testing.T) {
	t.Run("Dial failure", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := listener.Addr().String()
		require.NoError(t, listener.Close())

		_, err = NewClientSocketManager(ClientConfig{ServerAddr: addr, DialTimeout: time.Second})
		assert.Error(t, err)
	})

	t.Run("Not started", func(t *testing.T) {
		s := startServer(t, &echoHandler{})
		c, err := NewClientSocketManager(ClientConfig{ServerAddr: s.GetAddr()})
		require.NoError(t, err)
		defer c.Stop()

		_, err = c.SendCommand("hello")
		assert.ErrorIs(t, err, ErrClientNotStarted)
	})

	t.Run("Round trip", func(t *testing.T) {
		s := startServer(t, &echoHandler{})
		c := startClient(t, s)
		c.Start()

		res, err := c.SendCommand("hello")
		require.NoError(t, err)
		assert.Equal(t, "echo:hello", res)

		res, err = c.SendCommand("again")
		require.NoError(t, err)
		assert.Equal(t, "echo:again", res)
	})

	t.Run("Multi-line commands are rejected", func(t *testing.T) {
		h := &echoHandler{}
		s := startServer(t, h)
		c := startClient(t, s)

		for _, cmd := range []string{"a\nb", "a\r", "\n"} {
			_, err := c.SendCommand(cmd)
			assert.ErrorIs(t, err, ErrMultilineCommand, cmd)
		}

		res, err := c.SendCommand("c")
		require.NoError(t, err)
		assert.Equal(t, "echo:c", res)
		assert.Equal(t, []string{"c"}, h.seen())
	})

	t.Run("Over-long response is a transport error", func(t *testing.T) {
		server, client := net.Pipe()
		defer server.Close()

		go func() {
			_, _ = bufio.NewReader(server).ReadString('\n')
			_, _ = io.WriteString(server, strings.Repeat("x", 256)+"\n")
		}()

		c := newClientSocketManager(client, ClientWithMaxLineLength(32))
		c.Start()
		defer c.Stop()

		_, err := c.SendCommand("hello")
		assert.ErrorIs(t, err, bufio.ErrTooLong)

		_, err = c.SendCommand("again")
		assert.ErrorIs(t, err, ErrClientStopped)
	})

	t.Run("Concurrent callers are served one at a time", func(t *testing.T) {
		const callers = 16
		h := &echoHandler{}
		s := startServer(t, h)
		c := startClient(t, s)

		var wg sync.WaitGroup
		for n := 0; n < callers; n++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				cmd := fmt.Sprintf("cmd-%d", n)
				res, err := c.SendCommand(cmd)
				assert.NoError(t, err)
				assert.Equal(t, "echo:"+cmd, res)
			}(n)
		}
		wg.Wait()
		assert.Len(t, h.seen(), callers)
	})

	t.Run("Stop tells the server to quit", func(t *testing.T) {
		h := &echoHandler{}
		s := startServer(t, h)
		c := startClient(t, s)

		_, err := c.SendCommand("hello")
		require.NoError(t, err)

		c.Stop()
		c.Stop()
		assert.Eventually(t, func() bool {
			return slices.Contains(h.seen(), QuitLine)
		}, 2*time.Second, 10*time.Millisecond)
		assert.Eventually(t, func() bool { return s.Registry().Count() == 0 }, 2*time.Second, 10*time.Millisecond)

		_, err = c.SendCommand("late")
		assert.ErrorIs(t, err, ErrClientStopped)
	})

	t.Run("Stop before start sends nothing", func(t *testing.T) {
		h := &echoHandler{}
		s := startServer(t, h)
		c, err := NewClientSocketManager(ClientConfig{ServerAddr: s.GetAddr()})
		require.NoError(t, err)

		c.Stop()
		c.Start()
		_, err = c.SendCommand("hello")
		assert.ErrorIs(t, err, ErrClientNotStarted)
		assert.Empty(t, h.seen())
	})

	t.Run("Transport error ends the session", func(t *testing.T) {
		server, client := net.Pipe()
		defer server.Close()

		go func() {
			_, _ = bufio.NewReader(server).ReadString('\n')
			_ = server.Close()
		}()

		c := newClientSocketManager(client)
		c.Start()
		defer c.Stop()

		_, err := c.SendCommand("hello")
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

		_, err = c.SendCommand("again")
		assert.ErrorIs(t, err, ErrClientStopped)
		assert.ErrorIs(t, c.Err(), io.ErrUnexpectedEOF)
	})
}
