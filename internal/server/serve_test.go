package server

import (
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownFunc_StopsServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	app := iris.New()
	app.Get("/ping", func(ctx iris.Context) { _, _ = ctx.WriteString("pong") })

	done := make(chan error, 1)
	go func() {
		done <- app.Run(iris.Listener(ln),
			iris.WithoutStartupLog,
			iris.WithoutInterruptHandler,
			iris.WithoutServerError(iris.ErrServerClosed),
		)
	}()

	url := "http://" + ln.Addr().String() + "/ping"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	shutdownFunc(app, time.Second)()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
