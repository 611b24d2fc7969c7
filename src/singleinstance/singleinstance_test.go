package singleinstance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/llm"
)

func startServer(t *testing.T, ctx context.Context) Server {
	t.Helper()
	t.Setenv("SINGLEINSTANCE_PORT_START", "49731")
	t.Setenv("SINGLEINSTANCE_PORT_END", "49733")
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback listener unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestCaptureRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	type reply struct {
		delegated bool
		res       llm.Result
		err       error
	}
	done := make(chan reply, 1)
	go func() {
		delegated, res, err := NewClient().TryCapture(ctx, true)
		done <- reply{delegated, res, err}
	}()

	conn, err := srv.Next(ctx)
	require.NoError(t, err)
	require.True(t, conn.Request().Wait)
	want := llm.Result{Original: "hello", Translation: "xin chào", Language: "English"}
	require.NoError(t, conn.RespondSuccess(want))
	require.NoError(t, conn.Close())

	got := <-done
	require.NoError(t, got.err)
	require.True(t, got.delegated)
	require.Equal(t, want, got.res)
}

func TestCaptureError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	done := make(chan error, 1)
	go func() {
		_, _, err := NewClient().TryCapture(ctx, false)
		done <- err
	}()

	conn, err := srv.Next(ctx)
	require.NoError(t, err)
	require.False(t, conn.Request().Wait)
	require.NoError(t, conn.RespondError("Busy, please retry"))
	require.NoError(t, conn.Close())

	require.EqualError(t, <-done, "Busy, please retry")
}

func TestDetectResidentPort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := startServer(t, ctx)

	port, ok := DetectResidentPort(ctx)
	require.True(t, ok)
	require.Equal(t, srv.Port(), port)
}

func TestNoResident(t *testing.T) {
	t.Setenv("SINGLEINSTANCE_PORT_START", "49741")
	t.Setenv("SINGLEINSTANCE_PORT_END", "49741")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	delegated, _, err := NewClient().TryCapture(ctx, true)
	require.NoError(t, err)
	require.False(t, delegated)
}

func TestParseRequest(t *testing.T) {
	req, err := parseRequest("CAPTURE WAIT\n")
	require.NoError(t, err)
	require.True(t, req.Wait)

	req, err = parseRequest(encodeRequest(Request{}))
	require.NoError(t, err)
	require.False(t, req.Wait)

	_, err = parseRequest("STDOUT\n")
	require.Error(t, err)
}

func TestPortRangeClamps(t *testing.T) {
	t.Setenv("SINGLEINSTANCE_PORT_START", "70000")
	t.Setenv("SINGLEINSTANCE_PORT_END", "80")
	start, end := PortRange()
	require.Equal(t, 1024, start)
	require.Equal(t, 65535, end)
}
