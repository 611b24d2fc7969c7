package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/llm"
)

type outcome struct {
	res llm.Result
	err error
}

func collect(ch chan outcome) ResultCallback {
	return func(res llm.Result, err error) { ch <- outcome{res, err} }
}

func TestSubmitRunsTask(t *testing.T) {
	p := New(1)
	defer p.Close()
	ch := make(chan outcome, 1)
	ok := p.Submit(context.Background(), func(context.Context) (llm.Result, error) {
		return llm.Result{Translation: "xin chào"}, nil
	}, collect(ch))
	require.True(t, ok)

	got := <-ch
	require.NoError(t, got.err)
	require.Equal(t, "xin chào", got.res.Translation)
}

func TestSubmitBackPressure(t *testing.T) {
	p := New(1)
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	ch := make(chan outcome, 3)
	blocking := func(context.Context) (llm.Result, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return llm.Result{}, nil
	}

	require.True(t, p.Submit(context.Background(), blocking, collect(ch)))
	<-started
	// Worker busy, queue slot free.
	require.True(t, p.Submit(context.Background(), blocking, collect(ch)))
	require.False(t, p.Submit(context.Background(), blocking, collect(ch)))

	close(release)
	<-ch
	<-ch
	p.Close()
}

func TestDeadlineReturnsEarly(t *testing.T) {
	p := New(1)
	defer p.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	never := make(chan struct{})
	defer close(never)
	ch := make(chan outcome, 1)
	require.True(t, p.Submit(ctx, func(context.Context) (llm.Result, error) {
		<-never
		return llm.Result{}, nil
	}, collect(ch)))

	got := <-ch
	require.True(t, errors.Is(got.err, context.DeadlineExceeded))
}

func TestPanicBecomesError(t *testing.T) {
	p := New(1)
	defer p.Close()
	ch := make(chan outcome, 1)
	p.Submit(context.Background(), func(context.Context) (llm.Result, error) {
		panic("boom")
	}, collect(ch))
	require.ErrorContains(t, (<-ch).err, "boom")
}
