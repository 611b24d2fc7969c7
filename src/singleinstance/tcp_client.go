package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"screen-ocr-translate/src/llm"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) TryCapture(ctx context.Context, wait bool) (bool, llm.Result, error) {
	addr, _, ok := findResident(ctx, 2*time.Second)
	if !ok {
		return false, llm.Result{}, nil
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false, llm.Result{}, nil
	}
	res, err := exchange(ctx, conn, Request{Wait: wait})
	return true, res, err
}

// exchange sends one request and reads the reply. The user may take a while
// to draw the selection, so only ctx bounds the wait.
func exchange(ctx context.Context, conn net.Conn, req Request) (llm.Result, error) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(encodeRequest(req)); err != nil {
		return llm.Result{}, err
	}
	if err := w.Flush(); err != nil {
		return llm.Result{}, err
	}
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return llm.Result{}, err
	}
	body, _ := io.ReadAll(br)
	switch status {
	case statusSuccess:
		return decodeResult(body)
	case statusError:
		return llm.Result{}, errors.New(string(body))
	}
	return llm.Result{}, errors.New("unexpected response from resident")
}
