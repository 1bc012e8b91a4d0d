// Tidewatch - Live Maritime Conditions Map
// Copyright 2026 Tidewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tidewatch/tidewatch

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

type mockServer struct {
	listenErr error
	blockCh   chan struct{}
	shutdowns int
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.blockCh
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdowns++
	close(m.blockCh)
	return nil
}

func TestServeReturnsOnListenError(t *testing.T) {
	svc := NewHTTPServerService(&mockServer{listenErr: errors.New("bind failed")}, time.Second)
	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("expected error from failed listen")
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	m := &mockServer{blockCh: make(chan struct{})}
	svc := NewHTTPServerService(m, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err=%v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if m.shutdowns != 1 {
		t.Errorf("shutdowns=%d, want 1", m.shutdowns)
	}
}
