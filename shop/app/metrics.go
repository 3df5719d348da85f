package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/m3rciful/skinshop/core/logger"
)

// metricsServer exposes /metrics and /healthz.
type metricsServer struct {
	srv  *fasthttp.Server
	addr string
	done chan error
}

func startMetrics(ctx context.Context, addr string) (*metricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	prom := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	m := &metricsServer{
		srv: &fasthttp.Server{
			Name:        "skinshop-metrics",
			ReadTimeout: 5 * time.Second,
			Handler: func(rc *fasthttp.RequestCtx) {
				switch string(rc.Path()) {
				case "/metrics":
					prom(rc)
				case "/healthz":
					rc.SetBodyString("ok")
				default:
					rc.SetStatusCode(fasthttp.StatusNotFound)
				}
			},
		},
		addr: ln.Addr().String(),
		done: make(chan error, 1),
	}
	go func() { m.done <- m.srv.Serve(ln) }()

	logger.LogEvent(ctx, logger.Component("metrics"), slog.LevelInfo, "metrics.listen", slog.String("addr", m.addr))
	return m, nil
}

func (m *metricsServer) Close(ctx context.Context) error {
	if err := m.srv.ShutdownWithContext(ctx); err != nil {
		return err
	}
	if err := <-m.done; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
