// Command plumberd-example runs the calculator example end to end over a
// NATS broker: a server exposing the Calculate command and a client
// issuing a few calculations while watching the resulting event stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/modelingevolution/cppplumberd/examples/calculator"
	"github.com/modelingevolution/cppplumberd/metric"
	"github.com/modelingevolution/cppplumberd/plumberd"
	"github.com/modelingevolution/cppplumberd/transport/natstransport"
)

func main() {
	natsURL := flag.String("nats", "nats://127.0.0.1:4222", "NATS server URL")
	prefix := flag.String("prefix", "cppplumberd.example", "subject prefix for this deployment")
	metricsPort := flag.Int("metrics-port", 9090, "port to serve /metrics and /health on")
	flag.Parse()

	factory := natstransport.NewFactory(*natsURL, *prefix, 5*time.Second)

	metricsRegistry := metric.NewMetricsRegistry()
	m := metricsRegistry.CoreMetrics()

	metricsSrv := metric.NewServer(*metricsPort, "/metrics", metricsRegistry)
	go func() {
		if err := metricsSrv.Start(); err != nil {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	defer metricsSrv.Stop()
	log.Printf("serving metrics at %s", metricsSrv.Address())

	srv, err := plumberd.NewServer(factory, *natsURL, 64*1024, m)
	if err != nil {
		log.Fatalf("building server: %v", err)
	}
	if err := calculator.Serve(srv); err != nil {
		log.Fatalf("wiring calculator service: %v", err)
	}
	if err := srv.Start(); err != nil {
		log.Fatalf("starting server: %v", err)
	}
	defer srv.Stop()

	clt, err := plumberd.NewClient(factory, *natsURL, 64*1024, m)
	if err != nil {
		log.Fatalf("building client: %v", err)
	}
	defer clt.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Print("watching calculations stream")
	opLog := calculator.NewOperationLog()
	sub, err := calculator.Watch(ctx, clt, opLog)
	if err != nil {
		log.Fatalf("subscribing to calculations: %v", err)
	}
	defer sub.Unsubscribe()

	for _, op := range []calculator.Operator{calculator.OpAdd, calculator.OpMultiply, calculator.OpDivide} {
		value, err := calculator.Calc(ctx, clt, op, 10, 4)
		if err != nil {
			slog.Error("calculate failed", "op", op, "error", err)
			continue
		}
		fmt.Printf("10 %s 4 = %v\n", op, value)
	}

	time.Sleep(200 * time.Millisecond)
}
