package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"dmxbridge/host/monitor"
	"dmxbridge/host/serial"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	device      = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud        = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	channels    = flag.Int("channels", 16, "Number of leading channels to print")
	depth       = flag.Int("depth", 16, "Frames buffered before the oldest is dropped")
	metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9110)")
	verbose     = flag.Bool("verbose", false, "Print every frame instead of only gaps")
)

func main() {
	flag.Parse()

	fmt.Println("dmxbridge monitor")
	fmt.Println("=================")

	var metrics *monitor.Metrics
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = monitor.NewMetrics(reg)
		go serveMetrics(*metricsAddr, reg)
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to bridge on %s...\n", *device)
	conn, err := monitor.ConnectWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	mon := monitor.New(metrics, *channels)
	frames := conn.Frames(*depth)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		mon.Run(frames, func(r monitor.Report) {
			switch {
			case r.Reordered:
				fmt.Printf("seq %d: out of order\n", r.Seq)
			case r.Gap > 0:
				fmt.Printf("seq %d: %d frame(s) missed\n", r.Seq, r.Gap)
			}
			if *verbose || r.Gap > 0 {
				fmt.Printf("seq %d: %s\n", r.Seq, monitor.FormatChannels(&r.Frame, *channels))
			}
		}, func(err error) {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		})
	}()

	for {
		select {
		case <-ticker.C:
			ts := conn.Transport().Stats()
			mon.UpdateTransport(ts)
			ms := mon.Stats()
			fmt.Printf("[STATS] frames=%d missed=%d reordered=%d invalid=%d seq=%d desyncs=%d dropped=%d\n",
				ms.Frames, ms.Missed, ms.Reordered, ms.Invalid, ms.LastSeq, ts.Desyncs, ts.Dropped)
		case <-done:
			if err := conn.Transport().Err(); err != nil {
				fmt.Printf("Bridge disconnected: %v\n", err)
			} else {
				fmt.Println("Bridge disconnected")
			}
			return
		case <-interrupt:
			fmt.Println("Goodbye!")
			return
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	fmt.Printf("Serving metrics on %s/metrics\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Error: metrics server: %v\n", err)
	}
}
