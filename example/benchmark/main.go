package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/beanbocchi/tubeup/config"
	"github.com/beanbocchi/tubeup/internal/client/objectstore/local"
	"github.com/beanbocchi/tubeup/internal/service"
	"github.com/beanbocchi/tubeup/internal/transport"
	"github.com/beanbocchi/tubeup/pkg/sdk"
	"github.com/beanbocchi/tubeup/pkg/uploader"
)

// Uploads the same payload against an in-process server at several
// concurrency levels.
func main() {
	sizeMiB := 64
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n <= 0 {
			fmt.Println("Usage: go run ./example/benchmark [size in MiB]")
			os.Exit(1)
		}
		sizeMiB = n
	}

	root, err := os.MkdirTemp("", "tubeup-bench-")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(root)

	srv, client, err := startServer(root)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()

	data := make([]byte, sizeMiB*1024*1024)
	if _, err := rand.Read(data); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("Multipart upload benchmark")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Size: %s\n\n", formatSize(int64(len(data))))
	fmt.Printf("%-12s %15s %15s\n", "Strategy", "Time", "Throughput")
	fmt.Println(strings.Repeat("-", 70))

	runs := []struct {
		name string
		opts []uploader.Option
	}{
		{"sequential", []uploader.Option{uploader.WithSequential()}},
		{"parallel 2", []uploader.Option{uploader.WithConcurrency(2)}},
		{"parallel 4", []uploader.Option{uploader.WithConcurrency(4)}},
		{"parallel 8", []uploader.Option{uploader.WithConcurrency(8)}},
		{"auto", nil},
	}
	for _, run := range runs {
		opts := append([]uploader.Option{uploader.WithHTTPClient(srv.Client())}, run.opts...)
		elapsed, err := benchmark(client, data, opts)
		if err != nil {
			fmt.Printf("%-12s failed: %v\n", run.name, err)
			continue
		}
		printResult(run.name, elapsed, int64(len(data)))
	}
}

func startServer(root string) (*httptest.Server, *sdk.Client, error) {
	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))

	store, err := local.NewClient(local.LocalConfig{Root: root})
	if err != nil {
		srv.Close()
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	slog.SetDefault(logger)

	svc, err := service.New(store, srv.URL, config.Upload{
		PartSize:  uploader.MinPartSize,
		MaxParts:  uploader.MaxParts,
		KeyPrefix: "bench",
	}, logger)
	if err != nil {
		srv.Close()
		return nil, nil, err
	}
	e, err := transport.NewEcho(svc, 0)
	if err != nil {
		srv.Close()
		return nil, nil, err
	}
	handler = e

	return srv, sdk.NewClientWithHTTPClient(srv.URL+"/api/v1", srv.Client()), nil
}

func benchmark(client *sdk.Client, data []byte, opts []uploader.Option) (time.Duration, error) {
	up, err := uploader.New(client, bytes.NewReader(data), uploader.FileMetadata{Name: "bench.bin"}, opts...)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	if _, err := up.Start(context.Background()); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func printResult(name string, duration time.Duration, size int64) {
	throughput := float64(size) / (1024 * 1024) / duration.Seconds()
	fmt.Printf("%-12s %15s %12.2f MB/s\n", name, duration.Round(time.Microsecond), throughput)
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
