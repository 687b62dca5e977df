// Command sans-calc serves the resolution calculator over HTTP, or computes a
// single parameter file and writes the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/sans.calculator/internal/api"
	"github.com/banshee-data/sans.calculator/internal/calculator"
	"github.com/banshee-data/sans.calculator/internal/config"
	"github.com/banshee-data/sans.calculator/internal/fsutil"
	"github.com/banshee-data/sans.calculator/internal/model"
	"github.com/banshee-data/sans.calculator/internal/monitoring"
	"github.com/banshee-data/sans.calculator/internal/security"
	"github.com/banshee-data/sans.calculator/internal/version"
)

type options struct {
	listen      string
	instrument  string
	params      string
	out         string
	debug       bool
	showVersion bool
	timeout     time.Duration
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("sans-calc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.StringVar(&o.listen, "listen", ":8080", "Listen address")
	fs.StringVar(&o.instrument, "instrument", "ng7", "Instrument for -params (ng7, ngb10, ngb30, vsans, no_instrument)")
	fs.StringVar(&o.params, "params", "", "Compute this JSON parameter file once instead of serving")
	fs.StringVar(&o.out, "out", "", "Write the -params result to this .json file or directory (default stdout)")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	fs.DurationVar(&o.timeout, "timeout", api.DefaultComputeTimeout, "Per-request compute deadline")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.params == "" && o.listen == "" {
		return nil, errors.New("listen address is required")
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.showVersion {
		fmt.Fprintln(stdout, version.Get())
		return nil
	}
	monitoring.SetDebug(o.debug)

	if o.params != "" {
		return computeOnce(ctx, o, fsutil.OSFileSystem{}, stdout)
	}
	return serve(ctx, o)
}

// computeOnce runs a single parameter file through the calculator.
func computeOnce(ctx context.Context, o *options, fsys fsutil.FileSystem, stdout io.Writer) error {
	params, err := config.LoadParams(fsys, o.params)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	res, _, err := calculator.Compute(ctx, o.instrument, params, model.Builtin{})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')
	if o.out == "" {
		_, err := stdout.Write(data)
		return err
	}

	path := o.out
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		if err := fsys.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create result directory: %w", err)
		}
	}
	if info, err := fsys.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, security.ResultFilename(res.UserInaccessible.Instrument, res.UserInaccessible.RequestID))
	}
	if err := security.ValidateOutputPath(path); err != nil {
		return err
	}
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	log.Printf("wrote %s result to %s", res.UserInaccessible.Instrument, path)
	return nil
}

func newHandler(timeout time.Duration) http.Handler {
	s := api.NewServer(model.Builtin{}, nil)
	s.SetComputeTimeout(timeout)
	mux := s.ServeMux()
	s.AttachAdminRoutes(mux)
	return api.LoggingMiddleware(mux)
}

func serve(ctx context.Context, o *options) error {
	server := &http.Server{
		Addr:              o.listen,
		Handler:           newHandler(o.timeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("sans-calc %s listening on %s", version.Version, o.listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
	return nil
}
