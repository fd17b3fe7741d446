// Command seed pushes sample posts to a running blog API.
//
//	seed -api http://localhost:3001 -file posts.yaml
//
// Without -file the built-in sample posts are sent.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/inkpress/inkpress/backend/blog-service/internal/post/seed"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
	"github.com/spf13/afero"
)

func main() {
	api := flag.String("api", envOr("BLOG_API_URL", "http://localhost:3001"), "base URL of the blog API")
	file := flag.String("file", "", "YAML seed file (default: built-in sample)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))

	var (
		entries []seed.Entry
		err     error
	)
	if *file != "" {
		entries, err = seed.Load(afero.NewOsFs(), *file)
	} else {
		entries, err = seed.Sample()
	}
	if err != nil {
		logger.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	n, err := seed.Push(ctx, &http.Client{Timeout: 10 * time.Second}, *api, entries)
	if err != nil {
		logger.Fatalf("pushed %d/%d posts: %v", n, len(entries), err)
	}
	logger.Infof("pushed %d posts to %s", n, *api)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
