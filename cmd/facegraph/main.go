// Command facegraph is a thin CLI over the graph client: address a node,
// invoke it, print the decoded JSON result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/facegraph/facegraph-go/graph"
	"github.com/facegraph/facegraph-go/internal/app/canvas"
	"github.com/facegraph/facegraph-go/internal/pkg/config"
	"github.com/facegraph/facegraph-go/urlobject"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "get":
		err = runGet(os.Args[2:])
	case "post":
		err = runPost(os.Args[2:])
	case "delete":
		err = runDelete(os.Args[2:])
	case "search":
		err = runSearch(os.Args[2:])
	case "post-file":
		err = runPostFile(os.Args[2:])
	case "canvas":
		err = runCanvas(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: facegraph <command> [flags] [args]

Commands:
  get <path> [k=v ...]        GET a node
  post <path> k=v [k=v ...]   POST form fields to a node
  delete <path>               delete a node (POST method=delete)
  search -q <text> [-type t]  search the graph
  post-file <path> -file <vfs-uri> [k=v ...]
                              multipart upload to a node
  canvas -config <file>       run the canvas demo server

Common flags: -token, -base, -config`)
}

// clientFlags registers the shared flags and returns a constructor that
// builds the client after flag parsing.
func clientFlags(fs *flag.FlagSet) func() (*graph.Graph, error) {
	token := fs.String("token", "", "access token")
	base := fs.String("base", "", "API base URL override")
	configPath := fs.String("config", "", "TOML config file")

	return func() (*graph.Graph, error) {
		accessToken := *token
		baseURL := *base
		timeout := graph.DefaultTimeout

		if *configPath != "" {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return nil, err
			}
			if accessToken == "" {
				accessToken = cfg.Graph.AccessToken
			}
			if baseURL == "" {
				baseURL = cfg.Graph.BaseURL
			}
			timeout = cfg.Graph.Timeout()
		}

		opts := []graph.Option{graph.WithTransport(graph.NewHTTPTransport(timeout))}
		if baseURL != "" {
			u, err := urlobject.Parse(baseURL)
			if err != nil {
				return nil, err
			}
			opts = append(opts, graph.WithBase(u))
		}
		return graph.New(accessToken, opts...), nil
	}
}

// parseParams turns trailing k=v arguments into request parameters.
func parseParams(args []string) (graph.Params, error) {
	params := graph.Params{}
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}

func printResult(result any) {
	switch v := result.(type) {
	case *graph.Node:
		fmt.Println(v.Raw())
	case []*graph.Node:
		for _, node := range v {
			fmt.Println(node.Raw())
		}
	default:
		fmt.Printf("%v\n", v)
	}
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	newClient := clientFlags(fs)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("get: missing path")
	}

	g, err := newClient()
	if err != nil {
		return err
	}
	params, err := parseParams(fs.Args()[1:])
	if err != nil {
		return err
	}

	result, err := g.Attr(fs.Arg(0)).Do(context.Background(), "GET", params)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runPost(args []string) error {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	newClient := clientFlags(fs)
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("post: missing path")
	}

	g, err := newClient()
	if err != nil {
		return err
	}
	params, err := parseParams(fs.Args()[1:])
	if err != nil {
		return err
	}

	result, err := g.Attr(fs.Arg(0)).Post(context.Background(), params)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	newClient := clientFlags(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("delete: want exactly one path")
	}

	g, err := newClient()
	if err != nil {
		return err
	}
	ok, err := g.Attr(fs.Arg(0)).Delete(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", ok)
	return nil
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	newClient := clientFlags(fs)
	query := fs.String("q", "", "free-text query")
	searchType := fs.String("type", "", "object type filter")
	fs.Parse(args)
	if *query == "" {
		return fmt.Errorf("search: missing -q")
	}

	g, err := newClient()
	if err != nil {
		return err
	}
	criteria := graph.Params{"q": *query}
	if *searchType != "" {
		criteria["type"] = *searchType
	}

	result, err := g.Search(context.Background(), criteria)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runPostFile(args []string) error {
	fs := flag.NewFlagSet("post-file", flag.ExitOnError)
	newClient := clientFlags(fs)
	location := fs.String("file", "", "upload source as a vfs URI (file://, s3://, ...)")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("post-file: missing path")
	}
	if *location == "" {
		return fmt.Errorf("post-file: missing -file")
	}

	g, err := newClient()
	if err != nil {
		return err
	}
	params, err := parseParams(fs.Args()[1:])
	if err != nil {
		return err
	}

	result, err := g.Attr(fs.Arg(0)).PostFile(context.Background(), *location, params)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func runCanvas(args []string) error {
	fs := flag.NewFlagSet("canvas", flag.ExitOnError)
	configPath := fs.String("config", "", "TOML config file")
	fs.Parse(args)
	if *configPath == "" {
		return fmt.Errorf("canvas: missing -config")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	base, err := urlobject.Parse(cfg.Graph.BaseURL)
	if err != nil {
		return err
	}

	transport := graph.NewHTTPTransport(cfg.Graph.Timeout())
	svc := canvas.NewService(cfg.Canvas, base, transport)

	// Rotate the app secret when the config file changes.
	stopWatch, err := config.Watch(*configPath, func(next *config.Config) {
		svc.SetAppSecret(next.Canvas.AppSecret)
	}, func(err error) {
		fmt.Fprintf(os.Stderr, "config reload failed: %v\n", err)
	})
	if err != nil {
		return err
	}
	defer stopWatch()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return svc.Shutdown(context.Background())
}
