// Command onsenctl is a small CLI over the review API, mainly for smoke
// testing deployments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Tago-F/onsen-review/client"
	"github.com/Tago-F/onsen-review/pkg/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf("usage: onsenctl [-base-url URL] <list|get|create|delete|upload> [args]")
}

func run(args []string) error {
	flags := flag.NewFlagSet("onsenctl", flag.ContinueOnError)
	baseURL := flags.String("base-url", envOr("ONSEN_API_URL", "http://localhost:8080"), "review API base URL")
	timeout := flags.Duration("timeout", 30*time.Second, "request timeout")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return usage()
	}

	log := logger.New("onsenctl", "error")
	c := client.New(*baseURL, client.WithLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cmd, rest := flags.Arg(0), flags.Args()[1:]
	switch cmd {
	case "list":
		return list(ctx, c)
	case "get":
		return get(ctx, c, rest)
	case "create":
		return create(ctx, c, rest)
	case "delete":
		return del(ctx, c, rest)
	case "upload":
		return upload(ctx, c, rest)
	default:
		return usage()
	}
}

func list(ctx context.Context, c *client.Client) error {
	reviews, err := c.ListReviews(ctx)
	if err != nil {
		return err
	}
	return printJSON(reviews)
}

func get(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: onsenctl get <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}
	review, err := c.GetReview(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(review)
}

func create(ctx context.Context, c *client.Client, args []string) error {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	name := flags.String("name", "", "hot spring name (required)")
	rating := flags.Float64("rating", 0, "overall rating, 1.0-5.0 in 0.5 steps (required)")
	comment := flags.String("comment", "", "free-form comment")
	visited := flags.String("visited", "", "visit date, YYYY-MM-DD")
	image := flags.String("image", "", "path to an image file to upload")
	if err := flags.Parse(args); err != nil {
		return err
	}

	store := client.NewReviewStore(c)
	form := client.NewReviewForm(store)
	form.Name = *name
	form.Rating = *rating
	form.Comment = *comment
	form.VisitedDate = *visited

	if *image != "" {
		data, err := os.ReadFile(*image)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		form.Image = &client.ImageFile{
			Name:        filepath.Base(*image),
			ContentType: mime.TypeByExtension(filepath.Ext(*image)),
			Data:        data,
		}
	}

	created, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	return printJSON(created)
}

func del(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: onsenctl delete <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}
	if err := c.DeleteReview(ctx, id); err != nil {
		return err
	}
	fmt.Println("deleted", id)
	return nil
}

func upload(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: onsenctl upload <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	url, err := c.UploadImage(ctx, &client.ImageFile{
		Name:        filepath.Base(args[0]),
		ContentType: mime.TypeByExtension(filepath.Ext(args[0])),
		Data:        data,
	})
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
