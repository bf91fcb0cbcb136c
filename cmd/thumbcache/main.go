package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"image-viewer/internal/database"
	"image-viewer/internal/media"

	"golang.org/x/term"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	cacheDir := cacheDirFromEnv()
	x, err := database.New(ctx, filepath.Join(cacheDir, "thumbnails.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open thumbnail index: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure CACHE_DIR is set correctly (current: %s)\n", cacheDir)
		os.Exit(1)
	}
	defer func() {
		if err := x.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close thumbnail index: %v\n", err)
		}
	}()

	ok := true
	switch command {
	case "status":
		ok = showStatus(ctx, os.Stdout, x)
	case "list":
		ok = listEntries(ctx, os.Stdout, x)
	case "purge":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: purge needs at least one URI")
			ok = false
			break
		}
		ok = purge(ctx, os.Stdout, cacheDir, x, os.Args[2:])
	case "clear":
		confirmed := len(os.Args) > 2 && os.Args[2] == "--yes"
		if !confirmed && term.IsTerminal(int(os.Stdin.Fd())) {
			confirmed = confirm(os.Stdin, os.Stdout, "Remove every cached thumbnail?")
		}
		if !confirmed {
			fmt.Fprintln(os.Stderr, "Aborted (use 'clear --yes' when not on a terminal)")
			ok = false
			break
		}
		ok = clearCache(ctx, os.Stdout, cacheDir, x)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		ok = false
	}

	if !ok {
		cancel()
		x.Close()
		os.Exit(1)
	}
}

func cacheDirFromEnv() string {
	if dir := os.Getenv("CACHE_DIR"); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "image-viewer")
	}
	return filepath.Join(os.TempDir(), "image-viewer")
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Image Viewer Thumbnail Cache")
	fmt.Println("")
	fmt.Println("Usage: thumbcache <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  status         - Show the number of cached thumbnails")
	fmt.Println("  list           - List cached thumbnails")
	fmt.Println("  purge <uri>... - Drop the cached thumbnails of the given URIs")
	fmt.Println("  clear [--yes]  - Drop every cached thumbnail")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Println("  CACHE_DIR - Thumbnail cache directory (default: user cache dir/image-viewer)")
}

// confirm asks a yes/no question and reports whether the answer was yes.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func showStatus(ctx context.Context, out io.Writer, x *database.ThumbnailIndex) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := x.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to count thumbnails: %v\n", err)
		return false
	}
	fmt.Fprintf(out, "Index:      %s\n", x.Path())
	fmt.Fprintf(out, "Thumbnails: %d\n", n)
	return true
}

func listEntries(ctx context.Context, out io.Writer, x *database.ThumbnailIndex) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	entries, err := x.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list thumbnails: %v\n", err)
		return false
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%4d  %4dx%-4d  %s  %s\n",
			e.Side, e.Width, e.Height, e.SourceModTime.Format(time.RFC3339), e.URI)
	}
	return true
}

func purge(ctx context.Context, out io.Writer, cacheDir string, x *database.ThumbnailIndex, uris []string) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	thumbs := media.NewThumbnailGenerator(cacheDir, media.SideNormal, true, x)
	ok := true
	for _, uri := range uris {
		if err := thumbs.Invalidate(ctx, uri); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to purge %s: %v\n", uri, err)
			ok = false
			continue
		}
		fmt.Fprintf(out, "Purged %s\n", uri)
	}
	return ok
}

func clearCache(ctx context.Context, out io.Writer, cacheDir string, x *database.ThumbnailIndex) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	entries, err := x.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to list thumbnails: %v\n", err)
		return false
	}

	removed := 0
	for _, e := range entries {
		err := os.Remove(filepath.Join(cacheDir, e.File))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove %s: %v\n", e.File, err)
			continue
		}
		removed++
	}

	n, err := x.Clear(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to clear the index: %v\n", err)
		return false
	}
	fmt.Fprintf(out, "Removed %d files and %d index entries.\n", removed, n)
	return true
}
