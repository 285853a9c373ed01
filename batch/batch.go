// Package batch renders many payloads concurrently and packs them into a zip.
package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rheinmir/qr-generator-module/render"
)

var (
	ErrNoItems  = errors.New("missing or empty items array")
	ErrTooMany  = errors.New("too many items")
	ErrNoOutput = errors.New("no item produced an image")
)

// Item is one code to render. Caption is only used for barcodes.
type Item struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
}

// Result is a rendered item. Err is set when rendering failed.
type Result struct {
	Index    int
	Filename string
	PNG      []byte
	Err      error
}

// Renderer renders items on a worker pool.
type Renderer struct {
	pool     IPool
	maxItems int
	render   func(mode render.Mode, text, caption string, opts render.Options) ([]byte, error)
}

// NewRenderer creates a renderer. maxItems <= 0 disables the limit.
func NewRenderer(pool IPool, maxItems int) *Renderer {
	return &Renderer{pool: pool, maxItems: maxItems, render: render.Render}
}

// Render renders every item with non-blank text. Results keep input order;
// skipped items are omitted. Cancelling ctx stops submitting new work.
func (r *Renderer) Render(ctx context.Context, items []Item, mode render.Mode, opts render.Options) ([]Result, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if r.maxItems > 0 && len(items) > r.maxItems {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooMany, len(items), r.maxItems)
	}
	opts = opts.WithDefaults(render.BatchMargin)

	results := make([]*Result, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		i, item := i, item
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			png, err := r.render(mode, item.Text, item.Caption, opts)
			results[i] = &Result{Index: i, Filename: item.Filename, PNG: png, Err: err}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit render task: %w", err)
		}
	}
	wg.Wait()

	out := make([]Result, 0, len(items))
	for i, res := range results {
		if res == nil {
			continue
		}
		if res.Filename == "" {
			res.Filename = fallbackName(items[i].ID)
		}
		out = append(out, *res)
	}
	return out, nil
}

func fallbackName(id string) string {
	if id == "" {
		id = fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString()[:5])
	}
	return "qr_" + id + ".png"
}

// Archive writes successful results into a zip. Duplicate names get a
// numeric suffix. It fails when nothing could be written.
func Archive(results []Result) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]int)
	written := 0
	for _, res := range results {
		if res.Err != nil || len(res.PNG) == 0 {
			continue
		}
		name := uniqueName(ensurePNG(entryName(res.Filename, res.Index)), seen)
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := w.Write(res.PNG); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", name, err)
		}
		written++
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	if written == 0 {
		return nil, ErrNoOutput
	}
	return buf.Bytes(), nil
}

// entryName keeps only the last path component of name so archive entries
// cannot point outside the extraction folder.
func entryName(name string, index int) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = ""
	}
	return SafeFilename([]string{name}, index)
}

func ensurePNG(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".png") {
		return name
	}
	return name + ".png"
}

func uniqueName(name string, seen map[string]int) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	base := strings.TrimSuffix(name, ".png")
	candidate := fmt.Sprintf("%s (%d).png", base, n)
	for seen[candidate] > 0 {
		n++
		candidate = fmt.Sprintf("%s (%d).png", base, n)
	}
	seen[candidate] = 1
	return candidate
}

var unsafeFilename = regexp.MustCompile(`[<>:"/\\|?*]`)

// SafeFilename joins the non-empty values with " - " and replaces characters
// that are not allowed in file names. index is zero based.
func SafeFilename(values []string, index int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	name := strings.TrimSpace(unsafeFilename.ReplaceAllString(strings.Join(parts, " - "), "_"))
	if name == "" {
		return fmt.Sprintf("code_%03d", index+1)
	}
	return name
}
