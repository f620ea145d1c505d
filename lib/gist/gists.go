package gist

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// pagination defaults, matching the API's own
const (
	defaultPerPage = 30
	defaultPage    = 1
	maxPerPage     = 100
)

// ListParams control pagination for listing operations. Zero values get the
// API defaults.
type ListParams struct {
	PerPage int    // results per page, at most 100, default 30
	Page    int    // page number, default 1
	Since   string // ISO 8601 timestamp, filters to gists updated after it
}

func (p ListParams) withDefaults() ListParams {
	if p.PerPage == 0 {
		p.PerPage = defaultPerPage
	}
	if p.Page == 0 {
		p.Page = defaultPage
	}
	return p
}

func (p ListParams) validate() error {
	if err := validation.Validate(p.PerPage, validation.Max(maxPerPage)); err != nil {
		return errf(KindInvalidArgument, nil, "per_page should not be greater than %d, got %d", maxPerPage, p.PerPage)
	}
	return nil
}

func (p ListParams) values() url.Values {
	vals := url.Values{}
	vals.Set("per_page", strconv.Itoa(p.PerPage))
	vals.Set("page", strconv.Itoa(p.Page))
	if p.Since != "" {
		vals.Set("since", p.Since)
	}
	return vals
}

func requireID(id string) error {
	if err := validation.Validate(id, validation.Required); err != nil {
		return errf(KindInvalidArgument, nil, "gist id is required")
	}
	return nil
}

// list is the shared shape of the three listing operations.
func (c *Client) list(ctx context.Context, path string, params ListParams) (Envelope, error) {
	params = params.withDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Params: params.values()})
}

// List returns gists of the authenticated user.
func (c *Client) List(ctx context.Context, params ListParams) (Envelope, error) {
	return c.list(ctx, "", params)
}

// Public returns public gists, most recently updated first.
func (c *Client) Public(ctx context.Context, params ListParams) (Envelope, error) {
	return c.list(ctx, "/public", params)
}

// Starred returns gists starred by the authenticated user.
func (c *Client) Starred(ctx context.Context, params ListParams) (Envelope, error) {
	return c.list(ctx, "/starred", params)
}

// CreateOptions shape a new gist.
type CreateOptions struct {
	FileName    string // name for inline content, default "untitled.txt"
	Description string
	Public      bool
}

// Create makes a new gist from the given content, inline or from disk.
func (c *Client) Create(ctx context.Context, content Content, opts CreateOptions) (Envelope, error) {
	files, err := content.resolve(opts.FileName)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"description": opts.Description,
		"public":      opts.Public,
		"files":       files,
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Body: body})
}

// Update replaces the content of one named file in an existing gist. The gist
// is not cached locally, so it is fetched first; a gist without files or
// without the named file yields a descriptive "message" envelope, not an
// error. Content must be inline text or a single file path.
func (c *Client) Update(ctx context.Context, gistID, filename string, content Content, description string) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	if err := validation.Validate(filename, validation.Required); err != nil {
		return nil, errf(KindInvalidArgument, nil, "file name is required")
	}
	if content.isList() {
		return nil, errf(KindInvalidArgument, nil, "content should be inline text or a single file path")
	}

	current, err := c.Get(ctx, gistID)
	if err != nil {
		return nil, err
	}

	files, ok := current["files"].(map[string]any)
	if !ok || len(files) == 0 {
		return Envelope{"message": "files not found"}, nil
	}
	if _, ok = files[filename]; !ok {
		return Envelope{"message": fmt.Sprintf("file %q not found in the gist", filename)}, nil
	}

	text, err := content.single()
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"description": description,
		"files":       map[string]fileContent{filename: {Content: text}},
	}
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: "/" + url.PathEscape(gistID), Body: body})
}

// Get retrieves a single gist by id.
func (c *Client) Get(ctx context.Context, gistID string) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/" + url.PathEscape(gistID)})
}

// GetWithPaste fetches a gist and uploads its files, each framed by banners
// naming the file, to the paste service. The shareable URL is attached to the
// envelope under "pasted_url"; an upload failure is embedded there as text and
// never fails the call.
func (c *Client) GetWithPaste(ctx context.Context, gistID string) (Envelope, error) {
	gist, err := c.Get(ctx, gistID)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	if files, ok := gist["files"].(map[string]any); ok {
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			meta, ok := files[name].(map[string]any)
			if !ok {
				continue
			}
			fname, _ := meta["filename"].(string)
			if fname == "" {
				fname = name
			}
			content, _ := meta["content"].(string)
			banner := strings.Repeat("-", 5) + fname + strings.Repeat("-", 5)
			sb.WriteString(banner + "\n")
			sb.WriteString(content)
			sb.WriteString(banner + "\n\n")
		}
	}

	text := sb.String()
	if text == "" {
		text = "No Content found"
	}

	pasted, perr := c.paste.paste(ctx, text)
	if perr != nil {
		c.logger.Logf("[DEBUG] paste upload for gist %s failed: %v", gistID, perr)
		pasted = fmt.Sprintf("an error occurred: %s", perr)
	}
	gist["pasted_url"] = pasted
	return gist, nil
}

// Delete removes a gist.
func (c *Client) Delete(ctx context.Context, gistID string) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "/" + url.PathEscape(gistID)})
}

// Commits lists the revision history of a gist.
func (c *Client) Commits(ctx context.Context, gistID string, params ListParams) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	return c.list(ctx, "/"+url.PathEscape(gistID)+"/commits", params)
}

// Forks lists forks of a gist.
func (c *Client) Forks(ctx context.Context, gistID string, params ListParams) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	return c.list(ctx, "/"+url.PathEscape(gistID)+"/forks", params)
}

// Fork creates a fork of a gist owned by another user.
func (c *Client) Fork(ctx context.Context, gistID string) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: "/" + url.PathEscape(gistID) + "/forks"})
}

// IsStarred checks whether a gist is starred by the authenticated user, the
// answer is in the envelope's status code (204 starred, 404 not).
func (c *Client) IsStarred(ctx context.Context, gistID string) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/" + url.PathEscape(gistID) + "/star"})
}

// Star stars a gist. Each call is an independent exchange, nothing is cached.
func (c *Client) Star(ctx context.Context, gistID string) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodPut, Path: "/" + url.PathEscape(gistID) + "/star"})
}

// Unstar removes a star from a gist.
func (c *Client) Unstar(ctx context.Context, gistID string) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "/" + url.PathEscape(gistID) + "/star"})
}

// Revision retrieves a gist at a specific revision sha.
func (c *Client) Revision(ctx context.Context, gistID, sha string) (Envelope, error) {
	if err := requireID(gistID); err != nil {
		return nil, err
	}
	if err := validation.Validate(sha, validation.Required); err != nil {
		return nil, errf(KindInvalidArgument, nil, "revision sha is required")
	}
	return c.Do(ctx, Request{Method: http.MethodGet, Path: "/" + url.PathEscape(gistID) + "/" + url.PathEscape(sha)})
}
