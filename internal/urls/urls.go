package urls

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Builder builds absolute links into the files viewer.
type Builder struct {
	base *url.URL
}

// New creates a Builder rooted at baseURL.
func New(baseURL string) (*Builder, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &Builder{base: base}, nil
}

// DirectoryLink links to the viewer listing dir, optionally scrolled to an entry.
func (b *Builder) DirectoryLink(dir, scrollTo string) string {
	query := url.Values{}
	query.Set("dir", dir)
	if scrollTo != "" {
		query.Set("scrollto", scrollTo)
	}
	return b.absolute("/apps/files/", query)
}

// FileLink links to the viewer entry of a single file.
func (b *Builder) FileLink(fileID int64) string {
	return b.absolute("/f/"+strconv.FormatInt(fileID, 10), nil)
}

// ImagePath links to an image shipped with app.
func (b *Builder) ImagePath(app, image string) string {
	return b.absolute("/"+app+"/img/"+strings.TrimLeft(image, "/"), nil)
}

func (b *Builder) absolute(p string, query url.Values) string {
	u := *b.base
	u.Path = b.base.Path + p
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
