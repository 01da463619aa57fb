package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxFetchSize = 10 << 20 // 10 MB

var (
	xmlMIMETypes = map[string]bool{
		"application/xml": true,
		"text/xml":        true,
		"text/plain":      true,
	}

	safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// fetcher downloads glossary documents for the fetch_glossary tool.
type fetcher struct {
	client    *http.Client
	checkHost func(host string) error
	maxSize   int
}

func newFetcher() *fetcher {
	f := &fetcher{checkHost: checkBlockedHost, maxSize: maxFetchSize}
	f.client = &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return f.checkHost(req.URL.Hostname())
		},
	}
	return f
}

// fetch returns the document behind rawURL after checking that it looks
// like XML.
func (f *fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(rawURL, "data:") {
		data, err = decodeDataURI(rawURL)
	} else {
		data, err = f.fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return nil, err
	}
	if len(data) > f.maxSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", len(data), f.maxSize)
	}
	if !looksLikeXML(data) {
		return nil, fmt.Errorf("content does not appear to be an XML document")
	}
	return data, nil
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI.
func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	if mime != "" && !xmlMIMETypes[mime] {
		return nil, fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return data, nil
}

func (f *fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := f.checkHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxSize)+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > f.maxSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", f.maxSize)
	}
	return data, nil
}

// checkBlockedHost rejects hosts that resolve to loopback, private,
// link-local, unspecified or cloud metadata addresses. Every resolved
// address is checked.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		return checkBlockedIPs(host, []net.IP{ip})
	}
	ips, lookupErr := net.LookupIP(host)
	if lookupErr != nil || len(ips) == 0 {
		return nil //nolint:nilerr // let http.Client handle DNS failures
	}
	return checkBlockedIPs(host, ips)
}

func checkBlockedIPs(host string, ips []net.IP) error {
	for _, ip := range ips {
		switch {
		case ip.IsLoopback():
			return fmt.Errorf("blocked host: loopback address %s", host)
		case ip.IsPrivate():
			return fmt.Errorf("blocked host: private address %s", host)
		case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
			// Includes the 169.254.169.254 metadata endpoint.
			return fmt.Errorf("blocked host: link-local address %s", host)
		case ip.IsUnspecified():
			return fmt.Errorf("blocked host: unspecified address %s", host)
		}
	}
	return nil
}

// looksLikeXML reports whether data starts with markup once a BOM and
// leading whitespace are skipped.
func looksLikeXML(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.TrimLeft(data, " \t\r\n")
	return len(data) > 0 && data[0] == '<'
}

// filenameFromURL derives a workspace path from the URL, falling back to
// a random name under fetched/.
func filenameFromURL(rawURL string) string {
	if !strings.HasPrefix(rawURL, "data:") {
		if parsed, err := url.Parse(rawURL); err == nil {
			base := safeFilenameRe.ReplaceAllString(path.Base(parsed.Path), "_")
			if strings.EqualFold(path.Ext(base), ".xml") && !strings.HasPrefix(base, ".") {
				return "fetched/" + base
			}
		}
	}
	return "fetched/" + uuid.New().String() + ".xml"
}
