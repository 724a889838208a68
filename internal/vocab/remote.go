package vocab

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"syscall"
	"time"
)

// ErrTooLarge is returned when a download exceeds its size limit.
var ErrTooLarge = errors.New("vocab: content too large")

// ErrBlockedAddress is returned when a guarded client is asked to connect to
// a loopback, link-local or unspecified address.
var ErrBlockedAddress = errors.New("vocab: blocked address")

// Remote is content fetched from a URL.
type Remote struct {
	Data []byte
	// Name is the last path element of the URL, used for format detection.
	Name string
	// MediaType is the declared content type without parameters.
	MediaType string
}

// Fetch downloads rawURL with client. Only http and https are accepted, the
// response must be 200, and bodies over limit bytes fail with ErrTooLarge.
func Fetch(ctx context.Context, client *http.Client, rawURL string, limit int64) (*Remote, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("vocab: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("vocab: unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vocab: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vocab: fetch %s: status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("vocab: read %s: %w", rawURL, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}

	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return &Remote{Data: data, Name: path.Base(u.Path), MediaType: mt}, nil
}

// GuardedClient returns an HTTP client for user-supplied URLs. It refuses
// to connect to loopback, link-local (including cloud metadata) and
// unspecified addresses, checked on the resolved address of every dial, and
// follows at most five redirects.
func GuardedClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip != nil && blockedIP(ip) {
				return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
			}
			return nil
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.Proxy = nil

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("vocab: too many redirects")
			}
			return nil
		},
	}
}

func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// DecodeDataURI parses a base64 data URI and returns its bytes and media
// type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", errors.New("vocab: not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("vocab: data URI without comma separator")
	}
	meta, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", errors.New("vocab: only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", fmt.Errorf("vocab: invalid base64 data: %w", err)
		}
	}
	mt, _, _ := strings.Cut(meta, ";")
	return data, mt, nil
}
