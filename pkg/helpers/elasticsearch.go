package helpers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

// ESOptions configures NewESClient. Zero timeouts fall back to 5s.
type ESOptions struct {
	Addresses   []string
	Username    string
	Password    string
	DialTimeout time.Duration
	PingTimeout time.Duration
}

// NewESClient builds a client and confirms the cluster answers, so callers can
// run without search when it does not.
func NewESClient(ctx context.Context, opts ESOptions) (*elasticsearch.Client, error) {
	if len(opts.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch: no addresses")
	}
	dial := opts.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	ping := opts.PingTimeout
	if ping <= 0 {
		ping = 5 * time.Second
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: opts.Addresses,
		Username:  opts.Username,
		Password:  opts.Password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: dial,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: dial}).DialContext,
		},
	})
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, ping)
	defer cancel()
	res, err := es.Info(es.Info.WithContext(c))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return es, nil
}
