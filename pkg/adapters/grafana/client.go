package grafana

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	queryPath = "/api/ds/query"

	// DefaultRefID is the reference id of the single query sent per call.
	DefaultRefID = "A"

	// DefaultDatasourceType is the ClickHouse plugin id.
	DefaultDatasourceType = "grafana-clickhouse-datasource"

	// DefaultTimeout bounds a whole query call.
	DefaultTimeout = 30 * time.Second

	formatTable    = 1
	editorTypeSQL  = "sql"
	queryTypeTable = "table"
	rangeFrom      = "now-1h"
	rangeTo        = "now"

	maxErrorBody = 512
)

// Client sends raw SQL to a Grafana datasource through the /api/ds/query endpoint
type Client struct {
	endpoint       string
	user           string
	password       string
	datasourceUID  string
	datasourceType string
	timeout        time.Duration
	insecure       bool
	instrument     func(http.RoundTripper) http.RoundTripper
	logger         *zap.Logger
}

// Config holds Grafana client configuration
type Config struct {
	BaseURL            string
	User               string
	Password           string
	DatasourceUID      string
	DatasourceType     string
	Timeout            time.Duration
	InsecureSkipVerify bool

	// Instrument, when set, wraps the transport of every call.
	Instrument func(http.RoundTripper) http.RoundTripper
	Logger     *zap.Logger
}

// NewClient creates a new Grafana query client
func NewClient(cfg *Config) *Client {
	dsType := cfg.DatasourceType
	if dsType == "" {
		dsType = DefaultDatasourceType
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint:       strings.TrimRight(cfg.BaseURL, "/") + queryPath,
		user:           cfg.User,
		password:       cfg.Password,
		datasourceUID:  cfg.DatasourceUID,
		datasourceType: dsType,
		timeout:        timeout,
		insecure:       cfg.InsecureSkipVerify,
		instrument:     cfg.Instrument,
		logger:         logger,
	}
}

type queryRequest struct {
	Queries []query `json:"queries"`
	From    string  `json:"from"`
	To      string  `json:"to"`
}

type query struct {
	RefID      string     `json:"refId"`
	Datasource datasource `json:"datasource"`
	RawSQL     string     `json:"rawSql"`
	Format     int        `json:"format"`
	EditorType string     `json:"editorType"`
	QueryType  string     `json:"queryType"`
}

type datasource struct {
	UID  string `json:"uid"`
	Type string `json:"type"`
}

// Query runs sql against the configured datasource and returns the decoded response.
// The SQL is forwarded verbatim; callers must only pass trusted statements.
func (c *Client) Query(ctx context.Context, sql string) (*Response, error) {
	start := time.Now()

	body, err := json.Marshal(c.newRequest(sql))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.user, c.password)

	// One connection per call, torn down on return.
	transport := c.newTransport()
	defer transport.CloseIdleConnections()

	var rt http.RoundTripper = transport
	if c.instrument != nil {
		rt = c.instrument(rt)
	}
	client := &http.Client{Transport: rt, Timeout: c.timeout}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	out, err := decodeResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("grafana query completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	return out, nil
}

func (c *Client) newRequest(sql string) queryRequest {
	return queryRequest{
		Queries: []query{{
			RefID: DefaultRefID,
			Datasource: datasource{
				UID:  c.datasourceUID,
				Type: c.datasourceType,
			},
			RawSQL:     sql,
			Format:     formatTable,
			EditorType: editorTypeSQL,
			QueryType:  queryTypeTable,
		}},
		From: rangeFrom,
		To:   rangeTo,
	}
}

func (c *Client) newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: c.insecure}, // known internal endpoint
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   true,
	}
}

func decodeResponse(r io.Reader) (*Response, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var out Response
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &out, nil
}
