package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/tidwall/gjson"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
	"github.com/sys3222/akshare-mcp-adapter/internal/model"
	"github.com/sys3222/akshare-mcp-adapter/internal/resilience"
)

// InvokerConfig bounds a single upstream call (§4.4).
type InvokerConfig struct {
	Timeout       time.Duration
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxResultByte int64
}

// DefaultInvokerConfig matches spec.md's stated defaults: T_up=30s, R=3,
// S_max=10MiB.
func DefaultInvokerConfig() InvokerConfig {
	return InvokerConfig{
		Timeout:       30 * time.Second,
		MaxAttempts:   3,
		BaseDelay:     200 * time.Millisecond,
		MaxResultByte: 10 << 20,
	}
}

// Invoker executes a named upstream call with retry, per-interface circuit
// breaking, and normalization to the Cell/Table model. It never consults a
// cache; C5 sits in front of it.
type Invoker struct {
	registry *Registry
	client   *http.Client
	cfg      InvokerConfig
	breakers *resilience.Registry
}

// NewInvoker builds an Invoker bound to registry, using client for outbound
// HTTP and breakers for per-interface circuit breaking.
func NewInvoker(registry *Registry, client *http.Client, cfg InvokerConfig, breakers *resilience.Registry) *Invoker {
	return &Invoker{registry: registry, client: client, cfg: cfg, breakers: breakers}
}

// Call invokes interfaceName with params and returns the normalized
// tabular result. Precondition: registry.Has(interfaceName); callers that
// skip this check still get UnknownInterface back.
func (inv *Invoker) Call(ctx context.Context, interfaceName string, params map[string]string) (model.Table, error) {
	iface, ok := inv.registry.Get(interfaceName)
	if !ok {
		return model.Table{}, errors.UnknownInterface(fmt.Sprintf("unknown upstream interface %q", interfaceName))
	}

	ctx, cancel := context.WithTimeout(ctx, inv.cfg.Timeout)
	defer cancel()

	breaker := inv.breakers.Get(interfaceName)

	var body []byte
	err := breaker.Execute(ctx, func() error {
		return resilience.Retry(ctx, inv.retryConfig(iface), func() error {
			b, rerr := inv.doRequest(ctx, iface, params)
			if rerr != nil {
				return rerr
			}
			body = b
			return nil
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.Table{}, errors.UpstreamTimeout(fmt.Sprintf("upstream call to %q timed out", interfaceName))
		}
		if svcErr, ok := err.(*errors.ServiceError); ok {
			return model.Table{}, svcErr
		}
		return model.Table{}, errors.UpstreamError(fmt.Sprintf("upstream call to %q failed", interfaceName), err)
	}

	if int64(len(body)) > inv.cfg.MaxResultByte {
		return model.Table{}, errors.ResultTooLarge(fmt.Sprintf("upstream response for %q exceeds size limit", interfaceName))
	}

	table, nerr := normalize(body, iface)
	if nerr != nil {
		return model.Table{}, nerr
	}
	if estimatedSize(table) > inv.cfg.MaxResultByte {
		return model.Table{}, errors.ResultTooLarge(fmt.Sprintf("normalized result for %q exceeds size limit", interfaceName))
	}
	return table, nil
}

func (inv *Invoker) retryConfig(iface Interface) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = inv.cfg.MaxAttempts
	cfg.InitialDelay = inv.cfg.BaseDelay
	cfg.Retryable = func(err error) bool {
		if errors.Is(err, errors.KindInvalidParams) {
			return false
		}
		msg := err.Error()
		for _, transient := range iface.TransientErrors {
			if strings.Contains(msg, transient) {
				return true
			}
		}
		return !errors.Is(err, errors.KindInvalidParams)
	}
	return cfg
}

func (inv *Invoker) doRequest(ctx context.Context, iface Interface, params map[string]string) ([]byte, error) {
	method := iface.Method
	if method == "" {
		method = http.MethodGet
	}

	var req *http.Request
	var err error
	if strings.EqualFold(method, http.MethodGet) {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		sep := "?"
		if strings.Contains(iface.URL, "?") {
			sep = "&"
		}
		req, err = http.NewRequestWithContext(ctx, method, iface.URL+sep+q.Encode(), nil)
	} else {
		payload, merr := json.Marshal(params)
		if merr != nil {
			return nil, errors.Internal("failed to encode upstream request", merr)
		}
		req, err = http.NewRequestWithContext(ctx, method, iface.URL, bytes.NewReader(payload))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, errors.Internal("failed to build upstream request", err)
	}

	resp, err := inv.client.Do(req)
	if err != nil {
		return nil, errors.UpstreamError("upstream request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, inv.cfg.MaxResultByte+1))
	if err != nil {
		return nil, errors.UpstreamError("failed to read upstream response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, errors.UpstreamError(fmt.Sprintf("upstream returned status %d", resp.StatusCode), nil)
	}

	if iface.ErrorField != "" && gjson.ValidBytes(raw) {
		if msg := gjson.GetBytes(raw, iface.ErrorField); msg.Exists() && msg.String() != "" {
			return nil, errors.InvalidParams(msg.String())
		}
	}

	return raw, nil
}

// normalize decodes raw JSON (optionally projecting through iface.DataPath
// to locate the row array inside a wrapped envelope) into a Table (§4.4).
func normalize(raw []byte, iface Interface) (model.Table, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return model.Table{}, errors.ParseError("failed to parse upstream response", err)
	}

	rows := decoded
	if iface.DataPath != "" {
		projected, err := jsonpath.Get(iface.DataPath, decoded)
		if err != nil {
			return model.Table{}, errors.ParseError(fmt.Sprintf("data_path %q did not match upstream response", iface.DataPath), err)
		}
		rows = projected
	}

	list, ok := rows.([]interface{})
	if !ok {
		return model.Table{}, errors.ParseError("upstream response did not resolve to a row array", nil)
	}

	return tableFromRows(list)
}

// tableFromRows normalizes a list of JSON objects into a Table: field
// names are taken from the union of keys in first-seen order, non-scalar
// cells are stringified, NaN/Inf become null.
func tableFromRows(rows []interface{}) (model.Table, error) {
	var fields []string
	seen := make(map[string]bool)
	records := make([]model.Record, 0, len(rows))

	for _, raw := range rows {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return model.Table{}, errors.ParseError("upstream row was not a JSON object", nil)
		}
		rec := make(model.Record, len(obj))
		for k, v := range obj {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
			rec[k] = cellFromUpstreamValue(v)
		}
		records = append(records, rec)
	}

	if fields == nil {
		fields = []string{}
	}
	return model.Table{Fields: fields, Records: records}, nil
}

func cellFromUpstreamValue(v interface{}) model.Cell {
	switch t := v.(type) {
	case nil:
		return model.Null()
	case string:
		return model.String(t)
	case bool:
		return model.Bool(t)
	case float64:
		if isNaNOrInf(t) {
			return model.Null()
		}
		if t == float64(int64(t)) {
			return model.Int(int64(t))
		}
		return model.Float(t)
	case map[string]interface{}, []interface{}:
		encoded, err := json.Marshal(t)
		if err != nil {
			return model.Null()
		}
		return model.String(string(encoded))
	default:
		return model.String(fmt.Sprintf("%v", t))
	}
}

func isNaNOrInf(f float64) bool {
	return f != f || f > 1e308 || f < -1e308
}

func estimatedSize(t model.Table) int64 {
	encoded, err := json.Marshal(t)
	if err != nil {
		return 0
	}
	return int64(len(encoded))
}
