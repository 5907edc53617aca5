package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// probe instrument and field for the connectivity check: a large, liquid
// issuer whose price is always quotable.
const (
	probeInstrument = "529900NNUPAGGOMPXZ31@LEI"
	probeField      = "TR.PriceClose"
)

// HTTPTerminal talks to the terminal's local data API. The terminal
// application must be running and the app key registered with it.
type HTTPTerminal struct {
	baseURL string
	appKey  string
	client  *http.Client
}

// NewHTTPTerminal creates a terminal client against the given endpoint.
func NewHTTPTerminal(baseURL, appKey string) *HTTPTerminal {
	return &HTTPTerminal{
		baseURL: baseURL,
		appKey:  appKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type terminalRequest struct {
	Instruments []string          `json:"instruments"`
	Fields      []terminalField   `json:"fields"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

type terminalField struct {
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

type terminalResponse struct {
	Data []struct {
		Instrument string            `json:"instrument"`
		Values     map[string]string `json:"values"`
	} `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Get requests the given fields for one instrument. HTTP 5xx answers map
// to transient TermErrors; 4xx answers and in-body errors are definitive.
func (t *HTTPTerminal) Get(ctx context.Context, instrument string, fields []TRField, params map[string]string) (Row, error) {
	reqFields := make([]terminalField, 0, len(fields))
	for _, f := range fields {
		reqFields = append(reqFields, terminalField{Name: f.Name, Parameters: f.Params})
	}
	payload, err := json.Marshal(terminalRequest{
		Instruments: []string{instrument},
		Fields:      reqFields,
		Parameters:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("encode terminal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build terminal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-TR-ApplicationID", t.appKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TermError{Code: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TermError{Code: http.StatusBadGateway, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TermError{Code: resp.StatusCode, Message: string(bytes.TrimSpace(body))}
	}

	var parsed terminalResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode terminal response: %w", err)
	}
	if parsed.Error != nil {
		return nil, &TermError{Code: parsed.Error.Code, Message: parsed.Error.Message}
	}
	if len(parsed.Data) == 0 {
		return nil, &TermError{Code: http.StatusNotFound, Message: "no data for instrument " + instrument}
	}
	return Row(parsed.Data[0].Values), nil
}

// Ping verifies that the terminal is reachable and the app key accepted
// by requesting one well-known quote.
func (t *HTTPTerminal) Ping(ctx context.Context) error {
	_, err := t.Get(ctx, probeInstrument, []TRField{{Name: probeField}}, nil)
	if err != nil {
		return fmt.Errorf("terminal not reachable: %w", err)
	}
	return nil
}
