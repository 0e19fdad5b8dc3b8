package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZaguanLabs/vertrans"
)

// FrappeConfig holds configuration for the Frappe REST client.
type FrappeConfig struct {
	BaseURL   string       // Site URL (e.g., "https://erp.example.com")
	APIKey    string       // API key of the integration user
	APISecret string       // API secret of the integration user
	Client    *http.Client // HTTP client (default: 30s timeout)
}

// Frappe reads schemas and records from a Frappe site over its REST API.
type Frappe struct {
	baseURL string
	auth    string
	client  *http.Client
}

// NewFrappe creates a Frappe REST client.
func NewFrappe(cfg FrappeConfig) (*Frappe, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, &vertrans.ConfigurationError{Message: "invalid Frappe URL " + cfg.BaseURL}
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	f := &Frappe{baseURL: base, client: client}
	if cfg.APIKey != "" {
		f.auth = "token " + cfg.APIKey + ":" + cfg.APISecret
	}
	return f, nil
}

type frappeField struct {
	FieldName string `json:"fieldname"`
	Label     string `json:"label"`
	FieldType string `json:"fieldtype"`
	ReadOnly  int    `json:"read_only"`
}

// Schema loads the DocType meta and returns its fields in form order.
func (f *Frappe) Schema(ctx context.Context, recordType string) ([]vertrans.FieldSchema, error) {
	q := url.Values{"doctype": {recordType}}
	var resp struct {
		Docs []struct {
			Name   string        `json:"name"`
			Fields []frappeField `json:"fields"`
		} `json:"docs"`
	}
	if err := f.get(ctx, "/api/method/frappe.desk.form.load.getdoctype?"+q.Encode(), "record type", recordType, &resp); err != nil {
		return nil, err
	}

	for _, doc := range resp.Docs {
		if doc.Name != recordType {
			continue
		}
		fields := make([]vertrans.FieldSchema, 0, len(doc.Fields))
		for _, fd := range doc.Fields {
			if fd.FieldName == "" {
				continue
			}
			fields = append(fields, vertrans.FieldSchema{
				Name:     fd.FieldName,
				Label:    fd.Label,
				Type:     fd.FieldType,
				ReadOnly: fd.ReadOnly != 0,
			})
		}
		return fields, nil
	}
	return nil, &vertrans.NotFoundError{Kind: "record type", Name: recordType}
}

// Record loads a document. Its "modified" value becomes Record.Modified.
func (f *Frappe) Record(ctx context.Context, recordType, recordID string) (vertrans.Record, error) {
	path := "/api/resource/" + url.PathEscape(recordType) + "/" + url.PathEscape(recordID)
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := f.get(ctx, path, "record", recordType+"/"+recordID, &resp); err != nil {
		return vertrans.Record{}, err
	}

	modified, _ := resp.Data["modified"].(string)
	return vertrans.Record{
		Type:     recordType,
		ID:       recordID,
		Modified: modified,
		Fields:   resp.Data,
	}, nil
}

func (f *Frappe) get(ctx context.Context, path, kind, name string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", vertrans.UserAgent())
	if f.auth != "" {
		req.Header.Set("Authorization", f.auth)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("frappe request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &vertrans.NotFoundError{Kind: kind, Name: name}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &vertrans.ConfigurationError{Message: fmt.Sprintf("Frappe rejected credentials (status %d)", resp.StatusCode)}
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("frappe request %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding frappe response: %w", err)
	}
	return nil
}

var _ vertrans.DocumentStore = (*Frappe)(nil)
