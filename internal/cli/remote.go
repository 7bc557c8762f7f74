package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/proofweave/pkg/domain"
)

// Remote runs commands against a proofweave server.
type Remote struct {
	BaseURL string
	Client  *http.Client
}

var _ Backend = (*Remote)(nil)

// NewRemote creates a client for the server at baseURL.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// remoteError is returned for non-2xx answers.
type remoteError struct {
	Status  int
	Message string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Status, e.Message)
}

func (r *Remote) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = strings.NewReader(string(data))
	}
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &remoteError{Status: resp.StatusCode, Message: e.Error}
	}

	switch v := out.(type) {
	case nil:
		return nil
	case *string:
		*v = string(data)
		return nil
	default:
		return json.Unmarshal(data, out)
	}
}

func sessionPath(id string, parts ...string) string {
	return "/api/v1/sessions/" + url.PathEscape(id) + strings.Join(parts, "")
}

func (r *Remote) Open(ctx context.Context, id string) (View, error) {
	var v View
	err := r.do(ctx, http.MethodPost, sessionPath(id), nil, &v)
	return v, err
}

func (r *Remote) Apply(ctx context.Context, id, nodeID, tactic string, lemma bool) (View, error) {
	var v View
	body := map[string]any{"node_id": nodeID, "tactic": tactic, "lemma": lemma}
	err := r.do(ctx, http.MethodPost, sessionPath(id, "/tactics?wait=true"), body, &v)
	return v, err
}

func (r *Remote) Remove(ctx context.Context, id, edgeID string) (View, error) {
	var v View
	err := r.do(ctx, http.MethodDelete, sessionPath(id, "/edges/", url.PathEscape(edgeID), "?wait=true"), nil, &v)
	return v, err
}

func (r *Remote) Reset(ctx context.Context, id string) (View, error) {
	var v View
	err := r.do(ctx, http.MethodPost, sessionPath(id, "/reset?wait=true"), nil, &v)
	return v, err
}

func (r *Remote) Load(ctx context.Context, id, problemID string) (View, error) {
	var v View
	err := r.do(ctx, http.MethodPost, sessionPath(id, "/problem/load/", url.PathEscape(problemID), "?wait=true"), nil, &v)
	return v, err
}

func (r *Remote) Run(ctx context.Context, id string) (View, error) {
	var v View
	err := r.do(ctx, http.MethodPost, sessionPath(id, "/run?wait=true"), nil, &v)
	return v, err
}

func (r *Remote) Script(ctx context.Context, id string) (string, error) {
	var s string
	err := r.do(ctx, http.MethodGet, sessionPath(id, "/script"), nil, &s)
	return s, err
}

func (r *Remote) Mermaid(ctx context.Context, id string) (string, error) {
	var s string
	err := r.do(ctx, http.MethodGet, sessionPath(id, "/graph.mmd"), nil, &s)
	return s, err
}

func (r *Remote) Problems(ctx context.Context) ([]domain.Problem, error) {
	var problems []domain.Problem
	err := r.do(ctx, http.MethodGet, "/api/v1/problems", nil, &problems)
	return problems, err
}

func (r *Remote) Delete(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, sessionPath(id), nil, nil)
}
