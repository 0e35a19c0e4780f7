// Package transport implements the upload API client used by the session
// manager.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/openmool/openmool/internal/client/session"
)

// requestTimeout bounds one API call. Chunk PUTs carry up to one chunk of
// body, so this stays generous.
const requestTimeout = 5 * time.Minute

// HTTPTransport talks to the upload API over REST with a bearer token.
type HTTPTransport struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPTransport(baseURL, token string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

type createMultipartResponse struct {
	UploadID string `json:"uploadId"`
	Key      string `json:"key"`
}

func (t *HTTPTransport) CreateMultipart(ctx context.Context, filename, contentType string) (string, string, error) {
	body, err := json.Marshal(map[string]string{"filename": filename, "contentType": contentType})
	if err != nil {
		return "", "", err
	}

	var resp createMultipartResponse
	if err := t.doJSON(ctx, http.MethodPost, "/upload/multipart/create", body, &resp); err != nil {
		return "", "", err
	}
	return resp.UploadID, resp.Key, nil
}

type uploadPartResponse struct {
	ETag string `json:"etag"`
}

func (t *HTTPTransport) UploadPart(ctx context.Context, uploadID, key string, partNumber int32, body []byte) (string, error) {
	path := fmt.Sprintf("/upload/multipart/%s/part?key=%s&partNumber=%d",
		url.PathEscape(uploadID), url.QueryEscape(key), partNumber)

	req, err := t.newRequest(ctx, http.MethodPut, path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(body))

	var resp uploadPartResponse
	if err := t.send(req, &resp); err != nil {
		return "", err
	}
	return resp.ETag, nil
}

type completeMultipartRequest struct {
	Key   string         `json:"key"`
	Parts []session.Part `json:"parts"`
}

func (t *HTTPTransport) CompleteMultipart(ctx context.Context, uploadID, key string, parts []session.Part) error {
	body, err := json.Marshal(completeMultipartRequest{Key: key, Parts: parts})
	if err != nil {
		return err
	}
	return t.doJSON(ctx, http.MethodPost, "/upload/multipart/"+url.PathEscape(uploadID)+"/complete", body, nil)
}

func (t *HTTPTransport) AbortMultipart(ctx context.Context, uploadID, key string) error {
	path := "/upload/multipart/" + url.PathEscape(uploadID) + "/abort?key=" + url.QueryEscape(key)
	return t.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

type presignResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (t *HTTPTransport) PresignPut(ctx context.Context, filename, contentType string) (string, string, error) {
	body, err := json.Marshal(map[string]string{"filename": filename, "contentType": contentType})
	if err != nil {
		return "", "", err
	}

	var resp presignResponse
	if err := t.doJSON(ctx, http.MethodPost, "/upload/presigned", body, &resp); err != nil {
		return "", "", err
	}
	return resp.Key, resp.URL, nil
}

// PutPresigned uploads straight to storage; the presigned URL carries its
// own authorization, so no bearer token is attached.
func (t *HTTPTransport) PutPresigned(ctx context.Context, rawURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, rawURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = size

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("storage PUT failed: %s", resp.Status)
	}
	return nil
}

// CompleteUpload registers the finished upload's metadata and returns the
// new artifact id.
func (t *HTTPTransport) CompleteUpload(ctx context.Context, key, title, description, language string) (int64, error) {
	body, err := json.Marshal(map[string]string{
		"key":         key,
		"title":       title,
		"description": description,
		"language":    language,
	})
	if err != nil {
		return 0, err
	}

	var resp struct {
		ID int64 `json:"id"`
	}
	if err := t.doJSON(ctx, http.MethodPost, "/upload/complete", body, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (t *HTTPTransport) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return req, nil
}

func (t *HTTPTransport) doJSON(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := t.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return t.send(req, out)
}

func (t *HTTPTransport) send(req *http.Request, out any) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%s)", req.Method, req.URL.Path, apiErr.Error, resp.Status)
		}
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ session.Transport = (*HTTPTransport)(nil)
