package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// APIClient talks to the support service's REST endpoints. It is used for
// session bootstrap, history retrieval, attachment upload and as the send
// fallback whenever the duplex channel is not open.
//
// No request timeout is applied: a slow bootstrap call still resolves
// normally when it returns.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a client for the given base URL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// NewAPIClientWithHTTP creates a client using a caller-supplied http.Client.
func NewAPIClientWithHTTP(baseURL string, client *http.Client) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// WidgetConfig fetches the remote widget configuration.
func (c *APIClient) WidgetConfig() (*WidgetConfig, error) {
	var cfg WidgetConfig
	if err := c.getJSON("/chat/api/widget/config/", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type startSessionRequest struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

type startSessionResponse struct {
	ChatSession *ChatSession `json:"chat_session"`
	CustomerID  string       `json:"customer_id"`
	Created     bool         `json:"created"`
}

// StartSession starts or resumes the chat session for a customer. The
// service resumes an existing open session for the same customer id
// rather than creating duplicates.
func (c *APIClient) StartSession(customerID, name, email string) (*ChatSession, error) {
	body := startSessionRequest{
		CustomerID:    customerID,
		CustomerName:  name,
		CustomerEmail: email,
	}

	var resp startSessionResponse
	if err := c.postJSON("/chat/api/chat/start/", body, &resp); err != nil {
		return nil, err
	}
	if resp.ChatSession == nil {
		return nil, &NetworkError{Op: "start session", Err: fmt.Errorf("response missing chat_session")}
	}
	return resp.ChatSession, nil
}

// History fetches the ordered message log for a customer.
func (c *APIClient) History(customerID string) ([]Message, error) {
	var messages []Message
	if err := c.getJSON("/chat/api/chat/"+customerID+"/history/", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

type sendMessageRequest struct {
	CustomerID string     `json:"customer_id"`
	Message    string     `json:"message"`
	SenderType SenderType `json:"sender_type"`
	SenderName string     `json:"sender_name"`
}

// SendMessage posts a message over HTTP. This is the fallback path used
// when the duplex channel is not open; payload semantics match the live
// chat_message frame.
func (c *APIClient) SendMessage(customerID, content string, senderName string) error {
	body := sendMessageRequest{
		CustomerID: customerID,
		Message:    content,
		SenderType: SenderCustomer,
		SenderName: senderName,
	}
	return c.postJSON("/chat/api/chat/message/", body, nil)
}

// UploadResult is the server's description of a stored attachment.
type UploadResult struct {
	AttachmentPath string `json:"attachment_path"`
	AttachmentURL  string `json:"attachment_url"`
	Error          string `json:"error,omitempty"`
}

// Upload sends an attachment as multipart form data. Callers must have
// validated the attachment before reaching this point.
func (c *APIClient) Upload(customerID, senderName string, att *Attachment) (*UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", att.Name)
	if err != nil {
		return nil, &NetworkError{Op: "upload", Err: err}
	}
	if _, err := fw.Write(att.Data); err != nil {
		return nil, &NetworkError{Op: "upload", Err: err}
	}
	if err := mw.WriteField("customer_id", customerID); err != nil {
		return nil, &NetworkError{Op: "upload", Err: err}
	}
	if err := mw.WriteField("sender_name", senderName); err != nil {
		return nil, &NetworkError{Op: "upload", Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &NetworkError{Op: "upload", Err: err}
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/chat/api/chat/upload/", &buf)
	if err != nil {
		return nil, &NetworkError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &NetworkError{Op: "upload", Err: fmt.Errorf("malformed response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := result.Error
		if reason == "" {
			reason = resp.Status
		}
		return nil, &NetworkError{Op: "upload", Err: fmt.Errorf("%s", reason)}
	}
	return &result, nil
}

type statusUpdateRequest struct {
	Status SessionStatus `json:"status"`
}

// UpdateSessionStatus patches a session's status. Used as the close
// fallback when the duplex channel is not open.
func (c *APIClient) UpdateSessionStatus(sessionID string, status SessionStatus) error {
	data, err := json.Marshal(statusUpdateRequest{Status: status})
	if err != nil {
		return &NetworkError{Op: "update status", Err: err}
	}

	url := fmt.Sprintf("%s/chat/api/admin/session/%s/status/", c.baseURL, sessionID)
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewReader(data))
	if err != nil {
		return &NetworkError{Op: "update status", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Op: "update status", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &NetworkError{Op: "update status", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return nil
}

func (c *APIClient) getJSON(path string, out interface{}) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return &NetworkError{Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &NetworkError{Op: "GET " + path, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: "GET " + path, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

func (c *APIClient) postJSON(path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &NetworkError{Op: "POST " + path, Err: err}
	}

	resp, err := c.client.Post(c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return &NetworkError{Op: "POST " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &NetworkError{Op: "POST " + path, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: "POST " + path, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}
