package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/conorfennell/studybuddy/internal/domain"
)

type uploadFlashcardsRequest struct {
	Flashcards []domain.Draft `json:"flashcards"`
}

type uploadFlashcardsResponse struct {
	Uploaded *int `json:"uploaded"`
	Skipped  *int `json:"skipped"`
}

// UploadFlashcards sends drafts to the backend in one request. The token is
// passed explicitly so the caller decides which credential a batch uses.
// A non-empty key is sent as Idempotency-Key.
func (a *API) UploadFlashcards(ctx context.Context, token string, drafts []domain.Draft, key string) (domain.UploadResult, error) {
	const op = "upload flashcards"

	if token == "" {
		return domain.UploadResult{}, &Error{Kind: KindAuth, Op: op, Message: "no credential available, sign in first"}
	}

	body, err := jsonBody(uploadFlashcardsRequest{Flashcards: drafts})
	if err != nil {
		return domain.UploadResult{}, &Error{Kind: KindValidation, Op: op, Err: err}
	}

	header := http.Header{}
	if key != "" {
		header.Set("Idempotency-Key", key)
	}

	var resp uploadFlashcardsResponse
	err = a.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/upload_flashcards",
		body:        body,
		contentType: "application/json",
		token:       token,
		requireAuth: true,
		header:      header,
	}, &resp)
	if err != nil {
		return domain.UploadResult{}, err
	}

	if resp.Uploaded == nil || resp.Skipped == nil {
		return domain.UploadResult{}, &Error{
			Kind:    KindServer,
			Op:      op,
			Status:  http.StatusOK,
			Message: "malformed response: missing uploaded or skipped count",
		}
	}
	return domain.UploadResult{Uploaded: *resp.Uploaded, Skipped: *resp.Skipped}, nil
}

// UploadPDF sends a PDF for server-side card extraction and returns the
// backend's summary message.
func (a *API) UploadPDF(ctx context.Context, filename string, pdf io.Reader, subject, test string) (string, error) {
	const op = "upload pdf"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", &Error{Kind: KindValidation, Op: op, Err: err}
	}
	if _, err := io.Copy(part, pdf); err != nil {
		return "", &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf("failed to read %s: %w", filename, err)}
	}
	if err := w.WriteField("subject", subject); err != nil {
		return "", &Error{Kind: KindValidation, Op: op, Err: err}
	}
	if err := w.WriteField("test", test); err != nil {
		return "", &Error{Kind: KindValidation, Op: op, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &Error{Kind: KindValidation, Op: op, Err: err}
	}

	var resp struct {
		Message string `json:"message"`
	}
	err = a.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/upload_pdf",
		body:        &buf,
		contentType: w.FormDataContentType(),
		requireAuth: true,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
