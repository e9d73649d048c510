package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/harrylevesque/phishaware/internal/detect"
)

type detectInput struct {
	kind   detect.Kind
	data   []byte
	text   string
	source string
}

// readDetectInput pulls a file or text out of a multipart, urlencoded or
// JSON request body, capped at the configured upload size.
func (s *Server) readDetectInput(w http.ResponseWriter, r *http.Request) (detectInput, error) {
	limit := s.cfg.Detect.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		var in struct {
			Text string `json:"text"`
		}
		if err := decodeJSON(r, &in); err != nil {
			return detectInput{}, tooLargeOr(err, detect.ErrNoInput)
		}
		return textInput(in.Text)
	}

	if err := r.ParseMultipartForm(limit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return detectInput{}, tooLargeOr(err, detect.ErrNoInput)
	}

	f, hdr, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return textInput(r.FormValue("text"))
	case err != nil:
		return detectInput{}, detect.ErrNoInput
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return detectInput{}, tooLargeOr(err, detect.ErrNoInput)
	}
	if len(data) == 0 {
		return detectInput{}, detect.ErrNoInput
	}
	in := detectInput{data: data, source: hdr.Filename}
	switch in.kind = detect.Classify(hdr.Header.Get("Content-Type"), data); in.kind {
	case detect.KindText:
		in.text = string(data)
	case detect.KindUnsupported:
		return detectInput{}, errUnsupportedUpload
	}
	return in, nil
}

func textInput(text string) (detectInput, error) {
	if strings.TrimSpace(text) == "" {
		return detectInput{}, detect.ErrNoInput
	}
	return detectInput{kind: detect.KindText, text: text, source: "text"}, nil
}

func tooLargeOr(err, fallback error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return errUploadTooLarge
	}
	return fallback
}

func (s *Server) runDetect(ctx context.Context, in detectInput) (*detectView, error) {
	var (
		preds []detect.Prediction
		err   error
		kind  string
	)
	switch in.kind {
	case detect.KindImage:
		kind = "image"
		preds, err = s.detector.DetectImage(ctx, in.data)
	case detect.KindText:
		kind = "text"
		preds, err = s.detector.DetectText(ctx, in.text)
	default:
		return nil, errUnsupportedUpload
	}
	if err != nil {
		return nil, err
	}
	return &detectView{Kind: kind, Source: in.source, Predictions: preds}, nil
}
