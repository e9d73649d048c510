// Package detect forwards uploads to hosted AI-content classifiers and
// parses their label/score predictions.
package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/utils"
)

// Prediction is one label the classifier assigned, with its confidence.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Client calls the image and text inference endpoints.
type Client struct {
	imageURL string
	textURL  string
	token    string
	http     *http.Client
	logger   *zap.Logger
}

func NewClient(cfg config.DetectConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		imageURL: cfg.ImageURL,
		textURL:  cfg.TextURL,
		token:    cfg.Token,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// DetectImage classifies raw image bytes.
func (c *Client) DetectImage(ctx context.Context, data []byte) ([]Prediction, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	return c.call(ctx, "detect image", c.imageURL, base64.StdEncoding.EncodeToString(data))
}

// DetectText classifies a block of text.
func (c *Client) DetectText(ctx context.Context, text string) ([]Prediction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty text")
	}
	return c.call(ctx, "detect text", c.textURL, text)
}

func (c *Client) call(ctx context.Context, op, url, input string) ([]Prediction, error) {
	preds, err := c.post(ctx, url, input)
	if err != nil {
		c.logger.Error("inference call failed", zap.String("op", op), zap.String("url", url), zap.Error(err))
		return nil, utils.Remote(op, err)
	}
	return preds, nil
}

func (c *Client) post(ctx context.Context, url, input string) ([]Prediction, error) {
	body, err := json.Marshal(map[string]string{"inputs": input})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return ParsePredictions(raw)
}

// ParsePredictions accepts a flat array of predictions or an array whose
// first element is that array. An {"error": ...} object is rejected, as are
// empty labels and scores outside [0, 1]. The result is sorted by score,
// highest first.
func ParsePredictions(raw []byte) ([]Prediction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty response")
	}

	var preds []Prediction
	switch raw[0] {
	case '{':
		var e struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if e.Error == "" {
			return nil, errors.New("unexpected object response")
		}
		return nil, fmt.Errorf("endpoint error: %s", e.Error)
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if len(items) == 0 {
			return nil, errors.New("no predictions")
		}
		if first := bytes.TrimSpace(items[0]); len(first) > 0 && first[0] == '[' {
			if err := json.Unmarshal(first, &preds); err != nil {
				return nil, fmt.Errorf("decode predictions: %w", err)
			}
		} else if err := json.Unmarshal(raw, &preds); err != nil {
			return nil, fmt.Errorf("decode predictions: %w", err)
		}
	default:
		return nil, errors.New("unexpected response shape")
	}

	if len(preds) == 0 {
		return nil, errors.New("no predictions")
	}
	for i, p := range preds {
		if p.Label == "" {
			return nil, fmt.Errorf("prediction %d: empty label", i)
		}
		if p.Score < 0 || p.Score > 1 {
			return nil, fmt.Errorf("prediction %d: score %v out of range", i, p.Score)
		}
	}
	sort.SliceStable(preds, func(i, j int) bool { return preds[i].Score > preds[j].Score })
	return preds, nil
}
