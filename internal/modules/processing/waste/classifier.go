package waste

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/ecosphere/core/internal/config"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
)

// Classifier talks to a Gradio-style image classification endpoint. The image
// travels as a base64 data URL inside the request body, matching the hosted
// model's API.
type Classifier struct {
	cfgSvc *appconfigs.Service
	logger *zap.Logger
	client *http.Client
}

func NewClassifier(cfgSvc *appconfigs.Service, logger *zap.Logger) *Classifier {
	return &Classifier{
		cfgSvc: cfgSvc,
		logger: logger,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (cl *Classifier) options() appcfg.InferenceOptions {
	if cl.cfgSvc == nil {
		return appcfg.InferenceOptions{}
	}
	cfg, err := cl.cfgSvc.Get()
	if err != nil || cfg == nil {
		return appcfg.InferenceOptions{}
	}
	return cfg.Inference
}

type predictRequest struct {
	Data []string `json:"data"`
}

type predictResponse struct {
	Data []struct {
		Label       string `json:"label"`
		Confidences []struct {
			Label      string  `json:"label"`
			Confidence float64 `json:"confidence"`
		} `json:"confidences"`
	} `json:"data"`
}

// Classify sends the image to the inference endpoint and interprets the
// result. A response that does not carry the expected label/confidences shape
// yields errUnexpectedFormat.
func (cl *Classifier) Classify(ctx context.Context, dataURL string) (*Classification, error) {
	opts := cl.options()
	if !opts.Enable {
		return nil, errNotEnabled
	}
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, errNotEnabled
	}

	if timeout := time.Duration(opts.TimeoutSeconds) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(predictRequest{Data: []string{dataURL}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/run/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cl.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference endpoint returned status %d", resp.StatusCode)
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errUnexpectedFormat
	}
	return interpret(parsed)
}

// interpret shape-checks the raw inference payload and extracts the top
// confidence for the reported label.
func interpret(parsed predictResponse) (*Classification, error) {
	if len(parsed.Data) == 0 {
		return nil, errUnexpectedFormat
	}
	top := parsed.Data[0]
	label := strings.TrimSpace(top.Label)
	if label == "" || len(top.Confidences) == 0 {
		return nil, errUnexpectedFormat
	}

	result := &Classification{
		Label:       label,
		Confidences: make([]LabelConfidence, 0, len(top.Confidences)),
	}
	for _, c := range top.Confidences {
		result.Confidences = append(result.Confidences, LabelConfidence{
			Label:      strings.TrimSpace(c.Label),
			Confidence: c.Confidence,
		})
		if strings.EqualFold(strings.TrimSpace(c.Label), label) && c.Confidence > result.Confidence {
			result.Confidence = c.Confidence
		}
	}
	result.Display = fmt.Sprintf("%s (%d%%)", label, int(math.Round(result.Confidence*100)))
	return result, nil
}
