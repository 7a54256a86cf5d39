package waste

import "errors"

var (
	errNotEnabled       = errors.New("waste classification is not enabled")
	errUnexpectedFormat = errors.New("unexpected response format")
)

// LabelConfidence is one entry of the classifier's probability distribution.
type LabelConfidence struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classification is the interpreted inference result.
type Classification struct {
	Label       string            `json:"label"`
	Confidence  float64           `json:"confidence"` // 0..1 for Label
	Display     string            `json:"display"`    // "plastic (87%)"
	Confidences []LabelConfidence `json:"confidences"`
}
