package dlib

import "github.com/adi-0903/FacePass/internal/domain"

// EncodeRequest for POST /encodings
type EncodeRequest struct {
	Image  string            `json:"image"` // base64 encoded PNG
	Region domain.FaceRegion `json:"region"`
	Model  string            `json:"model"` // "small" or "large"
}

// EncodeResponse from POST /encodings
type EncodeResponse struct {
	Encoding []float64 `json:"encoding"`
}

// LandmarksRequest for POST /landmarks
type LandmarksRequest struct {
	Image  string            `json:"image"`
	Region domain.FaceRegion `json:"region"`
}

// LandmarksResponse from POST /landmarks, keyed by point-group name
// ("left_eye", "right_eye", "nose_bridge", ...).
type LandmarksResponse struct {
	Landmarks map[string][]domain.Point `json:"landmarks"`
}
