package model

// ProjectMedia links a lowercase project name fragment to its media.
type ProjectMedia struct {
	Key      string `json:"key" yaml:"key"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	VideoURL string `json:"video_url,omitempty" yaml:"video_url,omitempty"`
}
