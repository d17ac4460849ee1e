package model

type AssetType string

const (
	AssetImage AssetType = "image"
	AssetVideo AssetType = "video"
)

// Asset - элемент, выбранный пользователем в пикере
type Asset struct {
	Path      string        `json:"path"`
	FileName  string        `json:"fileName"`
	Type      AssetType     `json:"type"`
	Mime      string        `json:"mime"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Size      int64         `json:"size"`
	Thumbnail *ResizeResult `json:"thumbnail,omitempty"`
}

func (a Asset) Descriptor() ImageDescriptor {
	return ImageDescriptor{Path: a.Path, Width: a.Width, Height: a.Height}
}
