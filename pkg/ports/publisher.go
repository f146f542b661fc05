package ports

import "image"

// PublishedFrame is one processed frame offered to live viewers.
type PublishedFrame struct {
	Sequence    int
	TimestampMs int
	JPEG        []byte            // Annotated frame
	Mask        []byte            // Mask as JPEG, nil when not rendered
	Objects     []image.Rectangle // Detected boxes, largest first
}

// Publisher distributes processed frames. Publish must not block the
// session loop; slow consumers miss frames instead.
type Publisher interface {
	Publish(frame PublishedFrame)
}
