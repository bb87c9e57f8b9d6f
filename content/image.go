package content

import "time"

// UploadsPath is the public URL prefix of uploaded images.
const UploadsPath = "/public/uploads/"

// Image is metadata for an uploaded cover or inline image.
type Image struct {
	Filename     string    `db:"filename"`
	OriginalName string    `db:"original_name"`
	Width        int       `db:"width"`
	Height       int       `db:"height"`
	Size         int       `db:"size"`
	UploadedAt   time.Time `db:"-"`
}

// URL returns the public path of the image.
func (img Image) URL() string {
	return UploadsPath + img.Filename
}
