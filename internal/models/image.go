package models

import "encoding/base64"

// Image is an encoded still ready for extraction or upload.
type Image struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// DataURI renders the image as a base64 data URI.
func (i Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Empty reports whether the image carries no payload.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}
