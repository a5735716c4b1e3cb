package webdav

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/zotdav/zotdav/pkg/blob"
)

// Multi-status document structures (RFC 4918 §13).
//
// Element names carry the "D:" prefix literally and the DAV: namespace is
// declared once on the root, which keeps the serialized document byte-stable
// and independent of encoding/xml's namespace handling.

type multistatus struct {
	XMLName   xml.Name      `xml:"D:multistatus"`
	Xmlns     string        `xml:"xmlns:D,attr"`
	Responses []davResponse `xml:"D:response"`
}

type davResponse struct {
	Href     string   `xml:"D:href"`
	Propstat propstat `xml:"D:propstat"`
}

type propstat struct {
	Prop   davProp `xml:"D:prop"`
	Status string  `xml:"D:status"`
}

type davProp struct {
	ResourceType  resourceType `xml:"D:resourcetype"`
	ContentLength *int64       `xml:"D:getcontentlength,omitempty"`
	ETag          string       `xml:"D:getetag,omitempty"`
	LastModified  string       `xml:"D:getlastmodified"`
}

// resourceType is empty for plain objects and contains a collection marker
// for synthesized collections.
type resourceType struct {
	Collection *struct{} `xml:"D:collection,omitempty"`
}

// statusOK is the literal status line every propstat reports: property
// discovery in this gateway never partially fails per resource.
const statusOK = "HTTP/1.1 200 OK"

// collectionResponse builds the response entry for a virtual collection.
//
// Collections have no stored representation, so the modification time is
// whatever "now" the caller passes (the request time).
func (g *Gateway) collectionResponse(key string, now time.Time) davResponse {
	href := g.prefix + key
	if key != "" {
		href += "/"
	}

	return davResponse{
		Href: href,
		Propstat: propstat{
			Prop: davProp{
				ResourceType: resourceType{Collection: &struct{}{}},
				LastModified: now.UTC().Format(http.TimeFormat),
			},
			Status: statusOK,
		},
	}
}

// objectResponse builds the response entry for a stored object.
func (g *Gateway) objectResponse(info *blob.ObjectInfo) davResponse {
	size := info.Size

	return davResponse{
		Href: g.prefix + info.Key,
		Propstat: propstat{
			Prop: davProp{
				ResourceType:  resourceType{},
				ContentLength: &size,
				ETag:          `"` + info.ETag + `"`,
				LastModified:  info.LastModified.UTC().Format(http.TimeFormat),
			},
			Status: statusOK,
		},
	}
}

// writeMultistatus serializes the responses as a 207 multi-status document.
func writeMultistatus(w http.ResponseWriter, responses []davResponse) error {
	doc := multistatus{
		Xmlns:     "DAV:",
		Responses: responses,
	}

	body, err := xml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal multistatus document: %w", err)
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusMultiStatus)

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}
