package collection

import (
	"encoding/xml"
	"fmt"
	"image"

	"github.com/cavenel/go-deepzoom/internal/fsops"
	"github.com/cavenel/go-deepzoom/internal/pyramid"
)

// Item is one successfully placed entry, recorded in the DZC so a viewer
// can map a visible cell back to its source image and per-image pyramid.
type Item struct {
	Index  int
	Path   string
	Source string
	Width  int // native size of the source image
	Height int
	Rect   image.Rectangle // cell rectangle on the composite canvas
}

// Descriptor is the collection-side counterpart of a pyramid descriptor:
// the composite canvas pyramid plus the ordered placement list.
type Descriptor struct {
	Pyramid  pyramid.Descriptor
	CellSize int
	Items    []Item
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

type xmlSize struct {
	Width  int `xml:"Width,attr"`
	Height int `xml:"Height,attr"`
}

type xmlRect struct {
	X      int `xml:"X,attr"`
	Y      int `xml:"Y,attr"`
	Width  int `xml:"Width,attr"`
	Height int `xml:"Height,attr"`
}

type xmlItem struct {
	XMLName xml.Name `xml:"I"`
	ID      int      `xml:"Id,attr"`
	Name    string   `xml:"N,attr"`
	Source  string   `xml:"Source,attr,omitempty"`
	Size    xmlSize  `xml:"Size"`
	Rect    xmlRect  `xml:"Rect"`
}

type xmlCollection struct {
	XMLName  xml.Name  `xml:"Collection"`
	Xmlns    string    `xml:"xmlns,attr"`
	Format   string    `xml:"Format,attr"`
	Overlap  int       `xml:"Overlap,attr"`
	TileSize int       `xml:"TileSize,attr"`
	CellSize int       `xml:"CellSize,attr"`
	Size     xmlSize   `xml:"Size"`
	Items    []xmlItem `xml:"Items>I"`
}

func (d *Descriptor) marshal() ([]byte, error) {
	doc := xmlCollection{
		Xmlns:    pyramid.Namespace,
		Format:   d.Pyramid.Format,
		Overlap:  d.Pyramid.Overlap,
		TileSize: d.Pyramid.TileSize,
		CellSize: d.CellSize,
		Size:     xmlSize{Width: d.Pyramid.Width, Height: d.Pyramid.Height},
	}
	for _, item := range d.Items {
		doc.Items = append(doc.Items, xmlItem{
			ID:     item.Index,
			Name:   item.Path,
			Source: item.Source,
			Size:   xmlSize{Width: item.Width, Height: item.Height},
			Rect: xmlRect{
				X:      item.Rect.Min.X,
				Y:      item.Rect.Min.Y,
				Width:  item.Rect.Dx(),
				Height: item.Rect.Dy(),
			},
		})
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal collection descriptor: %w", err)
	}
	return append([]byte(xmlHeader), append(body, '\n')...), nil
}

// WriteFile writes the DZC XML file. As with pyramid descriptors, this
// must only happen after every referenced tile exists.
func (d *Descriptor) WriteFile(path string) error {
	data, err := d.marshal()
	if err != nil {
		return err
	}
	return fsops.AtomicWrite(path, data)
}
