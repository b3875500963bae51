package pyramid

import (
	"encoding/xml"
	"fmt"

	"github.com/cavenel/go-deepzoom/internal/fsops"
)

// The XML namespace carried by DZI and DZC descriptors.
const Namespace = "http://schemas.microsoft.com/deepzoom/2008"

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Descriptor is the metadata record for one pyramid. Levels and tile
// grids are not persisted; a viewer derives them from the dimensions and
// tile size exactly as the builder did.
type Descriptor struct {
	Format   string
	TileSize int
	Overlap  int
	Width    int
	Height   int
}

type xmlSize struct {
	Width  int `xml:"Width,attr"`
	Height int `xml:"Height,attr"`
}

type xmlImage struct {
	XMLName  xml.Name `xml:"Image"`
	Xmlns    string   `xml:"xmlns,attr"`
	Format   string   `xml:"Format,attr"`
	Overlap  int      `xml:"Overlap,attr"`
	TileSize int      `xml:"TileSize,attr"`
	Size     xmlSize  `xml:"Size"`
}

func (d *Descriptor) marshal() ([]byte, error) {
	doc := xmlImage{
		Xmlns:    Namespace,
		Format:   d.Format,
		Overlap:  d.Overlap,
		TileSize: d.TileSize,
		Size:     xmlSize{Width: d.Width, Height: d.Height},
	}
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor: %w", err)
	}
	return append([]byte(xmlHeader), append(body, '\n')...), nil
}

// WriteFile writes the descriptor as a DZI XML file. Callers must only
// do this after Build succeeded, so a descriptor never references tiles
// that were not written.
func (d *Descriptor) WriteFile(path string) error {
	data, err := d.marshal()
	if err != nil {
		return err
	}
	return fsops.AtomicWrite(path, data)
}
