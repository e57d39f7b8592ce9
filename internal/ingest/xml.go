package ingest

import (
	"compress/gzip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
)

// ErrParse is returned when the input cannot produce a usable dataset.
var ErrParse = errors.New("parse error")

// Document holds the raw elements read from an OSM file.
type Document struct {
	Bounds    *osm.Bounds
	Nodes     []*osm.Node
	Ways      []*osm.Way
	Relations []*osm.Relation
}

// Stats counts what the reader saw
type Stats struct {
	Nodes     int64
	Ways      int64
	Relations int64
	Invisible int64
	Skipped   int64
}

// XMLReader parses OSM XML documents
type XMLReader struct {
	stats Stats
}

// NewXMLReader creates a new OSM XML reader
func NewXMLReader() *XMLReader {
	return &XMLReader{}
}

// Stats returns parsing statistics
func (r *XMLReader) Stats() Stats {
	return r.stats
}

// ReadFile parses an OSM XML file. Files ending in .gz are decompressed.
func (r *XMLReader) ReadFile(ctx context.Context, filename string) (*Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open OSM file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(filename, ".gz") {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	return r.Read(ctx, reader)
}

// Read parses an OSM XML stream
func (r *XMLReader) Read(ctx context.Context, reader io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(reader)
	doc := &Document{}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: XML parse error: %v", ErrParse, err)
		}

		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "bounds":
			doc.Bounds = r.parseBounds(se)
		case "node":
			node, err := r.parseNode(decoder, se)
			if err != nil {
				return nil, err
			}
			if node != nil {
				doc.Nodes = append(doc.Nodes, node)
			}
		case "way":
			way, err := r.parseWay(decoder, se)
			if err != nil {
				return nil, err
			}
			if way != nil {
				doc.Ways = append(doc.Ways, way)
			}
		case "relation":
			rel, err := r.parseRelation(decoder, se)
			if err != nil {
				return nil, err
			}
			if rel != nil {
				doc.Relations = append(doc.Relations, rel)
			}
		}
	}

	return doc, nil
}

// parseBounds reads the bounds element, returning nil when malformed
func (r *XMLReader) parseBounds(se xml.StartElement) *osm.Bounds {
	b := &osm.Bounds{}
	seen := 0
	for _, attr := range se.Attr {
		v, err := strconv.ParseFloat(attr.Value, 64)
		if err != nil {
			continue
		}
		switch attr.Name.Local {
		case "minlat":
			b.MinLat = v
		case "minlon":
			b.MinLon = v
		case "maxlat":
			b.MaxLat = v
		case "maxlon":
			b.MaxLon = v
		default:
			continue
		}
		seen++
	}
	if seen != 4 {
		r.stats.Skipped++
		return nil
	}
	return b
}

// parseNode reads a node element. Invisible or malformed nodes return nil.
func (r *XMLReader) parseNode(decoder *xml.Decoder, start xml.StartElement) (*osm.Node, error) {
	node := &osm.Node{Visible: true}
	valid := 0

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			if id, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
				node.ID = osm.NodeID(id)
				valid++
			}
		case "lat":
			if lat, err := strconv.ParseFloat(attr.Value, 64); err == nil {
				node.Lat = lat
				valid++
			}
		case "lon":
			if lon, err := strconv.ParseFloat(attr.Value, 64); err == nil {
				node.Lon = lon
				valid++
			}
		case "visible":
			node.Visible = attr.Value != "false"
		}
	}

	tags, err := readTags(decoder, "node")
	if err != nil {
		return nil, err
	}
	node.Tags = tags

	if !node.Visible {
		r.stats.Invisible++
		return nil, nil
	}
	if valid != 3 {
		r.stats.Skipped++
		return nil, nil
	}
	r.stats.Nodes++
	return node, nil
}

// parseWay reads a way element with its nd refs and tags
func (r *XMLReader) parseWay(decoder *xml.Decoder, start xml.StartElement) (*osm.Way, error) {
	way := &osm.Way{Visible: true}
	hasID := false

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "id":
			if id, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
				way.ID = osm.WayID(id)
				hasID = true
			}
		case "visible":
			way.Visible = attr.Value != "false"
		}
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: XML parse error in way %d: %v", ErrParse, way.ID, err)
		}

		switch se := token.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "nd":
				for _, attr := range se.Attr {
					if attr.Name.Local == "ref" {
						if ref, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
							way.Nodes = append(way.Nodes, osm.WayNode{ID: osm.NodeID(ref)})
						}
					}
				}
			case "tag":
				if tag, ok := parseTag(se); ok {
					way.Tags = append(way.Tags, tag)
				}
			}
		case xml.EndElement:
			if se.Name.Local == "way" {
				if !way.Visible {
					r.stats.Invisible++
					return nil, nil
				}
				if !hasID {
					r.stats.Skipped++
					return nil, nil
				}
				r.stats.Ways++
				return way, nil
			}
		}
	}
}

// parseRelation reads a relation element with its members and tags
func (r *XMLReader) parseRelation(decoder *xml.Decoder, start xml.StartElement) (*osm.Relation, error) {
	rel := &osm.Relation{Visible: true}

	for _, attr := range start.Attr {
		if attr.Name.Local == "id" {
			id, _ := strconv.ParseInt(attr.Value, 10, 64)
			rel.ID = osm.RelationID(id)
		}
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: XML parse error in relation %d: %v", ErrParse, rel.ID, err)
		}

		switch se := token.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "member":
				member := osm.Member{}
				for _, attr := range se.Attr {
					switch attr.Name.Local {
					case "type":
						member.Type = osm.Type(attr.Value)
					case "ref":
						ref, _ := strconv.ParseInt(attr.Value, 10, 64)
						member.Ref = ref
					case "role":
						member.Role = attr.Value
					}
				}
				rel.Members = append(rel.Members, member)
			case "tag":
				if tag, ok := parseTag(se); ok {
					rel.Tags = append(rel.Tags, tag)
				}
			}
		case xml.EndElement:
			if se.Name.Local == "relation" {
				r.stats.Relations++
				return rel, nil
			}
		}
	}
}

// readTags collects tag children until the named element closes
func readTags(decoder *xml.Decoder, element string) (osm.Tags, error) {
	var tags osm.Tags
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: XML parse error in %s: %v", ErrParse, element, err)
		}

		switch se := token.(type) {
		case xml.StartElement:
			if se.Name.Local == "tag" {
				if tag, ok := parseTag(se); ok {
					tags = append(tags, tag)
				}
			}
		case xml.EndElement:
			if se.Name.Local == element {
				return tags, nil
			}
		}
	}
}

func parseTag(se xml.StartElement) (osm.Tag, bool) {
	var tag osm.Tag
	for _, attr := range se.Attr {
		switch attr.Name.Local {
		case "k":
			tag.Key = attr.Value
		case "v":
			tag.Value = attr.Value
		}
	}
	return tag, tag.Key != ""
}
