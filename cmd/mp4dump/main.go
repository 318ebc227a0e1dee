// Command mp4dump reads an MP4 file and prints its box structure, with the
// timing, track header and edit list fields mp4edit rewrites.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	mp4 "github.com/tetsuo/mp4edit"
)

// Format specifies the output format.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// BoxNode is a box in the tree structure.
type BoxNode struct {
	Type       string         `json:"type"`
	Offset     int            `json:"offset"`
	Size       uint64         `json:"size"`
	Version    *uint8         `json:"version,omitempty"`
	Flags      *uint32        `json:"flags,omitempty"`
	Info       map[string]any `json:"info,omitempty"`
	DataLength *int           `json:"dataLength,omitempty"`
	Children   []BoxNode      `json:"children,omitempty"`
}

func main() {
	formatFlag := flag.String("format", "text", "output format: text (default), json")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [--format=text|json] <file.mp4>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	format, err := parseFormat(*formatFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	buf, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading file: %v\n", err)
		os.Exit(1)
	}

	r := mp4.NewReader(buf)
	if err := printTree(os.Stdout, buildTree(&r), format); err != nil {
		fmt.Fprintf(os.Stderr, "error writing output: %v\n", err)
		os.Exit(1)
	}
}

func parseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	}
	return 0, fmt.Errorf("unknown format: %s", s)
}

func buildTree(r *mp4.Reader) []BoxNode {
	var nodes []BoxNode

	for r.Next() {
		node := BoxNode{
			Type:   r.Type().String(),
			Offset: r.Offset(),
			Size:   r.Size(),
		}

		if mp4.IsFullBox(r.Type()) {
			v := r.Version()
			f := r.Flags()
			node.Version = &v
			node.Flags = &f
		}

		node.Info = collectBoxInfo(r)

		switch {
		case mp4.IsContainerBox(r.Type()):
			if r.Enter() {
				node.Children = buildTree(r)
				r.Exit()
			}
		case r.Type() == mp4.TypeMdat, r.Type() == mp4.TypeFree:
			n := len(r.Data())
			node.DataLength = &n
		}

		nodes = append(nodes, node)
	}

	return nodes
}

func collectBoxInfo(r *mp4.Reader) map[string]any {
	info := make(map[string]any)

	switch r.Type() {
	case mp4.TypeFtyp:
		data := r.Data()
		if len(data) < 8 {
			break
		}
		info["brand"] = string(data[:4])
		info["version"], _ = mp4.ReadUint32(data, 4)
		var compat []string
		for i := 8; i+4 <= len(data); i += 4 {
			compat = append(compat, string(data[i:i+4]))
		}
		if len(compat) > 0 {
			info["compatible"] = compat
		}

	case mp4.TypeMvhd:
		if ts, dur, ok := r.ReadMvhd(); ok {
			info["timescale"] = ts
			info["duration"] = dur
		}

	case mp4.TypeTkhd:
		f, ok := r.ReadTkhd()
		if !ok {
			break
		}
		info["trackId"] = f.TrackID
		info["duration"] = f.Duration
		info["width"] = f.Width >> 16
		info["height"] = f.Height >> 16
		b := r.Box()
		th := mp4.TrackHeader{Offset: b.Offset, DataOffset: b.DataOffset, Size: b.Size}
		info["matrixOffset"] = th.MatrixOffset(r.Bytes())
		if deg, ok := f.Matrix.Degrees(); ok {
			info["rotation"] = deg
		} else {
			info["matrix"] = f.Matrix
		}

	case mp4.TypeMdhd:
		if ts, dur, ok := r.ReadMdhd(); ok {
			info["timescale"] = ts
			info["duration"] = dur
		}

	case mp4.TypeHdlr:
		if ht, ok := r.ReadHdlr(); ok {
			info["handlerType"] = string(ht[:])
			info["name"] = r.ReadHdlrName()
		}

	case mp4.TypeElst:
		entries, ok := r.ReadElst()
		if !ok {
			break
		}
		info["entries"] = len(entries)
		edits := make([]string, len(entries))
		for i, e := range entries {
			edits[i] = fmt.Sprintf("%d@%d/%d", e.SegmentDuration, e.MediaTime, e.MediaRateInteger)
		}
		if len(edits) > 0 {
			info["edits"] = edits
		}

	case mp4.TypeMdat, mp4.TypeFree:

	default:
		if !mp4.IsContainerBox(r.Type()) {
			if len(r.Data()) > 0 {
				info["dataLength"] = len(r.Data())
			}
		}
	}

	return info
}

// printTree prints the tree in the specified format.
func printTree(w io.Writer, nodes []BoxNode, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	default:
		for _, node := range nodes {
			printNodeText(w, node, 0)
		}
	}
	return nil
}

// infoOrder fixes the order in which info fields are printed.
var infoOrder = []struct{ key, label string }{
	{"brand", "brand"},
	{"version", "ver"},
	{"compatible", "compat"},
	{"trackId", "trackId"},
	{"timescale", "timescale"},
	{"duration", "duration"},
	{"width", "width"},
	{"height", "height"},
	{"rotation", "rotation"},
	{"matrix", "matrix"},
	{"matrixOffset", "matrixAt"},
	{"handlerType", "type"},
	{"name", "name"},
	{"entries", "entries"},
	{"edits", "edits"},
	{"dataLength", "dataLen"},
}

// printNodeText prints a single node in text format.
func printNodeText(w io.Writer, node BoxNode, depth int) {
	indent := strings.Repeat("  ", depth)

	fmt.Fprintf(w, "%s[%s] @%d size=%d", indent, node.Type, node.Offset, node.Size)

	if node.Version != nil {
		fmt.Fprintf(w, " v=%d", *node.Version)
	}
	if node.Flags != nil {
		fmt.Fprintf(w, " flags=0x%06x", *node.Flags)
	}

	for _, f := range infoOrder {
		val, ok := node.Info[f.key]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case []string:
			fmt.Fprintf(w, " %s=[%s]", f.label, strings.Join(v, ","))
		case string:
			if f.key == "name" {
				fmt.Fprintf(w, " %s=%q", f.label, v)
			} else {
				fmt.Fprintf(w, " %s=%s", f.label, v)
			}
		default:
			fmt.Fprintf(w, " %s=%v", f.label, v)
		}
	}

	if node.DataLength != nil {
		fmt.Fprintf(w, " dataLen=%d", *node.DataLength)
	}

	fmt.Fprintln(w)

	for _, child := range node.Children {
		printNodeText(w, child, depth+1)
	}
}
