package scene2d

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"
)

const svgMargin = 10.0 // meters around the boundary

// SVGOptions controls rendering.
type SVGOptions struct {
	// Width is the output width in pixels; height follows the aspect ratio.
	Width int
	// Blocks draws individual blocks coloured by adjacency class.
	Blocks bool
}

var zoneFill = map[string]string{
	"water":       "#7fb3e6",
	"forest":      "#6b9e5e",
	"road":        "#b0a89c",
	"steep_slope": "#d8c27a",
}

const defaultZoneFill = "#d87a7a"

var tierFill = map[string]string{
	"large":  "#f2e6a7",
	"medium": "#e8f2a7",
	"small":  "#c6ecd2",
}

var classFill = map[string]string{
	"corner_90":        "#e9a23b",
	"edge_180":         "#f2d06b",
	"inner_corner_270": "#b86bd6",
	"interior":         "#fff6d0",
}

// RenderSVG writes the scene as a standalone SVG document. The y axis is
// flipped so north is up.
func RenderSVG(w io.Writer, sc *Scene2D, opts SVGOptions) error {
	if opts.Width <= 0 {
		opts.Width = 1024
	}
	b := sc.Metadata.Bounds
	vw := b.Width() + 2*svgMargin
	vh := b.Height() + 2*svgMargin
	height := int(float64(opts.Width) * vh / vw)
	if vw <= 0 || height <= 0 {
		height = opts.Width
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="%.3f %.3f %.3f %.3f">`+"\n",
		opts.Width, height, b.MinX-svgMargin, -b.MaxY-svgMargin, vw, vh)
	if sc.Metadata.Name != "" {
		fmt.Fprintf(bw, "<title>%s</title>\n", html.EscapeString(sc.Metadata.Name))
	}

	fmt.Fprintf(bw, `<g id="boundary"><polygon points="%s" fill="#f7f4ea" stroke="#333" stroke-width="0.8"/></g>`+"\n", points(sc.Boundary))

	fmt.Fprintln(bw, `<g id="zones">`)
	for _, z := range sc.Zones {
		fill, ok := zoneFill[z.Kind]
		if !ok {
			fill = defaultZoneFill
		}
		for _, poly := range z.Polygons {
			fmt.Fprintf(bw, `<polygon data-id="%s" data-kind="%s" points="%s" fill="%s" fill-opacity="0.7" stroke="none"/>`+"\n",
				html.EscapeString(z.ID), html.EscapeString(z.Kind), points(poly), fill)
		}
	}
	fmt.Fprintln(bw, `</g>`)

	fmt.Fprintln(bw, `<g id="structures">`)
	for _, st := range sc.Structures {
		fill, ok := tierFill[st.Tier]
		if !ok {
			fill = tierFill["small"]
		}
		fmt.Fprintf(bw, `<g data-id="%s" data-tier="%s">`+"\n", html.EscapeString(st.ID), html.EscapeString(st.Tier))
		fmt.Fprintf(bw, `<polygon points="%s" fill="%s" stroke="#555" stroke-width="0.4"/>`+"\n", points(st.Footprint), fill)
		if opts.Blocks {
			for _, blk := range st.Blocks {
				bf, ok := classFill[blk.Class]
				if !ok {
					bf = fill
				}
				fmt.Fprintf(bw, `<polygon class="%s" points="%s" fill="%s" stroke="#999" stroke-width="0.1"/>`+"\n",
					html.EscapeString(blk.Class), points(blk.Polygon), bf)
			}
		}
		fmt.Fprintf(bw, `<text x="%.2f" y="%.2f" font-size="3" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			st.Center[0], -st.Center[1], html.EscapeString(st.ID))
		fmt.Fprintln(bw, `</g>`)
	}
	fmt.Fprintln(bw, `</g>`)
	fmt.Fprintln(bw, `</svg>`)
	return bw.Flush()
}

func points(coords [][2]float64) string {
	var sb strings.Builder
	for i, p := range coords {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.3f,%.3f", p[0], -p[1])
	}
	return sb.String()
}
