package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

const slideHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006">
<p:cSld><p:spTree>
<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`

const slideFooter = `</p:spTree></p:cSld></p:sld>`

func textShape(id int, name string, txBox bool, paragraphs ...string) string {
	flag := ""
	if txBox {
		flag = ` txBox="1"`
	}
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<a:p>")
		for _, run := range strings.Split(p, "|") {
			fmt.Fprintf(&body, "<a:r><a:rPr/><a:t>%s</a:t></a:r>", run)
		}
		body.WriteString("</a:p>")
	}
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr%s/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>%s</p:txBody></p:sp>`,
		id, name, flag, body.String())
}

func plainShape(id int, name string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/></p:sp>`, id, name)
}

func picture(id int, name, rid string) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill><a:blip r:embed="%s"/><a:stretch/></p:blipFill><p:spPr/></p:pic>`, id, name, rid)
}

func group(id int, name string, children ...string) string {
	return fmt.Sprintf(`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="%s"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>%s</p:grpSp>`,
		id, name, strings.Join(children, ""))
}

func connector(id int) string {
	return fmt.Sprintf(`<p:cxnSp><p:nvCxnSpPr><p:cNvPr id="%d" name="Connector %d"/><p:cNvCxnSpPr/><p:nvPr/></p:nvCxnSpPr><p:spPr/></p:cxnSp>`, id, id)
}

func alternateContent(choice, fallback string) string {
	return `<mc:AlternateContent><mc:Choice Requires="a14">` + choice + `</mc:Choice><mc:Fallback>` + fallback + `</mc:Fallback></mc:AlternateContent>`
}

type fixtureSlide struct {
	shapes []string
	rels   map[string]string // rId -> media target relative to the slide
}

type fixture struct {
	slides []fixtureSlide
	media  map[string][]byte // path under ppt/media
}

func (f fixture) bytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	write("_rels/.rels", `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
</Relationships>`)

	var ids, presRels strings.Builder
	for i := range f.slides {
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+10)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, i+10, i+1)
	}
	write("ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8"?>
<p:presentation xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:sldIdLst>`+ids.String()+`</p:sldIdLst></p:presentation>`)
	write("ppt/_rels/presentation.xml.rels", `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`+presRels.String()+`</Relationships>`)

	for i, s := range f.slides {
		write(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slideHeader+strings.Join(s.shapes, "")+slideFooter)
		if len(s.rels) == 0 {
			continue
		}
		var rels strings.Builder
		for id, target := range s.rels {
			fmt.Fprintf(&rels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`, id, target)
		}
		write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+rels.String()+`</Relationships>`)
	}
	for name, data := range f.media {
		w, err := zw.Create("ppt/media/" + name)
		if err != nil {
			t.Fatalf("create media %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write media %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func (f fixture) open(t *testing.T, opts ...Option) *Document {
	t.Helper()
	data := f.bytes(t)
	doc, err := NewReader(bytes.NewReader(data), int64(len(data)), opts...)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	return doc
}

func solidImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(c)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solidImage(c), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// deck builds a two-slide presentation: a rich first slide with nested
// groups and a text-only second slide.
func deck(t *testing.T) fixture {
	t.Helper()
	return fixture{
		slides: []fixtureSlide{
			{
				shapes: []string{
					textShape(2, "Title 1", false, "Quarterly |results", "Second line"),
					picture(3, "Picture 2", "rId2"),
					group(4, "Group 3",
						picture(5, "Picture 4", "rId3"),
						group(6, "Group 5", picture(7, "Picture 6", "rId2")),
						textShape(8, "Caption", true, "In group"),
					),
					connector(9),
					plainShape(10, "Rectangle 9"),
					textShape(11, "TextBox 10", true, "   "),
					alternateContent(textShape(12, "Equation", false, "choice"), textShape(12, "Equation", false, "fallback")),
				},
				rels: map[string]string{
					"rId2": "../media/image1.png",
					"rId3": "../media/image2.jpeg",
				},
			},
			{
				shapes: []string{textShape(2, "Title 1", false, "Second slide")},
			},
		},
		media: map[string][]byte{
			"image1.png":  pngBytes(t, color.RGBA{R: 255, A: 255}),
			"image2.jpeg": jpegBytes(t, color.RGBA{B: 255, A: 255}),
		},
	}
}
