package pptx

import (
	"encoding/xml"
	"path"
	"strings"
)

const (
	relOfficeDoc    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relSlide        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	defaultMainPart = "ppt/presentation.xml"
)

type relationships struct {
	Items []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type presentationXML struct {
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type slideXML struct {
	Tree shapeTree `xml:"cSld>spTree"`
}

type shapeTree struct {
	Nodes []xmlNode `xml:",any"`
}

type nvProps struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"`
}

// xmlNode decodes any element of a shape tree. Only the fields matching its
// element kind are populated.
type xmlNode struct {
	XMLName  xml.Name
	Sp       *nvProps  `xml:"nvSpPr>cNvPr"`
	SpFlags  *spFlags  `xml:"nvSpPr>cNvSpPr"`
	Pic      *nvProps  `xml:"nvPicPr>cNvPr"`
	Grp      *nvProps  `xml:"nvGrpSpPr>cNvPr"`
	Frame    *nvProps  `xml:"nvGraphicFramePr>cNvPr"`
	Cxn      *nvProps  `xml:"nvCxnSpPr>cNvPr"`
	Body     *textBody `xml:"txBody"`
	Blip     *blip     `xml:"blipFill>blip"`
	Children []xmlNode `xml:",any"`
}

type spFlags struct {
	TxBox string `xml:"txBox,attr"`
}

type blip struct {
	Embed string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships embed,attr"`
	Link  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships link,attr"`
}

type textBody struct {
	Paragraphs []paragraph `xml:"p"`
}

type paragraph struct {
	Runs []textRun `xml:",any"`
}

type textRun struct {
	XMLName xml.Name
	T       string `xml:"t"`
}

func (b *textBody) text() string {
	lines := make([]string, 0, len(b.Paragraphs))
	for _, p := range b.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			switch r.XMLName.Local {
			case "r", "fld":
				sb.WriteString(r.T)
			case "br":
				sb.WriteString("\n")
			}
		}
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n")
}

// resolveTarget resolves a relationship target against the part that owns
// the relationship.
func resolveTarget(owner, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(owner), target)
}

// relsPath returns the relationships part for owner, e.g.
// ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels.
func relsPath(owner string) string {
	return path.Join(path.Dir(owner), "_rels", path.Base(owner)+".rels")
}
