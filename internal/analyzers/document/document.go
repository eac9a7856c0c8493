// Package document implements the document analyzer from spec §4.7: PDF,
// RTF, and CHM structural gates, plus OOXML macro-enabled ZIP containers
// (docm/xlsm).
package document

import (
	"os"
	"regexp"
	"strings"

	"github.com/saferun/adaptcore/internal/analyzers/shared"
	"github.com/saferun/adaptcore/internal/byteio"
	"github.com/saferun/adaptcore/internal/parsers/docfmt"
	"github.com/saferun/adaptcore/internal/parsers/ooxmlfmt"
	"github.com/saferun/adaptcore/internal/parsers/zipfmt"
	"github.com/saferun/adaptcore/internal/pipeline"
	"github.com/saferun/adaptcore/internal/textmark"
)

// AdapterID identifies this adapter in AdapterMeta/AdapterSummary output.
const AdapterID = "document_adapter_v1"

var supportedExts = map[string]bool{
	".pdf": true, ".docm": true, ".xlsm": true, ".rtf": true, ".chm": true,
}

var (
	reActiveContent  = regexp.MustCompile(`(?i)(vba|macro|autoOpen|autoRun|javascript)`)
	reEmbeddedObject = regexp.MustCompile(`(?i)(EmbeddedFile|ObjStm|/Object|\bOle\b)`)
	reHTTPSURL       = regexp.MustCompile(`https://[^\s"'<>\)\]]{1,2048}`)
)

const headWindow = 64 * 1024
const tailWindow = 2 * 1024

// Analyze runs the document adapter against req.
func Analyze(req pipeline.Request) pipeline.RunResult {
	if !supportedExts[req.Ext] {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("DOC_UNSUPPORTED_FORMAT", "input extension is not a supported document format"), nil)
		}
		return pipeline.NoOp()
	}

	switch req.Ext {
	case ".pdf":
		return analyzePDF(req)
	case ".rtf":
		return analyzeRTF(req)
	case ".chm":
		return analyzeCHM(req)
	default: // .docm, .xlsm
		return analyzeOOXML(req)
	}
}

func analyzePDF(req pipeline.Request) pipeline.RunResult {
	head, err := byteio.ReadHead(req.Path, headWindow)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("DOC_FORMAT_MISMATCH", "document could not be read", err), nil)
		}
		return pipeline.NoOp()
	}
	tail, err := byteio.ReadTail(req.Path, tailWindow)
	if err != nil {
		tail = nil
	}

	combined := append(append([]byte{}, head...), tail...)
	res := docfmt.ParsePDF(head, combined, tail)

	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("DOC_FORMAT_MISMATCH", "PDF structural gate did not validate"), nil)
	}

	text, _ := textmark.ToBoundedText(combined)
	return finish(req, ".pdf", pipeline.ModeBuiltIn, text, nil, !res.Valid)
}

func analyzeRTF(req pipeline.Request) pipeline.RunResult {
	head, err := byteio.ReadHead(req.Path, headWindow)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("DOC_FORMAT_MISMATCH", "document could not be read", err), nil)
		}
		return pipeline.NoOp()
	}
	tail, err := byteio.ReadTail(req.Path, tailWindow)
	if err != nil {
		tail = nil
	}

	res := docfmt.ParseRTF(head, tail)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("DOC_FORMAT_MISMATCH", "RTF structural gate did not validate"), nil)
	}

	text, _ := textmark.ToBoundedText(head)
	return finish(req, ".rtf", pipeline.ModeBuiltIn, text, nil, !res.Valid)
}

func analyzeCHM(req pipeline.Request) pipeline.RunResult {
	head, err := byteio.ReadHead(req.Path, headWindow)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("DOC_FORMAT_MISMATCH", "document could not be read", err), nil)
		}
		return pipeline.NoOp()
	}
	size, _ := byteio.FileSize(req.Path)

	res := docfmt.ParseCHM(head, size)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("DOC_FORMAT_MISMATCH", "CHM structural gate did not validate"), nil)
	}

	text, _ := textmark.ToBoundedText(head)
	return finish(req, ".chm", pipeline.ModeBuiltIn, text, nil, !res.Valid)
}

func analyzeOOXML(req pipeline.Request) pipeline.RunResult {
	kind := strings.TrimPrefix(req.Ext, ".")

	data, err := os.ReadFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("DOC_FORMAT_MISMATCH", "document could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	res, err := zipfmt.Parse(data)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("DOC_FORMAT_MISMATCH", "document ZIP could not be parsed", err), nil)
		}
		return pipeline.NoOp()
	}

	names := make([]string, 0, len(res.Entries))
	hasEntry := make(map[string]bool, len(res.Entries))
	var relsTextNames []string
	for _, e := range res.Entries {
		names = append(names, e.Name)
		hasEntry[e.Name] = true
		if ooxmlfmt.IsRelsPart(e.Name) {
			relsTextNames = append(relsTextNames, e.Name)
		}
	}

	primaryPart := ooxmlfmt.PrimaryPart(kind)
	formatRels := ooxmlfmt.FormatRelsSuffix(kind)

	structuralOK := hasEntry[ooxmlfmt.ContentTypesPart] &&
		(hasEntry[ooxmlfmt.RootRels] || hasEntry[formatRels]) &&
		hasEntry[primaryPart]

	if req.Strict {
		if res.Partial {
			return pipeline.Fail(pipeline.NewFail("DOC_FORMAT_MISMATCH", "document metadata is incomplete"), nil)
		}
		if shared.HasCaseInsensitiveCollision(names) {
			return pipeline.Fail(pipeline.NewFail("DOC_FORMAT_MISMATCH", "document contains case-colliding entry paths"), nil)
		}
		if !structuralOK {
			return pipeline.Fail(pipeline.NewFail("DOC_FORMAT_MISMATCH", "document is missing required OOXML structural parts"), nil)
		}
	}

	wantTexts := make(map[string]bool, len(relsTextNames)+1)
	for _, n := range relsTextNames {
		wantTexts[n] = true
	}
	wantTexts[primaryPart] = true
	texts := zipfmt.ExtractTexts(data, res.Entries, wantTexts)

	var relsBlobs []string
	var combinedText strings.Builder
	for name, text := range texts {
		combinedText.WriteString(text)
		if ooxmlfmt.IsRelsPart(name) {
			relsBlobs = append(relsBlobs, text)
		}
	}

	externalRelCount := ooxmlfmt.CountExternalRelationships(relsBlobs, pipeline.MaxListItems)
	return finish(req, req.Ext, pipeline.ModeBuiltIn, combinedText.String(), &externalRelCount, !structuralOK)
}

func finish(req pipeline.Request, format string, mode pipeline.Mode, text string, relExternalCount *int, mismatch bool) pipeline.RunResult {
	activeContentCount := int64(textmark.CountMatches(reActiveContent, text, pipeline.MaxListItems))
	embeddedObjectCount := int64(textmark.CountMatches(reEmbeddedObject, text, pipeline.MaxListItems))

	externalLinkCount := int64(len(reHTTPSURL.FindAllString(text, pipeline.MaxListItems)))
	if relExternalCount != nil {
		externalLinkCount += int64(*relExternalCount)
	}

	counts := map[string]int64{
		"activeContentCount":  activeContentCount,
		"embeddedObjectCount": embeddedObjectCount,
		"externalLinkCount":   externalLinkCount,
	}
	reasonCodes := []string{"DOCUMENT_ADAPTER_V1"}

	var markers []string
	if mismatch {
		markers = append(markers, "DOC_STRUCTURAL_PARTIAL")
	}

	var findings []pipeline.Finding
	if activeContentCount > 0 {
		findings = append(findings, pipeline.Finding{Code: "DOC_ACTIVE_CONTENT", Count: activeContentCount})
	}
	if embeddedObjectCount > 0 {
		findings = append(findings, pipeline.Finding{Code: "DOC_EMBEDDED_OBJECT", Count: embeddedObjectCount})
	}

	summary := shared.BuildSummary(AdapterID, "document", format, mode, counts, markers, reasonCodes)
	findingsOut := shared.BuildFindings(AdapterID, "document", findings, markers)
	meta := shared.Meta(AdapterID, format, mode, reasonCodes)

	return pipeline.Ok(reasonCodes, meta, summary, findingsOut, nil)
}
